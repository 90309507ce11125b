package interfaces

import "isotpgateway/domain"

// WorkerRegistry exposes the orchestrator's workers to the status API.
//
// Implemented by service.Orchestrator. Called from handlers.StatusServer.
//
//go:generate moq -stub -out mock/worker_registry.go -pkg mock . WorkerRegistry
type WorkerRegistry interface {
	// Statuses returns a snapshot of every registered worker sorted by rx ID.
	Statuses() []domain.WorkerStatus

	// Status returns the snapshot of the worker bound to rxID; false when no such worker is registered.
	Status(rxID uint32) (domain.WorkerStatus, bool)

	// Restart starts a stopped or failed worker again.
	// Returns: nil on success; entity_not_found for an unknown rxID; bad_parameter when the worker is running;
	// internal_server_error when the orchestrator is no longer running.
	Restart(rxID uint32) error
}
