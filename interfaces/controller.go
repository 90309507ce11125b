package interfaces

import (
	"context"

	"isotpgateway/domain"
)

// Controller is the HTTP UDS controller the gateway relays to.
//
// GetInstances lists diagnosable nodes (GET /instances). Relay forwards one diagnostic request
// for a gateway ID (POST /uds/{gatewayID}) and returns the controller's reply.
//
// Implemented by adapters.ControllerHTTP. Called from service.Orchestrator.Discover (GetInstances)
// and from service.RelayWorker for every non-empty bus message (Relay).
//
//go:generate moq -stub -out mock/controller.go -pkg mock . Controller
type Controller interface {
	// GetInstances returns the controller's instances in response order.
	// Returns: ([]Instance, nil) on success (possibly empty); (nil, error) on transport error, non-200 status,
	// malformed JSON or an instance ID that is not 0x-prefixed hex.
	// Called once at startup from service.Orchestrator.Discover.
	GetInstances(ctx context.Context) ([]domain.Instance, error)

	// Relay posts msg for gatewayID ("0x90" style) and returns the decoded reply.
	// Returns: (reply, nil) on success; (zero, *service.GatewayError) with code transport_error, deadline_exceeded,
	// controller_error or bad_response otherwise.
	// Called from service.RelayWorker while translating a received message.
	Relay(ctx context.Context, gatewayID string, msg domain.DiagnosticMessage) (domain.DiagnosticMessage, error)
}
