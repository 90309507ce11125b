// Package handlers contains the http handlers of the worker status API.
package handlers

import (
	"fmt"
	"net/http"

	"isotpgateway/domain"
	"isotpgateway/helpers"
	"isotpgateway/interfaces"
	"isotpgateway/service"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/labstack/echo/v4"
)

// StatusServer implements ServerInterface on top of the orchestrator's worker registry.
type StatusServer struct {
	registry interfaces.WorkerRegistry
	logger   log.Logger
}

// NewStatusServer creates a new StatusServer. Panics on nil registry or logger.
func NewStatusServer(registry interfaces.WorkerRegistry, logger log.Logger) *StatusServer {
	logger = log.WithPrefix(helpers.NilPanic(logger, "handlers.http.go: logger is required"), "component", "StatusServer")
	return &StatusServer{
		registry: helpers.NilPanic(registry, "handlers.http.go: registry is required"),
		logger:   logger,
	}
}

// ListWorkers (GET /v1/workers) returns every worker sorted by rx ID.
func (h *StatusServer) ListWorkers(ectx echo.Context) error {
	return ectx.JSON(http.StatusOK, toWorkersResponse(h.registry.Statuses()))
}

// GetWorker (GET /v1/workers/{rx_id}) returns one worker. 400 on malformed rx_id, 404 when no worker is bound to it.
func (h *StatusServer) GetWorker(ectx echo.Context, rxId string) error {
	addr, err := fromRxIDParam(rxId)
	if err != nil {
		return err
	}
	status, ok := h.registry.Status(addr)
	if !ok {
		return service.NewEntityNotFoundError(fmt.Sprintf("no worker for %s", domain.FormatAddress(addr)), nil)
	}
	return ectx.JSON(http.StatusOK, toWorkerInfo(status))
}

// RestartWorker (POST /v1/workers/{rx_id}/restart) starts a stopped or failed worker again.
// Returns 200 on success, 400 when the worker is running, 404 for an unknown worker.
func (h *StatusServer) RestartWorker(ectx echo.Context, rxId string) error {
	addr, err := fromRxIDParam(rxId)
	if err != nil {
		return err
	}
	if err := h.registry.Restart(addr); err != nil {
		return fmt.Errorf("restartWorker failed to restart worker %s, err: %w", domain.FormatAddress(addr), err)
	}
	level.Info(h.logger).Log("msg", "worker restart requested", "rx_id", domain.FormatAddress(addr))
	return ectx.NoContent(http.StatusOK)
}
