package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
)

// WorkerInfo is one worker snapshot as served by the status API.
type WorkerInfo struct {
	RxId      string     `json:"rx_id"`
	TxId      string     `json:"tx_id"`
	Name      string     `json:"name"`
	State     string     `json:"state"`
	Restarts  int        `json:"restarts"`
	Relayed   uint64     `json:"relayed"`
	LastError string     `json:"last_error,omitempty"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	StoppedAt *time.Time `json:"stopped_at,omitempty"`
}

// WorkersResponse is the body of GET /v1/workers.
type WorkersResponse struct {
	Workers []WorkerInfo `json:"workers"`
}

// ServerInterface represents all server handlers of api/status.openapi.yaml.
type ServerInterface interface {
	// ListWorkers (GET /v1/workers)
	ListWorkers(ctx echo.Context) error
	// GetWorker (GET /v1/workers/{rx_id})
	GetWorker(ctx echo.Context, rxId string) error
	// RestartWorker (POST /v1/workers/{rx_id}/restart)
	RestartWorker(ctx echo.Context, rxId string) error
}

// ServerInterfaceWrapper converts echo contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

// ListWorkers converts echo context to params.
func (w *ServerInterfaceWrapper) ListWorkers(ctx echo.Context) error {
	return w.Handler.ListWorkers(ctx)
}

// GetWorker converts echo context to params.
func (w *ServerInterfaceWrapper) GetWorker(ctx echo.Context) error {
	rxId, err := bindRxID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.GetWorker(ctx, rxId)
}

// RestartWorker converts echo context to params.
func (w *ServerInterfaceWrapper) RestartWorker(ctx echo.Context) error {
	rxId, err := bindRxID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.RestartWorker(ctx, rxId)
}

func bindRxID(ctx echo.Context) (string, error) {
	var rxId string
	err := runtime.BindStyledParameterWithOptions("simple", "rx_id", ctx.Param("rx_id"), &rxId,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter rx_id: %s", err)).SetInternal(err)
	}
	return rxId, nil
}

// EchoRouter is the subset of echo.Echo / echo.Group used for registration.
type EchoRouter interface {
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// RegisterHandlers adds each server route to the EchoRouter.
func RegisterHandlers(router EchoRouter, si ServerInterface) {
	RegisterHandlersWithBaseURL(router, si, "")
}

// RegisterHandlersWithBaseURL registers the handlers, prefixing every path with baseURL.
func RegisterHandlersWithBaseURL(router EchoRouter, si ServerInterface, baseURL string) {
	wrapper := ServerInterfaceWrapper{Handler: si}

	router.GET(baseURL+"/v1/workers", wrapper.ListWorkers)
	router.GET(baseURL+"/v1/workers/:rx_id", wrapper.GetWorker)
	router.POST(baseURL+"/v1/workers/:rx_id/restart", wrapper.RestartWorker)
}
