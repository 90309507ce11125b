package service

import (
	"errors"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/labstack/echo/v4"
)

// RegisterErrorHandler installs the GatewayError-aware error handler on the status API server.
func RegisterErrorHandler(e *echo.Echo, logger log.Logger) {
	e.HTTPErrorHandler = NewHTTPErrorHandler(NewErrorCodeToStatusCodeMaps(), logger).Handler
}

// NewErrorCodeToStatusCodeMaps creates an error code to http status mapping.
func NewErrorCodeToStatusCodeMaps() map[string]int {
	return map[string]int{
		ErrBadParameter:        http.StatusBadRequest,
		ErrEntityNotFound:      http.StatusNotFound,
		ErrInternalServerError: http.StatusInternalServerError,
		ErrTransport:           http.StatusBadGateway,
		ErrController:          http.StatusBadGateway,
		ErrBadResponse:         http.StatusBadGateway,
		ErrDeadlineExceeded:    http.StatusGatewayTimeout,
	}
}

// HTTPErrorHandler renders handler errors as {"error": GatewayError}.
type HTTPErrorHandler struct {
	errorCodeToHTTPStatusCodeMap map[string]int
	logger                       log.Logger
}

// NewHTTPErrorHandler creates a new instance of the HTTPErrorHandler.
func NewHTTPErrorHandler(errorCodeToStatusCodeMaps map[string]int, logger log.Logger) *HTTPErrorHandler {
	return &HTTPErrorHandler{
		errorCodeToHTTPStatusCodeMap: errorCodeToStatusCodeMaps,
		logger:                       logger,
	}
}

func (h *HTTPErrorHandler) getStatusCode(errorCode string) int {
	if status, ok := h.errorCodeToHTTPStatusCodeMap[errorCode]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// codeForStatus picks the error code reported for a bare echo.HTTPError (routing and validation failures).
func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return ErrBadParameter
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return ErrEntityNotFound
	default:
		return ErrInternalServerError
	}
}

// Handler handles error returned by echo Handlers.
func (h *HTTPErrorHandler) Handler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	gwErr := ToGatewayError(err)
	if gwErr == nil {
		gwErr = NewGatewayError(ErrInternalServerError, "an internal error has occurred", err)
	}

	var statusCode int
	var he *echo.HTTPError
	if errors.As(err, &he) {
		codeStr := codeForStatus(he.Code)
		if he.Internal != nil {
			if inner, ok := he.Internal.(*echo.HTTPError); ok {
				he = inner
			}
			var requestError *openapi3filter.RequestError
			if errors.As(he.Internal, &requestError) {
				codeStr = ErrBadParameter
			}
		}
		m, _ := he.Message.(string)
		gwErr = NewGatewayError(codeStr, m, err)
		statusCode = he.Code
	} else {
		statusCode = h.getStatusCode(gwErr.Code)
	}

	level.Error(h.logger).Log(
		"msg", "status API request error",
		"method", c.Request().Method,
		"path", c.Request().URL.Path,
		"err", err,
	)

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(statusCode)
		return
	}
	_ = c.JSON(statusCode, ErrResponse{Error: gwErr})
}

// ErrResponse from server.
type ErrResponse struct {
	Error *GatewayError `json:"error,omitempty"`
}
