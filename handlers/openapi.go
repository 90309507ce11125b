package handlers

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"github.com/labstack/echo/v4"
)

//go:embed api/status.openapi.yaml
var statusOpenAPI []byte

// LoadSwagger parses the embedded status API document.
func LoadSwagger() (*openapi3.T, error) {
	doc, err := openapi3.NewLoader().LoadFromData(statusOpenAPI)
	if err != nil {
		return nil, fmt.Errorf("load status openapi document: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("validate status openapi document: %w", err)
	}
	return doc, nil
}

// NewRequestValidator returns middleware that rejects requests not described by the status API document.
// Unknown paths become 404, unknown methods 405 and invalid parameters 400 carrying the openapi3filter.RequestError.
func NewRequestValidator() (echo.MiddlewareFunc, error) {
	doc, err := LoadSwagger()
	if err != nil {
		return nil, err
	}
	doc.Servers = nil
	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build status openapi router: %w", err)
	}
	options := &openapi3filter.Options{AuthenticationFunc: openapi3filter.NoopAuthenticationFunc}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			route, pathParams, err := router.FindRoute(req)
			if err != nil {
				if errors.Is(err, routers.ErrMethodNotAllowed) {
					return echo.NewHTTPError(http.StatusMethodNotAllowed, "method not allowed").SetInternal(err)
				}
				return echo.NewHTTPError(http.StatusNotFound, "no such route").SetInternal(err)
			}
			input := &openapi3filter.RequestValidationInput{
				Request:    req,
				PathParams: pathParams,
				Route:      route,
				Options:    options,
			}
			if err := openapi3filter.ValidateRequest(req.Context(), input); err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "request does not match the status API").SetInternal(err)
			}
			return next(c)
		}
	}, nil
}
