package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"isotpgateway/domain"
	"isotpgateway/helpers"
	"isotpgateway/interfaces"
	"isotpgateway/service"
)

// maxErrorBody caps how much of a non-200 controller body ends up in an error message.
const maxErrorBody = 256

// ControllerHTTP creates an interfaces.Controller that talks to the UDS controller over HTTP:
// GET baseURL/instances and POST baseURL/uds/{gatewayID}. Panics on empty baseURL or nil client.
//
// Parameters: baseURL: controller base URL (e.g. http://localhost:8888), a trailing slash is trimmed;
// client: HTTP client; timeout: deadline for each call (0 disables the per-call deadline).
//
// Called from cmd/main once at startup; the result is shared read-only by every worker.
func ControllerHTTP(baseURL string, client *http.Client, timeout time.Duration) interfaces.Controller {
	return &controllerHTTP{
		baseURL: strings.TrimRight(helpers.StrPanic(baseURL, "adapters.controller_http.go: baseURL is required"), "/"),
		client:  helpers.NilPanic(client, "adapters.controller_http.go: http client is required"),
		timeout: timeout,
	}
}

type controllerHTTP struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

// instanceRecord is one element of the GET /instances array. Other fields (description, addr) are ignored.
type instanceRecord struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (c *controllerHTTP) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// GetInstances performs GET baseURL/instances and maps the array to domain.Instance in response order.
//
// Returns: ([]domain.Instance, nil) on 200 (a JSON null body yields an empty slice); (nil, *service.GatewayError)
// on transport error, deadline, non-200 status, malformed JSON or an ID that is not 0x-prefixed hex.
func (c *controllerHTTP) GetInstances(ctx context.Context) ([]domain.Instance, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/instances", nil)
	if err != nil {
		return nil, service.NewInternalServerError("build instances request", err)
	}
	body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	var raw []instanceRecord
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, service.NewBadResponseError("decode instances", err)
	}
	out := make([]domain.Instance, 0, len(raw))
	for i, r := range raw {
		addr, err := domain.ParseAddress(r.ID)
		if err != nil {
			return nil, service.NewBadResponseError(fmt.Sprintf("instance %d has invalid id", i), err)
		}
		out = append(out, domain.Instance{ID: r.ID, Name: r.Name, Address: addr})
	}
	return out, nil
}

// Relay performs POST baseURL/uds/{gatewayID} with {"sid","data"} and decodes the reply body.
//
// Returns: (reply, nil) on 200 with valid hex; (zero, *service.GatewayError) otherwise.
func (c *controllerHTTP) Relay(ctx context.Context, gatewayID string, msg domain.DiagnosticMessage) (domain.DiagnosticMessage, error) {
	payload, err := json.Marshal(encodeUDSBody(msg))
	if err != nil {
		return domain.DiagnosticMessage{}, service.NewInternalServerError("encode uds request", err)
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	reqURL := c.baseURL + "/uds/" + url.PathEscape(gatewayID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return domain.DiagnosticMessage{}, service.NewInternalServerError("build uds request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	body, err := c.do(req)
	if err != nil {
		return domain.DiagnosticMessage{}, err
	}
	var raw udsBody
	if err := json.Unmarshal(body, &raw); err != nil {
		return domain.DiagnosticMessage{}, service.NewBadResponseError("decode uds response", err)
	}
	reply, err := decodeUDSBody(raw)
	if err != nil {
		return domain.DiagnosticMessage{}, service.NewBadResponseError("decode uds response", err)
	}
	return reply, nil
}

// do sends req and returns the body of a 200 response. Every failure is returned as a classified GatewayError.
func (c *controllerHTTP) do(req *http.Request) ([]byte, error) {
	op := req.Method + " " + req.URL.Path
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(op, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(op, err)
	}
	if resp.StatusCode != http.StatusOK {
		snippet := strings.TrimSpace(string(body))
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, service.NewControllerError(fmt.Sprintf("%s: controller returned %d", op, resp.StatusCode), errors.New(snippet))
	}
	return body, nil
}

// classifyTransportError separates deadline expiry from genuine transport failures.
func classifyTransportError(op string, err error) *service.GatewayError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return service.NewDeadlineExceededError(op, err)
	}
	return service.NewTransportError(op, err)
}
