package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"isotpgateway/domain"
	"isotpgateway/helpers"
	"isotpgateway/interfaces"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// RelayWorkerConfig is the fixed configuration of one worker.
type RelayWorkerConfig struct {
	// Binding is the socket target; RxID/TxID never change for the worker's lifetime.
	Binding domain.Binding
	// Name is the controller's instance name, used for logging only.
	Name string
	// IdleBackoff is the pause after an empty receive.
	IdleBackoff time.Duration
	// RebindBackoff is the pause between closing a failed socket (or a failed bind) and the next bind.
	RebindBackoff time.Duration
	// ErrorPolicy decides what happens when the HTTP leg of a relay fails.
	ErrorPolicy domain.RelayErrorPolicy
}

// RelayWorker relays diagnostic messages between one ISO-TP address pair and the controller.
// It owns its socket exclusively; the controller is shared read-only with other workers.
type RelayWorker struct {
	cfg        RelayWorkerConfig
	gatewayID  string
	controller interfaces.Controller
	opener     interfaces.SocketOpener
	logger     log.Logger
	wait       func(ctx context.Context, d time.Duration) error

	mu      sync.Mutex
	state   domain.WorkerState
	relayed uint64
	lastErr error
}

// NewRelayWorker creates a worker in the stopped state. Panics on nil controller, opener or logger.
//
// Parameters: cfg: binding and backoffs; controller: relay target (adapters.ControllerHTTP);
// opener: socket factory (adapters.ISOTPSocketOpener); logger: base logger, rx_id/tx_id are added.
//
// Called from Orchestrator.Discover for every qualifying instance.
func NewRelayWorker(cfg RelayWorkerConfig, controller interfaces.Controller, opener interfaces.SocketOpener, logger log.Logger) *RelayWorker {
	gatewayID := domain.FormatAddress(cfg.Binding.RxID)
	return &RelayWorker{
		cfg:        cfg,
		gatewayID:  gatewayID,
		controller: helpers.NilPanic(controller, "service.relay_worker.go: controller is required"),
		opener:     helpers.NilPanic(opener, "service.relay_worker.go: socket opener is required"),
		logger: log.With(helpers.NilPanic(logger, "service.relay_worker.go: logger is required"),
			"component", "relay_worker",
			"rx_id", gatewayID,
			"tx_id", domain.FormatAddress(cfg.Binding.TxID),
		),
		wait:  helpers.SleepContext,
		state: domain.WorkerStateStopped,
	}
}

// GatewayID returns the controller route key of this worker ("0x90" style).
func (w *RelayWorker) GatewayID() string {
	return w.gatewayID
}

// Binding returns the worker's socket binding.
func (w *RelayWorker) Binding() domain.Binding {
	return w.cfg.Binding
}

// Snapshot returns the current state, number of replies transmitted and the last error seen.
func (w *RelayWorker) Snapshot() (domain.WorkerState, uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state, w.relayed, w.lastErr
}

func (w *RelayWorker) setState(s domain.WorkerState) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}

func (w *RelayWorker) recordError(err error) {
	w.mu.Lock()
	w.lastErr = err
	w.mu.Unlock()
}

func (w *RelayWorker) recordRelayed() {
	w.mu.Lock()
	w.relayed++
	w.mu.Unlock()
}

// Run binds the socket and relays until ctx is cancelled or the escalate policy stops the worker.
//
// Transport errors on receive or send close the socket and rebind to the same addresses after RebindBackoff.
// Receive timeouts only re-check ctx. Empty receives wait IdleBackoff and never reach the controller.
//
// Returns: nil when ctx ended (state stopped); the relay error under RelayErrorEscalate (state failed).
//
// Called from Orchestrator in one goroutine per worker; must not be called concurrently on the same worker.
func (w *RelayWorker) Run(ctx context.Context) (err error) {
	var sock interfaces.BusSocket
	closeSocket := func() {
		if sock == nil {
			return
		}
		if cerr := sock.Close(); cerr != nil {
			level.Debug(w.logger).Log("msg", "socket close failed", "err", cerr)
		}
		sock = nil
	}
	defer func() {
		closeSocket()
		if err != nil {
			w.recordError(err)
			w.setState(domain.WorkerStateFailed)
			return
		}
		w.setState(domain.WorkerStateStopped)
	}()

	level.Info(w.logger).Log("msg", "worker started", "name", w.cfg.Name, "interface", w.cfg.Binding.Interface)
	for {
		if ctx.Err() != nil {
			return nil
		}
		if sock == nil {
			w.setState(domain.WorkerStateBound)
			opened, openErr := w.opener.Open(w.cfg.Binding)
			if openErr != nil {
				w.recordError(openErr)
				level.Warn(w.logger).Log("msg", "socket bind failed", "err", openErr)
				if w.wait(ctx, w.cfg.RebindBackoff) != nil {
					return nil
				}
				continue
			}
			sock = opened
		}

		w.setState(domain.WorkerStateAwaitingFrame)
		data, recvErr := sock.Recv()
		switch {
		case errors.Is(recvErr, interfaces.ErrReceiveTimeout):
			continue
		case recvErr != nil:
			w.recordError(recvErr)
			level.Warn(w.logger).Log("msg", "socket receive failed, rebinding", "err", recvErr)
			closeSocket()
			if w.wait(ctx, w.cfg.RebindBackoff) != nil {
				return nil
			}
			continue
		case len(data) == 0:
			if w.wait(ctx, w.cfg.IdleBackoff) != nil {
				return nil
			}
			continue
		}

		w.setState(domain.WorkerStateTranslating)
		reply, relayErr := w.translate(ctx, data)
		if relayErr != nil {
			if ctx.Err() != nil {
				return nil
			}
			reply, relayErr = w.applyErrorPolicy(data[0], relayErr)
			if relayErr != nil {
				return relayErr
			}
		}
		if reply == nil {
			continue
		}
		if sendErr := sock.Send(reply); sendErr != nil {
			w.recordError(sendErr)
			level.Warn(w.logger).Log("msg", "socket send failed, rebinding", "err", sendErr)
			closeSocket()
			if w.wait(ctx, w.cfg.RebindBackoff) != nil {
				return nil
			}
			continue
		}
		w.recordRelayed()
	}
}

// translate performs the HTTP round trip for one received message and returns the bytes to transmit.
func (w *RelayWorker) translate(ctx context.Context, data []byte) ([]byte, error) {
	req, err := domain.ParseDiagnosticMessage(data)
	if err != nil {
		return nil, NewBadParameterError("parse bus message", err)
	}
	level.Debug(w.logger).Log("msg", "relaying request", "sid", req.SID, "len", len(data))
	reply, err := w.controller.Relay(ctx, w.gatewayID, req)
	if err != nil {
		return nil, err
	}
	return reply.Bytes(), nil
}

// applyErrorPolicy maps a relay failure to the bytes to transmit (nil for none) or to a terminal error.
func (w *RelayWorker) applyErrorPolicy(requestSID byte, relayErr error) ([]byte, error) {
	w.recordError(relayErr)
	logger := log.With(w.logger, "sid", requestSID, "code", ToGatewayErrorCode(relayErr), "err", relayErr)
	switch w.cfg.ErrorPolicy {
	case domain.RelayErrorDrop:
		level.Warn(logger).Log("msg", "relay failed, request dropped")
		return nil, nil
	case domain.RelayErrorEscalate:
		level.Error(logger).Log("msg", "relay failed, stopping worker")
		return nil, relayErr
	default:
		level.Warn(logger).Log("msg", "relay failed, sending negative response")
		return domain.NegativeResponse(requestSID).Bytes(), nil
	}
}
