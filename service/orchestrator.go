package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"isotpgateway/domain"
	"isotpgateway/helpers"
	"isotpgateway/interfaces"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// ErrOrchestratorRunning is returned by Run when it is already running or has already finished.
var ErrOrchestratorRunning = errors.New("orchestrator already started")

// OrchestratorConfig holds the settings shared by every worker.
type OrchestratorConfig struct {
	Interface string
	TxID      uint32
	// FlowControl applies to every worker unless FlowControlOverrides has an entry for its rx ID.
	FlowControl          domain.FlowControl
	FlowControlOverrides map[uint32]domain.FlowControl
	ReceiveTimeout       time.Duration
	IdleBackoff          time.Duration
	RebindBackoff        time.Duration
	ErrorPolicy          domain.RelayErrorPolicy
	// RestartOnFailure restarts a worker that stopped with an error after RestartDelay.
	RestartOnFailure bool
	RestartDelay     time.Duration
	// KeepRunning keeps Run blocked until ctx is done even after every worker has exited,
	// so stopped workers can still be started through Restart.
	KeepRunning bool
}

// Orchestrator owns the worker registry: it discovers instances once, runs one goroutine per worker,
// observes each worker's exit on a completion channel and applies the restart policy.
type Orchestrator struct {
	cfg        OrchestratorConfig
	controller interfaces.Controller
	opener     interfaces.SocketOpener
	clock      interfaces.TimeProvider
	logger     log.Logger

	exits    chan workerExit
	restarts chan uint32

	mu       sync.Mutex
	workers  map[uint32]*workerEntry
	runCtx   context.Context
	finished bool
	running  int
	pending  int
}

type workerEntry struct {
	instance  domain.Instance
	worker    *RelayWorker
	running   bool
	restarts  int
	lastErr   error
	startedAt time.Time
	stoppedAt time.Time
}

type workerExit struct {
	rxID uint32
	err  error
}

// NewOrchestrator creates an empty registry. Panics on nil controller, opener, clock or logger.
//
// Called from cmd/main after configuration is loaded.
func NewOrchestrator(
	cfg OrchestratorConfig,
	controller interfaces.Controller,
	opener interfaces.SocketOpener,
	clock interfaces.TimeProvider,
	logger log.Logger,
) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		controller: helpers.NilPanic(controller, "service.orchestrator.go: controller is required"),
		opener:     helpers.NilPanic(opener, "service.orchestrator.go: socket opener is required"),
		clock:      helpers.NilPanic(clock, "service.orchestrator.go: clock is required"),
		logger:     log.With(helpers.NilPanic(logger, "service.orchestrator.go: logger is required"), "component", "orchestrator"),
		exits:      make(chan workerExit),
		restarts:   make(chan uint32),
		workers:    make(map[uint32]*workerEntry),
	}
}

// Discover fetches the controller's instances once and registers one worker per instance whose
// address is at most 0xFF, bound to (address, configured txid). Instances above 0xFF and duplicate
// addresses are skipped and logged.
//
// Returns: (registered instances in response order, nil); (nil, error) when the controller call fails,
// in which case nothing is registered.
//
// Called once from cmd/main before Run; a failure is fatal for the process.
func (o *Orchestrator) Discover(ctx context.Context) ([]domain.Instance, error) {
	instances, err := o.controller.GetInstances(ctx)
	if err != nil {
		return nil, fmt.Errorf("discover instances: %w", err)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	registered := make([]domain.Instance, 0, len(instances))
	for _, inst := range instances {
		if !inst.InSingleByteRange() {
			level.Info(o.logger).Log("msg", "skipping instance outside single-byte range", "id", inst.ID, "name", inst.Name)
			continue
		}
		if existing, ok := o.workers[inst.Address]; ok {
			level.Warn(o.logger).Log("msg", "skipping duplicate instance address", "id", inst.ID, "name", inst.Name, "registered_name", existing.instance.Name)
			continue
		}
		worker := NewRelayWorker(o.workerConfig(inst), o.controller, o.opener, o.logger)
		o.workers[inst.Address] = &workerEntry{instance: inst, worker: worker}
		registered = append(registered, inst)
		level.Info(o.logger).Log(
			"msg", "registered worker",
			"id", inst.ID,
			"name", inst.Name,
			"rx_id", domain.FormatAddress(inst.Address),
			"tx_id", domain.FormatAddress(o.cfg.TxID),
		)
	}
	return registered, nil
}

func (o *Orchestrator) workerConfig(inst domain.Instance) RelayWorkerConfig {
	fc := o.cfg.FlowControl
	if override, ok := o.cfg.FlowControlOverrides[inst.Address]; ok {
		fc = override
	}
	return RelayWorkerConfig{
		Binding: domain.Binding{
			Interface:      o.cfg.Interface,
			RxID:           inst.Address,
			TxID:           o.cfg.TxID,
			FlowControl:    fc,
			ReceiveTimeout: o.cfg.ReceiveTimeout,
		},
		Name:          inst.Name,
		IdleBackoff:   o.cfg.IdleBackoff,
		RebindBackoff: o.cfg.RebindBackoff,
		ErrorPolicy:   o.cfg.ErrorPolicy,
	}
}

// Run starts every registered worker and blocks until ctx is cancelled and all workers have exited.
// Without KeepRunning it also returns as soon as every worker has exited with no restart pending.
//
// Returns: nil on normal completion; ErrOrchestratorRunning when called more than once.
//
// Called from cmd/main after Discover.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.mu.Lock()
	if o.runCtx != nil {
		o.mu.Unlock()
		return ErrOrchestratorRunning
	}
	o.runCtx = ctx
	for _, rxID := range o.sortedIDsLocked() {
		o.startLocked(rxID)
	}
	o.mu.Unlock()

	for {
		o.mu.Lock()
		if o.running == 0 && o.pending == 0 && (!o.cfg.KeepRunning || ctx.Err() != nil) {
			o.finished = true
			o.mu.Unlock()
			level.Info(o.logger).Log("msg", "all workers exited")
			return nil
		}
		o.mu.Unlock()

		var cancelled <-chan struct{}
		if o.cfg.KeepRunning && ctx.Err() == nil {
			cancelled = ctx.Done()
		}
		select {
		case <-cancelled:
		case exit := <-o.exits:
			o.handleExit(ctx, exit)
		case rxID := <-o.restarts:
			o.mu.Lock()
			o.pending--
			// A manual Restart during the delay already started the worker.
			if ctx.Err() == nil && !o.workers[rxID].running {
				o.startLocked(rxID)
			}
			o.mu.Unlock()
		}
	}
}

// startLocked launches the worker goroutine for rxID. Caller must hold o.mu.
func (o *Orchestrator) startLocked(rxID uint32) {
	entry := o.workers[rxID]
	entry.running = true
	entry.startedAt = o.clock.Now()
	entry.stoppedAt = time.Time{}
	o.running++
	ctx := o.runCtx
	go func() {
		err := entry.worker.Run(ctx)
		o.exits <- workerExit{rxID: rxID, err: err}
	}()
}

func (o *Orchestrator) handleExit(ctx context.Context, exit workerExit) {
	o.mu.Lock()
	defer o.mu.Unlock()
	entry := o.workers[exit.rxID]
	entry.running = false
	entry.stoppedAt = o.clock.Now()
	entry.lastErr = exit.err
	o.running--

	logger := log.With(o.logger, "rx_id", domain.FormatAddress(exit.rxID), "name", entry.instance.Name)
	if exit.err == nil {
		level.Info(logger).Log("msg", "worker stopped")
		return
	}
	if !o.cfg.RestartOnFailure || ctx.Err() != nil {
		level.Error(logger).Log("msg", "worker terminated", "err", exit.err)
		return
	}
	entry.restarts++
	o.pending++
	level.Error(logger).Log("msg", "worker terminated, restarting", "err", exit.err, "delay", o.cfg.RestartDelay, "restarts", entry.restarts)
	go func() {
		_ = helpers.SleepContext(ctx, o.cfg.RestartDelay)
		o.restarts <- exit.rxID
	}()
}

// Restart starts a stopped or failed worker again while the orchestrator is running.
//
// Returns: nil on success; entity_not_found for an unknown rxID; bad_parameter when the worker is running;
// internal_server_error when Run has not started, has finished or its context is done.
//
// Called from handlers.StatusServer (POST /v1/workers/{rx_id}/restart).
func (o *Orchestrator) Restart(rxID uint32) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	entry, ok := o.workers[rxID]
	if !ok {
		return NewEntityNotFoundError(fmt.Sprintf("no worker for %s", domain.FormatAddress(rxID)), nil)
	}
	if o.runCtx == nil || o.finished || o.runCtx.Err() != nil {
		return NewInternalServerError("orchestrator is not running", nil)
	}
	if entry.running {
		return NewBadParameterError(fmt.Sprintf("worker %s is running", domain.FormatAddress(rxID)), nil)
	}
	entry.restarts++
	o.startLocked(rxID)
	level.Info(o.logger).Log("msg", "worker restarted on request", "rx_id", domain.FormatAddress(rxID))
	return nil
}

// Statuses returns a snapshot of every registered worker sorted by rx ID.
func (o *Orchestrator) Statuses() []domain.WorkerStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	ids := o.sortedIDsLocked()
	out := make([]domain.WorkerStatus, 0, len(ids))
	for _, rxID := range ids {
		out = append(out, o.statusLocked(rxID))
	}
	return out
}

// Status returns the snapshot of the worker bound to rxID.
func (o *Orchestrator) Status(rxID uint32) (domain.WorkerStatus, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.workers[rxID]; !ok {
		return domain.WorkerStatus{}, false
	}
	return o.statusLocked(rxID), true
}

func (o *Orchestrator) statusLocked(rxID uint32) domain.WorkerStatus {
	entry := o.workers[rxID]
	state, relayed, workerErr := entry.worker.Snapshot()
	if entry.running && !state.Running() {
		// Goroutine scheduled but the loop has not bound a socket yet.
		state = domain.WorkerStateBound
	}
	lastErr := entry.lastErr
	if lastErr == nil {
		lastErr = workerErr
	}
	status := domain.WorkerStatus{
		RxID:      rxID,
		TxID:      entry.worker.Binding().TxID,
		Name:      entry.instance.Name,
		State:     state,
		Restarts:  entry.restarts,
		Relayed:   relayed,
		StartedAt: entry.startedAt,
		StoppedAt: entry.stoppedAt,
	}
	if lastErr != nil {
		status.LastError = lastErr.Error()
	}
	return status
}

func (o *Orchestrator) sortedIDsLocked() []uint32 {
	ids := make([]uint32, 0, len(o.workers))
	for rxID := range o.workers {
		ids = append(ids, rxID)
	}
	slices.Sort(ids)
	return ids
}
