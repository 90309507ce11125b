package domain

import (
	"fmt"
	"strings"
	"time"
)

// WorkerState is the lifecycle state of a relay worker.
type WorkerState string

const (
	WorkerStateBound         WorkerState = "bound"
	WorkerStateAwaitingFrame WorkerState = "awaiting_frame"
	WorkerStateTranslating   WorkerState = "translating"
	WorkerStateStopped       WorkerState = "stopped"
	WorkerStateFailed        WorkerState = "failed"
)

// Running reports whether the state belongs to a live worker loop.
func (s WorkerState) Running() bool {
	return s == WorkerStateBound || s == WorkerStateAwaitingFrame || s == WorkerStateTranslating
}

// RelayErrorPolicy decides what a worker does when the HTTP leg of a relay fails.
type RelayErrorPolicy string

const (
	// RelayErrorNegativeResponse answers the tester with 0x7F <sid> 0x10 and keeps relaying.
	RelayErrorNegativeResponse RelayErrorPolicy = "negative_response"
	// RelayErrorDrop logs the failure, transmits nothing and keeps relaying.
	RelayErrorDrop RelayErrorPolicy = "drop"
	// RelayErrorEscalate stops the worker with the error so the orchestrator sees it.
	RelayErrorEscalate RelayErrorPolicy = "escalate"
)

// ParseRelayErrorPolicy validates a policy name from configuration. Empty selects negative_response.
func ParseRelayErrorPolicy(s string) (RelayErrorPolicy, error) {
	switch p := RelayErrorPolicy(strings.TrimSpace(s)); p {
	case "":
		return RelayErrorNegativeResponse, nil
	case RelayErrorNegativeResponse, RelayErrorDrop, RelayErrorEscalate:
		return p, nil
	default:
		return "", fmt.Errorf("relay error policy must be negative_response|drop|escalate, got %q", s)
	}
}

// FlowControl holds the ISO-TP receive flow-control options applied at bind time.
type FlowControl struct {
	STmin     uint8
	BlockSize uint8
	WFTmax    uint8
}

// DefaultFlowControl returns stmin=5, bs=10, wftmax=0.
func DefaultFlowControl() FlowControl {
	return FlowControl{STmin: 5, BlockSize: 10}
}

// Binding is everything needed to open one ISO-TP socket for a worker.
type Binding struct {
	Interface      string
	RxID           uint32
	TxID           uint32
	FlowControl    FlowControl
	ReceiveTimeout time.Duration
}

// WorkerStatus is a point-in-time view of one registered worker.
type WorkerStatus struct {
	RxID      uint32
	TxID      uint32
	Name      string
	State     WorkerState
	Restarts  int
	Relayed   uint64
	LastError string
	StartedAt time.Time
	StoppedAt time.Time
}
