package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"isotpgateway/domain"
	"isotpgateway/interfaces"
	"isotpgateway/interfaces/mock"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recvStep struct {
	data []byte
	err  error
}

// scriptedSocket returns a socket that replays steps in order and then cancels the test context,
// reporting receive timeouts from then on.
func scriptedSocket(cancel context.CancelFunc, steps ...recvStep) *mock.BusSocketMock {
	var mu sync.Mutex
	next := 0
	return &mock.BusSocketMock{
		RecvFunc: func() ([]byte, error) {
			mu.Lock()
			defer mu.Unlock()
			if next >= len(steps) {
				cancel()
				return nil, interfaces.ErrReceiveTimeout
			}
			step := steps[next]
			next++
			return step.data, step.err
		},
	}
}

func openerFor(sockets ...interfaces.BusSocket) *mock.SocketOpenerMock {
	var mu sync.Mutex
	next := 0
	return &mock.SocketOpenerMock{
		OpenFunc: func(binding domain.Binding) (interfaces.BusSocket, error) {
			mu.Lock()
			defer mu.Unlock()
			if next >= len(sockets) {
				return nil, errors.New("no more sockets")
			}
			s := sockets[next]
			next++
			return s, nil
		},
	}
}

func testBinding() domain.Binding {
	return domain.Binding{
		Interface:      "vcan0",
		RxID:           0x90,
		TxID:           0x0A,
		FlowControl:    domain.DefaultFlowControl(),
		ReceiveTimeout: 10 * time.Millisecond,
	}
}

func newTestWorker(policy domain.RelayErrorPolicy, ctrl interfaces.Controller, opener interfaces.SocketOpener) *RelayWorker {
	return NewRelayWorker(RelayWorkerConfig{
		Binding:     testBinding(),
		Name:        "ECU1",
		ErrorPolicy: policy,
	}, ctrl, opener, log.NewNopLogger())
}

func echoController(reply domain.DiagnosticMessage) *mock.ControllerMock {
	return &mock.ControllerMock{
		RelayFunc: func(ctx context.Context, gatewayID string, msg domain.DiagnosticMessage) (domain.DiagnosticMessage, error) {
			return reply, nil
		},
	}
}

func TestNewRelayWorker_Panics(t *testing.T) {
	cfg := RelayWorkerConfig{Binding: testBinding()}
	t.Run("controller_nil", func(t *testing.T) {
		assert.PanicsWithValue(t, "service.relay_worker.go: controller is required", func() {
			NewRelayWorker(cfg, nil, &mock.SocketOpenerMock{}, log.NewNopLogger())
		})
	})
	t.Run("opener_nil", func(t *testing.T) {
		assert.PanicsWithValue(t, "service.relay_worker.go: socket opener is required", func() {
			NewRelayWorker(cfg, &mock.ControllerMock{}, nil, log.NewNopLogger())
		})
	})
	t.Run("logger_nil", func(t *testing.T) {
		assert.PanicsWithValue(t, "service.relay_worker.go: logger is required", func() {
			NewRelayWorker(cfg, &mock.ControllerMock{}, &mock.SocketOpenerMock{}, nil)
		})
	})
}

func TestRelayWorker_GatewayID(t *testing.T) {
	w := newTestWorker(domain.RelayErrorDrop, &mock.ControllerMock{}, &mock.SocketOpenerMock{})
	assert.Equal(t, "0x90", w.GatewayID())
	state, relayed, err := w.Snapshot()
	assert.Equal(t, domain.WorkerStateStopped, state)
	assert.Zero(t, relayed)
	assert.NoError(t, err)
}

func TestRelayWorker_RelaysFrame(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sock := scriptedSocket(cancel, recvStep{data: []byte{0x22, 0xAB, 0xCD}})
	opener := openerFor(sock)
	ctrl := echoController(domain.DiagnosticMessage{SID: 0x62, Payload: []byte{0xAB}})

	w := newTestWorker(domain.RelayErrorNegativeResponse, ctrl, opener)
	require.NoError(t, w.Run(ctx))

	require.Len(t, opener.OpenCalls(), 1)
	assert.Equal(t, testBinding(), opener.OpenCalls()[0].Binding)

	require.Len(t, ctrl.RelayCalls(), 1)
	call := ctrl.RelayCalls()[0]
	assert.Equal(t, "0x90", call.GatewayID)
	assert.Equal(t, byte(0x22), call.Msg.SID)
	assert.Equal(t, []byte{0xAB, 0xCD}, call.Msg.Payload)

	require.Len(t, sock.SendCalls(), 1)
	assert.Equal(t, []byte{0x62, 0xAB}, sock.SendCalls()[0].Msg)
	assert.Len(t, sock.CloseCalls(), 1)

	state, relayed, _ := w.Snapshot()
	assert.Equal(t, domain.WorkerStateStopped, state)
	assert.Equal(t, uint64(1), relayed)
}

func TestRelayWorker_EmptyReceiveSkipsController(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sock := scriptedSocket(cancel,
		recvStep{data: nil},
		recvStep{data: []byte{}},
		recvStep{err: interfaces.ErrReceiveTimeout},
	)
	opener := openerFor(sock)
	ctrl := &mock.ControllerMock{}

	w := newTestWorker(domain.RelayErrorNegativeResponse, ctrl, opener)
	require.NoError(t, w.Run(ctx))

	assert.Empty(t, ctrl.RelayCalls())
	assert.Empty(t, sock.SendCalls())
	assert.Len(t, opener.OpenCalls(), 1, "timeouts and empty reads must not rebind")
}

func TestRelayWorker_RecoversFromTransportError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	first := scriptedSocket(cancel, recvStep{err: errors.New("read: network is down")})
	second := scriptedSocket(cancel, recvStep{data: []byte{0x22, 0xAB, 0xCD}})
	opener := openerFor(first, second)
	ctrl := echoController(domain.DiagnosticMessage{SID: 0x62, Payload: []byte{0xAB}})

	w := newTestWorker(domain.RelayErrorNegativeResponse, ctrl, opener)
	require.NoError(t, w.Run(ctx))

	assert.Len(t, first.CloseCalls(), 1, "old socket closed before rebinding")
	require.Len(t, opener.OpenCalls(), 2, "exactly one new socket")
	assert.Equal(t, opener.OpenCalls()[0].Binding, opener.OpenCalls()[1].Binding)
	require.Len(t, second.SendCalls(), 1)
	assert.Equal(t, []byte{0x62, 0xAB}, second.SendCalls()[0].Msg)

	_, relayed, lastErr := w.Snapshot()
	assert.Equal(t, uint64(1), relayed)
	assert.EqualError(t, lastErr, "read: network is down")
}

func TestRelayWorker_SendFailureRebinds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	first := scriptedSocket(cancel, recvStep{data: []byte{0x10, 0x01}})
	first.SendFunc = func(msg []byte) error { return errors.New("write: no buffer space available") }
	second := scriptedSocket(cancel)
	opener := openerFor(first, second)
	ctrl := echoController(domain.DiagnosticMessage{SID: 0x50, Payload: []byte{0x01}})

	w := newTestWorker(domain.RelayErrorNegativeResponse, ctrl, opener)
	require.NoError(t, w.Run(ctx))

	assert.Len(t, first.CloseCalls(), 1)
	assert.Len(t, opener.OpenCalls(), 2)
	_, relayed, _ := w.Snapshot()
	assert.Zero(t, relayed)
}

func TestRelayWorker_BindFailureRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sock := scriptedSocket(cancel)
	attempts := 0
	opener := &mock.SocketOpenerMock{
		OpenFunc: func(binding domain.Binding) (interfaces.BusSocket, error) {
			attempts++
			if attempts < 3 {
				return nil, errors.New("bind: no such device")
			}
			return sock, nil
		},
	}
	w := newTestWorker(domain.RelayErrorDrop, &mock.ControllerMock{}, opener)
	require.NoError(t, w.Run(ctx))
	assert.Len(t, opener.OpenCalls(), 3)
}

func TestRelayWorker_ErrorPolicies(t *testing.T) {
	relayErr := NewDeadlineExceededError("POST /uds/0x90", context.DeadlineExceeded)
	tests := []struct {
		name      string
		policy    domain.RelayErrorPolicy
		wantSends [][]byte
		wantErr   bool
		wantState domain.WorkerState
	}{
		{
			name:      "negative_response",
			policy:    domain.RelayErrorNegativeResponse,
			wantSends: [][]byte{{0x7f, 0x22, 0x10}},
			wantState: domain.WorkerStateStopped,
		},
		{
			name:      "drop",
			policy:    domain.RelayErrorDrop,
			wantState: domain.WorkerStateStopped,
		},
		{
			name:      "escalate",
			policy:    domain.RelayErrorEscalate,
			wantErr:   true,
			wantState: domain.WorkerStateFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			sock := scriptedSocket(cancel, recvStep{data: []byte{0x22, 0xF1, 0x90}})
			ctrl := &mock.ControllerMock{
				RelayFunc: func(ctx context.Context, gatewayID string, msg domain.DiagnosticMessage) (domain.DiagnosticMessage, error) {
					return domain.DiagnosticMessage{}, relayErr
				},
			}
			w := newTestWorker(tt.policy, ctrl, openerFor(sock))
			err := w.Run(ctx)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsDeadlineExceededError(err))
			} else {
				require.NoError(t, err)
			}
			var sent [][]byte
			for _, c := range sock.SendCalls() {
				sent = append(sent, c.Msg)
			}
			assert.Equal(t, tt.wantSends, sent)
			assert.Len(t, sock.CloseCalls(), 1)
			state, _, lastErr := w.Snapshot()
			assert.Equal(t, tt.wantState, state)
			assert.ErrorIs(t, lastErr, context.DeadlineExceeded)
		})
	}
}

func TestRelayWorker_CancelledDuringRelayIsNotAFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sock := &mock.BusSocketMock{
		RecvFunc: func() ([]byte, error) { return []byte{0x3e, 0x00}, nil },
	}
	ctrl := &mock.ControllerMock{
		RelayFunc: func(ctx context.Context, gatewayID string, msg domain.DiagnosticMessage) (domain.DiagnosticMessage, error) {
			cancel()
			return domain.DiagnosticMessage{}, NewTransportError("POST /uds/0x90", ctx.Err())
		},
	}
	w := newTestWorker(domain.RelayErrorEscalate, ctrl, openerFor(sock))
	require.NoError(t, w.Run(ctx))
	assert.Empty(t, sock.SendCalls())
	state, _, _ := w.Snapshot()
	assert.Equal(t, domain.WorkerStateStopped, state)
}

func TestRelayWorker_IdleBackoffHonoursCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sock := &mock.BusSocketMock{
		RecvFunc: func() ([]byte, error) { return nil, nil },
	}
	w := NewRelayWorker(RelayWorkerConfig{
		Binding:     testBinding(),
		IdleBackoff: time.Hour,
	}, &mock.ControllerMock{}, openerFor(sock), log.NewNopLogger())

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	require.Eventually(t, func() bool { return len(sock.RecvCalls()) == 1 }, time.Second, time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop during idle backoff")
	}
	assert.Len(t, sock.CloseCalls(), 1)
}
