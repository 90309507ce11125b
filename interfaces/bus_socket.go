package interfaces

import (
	"errors"

	"isotpgateway/domain"
)

// ErrReceiveTimeout is returned by BusSocket.Recv when no message arrived within the
// binding's receive timeout. It is not a transport failure: the socket stays usable.
var ErrReceiveTimeout = errors.New("bus receive timed out")

// BusSocket is a bound ISO-TP socket: one Recv/Send call moves one complete message,
// segmentation and flow control are done by the transport.
//
// A BusSocket is owned by a single worker goroutine and is never shared.
//
//go:generate moq -stub -out mock/bus_socket.go -pkg mock . BusSocket
type BusSocket interface {
	// Recv blocks for the next message. Returns (msg, nil) on success, where msg may be empty;
	// (nil, ErrReceiveTimeout) when the receive timeout elapsed; (nil, error) on an OS-level socket error.
	Recv() ([]byte, error)

	// Send transmits one message to the bound tx address.
	Send(msg []byte) error

	// Close releases the socket. Calling Close more than once is allowed.
	Close() error
}

// SocketOpener opens and binds BusSockets.
//
// Implemented by adapters.ISOTPSocketOpener. Called from service.RelayWorker on start and after
// every transport error (rebind).
//
//go:generate moq -stub -out mock/socket_opener.go -pkg mock . SocketOpener
type SocketOpener interface {
	// Open creates a socket, applies binding.FlowControl and binding.ReceiveTimeout and binds it to
	// (binding.Interface, binding.RxID, binding.TxID).
	Open(binding domain.Binding) (BusSocket, error)
}
