//go:build linux

package adapters

import (
	"errors"
	"fmt"
	"net"
	"os"
	"sync"

	"isotpgateway/domain"
	"isotpgateway/interfaces"

	"golang.org/x/sys/unix"
)

const (
	solCANISOTP    = unix.SOL_CAN_BASE + unix.CAN_ISOTP
	canISOTPRecvFC = 2 // CAN_ISOTP_RECV_FC
)

// ISOTPSocketOpener returns an interfaces.SocketOpener backed by the Linux kernel CAN_ISOTP socket.
// Segmentation, flow control and padding are done by the kernel module (can-isotp).
func ISOTPSocketOpener() interfaces.SocketOpener {
	return isotpSocketOpener{}
}

type isotpSocketOpener struct{}

// Open creates a CAN_ISOTP datagram socket, sets the receive flow-control options and SO_RCVTIMEO,
// and binds it to (binding.Interface, binding.RxID, binding.TxID). The fd is closed on any failure.
func (isotpSocketOpener) Open(binding domain.Binding) (interfaces.BusSocket, error) {
	iface, err := net.InterfaceByName(binding.Interface)
	if err != nil {
		return nil, fmt.Errorf("lookup interface %s: %w", binding.Interface, err)
	}
	fd, err := unix.Socket(unix.AF_CAN, unix.SOCK_DGRAM, unix.CAN_ISOTP)
	if err != nil {
		return nil, os.NewSyscallError("socket", err)
	}
	if err := configureISOTP(fd, binding); err != nil {
		_ = unix.Close(fd)
		return nil, err
	}
	addr := &unix.SockaddrCAN{Ifindex: iface.Index, RxID: binding.RxID, TxID: binding.TxID}
	if err := unix.Bind(fd, addr); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("bind %s rx=%s tx=%s: %w", binding.Interface,
			domain.FormatAddress(binding.RxID), domain.FormatAddress(binding.TxID), os.NewSyscallError("bind", err))
	}
	return &isotpSocket{fd: fd, buf: make([]byte, maxISOTPMessage)}, nil
}

func configureISOTP(fd int, binding domain.Binding) error {
	if err := unix.SetsockoptString(fd, solCANISOTP, canISOTPRecvFC, string(flowControlOption(binding.FlowControl))); err != nil {
		return os.NewSyscallError("setsockopt CAN_ISOTP_RECV_FC", err)
	}
	if binding.ReceiveTimeout > 0 {
		tv := unix.NsecToTimeval(binding.ReceiveTimeout.Nanoseconds())
		if err := unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err != nil {
			return os.NewSyscallError("setsockopt SO_RCVTIMEO", err)
		}
	}
	return nil
}

type isotpSocket struct {
	fd  int
	buf []byte

	closeOnce sync.Once
	closeErr  error
}

// Recv reads one complete ISO-TP message. SO_RCVTIMEO expiry is reported as interfaces.ErrReceiveTimeout.
func (s *isotpSocket) Recv() ([]byte, error) {
	for {
		n, err := unix.Read(s.fd, s.buf)
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			return nil, interfaces.ErrReceiveTimeout
		case err != nil:
			return nil, os.NewSyscallError("read", err)
		}
		if n <= 0 {
			return nil, nil
		}
		out := make([]byte, n)
		copy(out, s.buf[:n])
		return out, nil
	}
}

// Send writes one message; the kernel segments it and waits for flow control as needed.
func (s *isotpSocket) Send(msg []byte) error {
	if len(msg) > maxISOTPMessage {
		return fmt.Errorf("message of %d bytes exceeds ISO-TP maximum %d", len(msg), maxISOTPMessage)
	}
	for {
		n, err := unix.Write(s.fd, msg)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return os.NewSyscallError("write", err)
		}
		if n != len(msg) {
			return fmt.Errorf("short write: %d of %d bytes", n, len(msg))
		}
		return nil
	}
}

func (s *isotpSocket) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = unix.Close(s.fd)
	})
	return s.closeErr
}
