//go:build !linux

package adapters

import (
	"isotpgateway/domain"
	"isotpgateway/interfaces"
)

// ISOTPSocketOpener returns an opener that always fails: CAN_ISOTP is a Linux kernel socket family.
func ISOTPSocketOpener() interfaces.SocketOpener {
	return unsupportedOpener{}
}

type unsupportedOpener struct{}

func (unsupportedOpener) Open(domain.Binding) (interfaces.BusSocket, error) {
	return nil, ErrISOTPUnsupported
}
