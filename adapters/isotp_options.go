package adapters

import (
	"errors"

	"isotpgateway/domain"
)

// maxISOTPMessage is the largest classic ISO-TP payload (12-bit first-frame length).
const maxISOTPMessage = 4095

// ErrISOTPUnsupported is returned by ISOTPSocketOpener on platforms without the kernel CAN_ISOTP socket.
var ErrISOTPUnsupported = errors.New("CAN_ISOTP sockets are only available on linux")

// flowControlOption encodes struct can_isotp_fc_options { __u8 bs; __u8 stmin; __u8 wftmax; }.
func flowControlOption(fc domain.FlowControl) []byte {
	return []byte{fc.BlockSize, fc.STmin, fc.WFTmax}
}
