package adapters

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"isotpgateway/domain"
)

// udsBody is the JSON form of a diagnostic message exchanged with the controller.
type udsBody struct {
	SID  string `json:"sid"`
	Data string `json:"data"`
}

// encodeUDSBody renders the SID as unpadded lowercase hex (0x22 -> "22", 0x0a -> "a") and the payload as lowercase hex.
func encodeUDSBody(msg domain.DiagnosticMessage) udsBody {
	return udsBody{
		SID:  strconv.FormatUint(uint64(msg.SID), 16),
		Data: hex.EncodeToString(msg.Payload),
	}
}

// decodeUDSBody parses a controller reply. The SID must decode to exactly one byte; a single hex digit
// is accepted since requests are sent unpadded.
func decodeUDSBody(b udsBody) (domain.DiagnosticMessage, error) {
	sidHex := strings.TrimSpace(b.SID)
	if sidHex == "" {
		return domain.DiagnosticMessage{}, errors.New("sid is empty")
	}
	if len(sidHex)%2 == 1 {
		sidHex = "0" + sidHex
	}
	sid, err := hex.DecodeString(sidHex)
	if err != nil {
		return domain.DiagnosticMessage{}, fmt.Errorf("sid %q: %w", b.SID, err)
	}
	if len(sid) != 1 {
		return domain.DiagnosticMessage{}, fmt.Errorf("sid %q must be a single byte", b.SID)
	}
	data, err := hex.DecodeString(strings.TrimSpace(b.Data))
	if err != nil {
		return domain.DiagnosticMessage{}, fmt.Errorf("data %q: %w", b.Data, err)
	}
	return domain.DiagnosticMessage{SID: sid[0], Payload: data}, nil
}
