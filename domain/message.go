package domain

import "errors"

// UDS negative response framing: 0x7F, rejected SID, NRC.
const (
	NegativeResponseSID byte = 0x7F
	NRCGeneralReject    byte = 0x10
)

// ErrEmptyMessage is returned by ParseDiagnosticMessage for a zero-length buffer (no SID byte).
var ErrEmptyMessage = errors.New("diagnostic message is empty")

// DiagnosticMessage is a UDS message split into its service ID and payload.
type DiagnosticMessage struct {
	SID     byte
	Payload []byte
}

// ParseDiagnosticMessage splits a bus message into SID (first byte) and payload (the rest).
// The payload aliases b.
func ParseDiagnosticMessage(b []byte) (DiagnosticMessage, error) {
	if len(b) == 0 {
		return DiagnosticMessage{}, ErrEmptyMessage
	}
	return DiagnosticMessage{SID: b[0], Payload: b[1:]}, nil
}

// Bytes returns the wire form [SID][payload...] in a new slice.
func (m DiagnosticMessage) Bytes() []byte {
	out := make([]byte, 0, 1+len(m.Payload))
	out = append(out, m.SID)
	return append(out, m.Payload...)
}

// NegativeResponse builds the generalReject reply for a request with the given SID.
func NegativeResponse(requestSID byte) DiagnosticMessage {
	return DiagnosticMessage{SID: NegativeResponseSID, Payload: []byte{requestSID, NRCGeneralReject}}
}
