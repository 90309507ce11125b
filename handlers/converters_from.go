package handlers

import (
	"isotpgateway/domain"
	"isotpgateway/service"
)

// fromRxIDParam converts the rx_id path parameter to a worker address.
// Returns service.BadParameterError when it is not 0x-prefixed hex or exceeds 0xFF.
func fromRxIDParam(rxId string) (uint32, error) {
	addr, err := domain.ParseAddress(rxId)
	if err != nil {
		return 0, service.NewBadParameterError("rx_id must be a 0x prefixed hex address", err)
	}
	if addr > domain.MaxSingleByteAddress {
		return 0, service.NewBadParameterError("rx_id must not exceed 0xff", nil)
	}
	return addr, nil
}
