package handlers

import (
	"isotpgateway/domain"
	"isotpgateway/helpers"
)

// toWorkerInfo converts a worker snapshot to its API form. Zero timestamps are omitted.
func toWorkerInfo(s domain.WorkerStatus) WorkerInfo {
	info := WorkerInfo{
		RxId:      domain.FormatAddress(s.RxID),
		TxId:      domain.FormatAddress(s.TxID),
		Name:      s.Name,
		State:     string(s.State),
		Restarts:  s.Restarts,
		Relayed:   s.Relayed,
		LastError: s.LastError,
	}
	if !s.StartedAt.IsZero() {
		info.StartedAt = helpers.Ptr(s.StartedAt)
	}
	if !s.StoppedAt.IsZero() {
		info.StoppedAt = helpers.Ptr(s.StoppedAt)
	}
	return info
}

// toWorkersResponse converts worker snapshots to API response.
func toWorkersResponse(statuses []domain.WorkerStatus) WorkersResponse {
	out := make([]WorkerInfo, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, toWorkerInfo(s))
	}
	return WorkersResponse{Workers: out}
}
