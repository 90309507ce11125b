package service

import (
	"time"

	"isotpgateway/helpers"
	"isotpgateway/interfaces"
)

type timeProvider struct {
	now func() time.Time
}

// NewTimeProvider creates a TimeProvider that returns time via the given now func. Panics on nil now.
//
// Called from cmd/main with a UTC time.Now wrapper and from tests with helpers.TestNow.
func NewTimeProvider(now func() time.Time) interfaces.TimeProvider {
	return &timeProvider{now: helpers.NilPanic(now, "service.time_provider.go: now is required")}
}

// Now returns the current time from the injected function.
func (t *timeProvider) Now() time.Time {
	return t.now()
}
