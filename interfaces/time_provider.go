package interfaces

import "time"

// TimeProvider supplies the current time for worker start/stop timestamps.
// Injected so tests can use a fixed clock instead of time.Now().
//
// Constructed in cmd/main as service.NewTimeProvider(func() time.Time { return time.Now().UTC() }).
//
//go:generate moq -stub -out mock/time_provider.go -pkg mock . TimeProvider
type TimeProvider interface {
	// Now returns current time (UTC in prod; fixed in tests).
	Now() time.Time
}
