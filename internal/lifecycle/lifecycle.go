package lifecycle

import "sync/atomic"

var draining atomic.Bool

// SetShuttingDown marks the process as draining. Set on SIGTERM/SIGINT so the
// health endpoint starts reporting 503 before the HTTP server closes.
func SetShuttingDown(v bool) {
	draining.Store(v)
}

// IsShuttingDown reports whether the process is draining and should be pulled
// from load-balancer rotation.
func IsShuttingDown() bool {
	return draining.Load()
}
