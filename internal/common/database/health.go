package database

import (
	"context"
	"fmt"
	"time"
)

// Pinger is implemented by every client in this package.
type Pinger interface {
	Name() string
	Ping(ctx context.Context) error
}

// CheckAll pings each dependency with its own timeout and returns the
// failures keyed by dependency name. An empty map means everything is up.
func CheckAll(ctx context.Context, timeout time.Duration, deps ...Pinger) map[string]string {
	failures := make(map[string]string)
	for _, dep := range deps {
		if dep == nil {
			continue
		}
		pingCtx, cancel := context.WithTimeout(ctx, timeout)
		if err := dep.Ping(pingCtx); err != nil {
			failures[dep.Name()] = fmt.Sprintf("%v", err)
		}
		cancel()
	}
	return failures
}
