// Package system manages the lifecycle of background components such as the
// rate limiter sweeper and broker connections.
package system

import "context"

// Service is a component with a start and stop phase.
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
