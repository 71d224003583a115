package service

import "context"

// Component is a long-lived piece of the agent with an explicit lifecycle.
// Open must not block; Close releases whatever Open started.
type Component interface {
	Open(ctx context.Context) error
	Close() error
}
