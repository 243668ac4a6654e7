// Package notify delivers best-effort notifications. Failures are the
// caller's to log; they must never fail the parent operation.
package notify

import "context"

// Payload is one outgoing message.
type Payload struct {
	UserID string
	Title  string
	Text   string
}

// Notifier sends a notification to one user or channel.
type Notifier interface {
	Notify(ctx context.Context, p Payload) error
}

// Nop discards notifications; used when no webhook is configured.
type Nop struct{}

func (Nop) Notify(ctx context.Context, p Payload) error { return nil }
