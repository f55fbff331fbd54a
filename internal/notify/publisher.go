// Package notify carries the engine's emitted events to the messaging
// collaborator. The engine only emits; delivery to guests is out of scope.
package notify

import "context"

// Publisher publishes a named event with a JSON-serializable payload.
// Implementations log their own failures; callers may ignore the returned
// error since event emission must never fail a booking or payment operation.
type Publisher interface {
	Publish(ctx context.Context, event string, payload any) error
}

// Nop discards all events. Used when no broker is configured and in tests.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }
