package eventbus

import "context"

// Event is anything published on a Bus.
type Event interface {
	Type() string
}

// HandlerFunc handles one event.
type HandlerFunc func(ctx context.Context, e Event) error

// Bus publishes events to registered handlers and, depending on the
// implementation, to an external broker.
type Bus interface {
	Register(eventType string, handler HandlerFunc)
	Emit(ctx context.Context, event Event) error
}
