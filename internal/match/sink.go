package match

import (
	"context"

	"github.com/yourname/hardpoint-mm/pkg/types"
)

// Sink receives the structured events the core hands off. Implementations
// must not block for long; they are called outside the engine lock but on
// the cycle goroutine.
type Sink interface {
	Publish(ctx context.Context, ev types.Event)
}

// Sinks fans an event out to every member in order.
type Sinks []Sink

func (s Sinks) Publish(ctx context.Context, ev types.Event) {
	for _, sink := range s {
		if sink != nil {
			sink.Publish(ctx, ev)
		}
	}
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, ev types.Event)

func (f SinkFunc) Publish(ctx context.Context, ev types.Event) { f(ctx, ev) }
