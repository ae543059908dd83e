// internal/customer/event-stream/models.go
package eventstream

import (
	"context"
	"io"

	"franchise-portal/internal/models"
)

// Opener starts the raw server-sent event body for a customer. A non-empty
// lastEventID resumes after the last frame seen on a previous connection.
type Opener interface {
	OpenEventStream(ctx context.Context, customerID, lastEventID string) (io.ReadCloser, error)
}

// Delivery is one item from a Stream: either an event payload or a transport
// error. A zero Delivery is a keepalive and carries nothing.
type Delivery struct {
	Data []byte
	Err  error
}

// Stream is a cancellable subscription to one customer's events.
type Stream interface {
	Events() <-chan Delivery
	Cancel()
}

// Source creates Streams.
type Source interface {
	Subscribe(ctx context.Context, customerID string) Stream
}

// Listener receives decoded events on the loop.
type Listener func(ev models.RealtimeEvent)

// Frame is one dispatched server-sent event.
type Frame struct {
	Event string
	ID    string
	Data  string
}
