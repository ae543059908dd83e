// internal/customer/event-stream/consumer.go
package eventstream

import (
	"context"
	"encoding/json"

	"franchise-portal/internal/common/errors"
	"franchise-portal/internal/common/logger"
	"franchise-portal/internal/common/metrics"
	"franchise-portal/internal/common/scheduler"
	"franchise-portal/internal/common/validation"
	"franchise-portal/internal/models"
)

var eventSchema = validation.MustCompile("event", validation.EventSchema)

// Handle is one open registration of a listener on a customer's stream.
type Handle struct {
	id         uint64
	customerID string
	stream     Stream
	closed     bool
	ended      bool
}

func (h *Handle) CustomerID() string { return h.customerID }

// Closed reports whether the handle was closed or its stream gave up. Must
// run on the loop.
func (h *Handle) Closed() bool { return h == nil || h.closed || h.ended }

// Consumer keeps at most one open Handle and delivers its events to the
// listener on the loop. Open, Close and Current must run on the loop.
type Consumer struct {
	loop       *scheduler.Loop
	source     Source
	logger     logger.Logger
	errHandler *errors.ErrorHandler

	current *Handle
	nextID  uint64
	onEnded func(*Handle)
}

func NewConsumer(loop *scheduler.Loop, source Source, log logger.Logger) *Consumer {
	log = log.WithFields(map[string]interface{}{"component": "event-stream"})
	return &Consumer{
		loop:       loop,
		source:     source,
		logger:     log,
		errHandler: errors.NewErrorHandler(log),
	}
}

// OnEnded registers fn to run on the loop when an open handle's stream closes
// on its own. Call before the first Open.
func (c *Consumer) OnEnded(fn func(*Handle)) {
	c.onEnded = fn
}

// Open subscribes listener to customerID's events, closing any open handle first.
func (c *Consumer) Open(customerID string, listener Listener) *Handle {
	if c.current != nil {
		c.Close(c.current)
	}

	c.nextID++
	h := &Handle{
		id:         c.nextID,
		customerID: customerID,
		stream:     c.source.Subscribe(context.Background(), customerID),
	}
	c.current = h

	events := h.stream.Events()
	go func() {
		for d := range events {
			d := d
			if !c.loop.Post(func() { c.deliver(h, listener, d) }) {
				h.stream.Cancel()
				return
			}
		}
		c.loop.Post(func() { c.ended(h) })
	}()

	c.logger.Info("event stream opened", map[string]interface{}{
		"customerId": customerID,
		"handle":     h.id,
	})
	return h
}

// Close releases the handle's channel. Closing twice is a no-op; anything
// still in flight for a closed handle is discarded.
func (c *Consumer) Close(h *Handle) {
	if h == nil || h.closed {
		return
	}
	h.closed = true
	h.stream.Cancel()
	if c.current == h {
		c.current = nil
	}
	c.logger.Info("event stream closed", map[string]interface{}{
		"customerId": h.customerID,
		"handle":     h.id,
	})
}

func (c *Consumer) ended(h *Handle) {
	if h.closed || h.ended {
		return
	}
	h.ended = true
	if c.current == h {
		c.current = nil
	}
	c.logger.Warn("event stream ended", map[string]interface{}{
		"customerId": h.customerID,
		"handle":     h.id,
	})
	if c.onEnded != nil {
		c.onEnded(h)
	}
}

// Current returns the open handle, if any.
func (c *Consumer) Current() *Handle {
	return c.current
}

func (c *Consumer) deliver(h *Handle, listener Listener, d Delivery) {
	if h.closed {
		if d.Data != nil || d.Err != nil {
			metrics.StreamEventsDropped.WithLabelValues(metrics.DropClosed).Inc()
			c.logger.Debug("discarding event for closed handle", map[string]interface{}{"handle": h.id})
		}
		return
	}

	switch {
	case d.Err != nil:
		c.errHandler.Handle("event stream", d.Err)
		return
	case d.Data == nil:
		return
	}

	ev, err := decode(d.Data)
	if err != nil {
		metrics.StreamEventsDropped.WithLabelValues(metrics.DropDecode).Inc()
		c.errHandler.Handle("decode event", err)
		return
	}

	label := string(ev.Type)
	if !ev.Known() {
		label = "unknown"
	}
	metrics.StreamEvents.WithLabelValues(label).Inc()
	listener(ev)
}

func decode(data []byte) (models.RealtimeEvent, error) {
	var ev models.RealtimeEvent
	if err := eventSchema.Validate(data).Err(); err != nil {
		return ev, errors.NewStreamDecodeFailedError(string(data), err)
	}
	if err := json.Unmarshal(data, &ev); err != nil {
		return ev, errors.NewStreamDecodeFailedError(string(data), err)
	}
	return ev, nil
}
