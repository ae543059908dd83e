// internal/customer/event-stream/subscription.go
package eventstream

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"franchise-portal/internal/common/errors"
	"franchise-portal/internal/common/logger"
	"franchise-portal/internal/common/metrics"
	"franchise-portal/internal/common/scheduler"
)

var errStreamEnded = stderrors.New("event stream ended")

// Subscriber turns an Opener into reconnecting Streams.
type Subscriber struct {
	config *Config
	opener Opener
	clock  scheduler.Clock
	logger logger.Logger
}

func NewSubscriber(cfg *Config, opener Opener, clock scheduler.Clock, log logger.Logger) *Subscriber {
	return &Subscriber{
		config: cfg,
		opener: opener,
		clock:  clock,
		logger: log,
	}
}

// Subscribe connects in the background and never blocks.
func (s *Subscriber) Subscribe(ctx context.Context, customerID string) Stream {
	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{
		events: make(chan Delivery),
		done:   make(chan struct{}),
		cancel: cancel,
	}
	go sub.run(ctx, s, customerID)
	return sub
}

// Subscription is a live Stream. Its Events channel is closed once the
// subscription is cancelled or gives up reconnecting.
type Subscription struct {
	events chan Delivery
	done   chan struct{}
	cancel context.CancelFunc
	once   sync.Once

	lastID string // owned by run
}

func (sub *Subscription) Events() <-chan Delivery {
	return sub.events
}

// Cancel releases the connection; it is idempotent.
func (sub *Subscription) Cancel() {
	sub.once.Do(sub.cancel)
}

// Done is closed when the background connection has fully stopped.
func (sub *Subscription) Done() <-chan struct{} {
	return sub.done
}

func (sub *Subscription) run(ctx context.Context, s *Subscriber, customerID string) {
	defer close(sub.done)
	defer close(sub.events)

	log := logger.ForComponent(s.logger, "event-stream", customerID)
	attempt := 0
	for {
		err := sub.connect(ctx, s.opener, customerID, func() { attempt = 0 })
		if ctx.Err() != nil {
			return
		}
		if !sub.send(ctx, Delivery{Err: asTransportError(customerID, err)}) {
			return
		}

		if !s.config.Reconnect || attempt >= s.config.MaxAttempts {
			log.Warn("event stream closed, not reconnecting", map[string]interface{}{
				"attempts": attempt,
			})
			return
		}
		delay := s.config.Backoff(attempt)
		attempt++
		metrics.StreamReconnects.Inc()
		log.Info("reconnecting event stream", map[string]interface{}{
			"attempt": attempt,
			"delay":   delay.String(),
		})
		if !sleep(ctx, s.clock, delay) {
			return
		}
	}
}

// connect streams one connection's frames; connected is called once the
// channel is up.
func (sub *Subscription) connect(ctx context.Context, opener Opener, customerID string, connected func()) error {
	body, err := opener.OpenEventStream(ctx, customerID, sub.lastID)
	if err != nil {
		return err
	}
	defer body.Close()
	stop := context.AfterFunc(ctx, func() { body.Close() })
	defer stop()
	connected()

	err = readFrames(body, func(f Frame) bool {
		sub.lastID = f.ID
		if f.Event != "" && f.Event != "message" {
			return true
		}
		return sub.send(ctx, Delivery{Data: []byte(f.Data)})
	})
	if err == nil {
		err = errStreamEnded
	}
	return err
}

func (sub *Subscription) send(ctx context.Context, d Delivery) bool {
	select {
	case sub.events <- d:
		return true
	case <-ctx.Done():
		return false
	}
}

func asTransportError(customerID string, err error) error {
	if _, ok := errors.AsStandard(err); ok {
		return err
	}
	return errors.NewStreamTransportFailedError(customerID, err)
}

func sleep(ctx context.Context, clock scheduler.Clock, d time.Duration) bool {
	fired := make(chan struct{})
	t := clock.AfterFunc(d, func() { close(fired) })
	select {
	case <-fired:
		return true
	case <-ctx.Done():
		t.Stop()
		return false
	}
}
