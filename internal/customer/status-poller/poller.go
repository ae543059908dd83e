// internal/customer/status-poller/poller.go
package statuspoller

import (
	"context"
	"fmt"
	"time"

	"franchise-portal/internal/common/errors"
	"franchise-portal/internal/common/logger"
	"franchise-portal/internal/common/metrics"
	"franchise-portal/internal/common/observability"
	"franchise-portal/internal/common/scheduler"
	"franchise-portal/internal/models"
)

// Poller owns the ApplicationRecord of one customer. Fetches run off-loop;
// their results are applied on the loop in issue order, and a response older
// than one already applied is discarded.
type Poller struct {
	config     *Config
	loop       *scheduler.Loop
	clock      scheduler.Clock
	fetcher    Fetcher
	customerID string
	logger     logger.Logger
	errHandler *errors.ErrorHandler
	obs        *observability.Observability

	ctx    context.Context
	cancel context.CancelFunc

	issued   uint64
	applied  uint64
	state    State
	listener func(State)
	closed   bool
}

func NewPoller(cfg *Config, loop *scheduler.Loop, clock scheduler.Clock, fetcher Fetcher,
	customerID string, log logger.Logger, obs *observability.Observability) *Poller {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	log = logger.ForComponent(log, "status-poller", customerID)
	ctx, cancel := context.WithCancel(context.Background())
	return &Poller{
		config:     cfg,
		loop:       loop,
		clock:      clock,
		fetcher:    fetcher,
		customerID: customerID,
		logger:     log,
		errHandler: errors.NewErrorHandler(log),
		obs:        obs,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// OnChange registers the state listener.
func (p *Poller) OnChange(fn func(State)) {
	p.listener = fn
}

// Fetch starts a fetch. Must run on the loop.
func (p *Poller) Fetch() {
	if p.closed {
		return
	}
	p.issued++
	seq := p.issued
	p.state.Loading = true
	p.changed()

	ctx, cancel := context.WithTimeout(p.ctx, p.config.Timeout)
	customerID := p.customerID
	p.loop.Go(func() func() {
		defer cancel()
		start := time.Now()
		rec, err := p.fetcher.GetCustomerApplication(ctx, customerID)
		elapsed := time.Since(start)
		return func() { p.apply(seq, rec, err, elapsed) }
	})
}

func (p *Poller) apply(seq uint64, rec *models.ApplicationRecord, err error, elapsed time.Duration) {
	if p.closed {
		return
	}
	if seq <= p.applied {
		p.logger.Debug("discarding out-of-order application response", map[string]interface{}{
			"seq":     seq,
			"applied": p.applied,
		})
		return
	}
	p.applied = seq
	p.state.Loading = p.applied < p.issued

	if err == nil && rec == nil {
		err = errors.NewApplicationDecodeFailedError(fmt.Errorf("empty application"))
	}

	result := "ok"
	if err != nil {
		result = "error"
		p.errHandler.Handle("fetch application", err)
		p.state.LastError = err
		p.state.Stale = p.state.Loaded
	} else {
		p.state = State{
			Record:    rec,
			Loaded:    true,
			Loading:   p.state.Loading,
			FetchedAt: p.clock.Now(),
		}
		p.logger.Debug("application loaded", map[string]interface{}{
			"applicationId": rec.ApplicationID,
			"status":        rec.Status,
		})
	}

	metrics.ApplicationFetches.WithLabelValues(result).Inc()
	p.obs.RecordFetch(p.ctx, "customer-application", elapsed, result)
	p.changed()
}

// State returns the current state. Must run on the loop.
func (p *Poller) State() State {
	return p.state
}

// Close cancels in-flight fetches; late results are ignored. Must run on the loop.
func (p *Poller) Close() {
	if p.closed {
		return
	}
	p.closed = true
	p.cancel()
}

func (p *Poller) changed() {
	if p.listener != nil {
		p.listener(p.state)
	}
}
