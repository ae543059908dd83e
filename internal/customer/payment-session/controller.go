// internal/customer/payment-session/controller.go
package paymentsession

import (
	"context"

	"franchise-portal/internal/common/errors"
	"franchise-portal/internal/common/logger"
	"franchise-portal/internal/common/metrics"
	"franchise-portal/internal/common/scheduler"
	"franchise-portal/internal/models"

	"github.com/google/uuid"
)

// Controller drives one customer's payment window. All methods must run on
// the loop. At most one countdown timer exists at any time, and stopping it
// is synchronous with the state change that ends the session.
type Controller struct {
	config     *Config
	loop       *scheduler.Loop
	clock      scheduler.Clock
	backend    Backend
	notifier   Notifier
	session    *models.CustomerSession
	logger     logger.Logger
	errHandler *errors.ErrorHandler

	ctx    context.Context
	cancel context.CancelFunc

	state      State
	id         string
	gen        uint64
	remaining  int
	ticker     *scheduler.Timer
	qrCodePath string
	confirming bool
	outcome    Outcome
	listener   func(Snapshot)
	closed     bool
}

func NewController(cfg *Config, loop *scheduler.Loop, clock scheduler.Clock, backend Backend,
	notifier Notifier, session *models.CustomerSession, log logger.Logger) *Controller {
	cfg.applyDefaults()
	customerID := ""
	if session != nil {
		customerID = session.CustomerID
	}
	log = logger.ForComponent(log, "payment-session", customerID)
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		config:     cfg,
		loop:       loop,
		clock:      clock,
		backend:    backend,
		notifier:   notifier,
		session:    session,
		logger:     log,
		errHandler: errors.NewErrorHandler(log),
		ctx:        ctx,
		cancel:     cancel,
		state:      StateIdle,
	}
}

// OnChange registers the snapshot listener.
func (c *Controller) OnChange(fn func(Snapshot)) {
	c.listener = fn
}

// Start opens a new payment window. Any session already in progress is torn
// down first. Bank details are loaded before the countdown begins; failing
// to load them is logged and the window opens with a placeholder QR.
func (c *Controller) Start() {
	if c.closed {
		return
	}
	if c.state != StateIdle {
		c.logger.Info("replacing payment session in progress", map[string]interface{}{
			"paymentSessionId": c.id,
			"state":            string(c.state),
		})
		c.end(OutcomeCancelled)
	}

	c.gen++
	gen := c.gen
	c.id = uuid.New().String()
	c.state = StateLoading
	c.outcome = OutcomeNone
	c.qrCodePath = ""
	c.changed()

	ctx, cancel := context.WithTimeout(c.ctx, c.config.Timeout)
	c.loop.Go(func() func() {
		defer cancel()
		details, err := c.backend.GetBankDetails(ctx)
		return func() { c.bankDetailsLoaded(gen, details, err) }
	})
}

func (c *Controller) bankDetailsLoaded(gen uint64, details *models.BankDetails, err error) {
	if c.closed || gen != c.gen || c.state != StateLoading {
		return
	}
	if err != nil {
		c.errHandler.Handle("load bank details", err)
	} else if details != nil {
		c.qrCodePath = details.QRCodePath
	}
	c.activate()
}

func (c *Controller) activate() {
	c.state = StateActive
	c.remaining = c.config.Window
	c.ticker = c.loop.Every(c.clock, c.config.Tick, c.tick)
	metrics.PaymentSessionsActive.Inc()

	c.logger.Info("payment session started", map[string]interface{}{
		"paymentSessionId": c.id,
		"window":           c.config.Window,
	})
	c.changed()
}

func (c *Controller) tick() {
	if c.state != StateActive {
		return
	}
	c.remaining--
	if c.remaining <= 0 {
		c.expire()
		return
	}
	c.changed()
}

func (c *Controller) expire() {
	id := c.id
	c.end(OutcomeExpired)

	expired := errors.NewPaymentSessionExpiredError(id)
	c.logger.Info("payment session expired", map[string]interface{}{
		"paymentSessionId": id,
		"errorCode":        string(expired.Code),
	})
	c.notifier.Show(expired.Message, models.SeverityError)
}

// Cancel closes the payment window. No tick fires afterwards.
func (c *Controller) Cancel() {
	if c.state == StateIdle {
		return
	}
	c.end(OutcomeCancelled)
}

// Confirm reports the customer's payment to the backend. The countdown keeps
// running while the request is in flight; on failure the session stays open
// with its remaining time untouched.
func (c *Controller) Confirm() {
	if c.session == nil || c.session.CustomerID == "" {
		c.notifier.Show(msgNoCustomerSession, models.SeverityError)
		return
	}
	if c.state != StateActive {
		c.logger.Debug("confirm ignored, no open payment window", map[string]interface{}{"state": string(c.state)})
		return
	}
	if c.confirming {
		return
	}

	c.confirming = true
	c.changed()

	gen, id := c.gen, c.id
	req := models.PaymentNotificationRequest{
		CustomerID:    c.session.CustomerID,
		PaymentStage:  c.config.Stage,
		PaymentMethod: c.config.Method,
	}
	ctx, cancel := context.WithTimeout(c.ctx, c.config.Timeout)
	c.loop.Go(func() func() {
		defer cancel()
		err := c.backend.NotifyPayment(ctx, req)
		return func() { c.confirmed(gen, id, err) }
	})
}

func (c *Controller) confirmed(gen uint64, id string, err error) {
	if c.closed {
		return
	}
	current := gen == c.gen && c.state == StateActive
	if current {
		c.confirming = false
	}

	if err != nil {
		c.errHandler.Handle("payment notification", err)
		c.notifier.Show(userMessage(err), models.SeverityError)
		if current {
			c.changed()
		}
		return
	}

	c.logger.Info("payment notification sent", map[string]interface{}{
		"paymentSessionId": id,
		"current":          current,
	})
	c.notifier.Show(msgPaid, models.SeveritySuccess)
	if current {
		c.end(OutcomePaid)
	}
}

func userMessage(err error) string {
	if se, ok := errors.AsStandard(err); ok && se.Code == errors.ErrCodePaymentNotificationFailed && se.Message != "" {
		return se.Message
	}
	return msgNetworkError
}

func (c *Controller) end(outcome Outcome) {
	c.ticker.Stop()
	c.ticker = nil
	if c.state == StateActive {
		metrics.PaymentSessionsActive.Dec()
	}

	c.logger.Info("payment session ended", map[string]interface{}{
		"paymentSessionId": c.id,
		"outcome":          string(outcome),
		"remaining":        c.remaining,
	})
	metrics.PaymentSessions.WithLabelValues(string(outcome)).Inc()

	c.gen++
	c.state = StateIdle
	c.outcome = outcome
	c.remaining = 0
	c.confirming = false
	c.changed()
}

// Snapshot returns the current payment window.
func (c *Controller) Snapshot() Snapshot {
	s := Snapshot{
		State:      c.state,
		Remaining:  c.remaining,
		Timer:      FormatRemaining(c.remaining),
		Amount:     c.config.Amount,
		Confirming: c.confirming,
		Outcome:    c.outcome,
	}
	if c.state != StateIdle {
		s.ID = c.id
		s.QRCodePath = c.qrCodePath
	}
	return s
}

// Close ends any session silently and abandons in-flight requests.
func (c *Controller) Close() {
	if c.state != StateIdle {
		c.end(OutcomeCancelled)
	}
	c.closed = true
	c.cancel()
}

func (c *Controller) changed() {
	if c.listener != nil {
		c.listener(c.Snapshot())
	}
}
