// internal/customer/dashboard/dashboard.go
package dashboard

import (
	"context"
	"fmt"
	"time"

	"franchise-portal/internal/common/errors"
	"franchise-portal/internal/common/logger"
	"franchise-portal/internal/common/metrics"
	"franchise-portal/internal/common/observability"
	"franchise-portal/internal/common/scheduler"
	eventstream "franchise-portal/internal/customer/event-stream"
	notificationqueue "franchise-portal/internal/customer/notification-queue"
	paymentsession "franchise-portal/internal/customer/payment-session"
	statuspoller "franchise-portal/internal/customer/status-poller"
	updatedispatcher "franchise-portal/internal/customer/update-dispatcher"
	"franchise-portal/internal/models"
)

// Dashboard is the customer screen. It owns one set of components per
// customer session: poller, stream handle, notification queue and payment
// controller are created on activation and torn down together.
//
// Activate and Logout do blocking session I/O and run off the loop. Every
// other method must run on the loop.
type Dashboard struct {
	config   *Config
	loop     *scheduler.Loop
	clock    scheduler.Clock
	guard    Guard
	backend  Backend
	consumer *eventstream.Consumer
	logger   logger.Logger
	obs      *observability.Observability

	session    *models.CustomerSession
	poller     *statuspoller.Poller
	handle     *eventstream.Handle
	dispatcher *updatedispatcher.Dispatcher
	queue      *notificationqueue.Queue
	payment    *paymentsession.Controller
	resyncs    map[*scheduler.Timer]struct{}
	listener   func(View)
}

func NewDashboard(cfg *Config, loop *scheduler.Loop, clock scheduler.Clock, guard Guard, backend Backend,
	source eventstream.Source, log logger.Logger, obs *observability.Observability) *Dashboard {
	cfg.applyDefaults()
	d := &Dashboard{
		config:   cfg,
		loop:     loop,
		clock:    clock,
		guard:    guard,
		backend:  backend,
		consumer: eventstream.NewConsumer(loop, source, log),
		logger:   log.WithFields(map[string]interface{}{"component": "dashboard"}),
		obs:      obs,
	}
	d.consumer.OnEnded(func(h *eventstream.Handle) {
		if h == d.handle {
			d.changed()
		}
	})
	return d
}

// OnChange registers the view listener. Must run on the loop.
func (d *Dashboard) OnChange(fn func(View)) {
	d.listener = fn
}

// Activate re-reads the customer session and, if there is one, starts the
// initial fetch and opens the event stream. An unauthenticated result is
// returned untouched and nothing is started; the caller redirects to
// LoginPath.
func (d *Dashboard) Activate(ctx context.Context) (*models.CustomerSession, error) {
	d.guard.Reset()
	session, err := d.guard.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	if !d.loop.Call(func() { d.activate(session) }) {
		return nil, fmt.Errorf("dashboard loop stopped")
	}
	return session, nil
}

func (d *Dashboard) activate(session *models.CustomerSession) {
	if d.session != nil {
		// Switching customers rebuilds everything from scratch.
		d.Stop()
	}

	log := logger.ForComponent(d.logger, "dashboard", session.CustomerID)
	d.session = session
	d.resyncs = make(map[*scheduler.Timer]struct{})

	d.poller = statuspoller.NewPoller(d.config.Poller, d.loop, d.clock, d.backend, session.CustomerID, log, d.obs)
	d.poller.OnChange(func(statuspoller.State) { d.changed() })

	d.queue = notificationqueue.NewQueue(d.config.Notifications, d.loop, d.clock, log)
	d.queue.OnChange(func(*models.Notification) { d.changed() })

	d.payment = paymentsession.NewController(d.config.Payment, d.loop, d.clock, d.backend, d.queue, session, log)
	d.payment.OnChange(func(paymentsession.Snapshot) { d.changed() })

	d.dispatcher = updatedispatcher.NewDispatcher(d.config.Dispatcher, log, d.obs)

	d.poller.Fetch()
	d.handle = d.consumer.Open(session.CustomerID, d.onEvent)

	log.Info("dashboard activated", map[string]interface{}{"name": session.Name})
	d.changed()
}

func (d *Dashboard) onEvent(ev models.RealtimeEvent) {
	if d.session == nil {
		return
	}
	eff := d.dispatcher.Dispatch(ev)
	if eff.Notify != nil {
		d.queue.Show(eff.Notify.Message, eff.Notify.Severity)
	}
	if eff.Resync {
		d.scheduleResync(eff.ResyncDelay)
	}
}

func (d *Dashboard) scheduleResync(delay time.Duration) {
	metrics.Resyncs.Inc()
	poller := d.poller
	var t *scheduler.Timer
	t = d.loop.AfterFunc(d.clock, delay, func() {
		delete(d.resyncs, t)
		poller.Fetch()
	})
	d.resyncs[t] = struct{}{}
}

// Refresh re-fetches the application on demand.
func (d *Dashboard) Refresh() {
	if d.poller != nil {
		d.poller.Fetch()
	}
}

// Pay opens a payment window, replacing any in progress.
func (d *Dashboard) Pay() {
	if d.payment != nil {
		d.payment.Start()
	}
}

// Paid reports the customer's payment to the backend.
func (d *Dashboard) Paid() {
	if d.payment != nil {
		d.payment.Confirm()
	}
}

// CancelPayment closes the payment window.
func (d *Dashboard) CancelPayment() {
	if d.payment != nil {
		d.payment.Cancel()
	}
}

// Dismiss hides the visible notification.
func (d *Dashboard) Dismiss() {
	if d.queue != nil {
		d.queue.Dismiss()
	}
}

// Stop closes the stream handle and cancels every timer and request owned by
// the current customer. Stopping twice is a no-op.
func (d *Dashboard) Stop() {
	if d.session == nil {
		return
	}
	customerID := d.session.CustomerID

	d.consumer.Close(d.handle)
	for t := range d.resyncs {
		t.Stop()
	}
	d.payment.Close()
	d.queue.Close()
	d.poller.Close()

	d.session, d.handle, d.resyncs = nil, nil, nil
	d.poller, d.queue, d.payment, d.dispatcher = nil, nil, nil, nil

	d.logger.Info("dashboard stopped", map[string]interface{}{"customerId": customerID})
	d.changed()
}

// Logout tears down the dashboard and destroys the persisted session. It
// returns the login path the caller should redirect to.
func (d *Dashboard) Logout(ctx context.Context) (string, error) {
	d.loop.Call(d.Stop)
	if err := d.guard.Destroy(ctx); err != nil {
		return "", errors.NewErrorHandler(d.logger).Handle("logout", err)
	}
	return d.guard.LoginPath(), nil
}

// PendingResyncs is the number of scheduled re-fetches not yet run.
func (d *Dashboard) PendingResyncs() int {
	return len(d.resyncs)
}

// View renders the current state.
func (d *Dashboard) View() View {
	if d.session == nil {
		return View{Payment: paymentsession.Snapshot{State: paymentsession.StateIdle, Timer: paymentsession.FormatRemaining(0)}}
	}

	st := d.poller.State()
	v := View{
		Active:       true,
		CustomerID:   d.session.CustomerID,
		CustomerName: d.session.Name,
		Initial:      d.session.Initial(),
		Loading:      st.Loading,
		Stale:        st.Stale,
		FetchedAt:    st.FetchedAt,
		Notification: d.queue.Current(),
		Payment:      d.payment.Snapshot(),
		StreamOpen:   !d.handle.Closed(),
	}
	if st.Available() {
		v.Application = st.Record
		v.Status = newStatusView(st.Record)
	}
	return v
}

func (d *Dashboard) changed() {
	if d.listener != nil {
		d.listener(d.View())
	}
}
