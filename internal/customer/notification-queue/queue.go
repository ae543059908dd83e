// internal/customer/notification-queue/queue.go
package notificationqueue

import (
	"franchise-portal/internal/common/logger"
	"franchise-portal/internal/common/metrics"
	"franchise-portal/internal/common/scheduler"
	"franchise-portal/internal/models"

	"github.com/google/uuid"
)

// Queue holds the single visible notification. Every method must run on the
// loop; at most one auto-hide timer is outstanding.
type Queue struct {
	config *Config
	loop   *scheduler.Loop
	clock  scheduler.Clock
	logger logger.Logger

	current  *models.Notification
	hide     *scheduler.Timer
	listener Listener
}

func NewQueue(cfg *Config, loop *scheduler.Loop, clock scheduler.Clock, log logger.Logger) *Queue {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	return &Queue{
		config: cfg,
		loop:   loop,
		clock:  clock,
		logger: log.WithFields(map[string]interface{}{"component": "notification-queue"}),
	}
}

// OnChange registers the single visibility listener.
func (q *Queue) OnChange(l Listener) {
	q.listener = l
}

// Show replaces whatever is visible and restarts the display window.
func (q *Queue) Show(message string, severity models.Severity) models.Notification {
	q.hide.Stop()

	n := &models.Notification{
		ID:        uuid.New().String(),
		Message:   message,
		Severity:  severity,
		Timestamp: q.clock.Now(),
	}
	q.current = n
	q.hide = q.loop.AfterFunc(q.clock, q.config.TTL, func() {
		if q.current != n {
			return
		}
		q.clear("expired")
	})

	metrics.NotificationsShown.WithLabelValues(string(severity)).Inc()
	q.logger.Debug("notification shown", map[string]interface{}{
		"id":       n.ID,
		"severity": string(severity),
		"message":  message,
	})
	q.notify()
	return *n
}

// Dismiss hides the visible notification now and cancels its auto-hide.
func (q *Queue) Dismiss() {
	if q.current == nil {
		return
	}
	q.clear("dismissed")
}

func (q *Queue) clear(reason string) {
	q.hide.Stop()
	q.hide = nil
	id := q.current.ID
	q.current = nil
	q.logger.Debug("notification hidden", map[string]interface{}{"id": id, "reason": reason})
	q.notify()
}

// Current returns a copy of the visible notification, or nil.
func (q *Queue) Current() *models.Notification {
	if q.current == nil {
		return nil
	}
	n := *q.current
	return &n
}

// Close cancels the pending auto-hide without notifying the listener.
func (q *Queue) Close() {
	q.hide.Stop()
	q.hide = nil
	q.current = nil
}

func (q *Queue) notify() {
	if q.listener != nil {
		q.listener(q.Current())
	}
}
