// Package scheduler runs coordinator work as discrete, non-preemptible tasks on
// one goroutine. State owned by loop tasks needs no locks; timers and off-loop I/O
// re-enter only by posting tasks.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"franchise-portal/internal/common/logger"
)

// Loop is a FIFO task executor bound to a single goroutine.
type Loop struct {
	log logger.Logger

	mu       sync.Mutex
	queue    []func()
	inflight int
	stopped  bool

	wake chan struct{}
	done chan struct{}
}

// NewLoop creates a loop; nothing runs until Run is called.
func NewLoop(log logger.Logger) *Loop {
	return &Loop{
		log:  log,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Post enqueues fn. It never blocks and may be called from any goroutine,
// including from inside a task. It reports false once the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Call runs fn on the loop and waits for it to finish. It must not be called
// from a loop task. It reports false if the loop stopped before fn ran.
func (l *Loop) Call(fn func()) bool {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return false
	}
	select {
	case <-finished:
		return true
	case <-l.done:
		return false
	}
}

// Go runs work off the loop (for blocking I/O). The continuation it returns,
// if any, is posted back onto the loop.
func (l *Loop) Go(work func() func()) {
	l.mu.Lock()
	l.inflight++
	l.mu.Unlock()

	go func() {
		defer func() {
			l.mu.Lock()
			l.inflight--
			l.mu.Unlock()
		}()
		if then := work(); then != nil {
			l.Post(then)
		}
	}()
}

// Settle waits until no off-loop work is outstanding and every task posted so
// far has run. Intended for tests and orderly shutdown.
func (l *Loop) Settle(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		l.mu.Lock()
		busy := l.inflight > 0
		l.mu.Unlock()
		if busy {
			time.Sleep(time.Millisecond)
			continue
		}
		if !l.Call(func() {}) {
			return false
		}
		l.mu.Lock()
		busy = l.inflight > 0 || len(l.queue) > 0
		l.mu.Unlock()
		if !busy {
			return true
		}
	}
	return false
}

// Done is closed once the loop has stopped.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Run executes tasks until ctx is cancelled. Tasks still queued at that point are dropped.
func (l *Loop) Run(ctx context.Context) {
	defer l.stop()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		l.mu.Lock()
		if len(l.queue) == 0 {
			l.mu.Unlock()
			select {
			case <-ctx.Done():
				return
			case <-l.wake:
				continue
			}
		}
		fn := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		l.runTask(fn)
	}
}

func (l *Loop) stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return
	}
	l.stopped = true
	l.queue = nil
	close(l.done)
}

func (l *Loop) runTask(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("task panicked", map[string]interface{}{
				"panic": fmt.Sprintf("%v", r),
			})
		}
	}()
	fn()
}

// Timer is a cancellable scheduled task owned by loop code. Stop must be called
// from the loop; once it returns, the callback will not run even if its clock
// deadline already passed and the task is sitting in the queue.
type Timer struct {
	cancelled bool
	fired     bool
	repeating bool
	stop      func()
}

// AfterFunc schedules fn to run on the loop once, after d.
func (l *Loop) AfterFunc(c Clock, d time.Duration, fn func()) *Timer {
	t := &Timer{}
	s := c.AfterFunc(d, func() {
		l.Post(func() {
			if t.cancelled || t.fired {
				return
			}
			t.fired = true
			fn()
		})
	})
	t.stop = func() { s.Stop() }
	return t
}

// Every schedules fn to run on the loop every d until stopped.
func (l *Loop) Every(c Clock, d time.Duration, fn func()) *Timer {
	t := &Timer{repeating: true}
	tk := &ticker{}

	var arm func()
	arm = func() {
		tk.mu.Lock()
		defer tk.mu.Unlock()
		if tk.stopped {
			return
		}
		tk.current = c.AfterFunc(d, func() {
			arm()
			l.Post(func() {
				if t.cancelled {
					return
				}
				fn()
			})
		})
	}
	arm()

	t.stop = tk.halt
	return t
}

type ticker struct {
	mu      sync.Mutex
	stopped bool
	current Stopper
}

func (tk *ticker) halt() {
	tk.mu.Lock()
	defer tk.mu.Unlock()
	tk.stopped = true
	if tk.current != nil {
		tk.current.Stop()
	}
}

// Stop cancels the timer. It is safe to call on a nil or already stopped timer.
func (t *Timer) Stop() {
	if t == nil || t.cancelled {
		return
	}
	t.cancelled = true
	t.stop()
}

// Active reports whether the timer can still fire.
func (t *Timer) Active() bool {
	if t == nil || t.cancelled {
		return false
	}
	return t.repeating || !t.fired
}
