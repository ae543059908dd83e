// internal/customer/event-stream/consumer_test.go
package eventstream

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"franchise-portal/internal/common/logger"
	"franchise-portal/internal/common/metrics"
	"franchise-portal/internal/common/scheduler/schedulertest"
	"franchise-portal/internal/models"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Fake Source
// ==========================

type fakeStream struct {
	ch        chan Delivery
	mu        sync.Mutex
	cancelled int
}

func (f *fakeStream) Events() <-chan Delivery { return f.ch }

func (f *fakeStream) Cancel() {
	f.mu.Lock()
	f.cancelled++
	f.mu.Unlock()
}

func (f *fakeStream) Cancelled() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancelled
}

// push hands d to the consumer's pump and waits until it has been posted.
func (f *fakeStream) push(h *schedulertest.Harness, d Delivery) {
	f.ch <- d
	f.ch <- Delivery{}
	h.Settle()
}

type fakeSource struct {
	mu      sync.Mutex
	streams []*fakeStream
	ids     []string
}

func (s *fakeSource) Subscribe(ctx context.Context, customerID string) Stream {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := &fakeStream{ch: make(chan Delivery)}
	s.streams = append(s.streams, st)
	s.ids = append(s.ids, customerID)
	return st
}

func (s *fakeSource) stream(i int) *fakeStream {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streams[i]
}

func setup(t *testing.T) (*schedulertest.Harness, *fakeSource, *Consumer, *[]models.RealtimeEvent) {
	h := schedulertest.Start(t)
	src := &fakeSource{}
	c := NewConsumer(h.Loop, src, logger.NewNoOpLogger())
	got := &[]models.RealtimeEvent{}
	return h, src, c, got
}

func data(s string) Delivery { return Delivery{Data: []byte(s)} }

// ==========================
// Tests
// ==========================

func TestConsumer_DeliversDecodedEvents(t *testing.T) {
	h, src, c, got := setup(t)

	h.Do(func() { c.Open("C123", func(ev models.RealtimeEvent) { *got = append(*got, ev) }) })
	st := src.stream(0)

	st.push(h, data(`{"type":"statusUpdate","status":"Approved","message":"Approved!"}`))
	st.push(h, data(`{"type":"appointment","message":"Visit"}`))
	st.push(h, data(`{"type":"somethingNew","extra":1}`))

	h.Do(func() {
		require.Len(t, *got, 3)
		assert.Equal(t, models.RealtimeEvent{Type: models.EventStatusUpdate, Status: "Approved", Message: "Approved!"}, (*got)[0])
		assert.Equal(t, models.EventAppointment, (*got)[1].Type)
		assert.Equal(t, models.EventType("somethingNew"), (*got)[2].Type)
	})
}

func TestConsumer_MalformedPayloadsAreDropped(t *testing.T) {
	h, src, c, got := setup(t)
	before := testutil.ToFloat64(metrics.StreamEventsDropped.WithLabelValues(metrics.DropDecode))

	h.Do(func() { c.Open("C1", func(ev models.RealtimeEvent) { *got = append(*got, ev) }) })
	st := src.stream(0)

	st.push(h, data(`not json`))
	st.push(h, data(`{"message":"no type"}`))
	st.push(h, data(``))
	st.push(h, Delivery{Err: stderrors.New("connection reset")})
	st.push(h, data(`{"type":"appointment","message":"still alive"}`))

	h.Do(func() {
		require.Len(t, *got, 1)
		assert.Equal(t, "still alive", (*got)[0].Message)
		assert.False(t, c.Current().Closed(), "errors must not tear down the stream")
	})
	assert.Equal(t, before+3, testutil.ToFloat64(metrics.StreamEventsDropped.WithLabelValues(metrics.DropDecode)))
}

func TestConsumer_EventAfterCloseIsDiscarded(t *testing.T) {
	h, src, c, got := setup(t)

	var handle *Handle
	h.Do(func() { handle = c.Open("C1", func(ev models.RealtimeEvent) { *got = append(*got, ev) }) })
	st := src.stream(0)

	h.Do(func() { c.Close(handle) })
	st.push(h, data(`{"type":"statusUpdate","status":"Approved"}`))

	h.Do(func() {
		assert.Empty(t, *got)
		assert.True(t, handle.Closed())
		assert.Nil(t, c.Current())
	})

	h.Do(func() { c.Close(handle) })
	assert.Equal(t, 1, st.Cancelled(), "close must be idempotent")
}

func TestConsumer_EventPostedBeforeCloseIsDiscarded(t *testing.T) {
	h, src, c, got := setup(t)

	var handle *Handle
	h.Do(func() { handle = c.Open("C1", func(ev models.RealtimeEvent) { *got = append(*got, ev) }) })
	st := src.stream(0)

	// The delivery is queued behind a task that closes the handle.
	release := make(chan struct{})
	h.Loop.Post(func() {
		<-release
		c.Close(handle)
	})
	go func() {
		st.ch <- data(`{"type":"appointment","message":"late"}`)
		st.ch <- Delivery{}
		close(release)
	}()
	h.Settle()

	h.Do(func() { assert.Empty(t, *got) })
}

func TestConsumer_OpenClosesPreviousHandle(t *testing.T) {
	h, src, c, got := setup(t)

	var first, second *Handle
	h.Do(func() {
		first = c.Open("C1", func(ev models.RealtimeEvent) { *got = append(*got, ev) })
		second = c.Open("C1", func(ev models.RealtimeEvent) { *got = append(*got, ev) })
	})

	assert.Equal(t, 1, src.stream(0).Cancelled())
	assert.Equal(t, 0, src.stream(1).Cancelled())

	src.stream(0).push(h, data(`{"type":"appointment","message":"old"}`))
	src.stream(1).push(h, data(`{"type":"appointment","message":"new"}`))

	h.Do(func() {
		assert.True(t, first.Closed())
		assert.False(t, second.Closed())
		assert.Same(t, second, c.Current())
		require.Len(t, *got, 1, "overlapping handles must not duplicate events")
		assert.Equal(t, "new", (*got)[0].Message)
	})
}

func TestConsumer_StreamEndingMarksHandle(t *testing.T) {
	h, src, c, got := setup(t)

	var ended []*Handle
	c.OnEnded(func(hd *Handle) { ended = append(ended, hd) })

	var hd *Handle
	h.Do(func() { hd = c.Open("C123", func(ev models.RealtimeEvent) { *got = append(*got, ev) }) })
	st := src.stream(0)
	st.push(h, data(`{"type":"appointment","message":"last"}`))
	close(st.ch)

	require.Eventually(t, func() bool {
		var closed bool
		h.Do(func() { closed = hd.Closed() })
		return closed
	}, 2*time.Second, 5*time.Millisecond)

	h.Do(func() {
		assert.Nil(t, c.Current())
		assert.Equal(t, []*Handle{hd}, ended)
		require.Len(t, *got, 1)
		assert.Equal(t, "last", (*got)[0].Message)
	})

	// Closing an ended handle still releases the stream and reports nothing.
	h.Do(func() { c.Close(hd) })
	assert.Equal(t, 1, st.Cancelled())
	h.Do(func() { assert.Len(t, ended, 1) })
}
