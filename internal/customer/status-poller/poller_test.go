// internal/customer/status-poller/poller_test.go
package statuspoller

import (
	"context"
	"sync"
	"testing"
	"time"

	"franchise-portal/internal/common/errors"
	"franchise-portal/internal/common/logger"
	"franchise-portal/internal/common/scheduler/schedulertest"
	"franchise-portal/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Fetcher
// ==========================

type mockFetcher struct {
	mu        sync.Mutex
	calls     []string
	fetchFunc func(ctx context.Context, customerID string, call int) (*models.ApplicationRecord, error)
}

func (m *mockFetcher) GetCustomerApplication(ctx context.Context, customerID string) (*models.ApplicationRecord, error) {
	m.mu.Lock()
	m.calls = append(m.calls, customerID)
	call := len(m.calls)
	m.mu.Unlock()
	return m.fetchFunc(ctx, customerID, call)
}

func (m *mockFetcher) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func record(status string) *models.ApplicationRecord {
	return &models.ApplicationRecord{ApplicationID: "A-1", Name: "Asha", Status: status}
}

func setup(t *testing.T, f *mockFetcher) (*schedulertest.Harness, *Poller) {
	h := schedulertest.Start(t)
	p := NewPoller(&Config{Timeout: time.Second}, h.Loop, h.Clock, f, "C123", logger.NewNoOpLogger(), nil)
	return h, p
}

func waitForCalls(t *testing.T, f *mockFetcher, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return len(f.Calls()) >= n }, 2*time.Second, time.Millisecond)
}

func state(h *schedulertest.Harness, p *Poller) State {
	var s State
	h.Do(func() { s = p.State() })
	return s
}

// ==========================
// Tests
// ==========================

func TestPoller_FirstLoadSuccess(t *testing.T) {
	f := &mockFetcher{fetchFunc: func(ctx context.Context, id string, call int) (*models.ApplicationRecord, error) {
		return record("Pending"), nil
	}}
	h, p := setup(t, f)

	h.Do(p.Fetch)

	s := state(h, p)
	require.NotNil(t, s.Record)
	assert.Equal(t, "Pending", s.Record.Status)
	assert.True(t, s.Loaded)
	assert.False(t, s.Loading)
	assert.False(t, s.Stale)
	assert.NoError(t, s.LastError)
	assert.Equal(t, schedulertest.Epoch, s.FetchedAt)
	assert.Equal(t, []string{"C123"}, f.Calls())
}

func TestPoller_FirstLoadFailureHasNoFallback(t *testing.T) {
	f := &mockFetcher{fetchFunc: func(ctx context.Context, id string, call int) (*models.ApplicationRecord, error) {
		return nil, errors.NewApplicationFetchFailedError(id, context.DeadlineExceeded)
	}}
	h, p := setup(t, f)

	h.Do(p.Fetch)

	s := state(h, p)
	assert.False(t, s.Available())
	assert.False(t, s.Loaded)
	assert.False(t, s.Stale)
	assert.True(t, errors.IsCode(s.LastError, errors.ErrCodeApplicationFetchFailed))
}

func TestPoller_FailedRefetchKeepsLastKnownGood(t *testing.T) {
	f := &mockFetcher{fetchFunc: func(ctx context.Context, id string, call int) (*models.ApplicationRecord, error) {
		switch call {
		case 1:
			return record("Pending"), nil
		case 2:
			return nil, errors.NewApplicationDecodeFailedError(nil)
		}
		return record("Approved"), nil
	}}
	h, p := setup(t, f)

	h.Do(p.Fetch)
	h.Do(p.Fetch)

	s := state(h, p)
	require.NotNil(t, s.Record)
	assert.Equal(t, "Pending", s.Record.Status)
	assert.True(t, s.Stale, "a retained record after a failed refresh must be marked stale")
	assert.Error(t, s.LastError)

	h.Do(p.Fetch)
	s = state(h, p)
	assert.Equal(t, "Approved", s.Record.Status)
	assert.False(t, s.Stale)
	assert.NoError(t, s.LastError)
}

func TestPoller_RecordReplacedWholesale(t *testing.T) {
	f := &mockFetcher{fetchFunc: func(ctx context.Context, id string, call int) (*models.ApplicationRecord, error) {
		if call == 1 {
			return &models.ApplicationRecord{ApplicationID: "A-1", Phone: "111", Status: "Pending"}, nil
		}
		return &models.ApplicationRecord{ApplicationID: "A-1", Status: "Approved"}, nil
	}}
	h, p := setup(t, f)

	h.Do(p.Fetch)
	first := state(h, p).Record
	h.Do(p.Fetch)
	second := state(h, p).Record

	assert.Equal(t, "111", first.Phone)
	assert.Empty(t, second.Phone)
	assert.NotSame(t, first, second)
}

func TestPoller_DiscardsOutOfOrderResponses(t *testing.T) {
	release := []chan struct{}{make(chan struct{}), make(chan struct{})}
	f := &mockFetcher{fetchFunc: func(ctx context.Context, id string, call int) (*models.ApplicationRecord, error) {
		<-release[call-1]
		if call == 1 {
			return record("Pending"), nil
		}
		return record("Approved"), nil
	}}
	h, p := setup(t, f)

	h.Loop.Call(p.Fetch)
	waitForCalls(t, f, 1)
	h.Loop.Call(p.Fetch)
	waitForCalls(t, f, 2)

	close(release[1])
	require.Eventually(t, func() bool {
		var st string
		h.Loop.Call(func() {
			if p.State().Record != nil {
				st = p.State().Record.Status
			}
		})
		return st == "Approved"
	}, 2*time.Second, 5*time.Millisecond)

	close(release[0])
	h.Settle()

	s := state(h, p)
	assert.Equal(t, "Approved", s.Record.Status)
	assert.False(t, s.Loading)
}

func TestPoller_LoadingWhileLaterFetchOutstanding(t *testing.T) {
	gate := make(chan struct{})
	f := &mockFetcher{fetchFunc: func(ctx context.Context, id string, call int) (*models.ApplicationRecord, error) {
		if call == 2 {
			<-gate
		}
		return record("Pending"), nil
	}}
	h, p := setup(t, f)

	var seen []State
	h.Loop.Call(func() {
		p.OnChange(func(s State) { seen = append(seen, s) })
		p.Fetch()
	})
	waitForCalls(t, f, 1)
	h.Loop.Call(p.Fetch)
	require.Eventually(t, func() bool {
		loaded := false
		h.Loop.Call(func() { loaded = p.State().Loaded })
		return loaded
	}, 2*time.Second, 5*time.Millisecond)

	h.Loop.Call(func() { assert.True(t, p.State().Loading) })

	close(gate)
	h.Settle()
	assert.False(t, state(h, p).Loading)
	h.Do(func() { assert.GreaterOrEqual(t, len(seen), 3) })
}

func TestPoller_CloseIgnoresLateResults(t *testing.T) {
	gate := make(chan struct{})
	f := &mockFetcher{fetchFunc: func(ctx context.Context, id string, call int) (*models.ApplicationRecord, error) {
		select {
		case <-gate:
			return record("Approved"), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}}
	h, p := setup(t, f)

	h.Loop.Call(func() {
		p.Fetch()
		p.Close()
	})
	h.Settle()

	s := state(h, p)
	assert.Nil(t, s.Record)
	assert.NoError(t, s.LastError)

	h.Do(p.Fetch)
	assert.Len(t, f.Calls(), 1)
}
