package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManual_FiresInDeadlineOrder(t *testing.T) {
	clk := NewManual(time.Unix(0, 0))

	var order []string
	clk.AfterFunc(3*time.Second, func() { order = append(order, "c") })
	clk.AfterFunc(time.Second, func() { order = append(order, "a") })
	clk.AfterFunc(time.Second, func() { order = append(order, "b") })

	clk.Advance(5 * time.Second)

	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, time.Unix(5, 0), clk.Now())
}

func TestManual_FiresTimersArmedDuringAdvance(t *testing.T) {
	clk := NewManual(time.Unix(0, 0))

	fired := 0
	var arm func()
	arm = func() {
		clk.AfterFunc(time.Second, func() {
			fired++
			arm()
		})
	}
	arm()

	clk.Advance(180 * time.Second)

	assert.Equal(t, 180, fired)
	assert.Equal(t, 1, clk.Pending())
}

func TestManual_Stop(t *testing.T) {
	clk := NewManual(time.Unix(0, 0))

	fired := false
	s := clk.AfterFunc(time.Second, func() { fired = true })

	assert.True(t, s.Stop())
	assert.False(t, s.Stop())
	clk.Advance(time.Minute)

	assert.False(t, fired)
	assert.Equal(t, 0, clk.Pending())
}

func TestManual_NowObservedInsideCallback(t *testing.T) {
	start := time.Unix(100, 0)
	clk := NewManual(start)

	var at time.Time
	clk.AfterFunc(2*time.Second, func() { at = clk.Now() })
	clk.Advance(10 * time.Second)

	assert.Equal(t, start.Add(2*time.Second), at)
}
