package eventstream

import (
	"strings"
	"testing"

	"franchise-portal/internal/common/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, body string) []Frame {
	t.Helper()
	var frames []Frame
	err := readFrames(strings.NewReader(body), func(f Frame) bool {
		frames = append(frames, f)
		return true
	})
	require.NoError(t, err)
	return frames
}

func TestReadFrames(t *testing.T) {
	body := ": connected\n\n" +
		"data: {\"type\":\"appointment\"}\n\n" +
		"id: 7\r\nevent: statusUpdate\r\ndata: line1\r\ndata:line2\r\n\r\n" +
		"data\n\n" +
		"retry: 3000\n\n" +
		"data: trailing without blank line"

	frames := collect(t, body)
	require.Len(t, frames, 3)

	assert.Equal(t, `{"type":"appointment"}`, frames[0].Data)
	assert.Empty(t, frames[0].Event)

	assert.Equal(t, "statusUpdate", frames[1].Event)
	assert.Equal(t, "7", frames[1].ID)
	assert.Equal(t, "line1\nline2", frames[1].Data)

	assert.Equal(t, "", frames[2].Data)
	assert.Equal(t, "7", frames[2].ID, "last event id carries over")
}

func TestReadFrames_StopsWhenAsked(t *testing.T) {
	calls := 0
	err := readFrames(strings.NewReader("data: a\n\ndata: b\n\n"), func(Frame) bool {
		calls++
		return false
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestReadFrames_SkipsOversizedFrames(t *testing.T) {
	dropped := metrics.StreamEventsDropped.WithLabelValues(metrics.DropOversize)
	before := testutil.ToFloat64(dropped)

	half := strings.Repeat("y", maxFrameSize/2+1)
	body := "data: " + strings.Repeat("x", maxFrameSize+10) + "\n\n" +
		"data: first\n\n" +
		"id: 9\ndata: " + half + "\ndata: " + half + "\n\n" +
		": " + strings.Repeat("c", 3*maxFrameSize) + "\r\n\n" +
		"data: second\n\n"

	frames := collect(t, body)
	require.Len(t, frames, 2)
	assert.Equal(t, "first", frames[0].Data)
	assert.Equal(t, "second", frames[1].Data)
	assert.Equal(t, "9", frames[1].ID)
	assert.Equal(t, 3.0, testutil.ToFloat64(dropped)-before)
}
