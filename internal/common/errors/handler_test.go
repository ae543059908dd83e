package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type logEntry struct {
	level  string
	msg    string
	fields map[string]interface{}
}

type recordingLogger struct {
	entries []logEntry
}

func (l *recordingLogger) Warn(msg string, fields map[string]interface{}) {
	l.entries = append(l.entries, logEntry{"warn", msg, fields})
}

func (l *recordingLogger) Error(msg string, fields map[string]interface{}) {
	l.entries = append(l.entries, logEntry{"error", msg, fields})
}

func TestHandle_Nil(t *testing.T) {
	log := &recordingLogger{}
	assert.Nil(t, NewErrorHandler(log).Handle("noop", nil))
	assert.Empty(t, log.entries)
}

func TestHandle_StandardError(t *testing.T) {
	log := &recordingLogger{}
	h := NewErrorHandler(log)

	in := NewApplicationFetchFailedError("C123", stderrors.New("timeout")).WithMetadata("customerId", "C123")
	out := h.Handle("fetch application", in)

	assert.Same(t, in, out)
	require.Len(t, log.entries, 1)
	e := log.entries[0]
	assert.Equal(t, "error", e.level)
	assert.Equal(t, "fetch application", e.fields["op"])
	assert.Equal(t, "APPLICATION_FETCH_FAILED", e.fields["errorCode"])
	assert.Equal(t, "FETCH", e.fields["errorCategory"])
	assert.Equal(t, true, e.fields["retryable"])
	assert.Equal(t, "C123", e.fields["customerId"])
}

func TestHandle_StreamDecodeIsWarning(t *testing.T) {
	log := &recordingLogger{}
	NewErrorHandler(log).Handle("decode event", NewStreamDecodeFailedError("{", stderrors.New("unexpected EOF")))

	require.Len(t, log.entries, 1)
	assert.Equal(t, "warn", log.entries[0].level)
	assert.Equal(t, "dropped malformed event", log.entries[0].msg)
}

func TestHandle_NormalizesPlainErrors(t *testing.T) {
	log := &recordingLogger{}
	cause := stderrors.New("boom")

	out := NewErrorHandler(log).Handle("something", cause)

	require.NotNil(t, out)
	assert.Equal(t, ErrCodeInternal, out.Code)
	assert.Equal(t, "boom", out.Details)
	assert.ErrorIs(t, out, cause)
	assert.Equal(t, "OTHER", log.entries[0].fields["errorCategory"])
}
