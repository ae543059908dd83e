// internal/customer/event-stream/sse.go
package eventstream

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"franchise-portal/internal/common/metrics"
)

const maxFrameSize = 1 << 20

// readFrames parses a text/event-stream body and calls fn for every frame
// that carries data. It stops when fn returns false or the body ends. A frame
// whose lines or data exceed maxFrameSize is skipped and reading continues.
func readFrames(r io.Reader, fn func(Frame) bool) error {
	br := bufio.NewReaderSize(r, 4096)

	var (
		frame     Frame
		data      []string
		size      int
		oversized bool
	)
	flush := func() bool {
		defer func() {
			frame = Frame{ID: frame.ID}
			data, size, oversized = data[:0], 0, false
		}()
		if oversized {
			metrics.StreamEventsDropped.WithLabelValues(metrics.DropOversize).Inc()
			return true
		}
		if len(data) == 0 {
			return true
		}
		frame.Data = strings.Join(data, "\n")
		return fn(frame)
	}

	for {
		raw, tooLong, err := readLine(br, maxFrameSize)
		if err != nil && err != io.EOF {
			return err
		}

		switch {
		case tooLong:
			oversized = true
		case len(raw) == 0:
			if err == nil && !flush() {
				return nil
			}
		case raw[0] == ':':
		default:
			line := string(raw)
			field, value := line, ""
			if i := strings.IndexByte(line, ':'); i >= 0 {
				field, value = line[:i], strings.TrimPrefix(line[i+1:], " ")
			}
			switch field {
			case "data":
				size += len(value) + 1
				if size > maxFrameSize {
					oversized = true
				} else {
					data = append(data, value)
				}
			case "event":
				frame.Event = value
			case "id":
				frame.ID = value
			}
		}

		if err == io.EOF {
			return nil
		}
	}
}

// readLine returns the next line without its terminator. A line longer than
// max is consumed up to its newline and reported as tooLong with no content.
func readLine(br *bufio.Reader, max int) ([]byte, bool, error) {
	var (
		line    []byte
		tooLong bool
	)
	for {
		chunk, err := br.ReadSlice('\n')
		if !tooLong {
			if len(line)+len(chunk) > max {
				tooLong, line = true, nil
			} else {
				line = append(line, chunk...)
			}
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		line = bytes.TrimSuffix(line, []byte("\n"))
		line = bytes.TrimSuffix(line, []byte("\r"))
		return line, tooLong, err
	}
}
