package monitor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"
)

// Tailer follows a growing file by polling from the last-read byte offset.
// Only newline-terminated lines are emitted; a trailing partial line is
// buffered until a later poll completes it.
type Tailer struct {
	path     string
	interval time.Duration

	offset  int64
	partial []byte
}

// DefaultPollInterval is used when no positive interval is given.
const DefaultPollInterval = 100 * time.Millisecond

// NewTailer creates a tailer for path polling every interval.
func NewTailer(path string, interval time.Duration) *Tailer {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Tailer{path: path, interval: interval}
}

// Offset returns the number of bytes consumed so far.
func (t *Tailer) Offset() int64 { return t.offset }

// Poll reads whatever has been appended since the last call and returns the
// complete lines. A file that does not exist yet yields no lines.
func (t *Tailer) Poll() ([]string, error) {
	f, err := os.Open(t.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", t.path, err)
	}
	defer f.Close()

	if _, err := f.Seek(t.offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek %s: %w", t.path, err)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", t.path, err)
	}
	t.offset += int64(len(data))

	buf := append(t.partial, data...)
	var lines []string
	for {
		i := bytes.IndexByte(buf, '\n')
		if i < 0 {
			break
		}
		lines = append(lines, decodeLine(buf[:i]))
		buf = buf[i+1:]
	}
	t.partial = append([]byte(nil), buf...)
	return lines, nil
}

// Flush returns the buffered partial line, if any, and clears it. Call it
// once the writer is known to be done.
func (t *Tailer) Flush() (string, bool) {
	if len(t.partial) == 0 {
		return "", false
	}
	line := decodeLine(t.partial)
	t.partial = nil
	return line, true
}

// Follow polls until ctx is cancelled, handing each complete line to fn. After
// cancellation it performs one final poll and flushes the partial line so
// nothing written before the writer exited is lost.
func (t *Tailer) Follow(ctx context.Context, fn func(string)) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		t.emit(fn)
		select {
		case <-ctx.Done():
			t.emit(fn)
			if line, ok := t.Flush(); ok {
				fn(line)
			}
			return
		case <-ticker.C:
		}
	}
}

func (t *Tailer) emit(fn func(string)) {
	lines, err := t.Poll()
	if err != nil {
		// Transient read failures are retried on the next tick.
		return
	}
	for _, line := range lines {
		fn(line)
	}
}

// decodeLine drops a trailing CR and any invalid UTF-8 the compiler emitted.
func decodeLine(b []byte) string {
	return strings.ToValidUTF8(strings.TrimSuffix(string(b), "\r"), "")
}
