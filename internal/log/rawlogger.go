package log

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"
)

// Direction of a raw chunk.
type Direction int

const (
	// Outbound is a report leaving the session for the device.
	Outbound Direction = iota
	// Inbound is data arriving from a client or from the device.
	Inbound
)

func (d Direction) String() string {
	if d == Inbound {
		return "C->S"
	}
	return "S->D"
}

// RawLogger dumps raw wire chunks.
type RawLogger interface {
	Log(dir Direction, data []byte)
}

type rawLogger struct {
	w   io.Writer
	mu  sync.Mutex
	now func() time.Time
}

// NewRaw returns a RawLogger writing one line per chunk to w. A nil w
// discards everything.
func NewRaw(w io.Writer) RawLogger {
	return &rawLogger{w: w, now: time.Now}
}

// Log writes a timestamped hex dump of data.
func (r *rawLogger) Log(dir Direction, data []byte) {
	if len(data) == 0 || r.w == nil {
		return
	}

	var hexbuf bytes.Buffer
	const hexdigits = "0123456789abcdef"
	for i, b := range data {
		if i > 0 {
			hexbuf.WriteByte(' ')
		}
		hexbuf.WriteByte(hexdigits[b>>4])
		hexbuf.WriteByte(hexdigits[b&0x0f])
	}

	line := fmt.Sprintf("%s %s %d bytes: %s\n",
		r.now().Format("2006/01/02 15:04:05.000"),
		dir,
		len(data),
		hexbuf.String())

	r.mu.Lock()
	_, _ = io.WriteString(r.w, line)
	r.mu.Unlock()
}
