package transport

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/Alia5/keybridge/hid"
)

// Format selects the report encoding written to a device.
type Format int

const (
	// FormatBoot is the 8-byte boot protocol keyboard report.
	FormatBoot Format = iota
	// FormatStream is the variable-length [mods, count, keys...] encoding
	// used by VIIPER keyboard streams.
	FormatStream
)

// ParseFormat maps "boot" or "stream".
func ParseFormat(s string) (Format, error) {
	switch s {
	case "boot", "":
		return FormatBoot, nil
	case "stream":
		return FormatStream, nil
	}
	return 0, fmt.Errorf("unknown report format %q", s)
}

// Encode renders r in format f.
func (f Format) Encode(r hid.Report) ([]byte, error) {
	if f == FormatStream {
		return r.MarshalBinary()
	}
	b := r.BootReport()
	return b[:], nil
}

// DeviceSink writes encoded reports to a device file or stream and reads
// 1-byte LED output reports from it when it is readable.
type DeviceSink struct {
	w      io.Writer
	c      io.Closer
	format Format
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// NewDeviceSink writes to w. When w is also an io.Reader and leds is not
// nil, LED bytes read from it are published to leds.
func NewDeviceSink(w io.Writer, format Format, leds *LEDHub, logger *slog.Logger) *DeviceSink {
	if logger == nil {
		logger = slog.Default()
	}
	d := &DeviceSink{w: w, format: format, logger: logger, done: make(chan struct{})}
	if c, ok := w.(io.Closer); ok {
		d.c = c
	}
	r, readable := w.(io.Reader)
	if readable && leds != nil {
		go d.readLEDs(r, leds)
	} else {
		close(d.done)
	}
	return d
}

// OpenGadget opens a Linux USB gadget HID function such as /dev/hidg0. The
// gadget must be configured with the boot keyboard report descriptor.
func OpenGadget(path string, leds *LEDHub, logger *slog.Logger) (*DeviceSink, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open gadget: %w", err)
	}
	return NewDeviceSink(f, FormatBoot, leds, logger), nil
}

func (d *DeviceSink) readLEDs(r io.Reader, leds *LEDHub) {
	defer close(d.done)
	var buf [1]byte
	for {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			if !d.isClosed() && !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				d.logger.Warn("led read stopped", "error", err)
			}
			return
		}
		var st hid.LEDState
		_ = st.UnmarshalBinary(buf[:])
		d.logger.Debug("leds", "state", st.String())
		leds.Set(st)
	}
}

func (d *DeviceSink) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// WriteReport writes r as one write.
func (d *DeviceSink) WriteReport(r hid.Report) error {
	b, err := d.format.Encode(r)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return os.ErrClosed
	}
	if _, err := d.w.Write(b); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// Close closes the underlying device. The LED reader ends with it.
func (d *DeviceSink) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	if d.c == nil {
		return nil
	}
	return d.c.Close()
}

// Done is closed when the LED reader has stopped.
func (d *DeviceSink) Done() <-chan struct{} { return d.done }
