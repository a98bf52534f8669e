package apiclient

import (
	"bufio"
	"context"
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/Alia5/keybridge/apitypes"
)

// ErrStreamClosed is returned by writes on a closed stream.
var ErrStreamClosed = errors.New("stream closed")

// Stream is a bidirectional connection opened with a stream path. The
// server keeps it open until either side closes it.
type Stream struct {
	conn net.Conn
	Path string

	mu     sync.Mutex
	closed bool

	readCancel context.CancelFunc
	readMu     sync.Mutex
}

// OpenStream dials, authenticates when configured and sends path.
func (t *Transport) OpenStream(ctx context.Context, path string) (*Stream, error) {
	if t.mock != nil {
		return nil, fmt.Errorf("stream connections not supported with mock transport")
	}
	conn, err := t.dial(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Write([]byte(path + "\x00")); err != nil {
		conn.Close()
		return nil, fmt.Errorf("write stream path: %w", err)
	}
	return &Stream{conn: conn, Path: path}, nil
}

// Write sends raw bytes.
func (s *Stream) Write(data []byte) (int, error) {
	if s.isClosed() {
		return 0, ErrStreamClosed
	}
	return s.conn.Write(data)
}

// WriteBinary marshals v and sends it as one write.
func (s *Stream) WriteBinary(v encoding.BinaryMarshaler) error {
	if s.isClosed() {
		return ErrStreamClosed
	}
	data, err := v.MarshalBinary()
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	_, err = s.conn.Write(data)
	return err
}

// Read receives raw bytes. Use StartReading for event-driven reads.
func (s *Stream) Read(buf []byte) (int, error) {
	if s.isClosed() {
		return 0, ErrStreamClosed
	}
	return s.conn.Read(buf)
}

// StartReading decodes messages in a background goroutine until ctx ends,
// the stream closes or decode fails. decode reads exactly one message.
func StartReading[T any](ctx context.Context, s *Stream, chSize int, decode func(r *bufio.Reader) (T, error)) (<-chan T, <-chan error) {
	s.readMu.Lock()
	defer s.readMu.Unlock()

	if s.readCancel != nil {
		panic("StartReading called twice on the same stream")
	}

	msgCh := make(chan T, chSize)
	errCh := make(chan error, 1)

	readCtx, cancel := context.WithCancel(ctx)
	s.readCancel = cancel

	go func() {
		defer close(msgCh)
		defer close(errCh)
		defer cancel()

		r := bufio.NewReader(s.conn)
		for {
			if readCtx.Err() != nil {
				errCh <- readCtx.Err()
				return
			}
			if s.isClosed() {
				errCh <- io.EOF
				return
			}

			msg, err := decode(r)
			if err != nil {
				errCh <- err
				return
			}

			select {
			case msgCh <- msg:
			case <-readCtx.Done():
				errCh <- readCtx.Err()
				return
			}
		}
	}()

	return msgCh, errCh
}

// SetReadDeadline sets the read deadline for the underlying connection.
func (s *Stream) SetReadDeadline(t time.Time) error {
	return s.conn.SetReadDeadline(t)
}

// SetWriteDeadline sets the write deadline for the underlying connection.
func (s *Stream) SetWriteDeadline(t time.Time) error {
	return s.conn.SetWriteDeadline(t)
}

func (s *Stream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close closes the connection and stops background reading.
func (s *Stream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.readMu.Lock()
	if s.readCancel != nil {
		s.readCancel()
	}
	s.readMu.Unlock()

	return s.conn.Close()
}

// KeyboardStream sends keyboard events as JSON lines and receives notices.
type KeyboardStream struct {
	*Stream
	enc *json.Encoder
	wmu sync.Mutex
}

// OpenKeyboard opens the keyboard event stream.
func (c *Client) OpenKeyboard(ctx context.Context) (*KeyboardStream, error) {
	s, err := c.transport.OpenStream(ctx, "keyboard")
	if err != nil {
		return nil, err
	}
	return &KeyboardStream{Stream: s, enc: json.NewEncoder(s.conn)}, nil
}

// Send writes one event.
func (k *KeyboardStream) Send(ev apitypes.KeyboardEvent) error {
	if k.isClosed() {
		return ErrStreamClosed
	}
	k.wmu.Lock()
	defer k.wmu.Unlock()
	return k.enc.Encode(ev)
}

// KeyDown sends a keydown event.
func (k *KeyboardStream) KeyDown(code, key string, mods apitypes.HostModifiers) error {
	return k.Send(apitypes.KeyboardEvent{Type: apitypes.EventKeyDown, Code: code, Key: key, Modifiers: mods})
}

// KeyUp sends a keyup event.
func (k *KeyboardStream) KeyUp(code, key string, mods apitypes.HostModifiers) error {
	return k.Send(apitypes.KeyboardEvent{Type: apitypes.EventKeyUp, Code: code, Key: key, Modifiers: mods})
}

// Notices reads server notices until ctx ends or the stream closes.
func (k *KeyboardStream) Notices(ctx context.Context) (<-chan apitypes.Notice, <-chan error) {
	return StartReading(ctx, k.Stream, 16, func(r *bufio.Reader) (apitypes.Notice, error) {
		var n apitypes.Notice
		line, err := r.ReadBytes('\n')
		if err != nil {
			return n, err
		}
		if err := json.Unmarshal(line, &n); err != nil {
			return n, fmt.Errorf("decode notice: %w", err)
		}
		return n, nil
	})
}
