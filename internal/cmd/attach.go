package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/Alia5/keybridge/apiclient"
	"github.com/Alia5/keybridge/apitypes"
)

// detachKey ends an attach session (Ctrl+]).
const detachKey = 0x1d

// Attach forwards the local terminal to the remote keyboard. Printable
// input is typed through the active layout; control keys become key clicks.
type Attach struct {
	ClientOptions `embed:""`
}

func (c *Attach) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ks, err := c.client().OpenKeyboard(ctx)
	if err != nil {
		return err
	}
	defer ks.Close()

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		old, err := term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("raw mode: %w", err)
		}
		defer func() { _ = term.Restore(fd, old) }()
		fmt.Fprint(os.Stderr, "attached, press Ctrl+] to detach\r\n")
	}

	notices, errs := ks.Notices(ctx)
	go func() {
		for n := range notices {
			switch n.Type {
			case apitypes.NoticeWarning, apitypes.NoticeError:
				fmt.Fprintf(os.Stderr, "\r\n[%s] %s\r\n", n.Type, n.Detail)
			case apitypes.NoticeLEDs:
				fmt.Fprintf(os.Stderr, "\r\n[leds] num=%t caps=%t scroll=%t\r\n", n.LEDs.NumLock, n.LEDs.CapsLock, n.LEDs.ScrollLock)
			}
		}
	}()

	input := make(chan []byte)
	go readInput(os.Stdin, input)

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errs:
			if err == nil || errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		case chunk, ok := <-input:
			if !ok {
				return nil
			}
			events, detach := termEvents(chunk)
			for _, ev := range events {
				if err := ks.Send(ev); err != nil {
					return err
				}
			}
			if detach {
				return nil
			}
		}
	}
}

func readInput(r io.Reader, out chan<- []byte) {
	defer close(out)
	br := bufio.NewReader(r)
	buf := make([]byte, 256)
	for {
		n, err := br.Read(buf)
		if n > 0 {
			out <- append([]byte(nil), buf[:n]...)
		}
		if err != nil {
			return
		}
	}
}

var escapeKeys = map[string]string{
	"[A": "ArrowUp", "[B": "ArrowDown", "[C": "ArrowRight", "[D": "ArrowLeft",
	"[H": "Home", "[F": "End", "[2~": "Insert", "[3~": "Delete",
	"[5~": "PageUp", "[6~": "PageDown",
	"OP": "F1", "OQ": "F2", "OR": "F3", "OS": "F4",
	"[15~": "F5", "[17~": "F6", "[18~": "F7", "[19~": "F8",
	"[20~": "F9", "[21~": "F10", "[23~": "F11", "[24~": "F12",
}

// termEvents converts raw terminal input to keyboard events. Runs of
// printable text become one "type" event; control bytes and escape
// sequences become clicks. detach reports that Ctrl+] was seen; input after
// it is dropped.
func termEvents(in []byte) (events []apitypes.KeyboardEvent, detach bool) {
	var text []byte
	flush := func() {
		if len(text) > 0 {
			events = append(events, apitypes.KeyboardEvent{Type: apitypes.EventType, Text: string(text)})
			text = nil
		}
	}
	click := func(code string) {
		flush()
		events = append(events, apitypes.KeyboardEvent{Type: apitypes.EventClick, Code: code})
	}

	for i := 0; i < len(in); i++ {
		b := in[i]
		switch {
		case b == detachKey:
			flush()
			return events, true
		case b == '\r' || b == '\n':
			click("Enter")
		case b == '\t':
			click("Tab")
		case b == 0x7f || b == 0x08:
			click("Backspace")
		case b == 0x1b:
			seq, n := matchEscape(in[i+1:])
			if seq == "" {
				click("Escape")
				continue
			}
			click(seq)
			i += n
		case b >= 0x01 && b <= 0x1a:
			flush()
			events = append(events,
				apitypes.KeyboardEvent{Type: apitypes.EventSticky, Code: "Control"},
				apitypes.KeyboardEvent{Type: apitypes.EventClick, Code: fmt.Sprintf("Key%c", 'A'+b-1)},
			)
		case b < 0x20:
		default:
			text = append(text, b)
		}
	}
	flush()
	return events, false
}

func matchEscape(rest []byte) (code string, n int) {
	for seq, key := range escapeKeys {
		if len(rest) >= len(seq) && string(rest[:len(seq)]) == seq {
			return key, len(seq)
		}
	}
	return "", 0
}
