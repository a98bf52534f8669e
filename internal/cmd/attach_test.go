package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Alia5/keybridge/apitypes"
)

func TestTermEvents(t *testing.T) {
	typeEv := func(s string) apitypes.KeyboardEvent {
		return apitypes.KeyboardEvent{Type: apitypes.EventType, Text: s}
	}
	clickEv := func(code string) apitypes.KeyboardEvent {
		return apitypes.KeyboardEvent{Type: apitypes.EventClick, Code: code}
	}
	tests := []struct {
		name   string
		in     string
		want   []apitypes.KeyboardEvent
		detach bool
	}{
		{name: "text", in: "héllo", want: []apitypes.KeyboardEvent{typeEv("héllo")}},
		{name: "enter splits text", in: "ls\r", want: []apitypes.KeyboardEvent{typeEv("ls"), clickEv("Enter")}},
		{name: "backspace", in: "ab\x7f", want: []apitypes.KeyboardEvent{typeEv("ab"), clickEv("Backspace")}},
		{name: "arrow", in: "\x1b[A", want: []apitypes.KeyboardEvent{clickEv("ArrowUp")}},
		{name: "delete", in: "\x1b[3~x", want: []apitypes.KeyboardEvent{clickEv("Delete"), typeEv("x")}},
		{name: "f1", in: "\x1bOP", want: []apitypes.KeyboardEvent{clickEv("F1")}},
		{name: "f5", in: "\x1b[15~", want: []apitypes.KeyboardEvent{clickEv("F5")}},
		{name: "f9 then f12", in: "\x1b[20~\x1b[24~", want: []apitypes.KeyboardEvent{clickEv("F9"), clickEv("F12")}},
		{name: "insert is not f9", in: "\x1b[2~", want: []apitypes.KeyboardEvent{clickEv("Insert")}},
		{name: "lone escape", in: "\x1b", want: []apitypes.KeyboardEvent{clickEv("Escape")}},
		{name: "ctrl c", in: "\x03", want: []apitypes.KeyboardEvent{
			{Type: apitypes.EventSticky, Code: "Control"},
			clickEv("KeyC"),
		}},
		{name: "detach drops the rest", in: "a\x1db", want: []apitypes.KeyboardEvent{typeEv("a")}, detach: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, detach := termEvents([]byte(tt.in))
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.detach, detach)
		})
	}
}
