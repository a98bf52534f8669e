package transport_test

import (
	"bytes"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/keybridge/hid"
	"github.com/Alia5/keybridge/transport"
)

func TestFormat_Encode(t *testing.T) {
	r := hid.Report{Modifiers: hid.Modifiers(hid.ShiftLeft), Keys: []hid.KeyCode{hid.Key2}}
	tests := []struct {
		name   string
		format string
		want   []byte
	}{
		{name: "boot", format: "boot", want: []byte{0x02, 0, 0x1f, 0, 0, 0, 0, 0}},
		{name: "default is boot", format: "", want: []byte{0x02, 0, 0x1f, 0, 0, 0, 0, 0}},
		{name: "stream", format: "stream", want: []byte{0x02, 1, 0x1f}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := transport.ParseFormat(tt.format)
			require.NoError(t, err)
			got, err := f.Encode(r)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	_, err := transport.ParseFormat("hex")
	assert.Error(t, err)
}

func TestDeviceSink_WriteOnly(t *testing.T) {
	var buf bytes.Buffer
	s := transport.NewDeviceSink(&buf, transport.FormatStream, transport.NewLEDHub(), nil)
	require.NoError(t, s.WriteReport(hid.Report{Keys: []hid.KeyCode{hid.KeyA}}))
	require.NoError(t, s.WriteReport(hid.Report{}))
	assert.Equal(t, []byte{0, 1, 0x04, 0, 0}, buf.Bytes())
	require.NoError(t, s.Close())
	assert.Error(t, s.WriteReport(hid.Report{}))
}

func TestDeviceSink_ReadsLEDs(t *testing.T) {
	host, dev := net.Pipe()
	defer host.Close()
	leds := transport.NewLEDHub()
	changed := make(chan hid.LEDState, 1)
	leds.Subscribe(func(st hid.LEDState) { changed <- st })

	s := transport.NewDeviceSink(dev, transport.FormatBoot, leds, nil)

	go func() { _, _ = host.Write([]byte{hid.LEDCapsLock | hid.LEDNumLock}) }()
	select {
	case st := <-changed:
		assert.Equal(t, hid.LEDState{NumLock: true, CapsLock: true}, st)
	case <-time.After(2 * time.Second):
		t.Fatal("led state not read")
	}

	got := make(chan []byte, 1)
	go func() {
		b := make([]byte, 8)
		_, _ = io.ReadFull(host, b)
		got <- b
	}()
	require.NoError(t, s.WriteReport(hid.Report{Keys: []hid.KeyCode{hid.KeyB}}))
	assert.Equal(t, []byte{0, 0, 0x05, 0, 0, 0, 0, 0}, <-got)

	require.NoError(t, s.Close())
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("led reader still running after close")
	}
}
