package keyboard_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/keybridge/hid"
	"github.com/Alia5/keybridge/keyboard"
	"github.com/Alia5/keybridge/layout"
	"github.com/Alia5/keybridge/macro"
)

type syncSink struct {
	mu      sync.Mutex
	reports []hid.Report
}

func (s *syncSink) WriteReport(r hid.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, r.Clone())
	return nil
}

func (s *syncSink) all() []hid.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]hid.Report(nil), s.reports...)
}

type mockSink struct {
	mock.Mock
}

func (m *mockSink) WriteReport(r hid.Report) error {
	args := m.Called(r)
	return args.Error(0)
}

func newSession(t *testing.T) (*keyboard.Session, *syncSink, *keyboard.ManualScheduler, *layout.Registry) {
	t.Helper()
	reg := layout.NewRegistry(nil)
	sink := &syncSink{}
	sched := keyboard.NewManualScheduler()
	s := keyboard.NewSession(keyboard.DefaultConfig(), reg, sink, nil, keyboard.WithScheduler(sched))
	t.Cleanup(func() { _ = s.Close() })
	return s, sink, sched, reg
}

// advance moves the fake clock and waits for the fired callbacks to run on
// the session loop.
func advance(t *testing.T, s *keyboard.Session, sched *keyboard.ManualScheduler, d time.Duration) {
	t.Helper()
	sched.Advance(d)
	require.NoError(t, s.Flush())
}

func TestSession_EventsInOrder(t *testing.T) {
	s, sink, _, _ := newSession(t)

	require.NoError(t, s.KeyDown(keyboard.KeyEvent{Code: "Digit2", Key: "@"}))
	assert.Equal(t, hid.Report{Modifiers: hid.Modifiers(hid.ShiftLeft), Keys: []hid.KeyCode{hid.Key2}}, s.Report())

	require.NoError(t, s.KeyUp(keyboard.KeyEvent{Code: "Digit2", Key: "@"}))
	assert.Equal(t, []hid.Report{
		{Modifiers: hid.Modifiers(hid.ShiftLeft), Keys: []hid.KeyCode{hid.Key2}},
		{},
	}, sink.all())
}

func TestSession_BlurWithHeldKeys(t *testing.T) {
	s, sink, _, _ := newSession(t)
	mods := keyboard.HostModifiers{Shift: true, Alt: true}
	for _, ev := range []keyboard.KeyEvent{
		{Code: "ShiftLeft", Key: "Shift", Modifiers: mods},
		{Code: "AltLeft", Key: "Alt", Modifiers: mods},
		{Code: "KeyJ", Key: "J", Modifiers: mods},
		{Code: "KeyK", Key: "K", Modifiers: mods},
		{Code: "KeyL", Key: "L", Modifiers: mods},
	} {
		require.NoError(t, s.KeyDown(ev))
	}
	require.Len(t, s.Records(), 3)

	require.NoError(t, s.Blur())
	reports := sink.all()
	assert.Equal(t, hid.Report{}, reports[len(reports)-1])
	assert.Empty(t, s.Records())

	require.NoError(t, s.VisibilityChange())
	assert.Equal(t, hid.Report{}, s.Report())
}

func TestSession_MacroStepTiming(t *testing.T) {
	s, sink, sched, _ := newSession(t)
	done := make(chan error, 1)
	m := macro.Macro{ID: "b", Name: "shift a", Steps: []macro.Step{
		{Keys: []string{"KeyA"}, Modifiers: []string{"ShiftLeft"}, Delay: 100},
	}}

	require.NoError(t, s.StartMacro(m, func(err error) { done <- err }))
	assert.Equal(t, []hid.Report{{Modifiers: hid.Modifiers(hid.ShiftLeft), Keys: []hid.KeyCode{hid.KeyA}}}, sink.all())

	advance(t, s, sched, 99*time.Millisecond)
	assert.Len(t, sink.all(), 1)

	advance(t, s, sched, time.Millisecond)
	reports := sink.all()
	require.Len(t, reports, 2)
	assert.Equal(t, hid.Report{}, reports[1])
	assert.NoError(t, <-done)
}

func TestSession_PlayMacroContextCancel(t *testing.T) {
	s, sink, _, _ := newSession(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.PlayMacro(ctx, macro.Macro{ID: "long", Name: "long", Steps: []macro.Step{{Keys: []string{"KeyL"}, Delay: 5000}}})
	assert.ErrorIs(t, err, keyboard.ErrMacroCancelled)

	reports := sink.all()
	assert.Equal(t, hid.Report{}, reports[len(reports)-1])
}

func TestSession_LayoutSwitchCancelsMacro(t *testing.T) {
	s, sink, sched, reg := newSession(t)
	done := make(chan error, 1)
	require.NoError(t, s.StartMacro(macro.Macro{ID: "m", Name: "m", Steps: []macro.Step{
		{Keys: []string{"KeyM"}, Delay: 1000},
	}}, func(err error) { done <- err }))

	_, err := reg.SetActive("fr_FR")
	require.NoError(t, err)
	require.NoError(t, s.Flush())
	assert.ErrorIs(t, <-done, keyboard.ErrMacroCancelled)

	n := len(sink.all())
	advance(t, s, sched, 2*time.Second)
	assert.Len(t, sink.all(), n)
}

func TestSession_MetaReleaseOnLoop(t *testing.T) {
	s, _, sched, _ := newSession(t)
	meta := keyboard.HostModifiers{Meta: true}
	require.NoError(t, s.KeyDown(keyboard.KeyEvent{Code: "MetaLeft", Key: "Meta", Modifiers: meta}))
	require.NoError(t, s.KeyDown(keyboard.KeyEvent{Code: "KeyR", Key: "r", Modifiers: meta}))

	advance(t, s, sched, 10*time.Millisecond)
	assert.Empty(t, s.Records())
	assert.Equal(t, hid.Report{Modifiers: hid.Modifiers(hid.MetaLeft)}, s.Report())
}

func TestSession_TypeText(t *testing.T) {
	s, sink, _, reg := newSession(t)
	_, err := reg.SetActive("de_DE")
	require.NoError(t, err)

	err = s.TypeText("z@☃")
	require.ErrorIs(t, err, layout.ErrUnmappedCharacter)
	var unmapped *keyboard.UnmappedError
	require.True(t, errors.As(err, &unmapped))
	assert.Equal(t, []string{"☃"}, unmapped.Chars)
	assert.Equal(t, "de_DE", unmapped.Layout)

	assert.Equal(t, []hid.Report{
		{Keys: []hid.KeyCode{hid.KeyY}},
		{},
		{Modifiers: hid.Modifiers(hid.AltRight), Keys: []hid.KeyCode{hid.KeyQ}},
		{},
	}, sink.all())
}

func TestSession_ClickWithSticky(t *testing.T) {
	s, sink, _, _ := newSession(t)
	require.NoError(t, s.Click("Control"))
	assert.True(t, s.Sticky().Ctrl)
	require.NoError(t, s.Click("KeyC"))
	assert.False(t, s.Sticky().Ctrl)
	assert.Equal(t, []hid.Report{
		{Modifiers: hid.Modifiers(hid.CtrlLeft), Keys: []hid.KeyCode{hid.KeyC}},
		{},
	}, sink.all())
}

func TestSession_SinkErrorsDoNotStopTheLoop(t *testing.T) {
	sink := &mockSink{}
	sink.On("WriteReport", mock.Anything).Return(errors.New("link down"))
	s := keyboard.NewSession(keyboard.DefaultConfig(), layout.NewRegistry(nil), sink, nil)

	require.NoError(t, s.KeyDown(keyboard.KeyEvent{Code: "KeyA", Key: "a"}))
	require.NoError(t, s.KeyUp(keyboard.KeyEvent{Code: "KeyA", Key: "a"}))
	require.NoError(t, s.Close())

	sink.AssertCalled(t, "WriteReport", hid.Report{Keys: []hid.KeyCode{hid.KeyA}})
	sink.AssertNumberOfCalls(t, "WriteReport", 3)
}

func TestSession_Closed(t *testing.T) {
	s, _, _, _ := newSession(t)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.KeyDown(keyboard.KeyEvent{Code: "KeyA"}), keyboard.ErrSessionClosed)
}

func TestSession_TypeTextPastLimitKeepsLatches(t *testing.T) {
	s, _, _, _ := newSession(t)
	for _, code := range []string{"KeyA", "KeyB", "KeyC", "KeyD", "KeyE", "KeyF"} {
		require.NoError(t, s.KeyDown(keyboard.KeyEvent{Code: code}))
	}
	require.NoError(t, s.Click("ShiftLeft"))

	assert.ErrorIs(t, s.TypeText("g"), hid.ErrKeyLimitExceeded)
	assert.True(t, s.Sticky().Shift)
}

func TestSession_MacroReleaseKeepsHeldKeys(t *testing.T) {
	held := hid.Report{Keys: []hid.KeyCode{hid.KeyH}}
	m := macro.Macro{ID: "r", Name: "r", Steps: []macro.Step{{Keys: []string{"KeyR"}, Delay: 100}, {Keys: []string{"KeyS"}, Delay: 100}}}
	tests := []struct {
		name string
		end  func(t *testing.T, s *keyboard.Session, sched *keyboard.ManualScheduler)
	}{
		{name: "step release", end: func(t *testing.T, s *keyboard.Session, sched *keyboard.ManualScheduler) {
			advance(t, s, sched, 100*time.Millisecond)
		}},
		{name: "cancel", end: func(t *testing.T, s *keyboard.Session, _ *keyboard.ManualScheduler) {
			require.NoError(t, s.CancelMacro())
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, sink, sched, _ := newSession(t)
			require.NoError(t, s.KeyDown(keyboard.KeyEvent{Code: "KeyH", Key: "h"}))
			require.NoError(t, s.StartMacro(m, nil))

			tt.end(t, s, sched)
			reports := sink.all()
			assert.Equal(t, held, reports[len(reports)-1])
			assert.Len(t, s.Records(), 1)
		})
	}
}
