package keyboard_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/keybridge/hid"
	"github.com/Alia5/keybridge/keyboard"
)

func newVirtual(t *testing.T, layoutName string, sticky bool) (*keyboard.VirtualKeyboard, *keyboard.Pipeline, *recorder) {
	t.Helper()
	p, rec, _ := newPipeline(t, layoutName)
	return keyboard.NewVirtualKeyboard(p, sticky), p, rec
}

func TestVirtual_StickyShiftIsOneShot(t *testing.T) {
	v, _, rec := newVirtual(t, "en_US", true)

	require.NoError(t, v.Click("ShiftLeft"))
	assert.Empty(t, rec.reports, "latching a modifier sends nothing")
	assert.True(t, v.State().Shift)

	require.NoError(t, v.Click("KeyA"))
	require.Len(t, rec.reports, 2)
	assert.Equal(t, hid.Report{Modifiers: hid.Modifiers(hid.ShiftLeft), Keys: []hid.KeyCode{hid.KeyA}}, rec.reports[0])
	assert.Equal(t, hid.Report{}, rec.reports[1])
	assert.False(t, v.State().Shift, "non-CapsLock latches clear after a key")

	require.NoError(t, v.Click("KeyA"))
	assert.Equal(t, hid.Report{Keys: []hid.KeyCode{hid.KeyA}}, rec.reports[2])
}

func TestVirtual_CapsLockInvertsLetters(t *testing.T) {
	v, _, rec := newVirtual(t, "en_US", true)

	require.NoError(t, v.Click("CapsLock"))
	require.NoError(t, v.Click("KeyB"))
	assert.Equal(t, hid.Modifiers(hid.ShiftLeft), rec.reports[0].Modifiers)
	assert.True(t, v.State().CapsLock, "CapsLock does not auto-clear")

	require.NoError(t, v.Click("Shift"))
	require.NoError(t, v.Click("KeyB"))
	assert.Zero(t, rec.reports[2].Modifiers, "shift with CapsLock gives lower case")

	require.NoError(t, v.Click("Digit1"))
	assert.Zero(t, rec.reports[4].Modifiers, "CapsLock leaves non-letters alone")

	require.NoError(t, v.Click("@"))
	assert.Equal(t, hid.Modifiers(hid.ShiftLeft), rec.reports[6].Modifiers, "a required shift is never stripped")
}

func TestVirtual_StickyAppliesToPhysicalPress(t *testing.T) {
	v, p, rec := newVirtual(t, "en_US", true)

	require.NoError(t, v.Click("Control"))
	require.NoError(t, p.KeyDown(down("KeyC", "c", noMods)))
	assert.Equal(t, hid.Report{Modifiers: hid.Modifiers(hid.CtrlLeft), Keys: []hid.KeyCode{hid.KeyC}}, rec.last(t))
	assert.False(t, v.State().Ctrl)

	require.NoError(t, p.KeyUp(down("KeyC", "c", noMods)))
	assert.True(t, rec.last(t).IsEmpty())
}

func TestVirtual_StickyDisabledTapsModifier(t *testing.T) {
	v, _, rec := newVirtual(t, "en_US", false)

	require.NoError(t, v.Click("AltLeft"))
	require.Len(t, rec.reports, 2)
	assert.Equal(t, hid.Report{Modifiers: hid.Modifiers(hid.AltLeft)}, rec.reports[0])
	assert.Equal(t, hid.Report{}, rec.reports[1])
	assert.False(t, v.State().Alt)
}

func TestVirtual_ClickKeepsPhysicalState(t *testing.T) {
	v, p, rec := newVirtual(t, "en_US", true)
	require.NoError(t, p.KeyDown(down("KeyQ", "q", noMods)))

	require.NoError(t, v.Click("Enter"))
	n := len(rec.reports)
	assert.ElementsMatch(t, []hid.KeyCode{hid.KeyQ, hid.KeyEnter}, rec.reports[n-2].Keys)
	assert.Equal(t, hid.Report{Keys: []hid.KeyCode{hid.KeyQ}}, rec.reports[n-1])
}

func TestVirtual_ResetClearsLatchesButNotCapsLock(t *testing.T) {
	v, p, rec := newVirtual(t, "en_US", true)
	require.NoError(t, v.Click("CapsLock"))
	require.NoError(t, v.Click("Meta"))

	p.ResetAll()
	assert.Equal(t, hid.Report{}, rec.last(t))
	assert.Equal(t, keyboard.Sticky{CapsLock: true}, v.State())

	v.Clear()
	assert.Equal(t, keyboard.Sticky{}, v.State())
}

func TestVirtual_UnknownKey(t *testing.T) {
	v, _, rec := newVirtual(t, "en_US", true)
	assert.ErrorIs(t, v.Click("NoSuchKey"), keyboard.ErrUnknownKey)
	assert.ErrorIs(t, v.Toggle("KeyA"), keyboard.ErrUnknownKey)
	assert.Empty(t, rec.reports)
}

func TestVirtual_RejectedClickKeepsLatches(t *testing.T) {
	v, p, rec := newVirtual(t, "en_US", true)
	for _, code := range []string{"KeyA", "KeyB", "KeyC", "KeyD", "KeyE", "KeyF"} {
		require.NoError(t, p.KeyDown(down(code, "", noMods)))
	}
	require.NoError(t, v.Click("ShiftLeft"))
	require.NoError(t, v.Click("ControlLeft"))
	n := len(rec.reports)

	assert.ErrorIs(t, v.Click("KeyG"), hid.ErrKeyLimitExceeded)
	assert.Len(t, rec.reports, n, "a rejected click sends nothing")
	assert.True(t, v.State().Shift)
	assert.True(t, v.State().Ctrl)

	require.NoError(t, p.KeyUp(down("KeyA", "", noMods)))
	require.NoError(t, v.Click("KeyG"))
	assert.Equal(t, hid.Modifiers(hid.ShiftLeft, hid.CtrlLeft), rec.reports[len(rec.reports)-2].Modifiers)
	assert.False(t, v.State().Shift)
}
