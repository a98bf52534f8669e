package keyboard_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/keybridge/hid"
	"github.com/Alia5/keybridge/keyboard"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		held    hid.ModifierSet
		implied keyboard.Implied
		sticky  hid.ModifierSet
		want    hid.ModifierSet
	}{
		{name: "nothing", want: 0},
		{name: "implied shift", implied: keyboard.Implied{Shift: true}, want: hid.Modifiers(hid.ShiftLeft)},
		{name: "held right shift satisfies implied shift", held: hid.Modifiers(hid.ShiftRight),
			implied: keyboard.Implied{Shift: true}, want: hid.Modifiers(hid.ShiftRight)},
		{name: "sticky shift", sticky: hid.Modifiers(hid.ShiftLeft), want: hid.Modifiers(hid.ShiftLeft)},
		{name: "altgr forced with held alt left", held: hid.Modifiers(hid.AltLeft),
			implied: keyboard.Implied{AltRight: true}, want: hid.Modifiers(hid.AltLeft, hid.AltRight)},
		{name: "ctrl and meta mirror held and sticky", held: hid.Modifiers(hid.CtrlRight),
			sticky: hid.Modifiers(hid.MetaLeft), want: hid.Modifiers(hid.CtrlRight, hid.MetaLeft)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, keyboard.Resolve(tt.held, tt.implied, tt.sticky))
		})
	}
}

func TestTracker_PressRelease(t *testing.T) {
	tr := keyboard.NewTracker()

	rec, created := tr.OnPress(keyboard.Record{Code: "KeyA", KeyCode: hid.KeyA})
	require.True(t, created)
	assert.Equal(t, hid.KeyA, rec.KeyCode)

	_, created = tr.OnPress(keyboard.Record{Code: "KeyA", KeyCode: hid.KeyB})
	assert.False(t, created, "repeat keeps the original record")
	got, _ := tr.Get("KeyA")
	assert.Equal(t, hid.KeyA, got.KeyCode)

	_, err := tr.OnRelease("KeyA")
	require.NoError(t, err)
	_, err = tr.OnRelease("KeyA")
	assert.ErrorIs(t, err, keyboard.ErrOrphanRelease)
	assert.Zero(t, tr.Len())
}

func TestTracker_RetractDependents(t *testing.T) {
	tr := keyboard.NewTracker()
	tr.OnPress(keyboard.Record{Code: "Digit2", KeyCode: hid.Key2, Implied: keyboard.Implied{Shift: true}})
	tr.OnPress(keyboard.Record{Code: "KeyQ", KeyCode: hid.KeyQ, Implied: keyboard.Implied{AltRight: true}})
	tr.OnPress(keyboard.Record{Code: "KeyC", KeyCode: hid.KeyC})

	assert.Empty(t, tr.RetractDependents(hid.CtrlLeft, 0))
	assert.Empty(t, tr.RetractDependents(hid.AltLeft, 0), "AltLeft and AltRight are independent")

	gone := tr.RetractDependents(hid.AltRight, 0)
	require.Len(t, gone, 1)
	assert.Equal(t, "KeyQ", gone[0].Code)

	gone = tr.RetractDependents(hid.ShiftRight, 0)
	require.Len(t, gone, 1)
	assert.Equal(t, "Digit2", gone[0].Code)

	records := tr.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "KeyC", records[0].Code)
}

func TestTracker_ResetAllIdempotent(t *testing.T) {
	tr := keyboard.NewTracker()
	tr.OnPress(keyboard.Record{Code: "KeyA", KeyCode: hid.KeyA})
	tr.OnPress(keyboard.Record{Code: "KeyB", KeyCode: hid.KeyB})

	assert.Equal(t, 2, tr.ResetAll())
	assert.Equal(t, 0, tr.ResetAll())
	assert.Empty(t, tr.Records())
}
