package handler

import (
	"github.com/Alia5/keybridge/apitypes"
	"github.com/Alia5/keybridge/hid"
	"github.com/Alia5/keybridge/macro"
)

func toAPIMacro(m macro.Macro) apitypes.Macro {
	steps := make([]apitypes.MacroStep, 0, len(m.Steps))
	for _, s := range m.Steps {
		steps = append(steps, apitypes.MacroStep{
			Keys:      nonNil(s.Keys),
			Modifiers: nonNil(s.Modifiers),
			Delay:     s.Delay,
		})
	}
	return apitypes.Macro{ID: m.ID, Name: m.Name, Steps: steps, SortOrder: m.SortOrder}
}

func fromAPIMacro(m apitypes.Macro) macro.Macro {
	steps := make([]macro.Step, 0, len(m.Steps))
	for _, s := range m.Steps {
		steps = append(steps, macro.Step{Keys: s.Keys, Modifiers: s.Modifiers, Delay: s.Delay})
	}
	return macro.Macro{ID: m.ID, Name: m.Name, Steps: steps, SortOrder: m.SortOrder}
}

func toAPIReport(r hid.Report) apitypes.Report {
	out := apitypes.Report{Modifiers: uint8(r.Modifiers), Keys: make([]uint8, 0, len(r.Keys))}
	for _, b := range r.Modifiers.Bits() {
		out.Names = append(out.Names, b.String())
	}
	for _, k := range r.Keys {
		out.Keys = append(out.Keys, uint8(k))
		out.Names = append(out.Names, k.String())
	}
	return out
}

func toAPILEDs(st hid.LEDState) *apitypes.LEDs {
	return &apitypes.LEDs{
		NumLock:    st.NumLock,
		CapsLock:   st.CapsLock,
		ScrollLock: st.ScrollLock,
		Compose:    st.Compose,
		Kana:       st.Kana,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
