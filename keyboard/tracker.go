package keyboard

import (
	"fmt"

	"github.com/Alia5/keybridge/hid"
)

// Record is the active state of one pressed physical key: what was sent for
// it, so the release can be reversed without re-resolving.
type Record struct {
	Code    string
	KeyCode hid.KeyCode
	Implied Implied
	// Sticky holds one-shot virtual modifiers consumed by this press.
	Sticky hid.ModifierSet
	// Layout is the layout the key was translated with.
	Layout string
	// UnderMeta marks presses made while Meta was held; they are subject to
	// the deferred forced release.
	UnderMeta bool
}

// Modifiers returns the bits the record contributes to a report.
func (r Record) Modifiers() hid.ModifierSet { return r.Implied.Set() | r.Sticky }

// Tracker holds one Record per pressed physical key, in press order.
// It is not safe for concurrent use; the owning Session serializes access.
type Tracker struct {
	records map[string]*Record
	order   []string
}

func NewTracker() *Tracker {
	return &Tracker{records: make(map[string]*Record)}
}

// OnPress records a press. A press for a key that already has a record is an
// auto-repeat: the existing record is returned unchanged with created=false.
func (t *Tracker) OnPress(rec Record) (Record, bool) {
	if have, ok := t.records[rec.Code]; ok {
		return *have, false
	}
	r := rec
	t.records[rec.Code] = &r
	t.order = append(t.order, rec.Code)
	return r, true
}

// OnRelease removes and returns the record for code. A release without a
// record returns ErrOrphanRelease and changes nothing.
func (t *Tracker) OnRelease(code string) (Record, error) {
	r, ok := t.records[code]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrOrphanRelease, code)
	}
	t.remove(code)
	return *r, nil
}

// RetractDependents removes every record whose implied modifiers relied on
// the released modifier. stillHeld is the held set after the release.
func (t *Tracker) RetractDependents(released hid.ModifierBit, stillHeld hid.ModifierSet) []Record {
	return t.retractWhere(func(r *Record) bool { return r.Implied.dependsOn(released, stillHeld) })
}

// RetractUnderMeta removes every record created while Meta was held.
func (t *Tracker) RetractUnderMeta() []Record {
	return t.retractWhere(func(r *Record) bool { return r.UnderMeta })
}

func (t *Tracker) retractWhere(match func(*Record) bool) []Record {
	var out []Record
	for _, code := range append([]string(nil), t.order...) {
		if r := t.records[code]; match(r) {
			out = append(out, *r)
			t.remove(code)
		}
	}
	return out
}

// ResetAll drops every record and returns how many there were.
func (t *Tracker) ResetAll() int {
	n := len(t.records)
	clear(t.records)
	t.order = t.order[:0]
	return n
}

func (t *Tracker) Get(code string) (Record, bool) {
	r, ok := t.records[code]
	if !ok {
		return Record{}, false
	}
	return *r, true
}

func (t *Tracker) Len() int { return len(t.records) }

// Records returns a copy of the records in press order.
func (t *Tracker) Records() []Record {
	out := make([]Record, 0, len(t.order))
	for _, code := range t.order {
		out = append(out, *t.records[code])
	}
	return out
}

func (t *Tracker) remove(code string) {
	delete(t.records, code)
	for i, c := range t.order {
		if c == code {
			t.order = append(t.order[:i], t.order[i+1:]...)
			return
		}
	}
}
