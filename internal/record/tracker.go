package record

import (
	"github.com/allisson/tokenfield/internal/registry"
)

// Tracker keeps per-record-instance bookkeeping of tokenized field writes:
// which fields hold a pending in-memory plaintext, which were explicitly
// nulled, and which already have a durable token. It is the input to the
// coordinator's needs-tokenization decision.
type Tracker struct {
	reg     *registry.Registry
	adapter Adapter
	pending map[string]string
	nulled  map[string]struct{}
}

// NewTracker creates a Tracker bound to one record instance.
func NewTracker(reg *registry.Registry, adapter Adapter) *Tracker {
	return &Tracker{
		reg:     reg,
		adapter: adapter,
		pending: make(map[string]string),
		nulled:  make(map[string]struct{}),
	}
}

// MarkWritten stages an in-memory plaintext value for tokenization and clears
// any explicit null for the field.
func (t *Tracker) MarkWritten(field, value string) {
	t.pending[field] = value
	delete(t.nulled, field)
}

// MarkNulled flags the field as explicitly cleared, drops any pending
// plaintext, and immediately stages a nil token write so the clear reaches
// storage even if nothing else changes.
func (t *Tracker) MarkNulled(field string) {
	t.nulled[field] = struct{}{}
	delete(t.pending, field)

	if tokenField := t.reg.TokenField(field); tokenField != "" {
		t.adapter.WriteField(tokenField, nil)
		t.adapter.MarkChanged(tokenField)
	}
}

// PendingValue returns the staged plaintext for a field, if any.
func (t *Tracker) PendingValue(field string) (string, bool) {
	v, ok := t.pending[field]
	return v, ok
}

// IsNulled reports whether the field was explicitly cleared in this session.
func (t *Tracker) IsNulled(field string) bool {
	_, ok := t.nulled[field]
	return ok
}

// IsDirty reports whether the field has a pending write, was nulled, or the
// host reports the field or its token field as changed since load.
func (t *Tracker) IsDirty(field string) bool {
	if _, ok := t.pending[field]; ok {
		return true
	}
	if _, ok := t.nulled[field]; ok {
		return true
	}

	tokenField := t.reg.TokenField(field)
	for _, changed := range t.adapter.ChangedSinceLoad() {
		if changed == field || changed == tokenField {
			return true
		}
	}
	return false
}

// NeedsTokenization is the central decision gate: true if the record is new,
// the field is dirty, or the durable token is blank. Unchanged fields with a
// durable token are skipped on every save, which is what keeps repeated saves
// from paying for redundant encryption round trips.
func (t *Tracker) NeedsTokenization(field string) bool {
	if t.adapter.IsNewRecord() {
		return true
	}
	if t.IsDirty(field) {
		return true
	}
	return Blank(t.adapter.ReadField(t.reg.TokenField(field)))
}

// ClearPending drops the pending plaintext and explicit-null flag for a field.
// Called by the coordinator once the field's staged state has been reconciled.
func (t *Tracker) ClearPending(field string) {
	delete(t.pending, field)
	delete(t.nulled, field)
}

// Reset drops all per-session state. Called when the record is (re)loaded from
// storage.
func (t *Tracker) Reset() {
	t.pending = make(map[string]string)
	t.nulled = make(map[string]struct{})
}
