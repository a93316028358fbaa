// Package record holds the per-record-instance state used by the tokenization
// coordinator: the persistence adapter boundary, the change tracker, the
// decryption cache, and the deferred-update ledger. None of this state may be
// shared between goroutines; each record instance has a single owner.
package record

import (
	"context"
	"strings"
)

// Adapter is the host persistence framework boundary. Implementations wrap a
// framework record instance (or a row snapshot) and expose the attribute
// storage and change-tracking primitives the coordinator needs. Differences in
// host-framework change-tracking APIs collapse here; the core never branches on
// framework specifics.
type Adapter interface {
	// ReadField returns the current in-memory value of a field, or nil.
	ReadField(name string) any

	// WriteField sets the in-memory value of a field.
	WriteField(name string, value any)

	// MarkChanged flags a field as modified so the host includes it in the
	// next storage write.
	MarkChanged(name string)

	// IsNewRecord reports whether the record has never been persisted.
	IsNewRecord() bool

	// IsPersisted reports whether the record exists in storage.
	IsPersisted() bool

	// ChangedSinceLoad returns the names of fields the host reports as
	// modified since the record was loaded.
	ChangedSinceLoad() []string

	// ApplyTargetedUpdate writes the given columns directly to storage,
	// bypassing the normal save lifecycle. Used only by the post-identity
	// pass, after the record has already been committed once.
	ApplyTargetedUpdate(ctx context.Context, values map[string]any) error
}

// Blank reports whether a field value is absent: nil, or a string that is
// empty after trimming whitespace. Non-string values are never blank.
func Blank(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// AsString extracts a string field value. Returns ok=false for nil or
// non-string values.
func AsString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}
