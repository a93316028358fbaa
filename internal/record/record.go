package record

import (
	"github.com/allisson/tokenfield/internal/registry"
)

// Record binds one host record instance to its tokenization state: the
// persistence adapter, the change tracker, the decryption cache, and the
// transient deferred-update ledger accumulated during a write cycle.
//
// A Record is owned by a single goroutine. Callers that share a record across
// goroutines must provide their own synchronization; none is provided here.
type Record struct {
	reg     *registry.Registry
	adapter Adapter
	tracker *Tracker
	cache   *Cache

	// Deferred-update ledger: fields already reconciled in this write cycle
	// and the storage writes staged for a targeted post-commit update.
	processed      map[string]struct{}
	pendingUpdates map[string]any
}

// New creates a Record for a host record instance.
func New(reg *registry.Registry, adapter Adapter) *Record {
	return &Record{
		reg:            reg,
		adapter:        adapter,
		tracker:        NewTracker(reg, adapter),
		cache:          NewCache(),
		processed:      make(map[string]struct{}),
		pendingUpdates: make(map[string]any),
	}
}

// Registry returns the record-type configuration.
func (r *Record) Registry() *registry.Registry {
	return r.reg
}

// Adapter returns the persistence adapter for this instance.
func (r *Record) Adapter() Adapter {
	return r.adapter
}

// Tracker returns the change tracker for this instance.
func (r *Record) Tracker() *Tracker {
	return r.tracker
}

// Cache returns the decryption cache for this instance.
func (r *Record) Cache() *Cache {
	return r.cache
}

// Set stages a plaintext write to a tokenized field. Returns
// ErrFieldNotTokenized for fields outside the registry.
func (r *Record) Set(field, value string) error {
	if _, ok := r.reg.Field(field); !ok {
		return registry.ErrFieldNotTokenized
	}
	r.tracker.MarkWritten(field, value)
	r.cache.Delete(field)
	return nil
}

// SetNull explicitly clears a tokenized field. The nil token write is staged
// immediately so the clear persists even when nothing else changed.
func (r *Record) SetNull(field string) error {
	if _, ok := r.reg.Field(field); !ok {
		return registry.ErrFieldNotTokenized
	}
	r.tracker.MarkNulled(field)
	r.cache.Delete(field)
	return nil
}

// EntityID derives the encryption-service entity id for this instance.
func (r *Record) EntityID() string {
	return r.reg.EntityID(r.adapter)
}

// MarkProcessed records that a field was reconciled in the current write cycle
// so the post-identity pass skips it.
func (r *Record) MarkProcessed(field string) {
	r.processed[field] = struct{}{}
}

// Processed reports whether a field was already reconciled in this write cycle.
func (r *Record) Processed(field string) bool {
	_, ok := r.processed[field]
	return ok
}

// StageUpdate accumulates a storage write for the targeted post-identity
// update.
func (r *Record) StageUpdate(column string, value any) {
	r.pendingUpdates[column] = value
}

// PendingUpdates returns the accumulated storage writes. The map is live; it
// must not be retained across a ClearLedger call.
func (r *Record) PendingUpdates() map[string]any {
	return r.pendingUpdates
}

// ClearLedger discards the deferred-update ledger once a write cycle has fully
// completed.
func (r *Record) ClearLedger() {
	r.processed = make(map[string]struct{})
	r.pendingUpdates = make(map[string]any)
}

// Reloaded resets all per-session state after the host reloads the instance
// from storage: pending writes, the decryption cache, and the ledger.
func (r *Record) Reloaded() {
	r.tracker.Reset()
	r.cache.Clear()
	r.ClearLedger()
}
