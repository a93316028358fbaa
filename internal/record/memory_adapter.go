package record

import (
	"context"
	"sort"
)

// MemoryAdapter is an in-memory Adapter implementation used by tests and by
// hosts that keep records outside a SQL database. It mimics the load/save
// lifecycle of a framework record: field writes are tracked against a loaded
// snapshot, and MarkPersisted simulates a completed storage write.
type MemoryAdapter struct {
	fields    map[string]any
	loaded    map[string]any
	persisted bool
	changed   map[string]struct{}

	// TargetedUpdates records every ApplyTargetedUpdate call for assertions.
	TargetedUpdates []map[string]any
}

// NewMemoryAdapter creates an adapter over the given initial field values.
// persisted=false models a record that has never been saved.
func NewMemoryAdapter(initial map[string]any, persisted bool) *MemoryAdapter {
	fields := make(map[string]any, len(initial))
	loaded := make(map[string]any, len(initial))
	for k, v := range initial {
		fields[k] = v
		loaded[k] = v
	}
	return &MemoryAdapter{
		fields:    fields,
		loaded:    loaded,
		persisted: persisted,
		changed:   make(map[string]struct{}),
	}
}

// ReadField returns the current in-memory value of a field.
func (m *MemoryAdapter) ReadField(name string) any {
	return m.fields[name]
}

// WriteField sets a field value and flags it as changed.
func (m *MemoryAdapter) WriteField(name string, value any) {
	m.fields[name] = value
	m.changed[name] = struct{}{}
}

// MarkChanged flags a field as modified without changing its value.
func (m *MemoryAdapter) MarkChanged(name string) {
	m.changed[name] = struct{}{}
}

// IsNewRecord reports whether the record has never been persisted.
func (m *MemoryAdapter) IsNewRecord() bool {
	return !m.persisted
}

// IsPersisted reports whether the record exists in storage.
func (m *MemoryAdapter) IsPersisted() bool {
	return m.persisted
}

// ChangedSinceLoad returns the sorted names of fields changed since load.
func (m *MemoryAdapter) ChangedSinceLoad() []string {
	names := make([]string, 0, len(m.changed))
	for name := range m.changed {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyTargetedUpdate writes columns directly, bypassing change tracking, the
// way a direct UPDATE bypasses a framework save.
func (m *MemoryAdapter) ApplyTargetedUpdate(_ context.Context, values map[string]any) error {
	recorded := make(map[string]any, len(values))
	for k, v := range values {
		m.fields[k] = v
		m.loaded[k] = v
		recorded[k] = v
	}
	m.TargetedUpdates = append(m.TargetedUpdates, recorded)
	return nil
}

// HasField reports whether a column exists, satisfying registry.SchemaChecker.
// A column exists when it appeared in the initial field map, even with a nil
// value.
func (m *MemoryAdapter) HasField(name string) bool {
	_, ok := m.loaded[name]
	if !ok {
		_, ok = m.fields[name]
	}
	return ok
}

// MarkPersisted simulates a completed storage write: the change set resets and
// the loaded snapshot catches up with the in-memory state.
func (m *MemoryAdapter) MarkPersisted() {
	m.persisted = true
	m.changed = make(map[string]struct{})
	for k, v := range m.fields {
		m.loaded[k] = v
	}
}
