// Package sqladapter implements record.Adapter over a database/sql table row.
// It gives hosts without a framework ORM a minimal load/save lifecycle with
// the change tracking the tokenization passes rely on, plus the targeted
// update path used after storage assigns an identifier.
package sqladapter

import (
	"context"
	"database/sql"
	"sort"
	"strings"

	"github.com/allisson/tokenfield/internal/database"
	"github.com/allisson/tokenfield/internal/errors"
)

// Adapter binds one table row to the record lifecycle. Not safe for
// concurrent use; one adapter belongs to one record instance.
type Adapter struct {
	db       *sql.DB
	driver   string
	table    string
	idColumn string

	fields    map[string]any
	loaded    map[string]any
	columns   map[string]struct{}
	changed   map[string]struct{}
	persisted bool
}

// New creates an adapter for a row that does not exist in storage yet. The
// column list fixes the schema surface used by HasField and the insert.
func New(db *sql.DB, driver, table, idColumn string, columns []string) *Adapter {
	cols := make(map[string]struct{}, len(columns))
	fields := make(map[string]any, len(columns))
	for _, c := range columns {
		cols[c] = struct{}{}
		fields[c] = nil
	}
	return &Adapter{
		db:       db,
		driver:   driver,
		table:    table,
		idColumn: idColumn,
		fields:   fields,
		loaded:   make(map[string]any),
		columns:  cols,
		changed:  make(map[string]struct{}),
	}
}

// Load fetches the row for the given identifier and returns a persisted
// adapter over it. The column set comes from the result metadata.
func Load(ctx context.Context, db *sql.DB, driver, table, idColumn string, id any) (*Adapter, error) {
	query := database.Rebind(driver, "SELECT * FROM "+table+" WHERE "+idColumn+" = ?")

	rows, err := database.GetTx(ctx, db).QueryContext(ctx, query, id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load row")
	}
	defer func() {
		_ = rows.Close()
	}()

	names, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read columns")
	}

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, errors.Wrap(err, "failed to load row")
		}
		return nil, errors.Wrapf(errors.ErrNotFound, "%s %v", table, id)
	}

	values := make([]any, len(names))
	ptrs := make([]any, len(names))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, errors.Wrap(err, "failed to scan row")
	}

	a := New(db, driver, table, idColumn, names)
	for i, name := range names {
		value := normalize(values[i])
		a.fields[name] = value
		a.loaded[name] = value
	}
	a.persisted = true
	return a, nil
}

// ReadField returns the current in-memory value of a column.
func (a *Adapter) ReadField(name string) any {
	return a.fields[name]
}

// WriteField sets a column value and flags it as changed.
func (a *Adapter) WriteField(name string, value any) {
	a.fields[name] = value
	a.columns[name] = struct{}{}
	a.changed[name] = struct{}{}
}

// MarkChanged flags a column as modified without changing its value.
func (a *Adapter) MarkChanged(name string) {
	a.changed[name] = struct{}{}
}

// IsNewRecord reports whether the row has never been persisted.
func (a *Adapter) IsNewRecord() bool {
	return !a.persisted
}

// IsPersisted reports whether the row exists in storage.
func (a *Adapter) IsPersisted() bool {
	return a.persisted
}

// ChangedSinceLoad returns the sorted names of columns changed since load.
func (a *Adapter) ChangedSinceLoad() []string {
	names := make([]string, 0, len(a.changed))
	for name := range a.changed {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasField reports whether a column exists on the row's schema surface.
func (a *Adapter) HasField(name string) bool {
	_, ok := a.columns[name]
	return ok
}

// ApplyTargetedUpdate issues a direct UPDATE for the given columns, bypassing
// the save lifecycle. Honors a transaction carried in the context.
func (a *Adapter) ApplyTargetedUpdate(ctx context.Context, values map[string]any) error {
	if len(values) == 0 {
		return nil
	}

	id := a.fields[a.idColumn]
	if id == nil {
		return errors.Wrap(errors.ErrInvalidInput, "targeted update requires an identifier")
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("UPDATE ")
	b.WriteString(a.table)
	b.WriteString(" SET ")
	args := make([]any, 0, len(names)+1)
	for i, name := range names {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(name)
		b.WriteString(" = ?")
		args = append(args, values[name])
	}
	b.WriteString(" WHERE ")
	b.WriteString(a.idColumn)
	b.WriteString(" = ?")
	args = append(args, id)

	query := database.Rebind(a.driver, b.String())
	if _, err := database.GetTx(ctx, a.db).ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "failed to apply targeted update")
	}

	for name, value := range values {
		a.fields[name] = value
		a.loaded[name] = value
		delete(a.changed, name)
	}
	return nil
}

// Save writes the row: INSERT for a new record, UPDATE of the changed columns
// otherwise. After a successful save the change set resets and the loaded
// snapshot catches up, which is what settles the fast path on repeated saves.
func (a *Adapter) Save(ctx context.Context) error {
	if a.persisted {
		return a.update(ctx)
	}
	return a.insert(ctx)
}

func (a *Adapter) insert(ctx context.Context) error {
	names := make([]string, 0, len(a.fields))
	for name, value := range a.fields {
		if value == nil {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	if len(names) == 0 {
		return errors.Wrap(errors.ErrInvalidInput, "nothing to insert")
	}

	args := make([]any, 0, len(names))
	placeholders := make([]string, 0, len(names))
	for _, name := range names {
		args = append(args, a.fields[name])
		placeholders = append(placeholders, "?")
	}

	query := database.Rebind(a.driver,
		"INSERT INTO "+a.table+" ("+strings.Join(names, ", ")+") VALUES ("+strings.Join(placeholders, ", ")+")")
	if _, err := database.GetTx(ctx, a.db).ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "failed to insert row")
	}

	a.markSaved()
	return nil
}

func (a *Adapter) update(ctx context.Context) error {
	names := a.ChangedSinceLoad()
	if len(names) == 0 {
		return nil
	}

	id := a.fields[a.idColumn]
	if id == nil {
		return errors.Wrap(errors.ErrInvalidInput, "update requires an identifier")
	}

	var b strings.Builder
	b.WriteString("UPDATE ")
	b.WriteString(a.table)
	b.WriteString(" SET ")
	args := make([]any, 0, len(names)+1)
	for i, name := range names {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(name)
		b.WriteString(" = ?")
		args = append(args, a.fields[name])
	}
	b.WriteString(" WHERE ")
	b.WriteString(a.idColumn)
	b.WriteString(" = ?")
	args = append(args, id)

	query := database.Rebind(a.driver, b.String())
	if _, err := database.GetTx(ctx, a.db).ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "failed to update row")
	}

	a.markSaved()
	return nil
}

func (a *Adapter) markSaved() {
	a.persisted = true
	a.changed = make(map[string]struct{})
	for name, value := range a.fields {
		a.loaded[name] = value
	}
}

// normalize converts driver byte slices to strings so token and plaintext
// columns compare naturally.
func normalize(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
