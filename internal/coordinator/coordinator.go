package coordinator

import (
	"context"
	"log/slog"

	"github.com/allisson/tokenfield/internal/encryption"
	"github.com/allisson/tokenfield/internal/record"
)

// coordinator implements Coordinator against an encryption.Client.
type coordinator struct {
	client encryption.Client
	logger *slog.Logger
}

// New creates a Coordinator backed by the given encryption client.
func New(client encryption.Client, logger *slog.Logger) Coordinator {
	return &coordinator{
		client: client,
		logger: logger,
	}
}

// PreWritePass tokenizes all dirty fields before the storage write. The whole
// record produces at most one encrypt call.
func (c *coordinator) PreWritePass(ctx context.Context, rec *record.Record) error {
	entityID := rec.EntityID()
	if entityID == "" {
		// A record without a stable identifier cannot be tokenized yet. The
		// post-identity pass closes the gap once storage assigns one.
		c.logger.Debug("pre-write pass skipped: blank entity id",
			slog.String("entity_type", rec.Registry().Policy().EntityType))
		return nil
	}

	if rec.Adapter().IsPersisted() && c.allSettled(rec) {
		return nil
	}

	_, err := c.tokenize(ctx, rec, entityID, false)
	return err
}

// PostIdentityPass tokenizes the fields the pre-write pass could not handle and
// applies the staged writes directly against storage. The in-memory object has
// already been committed once, so the normal field-write path is bypassed.
func (c *coordinator) PostIdentityPass(ctx context.Context, rec *record.Record) error {
	entityID := rec.EntityID()
	if entityID == "" {
		c.logger.Debug("post-identity pass skipped: entity id still blank",
			slog.String("entity_type", rec.Registry().Policy().EntityType))
		return nil
	}

	updates, err := c.tokenize(ctx, rec, entityID, true)
	if err != nil {
		return err
	}

	if len(updates) > 0 {
		if err := rec.Adapter().ApplyTargetedUpdate(ctx, updates); err != nil {
			return err
		}
	}

	rec.ClearLedger()
	return nil
}

// InvalidateCache drops cached plaintext, pending writes, and the ledger.
func (c *coordinator) InvalidateCache(rec *record.Record) {
	rec.Reloaded()
}

// allSettled reports the fast path: no tokenized field is dirty and every one
// already has a durable token, so a save has nothing to do.
func (c *coordinator) allSettled(rec *record.Record) bool {
	tracker := rec.Tracker()
	for _, spec := range rec.Registry().Fields() {
		if tracker.IsDirty(spec.Name) {
			return false
		}
		if record.Blank(rec.Adapter().ReadField(rec.Registry().TokenField(spec.Name))) {
			return false
		}
	}
	return true
}

// tokenize runs steps 3-7 of the write pass over every field that needs
// tokenization, optionally skipping fields already reconciled in this cycle.
// Returns the storage writes staged by this invocation.
func (c *coordinator) tokenize(
	ctx context.Context,
	rec *record.Record,
	entityID string,
	skipProcessed bool,
) (map[string]any, error) {
	reg := rec.Registry()
	policy := reg.Policy()
	adapter := rec.Adapter()
	tracker := rec.Tracker()

	var clears []string
	var empties []string
	var batch []encryption.BatchItem
	valueByField := make(map[string]string)
	updates := make(map[string]any)

	for _, spec := range reg.Fields() {
		field := spec.Name
		if skipProcessed && rec.Processed(field) {
			continue
		}
		if !tracker.NeedsTokenization(field) {
			continue
		}

		if tracker.IsNulled(field) {
			clears = append(clears, field)
			continue
		}

		value, staged := tracker.PendingValue(field)
		if !staged {
			plain, ok := record.AsString(adapter.ReadField(field))
			if !ok {
				// Nothing staged and no plain value: treat as a clear.
				clears = append(clears, field)
				continue
			}
			value = plain
		}

		switch value {
		case "":
			// Empty string is a self-describing sentinel; no point paying a
			// round trip to tokenize it.
			empties = append(empties, field)
		default:
			valueByField[field] = value
			batch = append(batch, encryption.BatchItem{
				Value:      value,
				EntityType: policy.EntityType,
				EntityID:   entityID,
				Category:   spec.Category.String(),
				FieldName:  field,
			})
		}
	}

	for _, field := range clears {
		c.stageField(rec, updates, field, nil, nil)
	}

	for _, field := range empties {
		c.stageField(rec, updates, field, "", "")
	}

	if len(batch) > 0 {
		tokens, err := c.client.EncryptBatch(ctx, batch)
		if err != nil {
			// Abort without partial success: staged in-memory state stays
			// untouched so a caller-level retry re-selects the same fields.
			return nil, err
		}

		for _, item := range batch {
			token, ok := tokens[item.CompositeKey()]
			if !ok {
				// Transient service gap for this key; leave the field alone
				// so the next pass retries it.
				c.logger.Debug("encrypt response missing composite key",
					slog.String("field", item.FieldName))
				continue
			}
			c.stageField(rec, updates, item.FieldName, token, valueByField[item.FieldName])
		}
	}

	return updates, nil
}

// stageField writes the reconciled token and plain values into the in-memory
// record, accumulates them in the deferred-update ledger, and settles the
// field's tracker state. plain carries the plaintext to retain for reads; the
// plain storage column only receives it under dual-write.
func (c *coordinator) stageField(rec *record.Record, updates map[string]any, field string, token, plain any) {
	reg := rec.Registry()
	policy := reg.Policy()
	adapter := rec.Adapter()
	tokenField := reg.TokenField(field)

	adapter.WriteField(tokenField, token)
	adapter.MarkChanged(tokenField)
	updates[tokenField] = token
	rec.StageUpdate(tokenField, token)

	if policy.DualWrite {
		// Both columns stay consistent during migration.
		adapter.WriteField(field, plain)
	} else {
		// Plaintext never rests in the plain column; reads come from the
		// token or the in-instance cache.
		adapter.WriteField(field, nil)
	}
	adapter.MarkChanged(field)

	plainColumn := adapter.ReadField(field)
	updates[field] = plainColumn
	rec.StageUpdate(field, plainColumn)

	if s, ok := record.AsString(plain); ok {
		rec.Cache().Put(field, s)
	} else {
		rec.Cache().Delete(field)
	}

	rec.Tracker().ClearPending(field)
	rec.MarkProcessed(field)
}
