package coordinator

import (
	"context"
	"sort"

	"github.com/allisson/tokenfield/internal/record"
	"github.com/allisson/tokenfield/internal/registry"
)

// Resolve returns the plaintext for one tokenized field.
func (c *coordinator) Resolve(ctx context.Context, rec *record.Record, field string) (string, error) {
	values, err := c.ResolveMany(ctx, rec, []string{field})
	if err != nil {
		return "", err
	}
	return values[field], nil
}

// ResolveMany resolves several fields on one record, batching every field that
// actually requires decryption into a single decrypt call.
func (c *coordinator) ResolveMany(
	ctx context.Context,
	rec *record.Record,
	fields []string,
) (map[string]string, error) {
	out := make(map[string]string, len(fields))
	pending := make(map[string]string) // field -> token awaiting decryption

	for _, field := range fields {
		if _, ok := rec.Registry().Field(field); !ok {
			return nil, registry.ErrFieldNotTokenized
		}

		value, token, resolved := c.resolveLocal(rec, field)
		if resolved {
			out[field] = value
			continue
		}
		pending[field] = token
	}

	if len(pending) == 0 {
		return out, nil
	}

	tokens := dedupeTokens(pending)
	values, err := c.client.DecryptBatch(ctx, tokens)
	if err != nil {
		return nil, err
	}

	for field, token := range pending {
		plaintext, ok := values[token]
		if !ok {
			// The service did not answer for this token; degrade to whatever
			// the plain column visibly holds rather than losing data.
			plaintext, _ = record.AsString(rec.Adapter().ReadField(field))
		}
		rec.Cache().Put(field, plaintext)
		out[field] = plaintext
	}

	return out, nil
}

// Preload resolves fields across a whole collection with one decrypt call
// covering the union of distinct outstanding tokens. This is what keeps a list
// view over M records from paying M service calls.
func (c *coordinator) Preload(ctx context.Context, recs []*record.Record, fields ...string) error {
	type target struct {
		rec   *record.Record
		field string
	}

	var tokens []string
	seen := make(map[string]struct{})
	targets := make(map[string][]target) // token -> records/fields wanting it

	for _, rec := range recs {
		for _, field := range fields {
			if _, ok := rec.Registry().Field(field); !ok {
				return registry.ErrFieldNotTokenized
			}

			_, token, resolved := c.resolveLocal(rec, field)
			if resolved {
				continue
			}

			if _, dup := seen[token]; !dup {
				seen[token] = struct{}{}
				tokens = append(tokens, token)
			}
			targets[token] = append(targets[token], target{rec: rec, field: field})
		}
	}

	if len(tokens) == 0 {
		return nil
	}

	values, err := c.client.DecryptBatch(ctx, tokens)
	if err != nil {
		return err
	}

	for token, wants := range targets {
		for _, w := range wants {
			plaintext, ok := values[token]
			if !ok {
				plaintext, _ = record.AsString(w.rec.Adapter().ReadField(w.field))
			}
			w.rec.Cache().Put(w.field, plaintext)
		}
	}

	return nil
}

// resolveLocal applies the resolution priority that needs no service call:
// explicit null, pending plaintext, cache, then the plain column when the
// policy or the token state rules out decryption. When decryption is required
// it returns resolved=false together with the token to decrypt.
func (c *coordinator) resolveLocal(rec *record.Record, field string) (value, token string, resolved bool) {
	tracker := rec.Tracker()

	if tracker.IsNulled(field) {
		return "", "", true
	}
	if v, ok := tracker.PendingValue(field); ok {
		return v, "", true
	}
	if v, ok := rec.Cache().Get(field); ok {
		return v, "", true
	}

	adapter := rec.Adapter()
	tokenValue := adapter.ReadField(rec.Registry().TokenField(field))

	if rec.Registry().Policy().ReadFromToken && !record.Blank(tokenValue) {
		t, _ := record.AsString(tokenValue)
		return "", t, false
	}

	// Not reading from token (or no token yet): the plain column is all there is.
	v, _ := record.AsString(adapter.ReadField(field))
	return v, "", true
}

// dedupeTokens returns the distinct tokens awaiting decryption in a stable
// order for the outgoing batch.
func dedupeTokens(pending map[string]string) []string {
	seen := make(map[string]struct{}, len(pending))
	tokens := make([]string, 0, len(pending))
	for _, token := range pending {
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return tokens
}
