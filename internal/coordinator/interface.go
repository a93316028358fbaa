// Package coordinator implements the field tokenization core: the batch
// encrypt/decrypt coordination between record state and the encryption
// service, including the deferred post-identity path and the read resolution
// over the decryption cache.
package coordinator

import (
	"context"

	"github.com/allisson/tokenfield/internal/record"
)

// Coordinator orchestrates tokenization for record instances. All operations
// execute synchronously on the calling goroutine; the only suspension point is
// the encryption client call. No retry or timeout policy lives here.
type Coordinator interface {
	// PreWritePass tokenizes every field needing it before a storage write.
	// Silently no-ops when the record's entity id cannot be derived yet.
	PreWritePass(ctx context.Context, rec *record.Record) error

	// PostIdentityPass tokenizes fields left unprocessed by the pre-write pass
	// and applies the staged writes via a targeted storage update. Invoked once
	// a storage-generated identifier becomes available.
	PostIdentityPass(ctx context.Context, rec *record.Record) error

	// Resolve returns the plaintext for a tokenized field, following the
	// resolution priority: explicit null, pending write, cache, token
	// decryption, plain column.
	Resolve(ctx context.Context, rec *record.Record, field string) (string, error)

	// ResolveMany resolves several fields with at most one decrypt call.
	ResolveMany(ctx context.Context, rec *record.Record, fields []string) (map[string]string, error)

	// Preload resolves one or more fields across a whole collection with a
	// single decrypt call covering the distinct-token union.
	Preload(ctx context.Context, recs []*record.Record, fields ...string) error

	// InvalidateCache drops all per-session state after the host reloads the
	// record from storage.
	InvalidateCache(rec *record.Record)
}
