// Package encryption provides the client boundary to the external
// encryption/tokenization service. The coordinator only depends on the Client
// interface; the HTTP implementation and the keeper-backed local implementation
// are interchangeable.
package encryption

import (
	"context"
	"strings"
)

// BatchItem is one field/value pair submitted for tokenization. Ephemeral:
// constructed per pre-write pass and never persisted.
type BatchItem struct {
	// Value is the plaintext to tokenize.
	Value string `json:"value"`
	// EntityType classifies the owning record (e.g. "customer").
	EntityType string `json:"entity_type"`
	// EntityID uniquely identifies the owning record at the service.
	EntityID string `json:"entity_id"`
	// Category is the PII category tag (e.g. "EMAIL").
	Category string `json:"pii_category"`
	// FieldName is the record field the value belongs to.
	FieldName string `json:"field_name"`
}

// CompositeKey is the response key for a batch item:
// UPPER(entity_type):entity_id:pii_category:value.
func (i BatchItem) CompositeKey() string {
	return strings.ToUpper(i.EntityType) + ":" + i.EntityID + ":" + i.Category + ":" + i.Value
}

// Client is the encryption service boundary consumed by the coordinator.
//
// Both batch operations accept partial responses: keys or tokens absent from
// the returned map are a tolerated service gap, not an error. Connectivity and
// non-success responses are returned as errors and never swallowed. Retry and
// timeout policy belongs to implementations, never to the coordinator.
type Client interface {
	// EncryptBatch tokenizes all items in one round trip and returns a map
	// keyed by each item's composite key. Empty input returns an empty map
	// without a network call.
	EncryptBatch(ctx context.Context, items []BatchItem) (map[string]string, error)

	// DecryptBatch resolves tokens to plaintext in one round trip, keyed by
	// token. Empty input returns an empty map without a network call.
	DecryptBatch(ctx context.Context, tokens []string) (map[string]string, error)

	// SearchTokens returns every token minted for the given plaintext. Used by
	// the query layer for equality search against token columns.
	SearchTokens(ctx context.Context, plaintext string) ([]string, error)
}
