// Package stubserver implements an in-memory encryption service speaking the
// same JSON API the HTTP client consumes. It exists for local development and
// integration testing of hosts that cannot reach a real vault.
package stubserver

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/tokenfield/internal/encryption"
)

// TokenRecord is one minted token with its provenance.
type TokenRecord struct {
	Token      string    `json:"token"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Category   string    `json:"pii_category"`
	FieldName  string    `json:"field_name"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store is the in-memory token vault. Tokens are deterministic per composite
// key, matching the dedup guarantee of the real service. Safe for concurrent
// use.
type Store struct {
	mu      sync.RWMutex
	byKey   map[string]string
	byToken map[string]TokenRecord
	values  map[string]string   // token -> plaintext
	byValue map[string][]string // plaintext -> tokens
	order   []string            // tokens in mint order
}

// NewStore creates an empty token vault.
func NewStore() *Store {
	return &Store{
		byKey:   make(map[string]string),
		byToken: make(map[string]TokenRecord),
		values:  make(map[string]string),
		byValue: make(map[string][]string),
	}
}

// Encrypt mints one token per item, reusing the token for repeated composite
// keys. Returns composite key -> token.
func (s *Store) Encrypt(items []encryption.BatchItem) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]string, len(items))
	for _, item := range items {
		key := item.CompositeKey()
		if token, ok := s.byKey[key]; ok {
			out[key] = token
			continue
		}

		token := "tok_" + uuid.Must(uuid.NewV7()).String()
		s.byKey[key] = token
		s.byToken[token] = TokenRecord{
			Token:      token,
			EntityType: item.EntityType,
			EntityID:   item.EntityID,
			Category:   item.Category,
			FieldName:  item.FieldName,
			CreatedAt:  time.Now().UTC(),
		}
		s.values[token] = item.Value
		s.byValue[item.Value] = append(s.byValue[item.Value], token)
		s.order = append(s.order, token)
		out[key] = token
	}
	return out
}

// Decrypt resolves tokens to plaintext. Unknown tokens are silently omitted,
// producing the partial responses clients must tolerate.
func (s *Store) Decrypt(tokens []string) map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]string, len(tokens))
	for _, token := range tokens {
		if value, ok := s.values[token]; ok {
			out[token] = value
		}
	}
	return out
}

// Search returns every token minted for the given plaintext, in mint order.
func (s *Store) Search(value string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tokens := s.byValue[value]
	out := make([]string, len(tokens))
	copy(out, tokens)
	return out
}

// List returns a page of minted tokens in mint order plus the total count.
func (s *Store) List(offset, limit int) ([]TokenRecord, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := len(s.order)
	if offset >= total {
		return []TokenRecord{}, total
	}

	end := offset + limit
	if end > total {
		end = total
	}

	out := make([]TokenRecord, 0, end-offset)
	for _, token := range s.order[offset:end] {
		out = append(out, s.byToken[token])
	}
	return out, total
}
