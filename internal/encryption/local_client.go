package encryption

import (
	"context"
	"encoding/base64"
	"strings"
	"sync"

	"gocloud.dev/secrets"

	"github.com/allisson/tokenfield/internal/errors"

	// Register keeper drivers usable as local token backends.
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// tokenPrefix marks tokens minted by the local client so they are recognizable
// in storage dumps.
const tokenPrefix = "tfl_"

// LocalClient is a keeper-backed Client for development and tests. Values are
// encrypted through a gocloud.dev secrets keeper (hashivault://, base64key://)
// and the ciphertext doubles as the token. Tokens are deterministic per
// composite key within one client instance, matching the dedup behavior of the
// real service.
type LocalClient struct {
	keeper *secrets.Keeper

	mu      sync.Mutex
	byKey   map[string]string   // composite key -> token
	byValue map[string][]string // plaintext -> tokens, for search
}

// NewLocalClient opens a keeper for the given URI and returns a LocalClient.
// Callers own the client's lifecycle and must Close it.
func NewLocalClient(ctx context.Context, keeperURI string) (*LocalClient, error) {
	keeper, err := secrets.OpenKeeper(ctx, keeperURI)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open secrets keeper")
	}
	return &LocalClient{
		keeper:  keeper,
		byKey:   make(map[string]string),
		byValue: make(map[string][]string),
	}, nil
}

// EncryptBatch mints one token per item. Repeated composite keys reuse the
// previously minted token.
func (l *LocalClient) EncryptBatch(ctx context.Context, items []BatchItem) (map[string]string, error) {
	if len(items) == 0 {
		return map[string]string{}, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[string]string, len(items))
	for _, item := range items {
		key := item.CompositeKey()
		if token, ok := l.byKey[key]; ok {
			out[key] = token
			continue
		}

		ciphertext, err := l.keeper.Encrypt(ctx, []byte(item.Value))
		if err != nil {
			return nil, errors.Wrap(err, "failed to encrypt value")
		}

		token := tokenPrefix + base64.RawURLEncoding.EncodeToString(ciphertext)
		l.byKey[key] = token
		l.byValue[item.Value] = append(l.byValue[item.Value], token)
		out[key] = token
	}
	return out, nil
}

// DecryptBatch resolves tokens by decrypting their embedded ciphertext.
// Unknown or malformed tokens are skipped, mirroring the partial-response
// behavior of the real service.
func (l *LocalClient) DecryptBatch(ctx context.Context, tokens []string) (map[string]string, error) {
	if len(tokens) == 0 {
		return map[string]string{}, nil
	}

	out := make(map[string]string, len(tokens))
	for _, token := range tokens {
		encoded, ok := strings.CutPrefix(token, tokenPrefix)
		if !ok {
			continue
		}
		ciphertext, err := base64.RawURLEncoding.DecodeString(encoded)
		if err != nil {
			continue
		}
		plaintext, err := l.keeper.Decrypt(ctx, ciphertext)
		if err != nil {
			continue
		}
		out[token] = string(plaintext)
	}
	return out, nil
}

// SearchTokens returns every token minted for the plaintext by this instance.
func (l *LocalClient) SearchTokens(_ context.Context, plaintext string) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	tokens := l.byValue[plaintext]
	out := make([]string, len(tokens))
	copy(out, tokens)
	return out, nil
}

// Close releases the underlying keeper.
func (l *LocalClient) Close() error {
	return l.keeper.Close()
}
