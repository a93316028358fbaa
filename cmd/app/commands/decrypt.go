package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/allisson/tokenfield/internal/encryption"
)

// RunDecrypt resolves one or more tokens back to plaintext values.
// Tokens unknown to the encryption service are reported as not found rather
// than failing the batch.
func RunDecrypt(
	ctx context.Context,
	client encryption.Client,
	logger *slog.Logger,
	w io.Writer,
	tokens []string,
	format string,
) error {
	if len(tokens) == 0 {
		return fmt.Errorf("at least one token is required")
	}

	logger.Info("decrypting tokens", slog.Int("count", len(tokens)))

	values, err := client.DecryptBatch(ctx, tokens)
	if err != nil {
		return fmt.Errorf("failed to decrypt tokens: %w", err)
	}

	if format == "json" {
		return writeJSON(w, map[string]any{"values": values})
	}

	for _, token := range tokens {
		if value, ok := values[token]; ok {
			fmt.Fprintf(w, "%s: %s\n", token, value)
		} else {
			fmt.Fprintf(w, "%s: (not found)\n", token)
		}
	}
	return nil
}
