package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/allisson/tokenfield/internal/encryption"
)

// RunSearchTokens lists every token minted for a plaintext value.
func RunSearchTokens(
	ctx context.Context,
	client encryption.Client,
	logger *slog.Logger,
	w io.Writer,
	value, format string,
) error {
	if value == "" {
		return fmt.Errorf("value must not be empty")
	}

	logger.Info("searching tokens")

	tokens, err := client.SearchTokens(ctx, value)
	if err != nil {
		return fmt.Errorf("failed to search tokens: %w", err)
	}

	if format == "json" {
		return writeJSON(w, map[string]any{"tokens": tokens})
	}

	if len(tokens) == 0 {
		fmt.Fprintln(w, "No tokens found")
		return nil
	}
	for _, token := range tokens {
		fmt.Fprintln(w, token)
	}
	return nil
}
