package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/allisson/tokenfield/internal/encryption"
	"github.com/allisson/tokenfield/internal/registry"
)

// RunEncrypt tokenizes a single value through the encryption service and
// prints the minted token. Supports both text and JSON output formats.
func RunEncrypt(
	ctx context.Context,
	client encryption.Client,
	logger *slog.Logger,
	w io.Writer,
	value, entityType, entityID, category, fieldName, format string,
) error {
	if strings.TrimSpace(entityType) == "" {
		return fmt.Errorf("entity-type must not be blank")
	}
	if strings.TrimSpace(entityID) == "" {
		return fmt.Errorf("entity-id must not be blank")
	}
	if strings.TrimSpace(fieldName) == "" {
		return fmt.Errorf("field-name must not be blank")
	}
	if err := registry.Category(category).Validate(); err != nil {
		return fmt.Errorf("invalid category: %w", err)
	}

	item := encryption.BatchItem{
		Value:      value,
		EntityType: entityType,
		EntityID:   entityID,
		Category:   category,
		FieldName:  fieldName,
	}

	logger.Info("encrypting value",
		slog.String("entity_type", entityType),
		slog.String("entity_id", entityID),
		slog.String("category", category),
		slog.String("field_name", fieldName),
	)

	tokens, err := client.EncryptBatch(ctx, []encryption.BatchItem{item})
	if err != nil {
		return fmt.Errorf("failed to encrypt value: %w", err)
	}

	token, ok := tokens[item.CompositeKey()]
	if !ok {
		return fmt.Errorf("encryption service returned no token for %q", item.CompositeKey())
	}

	if format == "json" {
		return writeJSON(w, map[string]string{"token": token})
	}

	fmt.Fprintf(w, "Token: %s\n", token)
	return nil
}
