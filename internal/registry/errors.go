package registry

import (
	"fmt"

	"github.com/allisson/tokenfield/internal/errors"
)

var (
	// ErrUnsupportedCategory indicates a pii category outside the supported vocabulary.
	ErrUnsupportedCategory = errors.Wrap(errors.ErrInvalidConfiguration, "unsupported pii category")

	// ErrNoFields indicates a configuration with no tokenized fields.
	ErrNoFields = errors.Wrap(errors.ErrInvalidConfiguration, "no tokenized fields configured")

	// ErrDuplicateField indicates the same field name was configured twice.
	ErrDuplicateField = errors.Wrap(errors.ErrInvalidConfiguration, "duplicate tokenized field")

	// ErrMissingEntityID indicates the configuration has no entity id derivation.
	ErrMissingEntityID = errors.Wrap(errors.ErrInvalidConfiguration, "missing entity id derivation")

	// ErrFieldNotTokenized indicates an operation referenced a field that is not
	// part of the registry.
	ErrFieldNotTokenized = errors.Wrap(errors.ErrNotFound, "field is not tokenized")
)

// MissingTokenColumnError indicates the storage schema lacks the column that
// should hold a field's token. Carries the expected column name so callers can
// surface an actionable message.
type MissingTokenColumnError struct {
	Column string
}

// Error implements the error interface.
func (e *MissingTokenColumnError) Error() string {
	return fmt.Sprintf("missing token column %q", e.Column)
}

// Unwrap makes the error match ErrInvalidConfiguration via errors.Is.
func (e *MissingTokenColumnError) Unwrap() error {
	return errors.ErrInvalidConfiguration
}
