package registry

import (
	validation "github.com/jellydator/validation"

	"github.com/allisson/tokenfield/internal/errors"
	appvalidation "github.com/allisson/tokenfield/internal/validation"
)

// TokenFieldSuffix is appended to a tokenized field name to derive the storage
// column holding its token.
const TokenFieldSuffix = "_token"

// TokenFieldName derives the token column name for a tokenized field.
func TokenFieldName(field string) string {
	return field + TokenFieldSuffix
}

// FieldReader is the minimal record surface needed to derive an entity id.
// record.Adapter satisfies it.
type FieldReader interface {
	ReadField(name string) any
}

// SchemaChecker reports whether a column/attribute exists on the record's
// storage schema. Used by eager schema validation.
type SchemaChecker interface {
	HasField(name string) bool
}

// EntityIDFunc derives the encryption-service entity id from a record instance.
// Returning an empty string is a recognized no-op condition (a not-yet-persisted
// record may lack an identifier), not an error.
type EntityIDFunc func(r FieldReader) string

// FieldSpec describes one tokenized field on a record type.
type FieldSpec struct {
	// Name is the field identifier, unique within the record type.
	Name string
	// Category is the PII category tag from the supported vocabulary.
	Category Category
}

// Validate checks the field spec shape and category vocabulary.
func (f FieldSpec) Validate() error {
	if err := validation.ValidateStruct(&f,
		validation.Field(&f.Name, validation.Required, appvalidation.NotBlank, appvalidation.FieldName),
	); err != nil {
		return errors.Wrap(errors.ErrInvalidConfiguration, err.Error())
	}
	return f.Category.Validate()
}

// Policy is the record-type persistence policy for tokenized fields.
type Policy struct {
	// EntityType scopes tokens at the encryption service (e.g. "customer").
	EntityType string
	// DualWrite keeps the plaintext column populated alongside the token column.
	// Used during migration to tokenized storage.
	DualWrite bool
	// ReadFromToken resolves field reads by decrypting the token rather than
	// reading the plaintext column. Defaults to !DualWrite.
	ReadFromToken bool
}

// Degenerate reports the unsupported steady state where neither the plaintext
// column nor the token is used for reads (DualWrite=false, ReadFromToken=false).
// Accepted as a transitional configuration but worth a warning at setup time.
func (p Policy) Degenerate() bool {
	return !p.DualWrite && !p.ReadFromToken
}

// Config is the input for configuring tokenization on a record type.
type Config struct {
	// EntityType scopes tokens at the encryption service. Required.
	EntityType string
	// EntityID derives the per-record entity id. Required.
	EntityID EntityIDFunc
	// DualWrite enables writing both plaintext and token columns.
	DualWrite bool
	// ReadFromToken overrides the read mode. When nil it defaults to !DualWrite.
	ReadFromToken *bool
	// Fields lists the tokenized fields. At least one is required.
	Fields []FieldSpec
}

// Registry is the immutable per-record-type field configuration. Safe for
// concurrent reads after construction; reconfiguration replaces it wholesale.
type Registry struct {
	policy      Policy
	entityID    EntityIDFunc
	fields      []FieldSpec
	byName      map[string]FieldSpec
	tokenFields map[string]string
}

// New validates the configuration and builds an immutable Registry.
// Returns an error wrapping ErrInvalidConfiguration when the pii category is
// unsupported, a field spec is malformed, or the entity derivation is missing.
func New(cfg Config) (*Registry, error) {
	if err := validation.ValidateStruct(&cfg,
		validation.Field(&cfg.EntityType, validation.Required, appvalidation.NotBlank, appvalidation.NoWhitespace),
	); err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfiguration, err.Error())
	}

	if cfg.EntityID == nil {
		return nil, ErrMissingEntityID
	}

	if len(cfg.Fields) == 0 {
		return nil, ErrNoFields
	}

	byName := make(map[string]FieldSpec, len(cfg.Fields))
	tokenFields := make(map[string]string, len(cfg.Fields))
	fields := make([]FieldSpec, 0, len(cfg.Fields))

	for _, spec := range cfg.Fields {
		if err := spec.Validate(); err != nil {
			return nil, err
		}
		if _, exists := byName[spec.Name]; exists {
			return nil, errors.Wrapf(ErrDuplicateField, "%q", spec.Name)
		}
		byName[spec.Name] = spec
		tokenFields[spec.Name] = TokenFieldName(spec.Name)
		fields = append(fields, spec)
	}

	// ReadFromToken defaults to the inverse of DualWrite: once plaintext stops
	// being written, reads must come from the token.
	readFromToken := !cfg.DualWrite
	if cfg.ReadFromToken != nil {
		readFromToken = *cfg.ReadFromToken
	}

	return &Registry{
		policy: Policy{
			EntityType:    cfg.EntityType,
			DualWrite:     cfg.DualWrite,
			ReadFromToken: readFromToken,
		},
		entityID:    cfg.EntityID,
		fields:      fields,
		byName:      byName,
		tokenFields: tokenFields,
	}, nil
}

// Fields returns the tokenized field specs in configuration order.
// The returned slice must not be mutated.
func (r *Registry) Fields() []FieldSpec {
	return r.fields
}

// Field returns the spec for a tokenized field name.
func (r *Registry) Field(name string) (FieldSpec, bool) {
	spec, ok := r.byName[name]
	return spec, ok
}

// TokenField returns the token column name for a tokenized field, or "" when
// the field is not tokenized.
func (r *Registry) TokenField(name string) string {
	return r.tokenFields[name]
}

// Policy returns the record-type persistence policy.
func (r *Registry) Policy() Policy {
	return r.policy
}

// EntityID derives the entity id for a record instance. An empty result means
// the record cannot be tokenized yet.
func (r *Registry) EntityID(rec FieldReader) string {
	return r.entityID(rec)
}

// Validate eagerly checks that every token column exists on the storage schema.
// Permissive setups may skip this and rely on storage errors at first use.
func (r *Registry) Validate(schema SchemaChecker) error {
	for _, spec := range r.fields {
		column := r.tokenFields[spec.Name]
		if !schema.HasField(column) {
			return &MissingTokenColumnError{Column: column}
		}
	}
	return nil
}
