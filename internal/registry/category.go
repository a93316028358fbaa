// Package registry defines the per-record-type tokenization configuration:
// which fields are tokenized, their PII category, how the owning entity is
// derived, and the dual-write/read-from-token persistence policy. A Registry is
// built once when a record type is configured and is immutable afterwards.
package registry

import (
	"github.com/allisson/tokenfield/internal/errors"
)

// Category tags a tokenized field with the kind of PII it holds. The encryption
// service scopes tokens by category, so the vocabulary is closed and validated
// at configuration time.
type Category string

const (
	CategoryEmail         Category = "EMAIL"
	CategoryName          Category = "NAME"
	CategoryPhone         Category = "PHONE"
	CategoryAddress       Category = "ADDRESS"
	CategorySSN           Category = "SSN"
	CategoryDOB           Category = "DOB"
	CategoryIPAddress     Category = "IP_ADDRESS"
	CategoryCreditCard    Category = "CREDIT_CARD"
	CategoryPassport      Category = "PASSPORT"
	CategoryDriverLicense Category = "DRIVER_LICENSE"
	CategoryBankAccount   Category = "BANK_ACCOUNT"
	CategoryGeneric       Category = "GENERIC"
)

// supportedCategories is the closed PII vocabulary accepted at configuration time.
var supportedCategories = map[Category]struct{}{
	CategoryEmail:         {},
	CategoryName:          {},
	CategoryPhone:         {},
	CategoryAddress:       {},
	CategorySSN:           {},
	CategoryDOB:           {},
	CategoryIPAddress:     {},
	CategoryCreditCard:    {},
	CategoryPassport:      {},
	CategoryDriverLicense: {},
	CategoryBankAccount:   {},
	CategoryGeneric:       {},
}

// Validate checks if the category is part of the supported vocabulary.
func (c Category) Validate() error {
	if _, ok := supportedCategories[c]; !ok {
		return errors.Wrapf(ErrUnsupportedCategory, "%q", string(c))
	}
	return nil
}

// String returns the string representation of the category.
func (c Category) String() string {
	return string(c)
}
