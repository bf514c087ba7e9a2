package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Email    string `json:"email" validate:"required,email"`
	Currency string `json:"currency" validate:"omitempty,iso4217"`
	Address  string `json:"wallet_address" validate:"omitempty,eth_addr"`
	Kind     string `json:"type" validate:"required,oneof=deposit withdrawal"`
	Code     string `json:"code" validate:"omitempty,len=6,numeric"`
}

func TestValidateUsesJSONFieldNames(t *testing.T) {
	v := NewValidator()

	err := v.Validate(&sample{Currency: "XXQ", Address: "0x123", Kind: "gift", Code: "12a"})
	require.Error(t, err)

	errs := v.FormatValidationErrors(err)
	assert.Equal(t, "email is required", errs["email"])
	assert.Equal(t, "currency must be an ISO 4217 currency code", errs["currency"])
	assert.Equal(t, "wallet_address must be a 0x-prefixed wallet address", errs["wallet_address"])
	assert.Equal(t, "type must be one of: deposit, withdrawal", errs["type"])
	assert.Contains(t, errs, "code")
}

func TestValidateAcceptsValidInput(t *testing.T) {
	v := NewValidator()

	err := v.Validate(&sample{
		Email:    "p@example.com",
		Currency: "EUR",
		Address:  "0x52908400098527886E0F7030069857D2E4169EE7",
		Kind:     "deposit",
		Code:     "123456",
	})
	assert.NoError(t, err)
}

func TestFormatValidationErrorsIgnoresOtherErrors(t *testing.T) {
	assert.Empty(t, NewValidator().FormatValidationErrors(assert.AnError))
}
