package services

import (
	"errors"
	"fmt"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKinds(t *testing.T) {
	wrapped := fmt.Errorf("pay: %w", notFound("Invoice %s not found", "INV1"))
	kind, ok := KindOf(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindNotFound, kind)
	assert.Equal(t, "pay: Invoice INV1 not found", wrapped.Error())

	funds := &InsufficientFundsError{Available: money("100"), Required: money("150")}
	assert.True(t, IsKind(funds, KindInvalidState))
	assert.Equal(t, "insufficient wallet balance. Available: 100.00, Required: 150.00", funds.Error())

	_, ok = KindOf(errors.New("connection reset"))
	assert.False(t, ok)
	assert.Equal(t, "Unauthorized", KindUnauthorized.String())
}

func TestValidationFailed(t *testing.T) {
	assert.NoError(t, validationFailed(nil))

	err := validationFailed(CreateInvoiceRequest{}.Validate())
	require.Error(t, err)
	assert.True(t, IsKind(err, KindValidation))

	var fields validation.Errors
	require.True(t, errors.As(err, &fields))
	assert.Contains(t, fields, "items")
	assert.Contains(t, fields, "appointment_id")
}
