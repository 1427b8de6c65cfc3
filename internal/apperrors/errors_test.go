package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfWrappedError(t *testing.T) {
	err := fmt.Errorf("buy: %w", InsufficientStock(2, "prod1"))

	assert.Equal(t, KindBusinessRule, KindOf(err))
	appErr, ok := As(err)
	assert.True(t, ok)
	assert.Equal(t, CodeInsufficientStock, appErr.Code)
	assert.Equal(t, "Only 2 of prod1 are remaining", appErr.Error())
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("db down")))
	_, ok := As(errors.New("db down"))
	assert.False(t, ok)
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		err     *Error
		kind    Kind
		code    string
		message string
	}{
		{NotFound("Product"), KindNotFound, CodeNotFound, "Product not found"},
		{Unauthenticated("Invalid or expired token"), KindAuthentication, CodeUnauthorized, "Invalid or expired token"},
		{Forbidden("The user must be a buyer"), KindAuthorization, CodeForbidden, "The user must be a buyer"},
		{InsufficientCredit("user1"), KindBusinessRule, CodeInsufficientCredit, "user1's deposit is less than total cost"},
		{InvalidDenomination(3), KindBusinessRule, CodeInvalidDenomination, "3 is not an accepted coin"},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String()+"/"+tt.code, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.err.Kind)
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.message, tt.err.Message)
		})
	}
}

func TestFieldError(t *testing.T) {
	err := Field("amount", "0 is an invalid amount")

	assert.Equal(t, KindValidation, err.Kind)
	assert.Equal(t, map[string]string{"amount": "0 is an invalid amount"}, err.Fields)
}
