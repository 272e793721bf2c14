package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	t.Run("Should strip country code, trunk prefix and separators", func(t *testing.T) {
		for _, raw := range []string{"9876543210", "+91 98765 43210", "098765-43210", "91-9876543210"} {
			got, ok := NormalizePhone(raw)
			require.True(t, ok, raw)
			assert.Equal(t, "9876543210", got)
		}
	})
	t.Run("Should reject numbers that are not Indian mobiles", func(t *testing.T) {
		for _, raw := range []string{"5876543210", "12345", "", "98765432101"} {
			_, ok := NormalizePhone(raw)
			assert.False(t, ok, raw)
		}
	})
}

func TestIsPAN(t *testing.T) {
	assert.True(t, IsPAN("abcde1234f"))
	assert.True(t, IsPAN(" ABCDE1234F "))
	assert.False(t, IsPAN("ABCD1234F"))
	assert.False(t, IsPAN("ABCDE12345"))
}

func TestValidateStruct(t *testing.T) {
	type input struct {
		FirstName string `json:"first_name" validate:"required"`
		PAN       string `json:"pan"        validate:"required,pan"`
		Phone     string `json:"phone"      validate:"omitempty,phone_in"`
		IFSC      string `json:"ifsc"       validate:"omitempty,ifsc"`
	}

	t.Run("Should accept a valid struct", func(t *testing.T) {
		err := ValidateStruct(input{FirstName: "Asha", PAN: "ABCDE1234F", Phone: "+919876543210", IFSC: "HDFC0001234"})
		assert.NoError(t, err)
	})

	t.Run("Should name the failing field by its JSON name", func(t *testing.T) {
		err := ValidateStruct(input{FirstName: "Asha", PAN: "bad"})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidInput)
		var coreErr *Error
		require.True(t, errors.As(err, &coreErr))
		assert.Equal(t, "pan", coreErr.Details["field"])
	})
}
