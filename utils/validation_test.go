package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testDescriptor struct {
	Name        string  `validate:"required"`
	Strategy    string  `validate:"required,oneof=cost_optimized balanced"`
	Cost        float64 `validate:"gte=0"`
	Reliability float64 `validate:"gte=0,lte=1"`
}

func TestValidateStruct(t *testing.T) {
	t.Run("valid struct", func(t *testing.T) {
		s := testDescriptor{Name: "openai", Strategy: "balanced", Cost: 0.6, Reliability: 0.9}

		err := ValidateStruct(&s)
		assert.NoError(t, err)
	})

	t.Run("missing required field", func(t *testing.T) {
		s := testDescriptor{Strategy: "balanced"}

		err := ValidateStruct(&s)
		assert.Error(t, err)
		assert.True(t, IsValidationError(err))

		fields := GetValidationFields(err)
		assert.Contains(t, fields, "Name")
	})

	t.Run("value not in enum", func(t *testing.T) {
		s := testDescriptor{Name: "openai", Strategy: "fastest"}

		err := ValidateStruct(&s)
		require.Error(t, err)

		fields := GetValidationFields(err)
		assert.Equal(t, "Strategy must be one of: cost_optimized balanced", fields["Strategy"])
	})

	t.Run("out of range", func(t *testing.T) {
		s := testDescriptor{Name: "openai", Strategy: "balanced", Cost: -1, Reliability: 2}

		err := ValidateStruct(&s)
		require.Error(t, err)

		fields := GetValidationFields(err)
		assert.Contains(t, fields, "Cost")
		assert.Contains(t, fields, "Reliability")
	})

	t.Run("struct value", func(t *testing.T) {
		assert.NoError(t, ValidateStruct(testDescriptor{Name: "x", Strategy: "balanced"}))
	})
}

func TestValidateNumericRange(t *testing.T) {
	t.Run("float bounds are inclusive", func(t *testing.T) {
		assert.NoError(t, ValidateNumericRange(0.0, "reliability", 0, 1))
		assert.NoError(t, ValidateNumericRange(1.0, "reliability", 0, 1))
		assert.NoError(t, ValidateNumericRange(0.97, "reliability", 0, 1))
	})

	t.Run("float outside range", func(t *testing.T) {
		err := ValidateNumericRange(1.01, "reliability", 0, 1)
		require.Error(t, err)
		assert.Equal(t, "reliability must be at most 1", err.Error())

		err = ValidateNumericRange(-0.1, "reliability", 0, 1)
		require.Error(t, err)
		assert.Equal(t, "reliability must be at least 0", err.Error())
	})

	t.Run("integers", func(t *testing.T) {
		assert.NoError(t, ValidateNumericRange(int64(800), "latency", 0, 60000))
		assert.Error(t, ValidateNumericRange(-5, "window", 1, 10))
	})
}

func TestValidateOneOf(t *testing.T) {
	allowed := []string{"json", "console"}

	assert.NoError(t, ValidateOneOf("json", "log format", allowed))
	assert.NoError(t, ValidateOneOf("console", "log format", allowed))

	err := ValidateOneOf("xml", "log format", allowed)
	require.Error(t, err)
	assert.Equal(t, "log format must be one of [json console], got xml", err.Error())

	assert.Error(t, ValidateOneOf(3, "retries", []int{0, 1, 2}))
}

func TestNewValidationError(t *testing.T) {
	s := testDescriptor{Cost: -2}

	err := ValidateStruct(&s)
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok)

	assert.Equal(t, "validation failed", validationErr.Message)
	assert.Contains(t, validationErr.Fields, "Name")
	assert.Contains(t, validationErr.Fields, "Strategy")
	assert.Contains(t, validationErr.Fields, "Cost")
}

func TestValidationError_Error(t *testing.T) {
	t.Run("without fields", func(t *testing.T) {
		err := &ValidationError{Message: "validation failed"}
		assert.Equal(t, "validation failed", err.Error())
	})

	t.Run("fields are listed in sorted order", func(t *testing.T) {
		err := &ValidationError{
			Message: "validation failed",
			Fields: map[string]string{
				"Prompt": "Prompt is required",
				"Kind":   "Kind is required",
			},
		}
		assert.Equal(t, "validation failed: Kind is required; Prompt is required", err.Error())
	})
}

func TestIsValidationError(t *testing.T) {
	assert.True(t, IsValidationError(&ValidationError{Message: "test"}))
	assert.False(t, IsValidationError(assert.AnError))
}

func TestGetValidationFields(t *testing.T) {
	t.Run("gets fields from validation error", func(t *testing.T) {
		fields := map[string]string{
			"field1": "error1",
			"field2": "error2",
		}
		err := &ValidationError{
			Message: "test",
			Fields:  fields,
		}

		extracted := GetValidationFields(err)
		assert.Equal(t, fields, extracted)
	})

	t.Run("returns nil for non-validation error", func(t *testing.T) {
		extracted := GetValidationFields(assert.AnError)
		assert.Nil(t, extracted)
	})
}
