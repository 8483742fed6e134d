package validator_test

import (
	"testing"

	"github.com/iyhunko/academy-backend/internal/apperror"
	"github.com/iyhunko/academy-backend/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Name string `json:"name" validate:"required"`
}

type payload struct {
	Title string   `json:"title" validate:"required"`
	Price *float64 `json:"price" validate:"omitempty,gt=0"`
	Level string   `json:"level" validate:"omitempty,oneof=Beginner Advanced"`
	Items []item   `json:"items" validate:"dive"`
}

func TestValidate(t *testing.T) {
	t.Run("valid payload", func(t *testing.T) {
		price := 10.0
		err := validator.Validate(payload{Title: "A", Price: &price, Items: []item{{Name: "x"}}})
		assert.NoError(t, err)
	})

	t.Run("absent optional pointer is accepted", func(t *testing.T) {
		assert.NoError(t, validator.Validate(payload{Title: "A"}))
	})

	t.Run("reports json field names", func(t *testing.T) {
		price := -1.0
		err := validator.Validate(payload{Price: &price, Level: "Expert", Items: []item{{}}})

		var appErr *apperror.AppError
		require.ErrorAs(t, err, &appErr)
		assert.ErrorIs(t, err, apperror.ErrValidation)
		assert.Equal(t, "is required", appErr.Fields["title"])
		assert.Equal(t, "must be greater than 0", appErr.Fields["price"])
		assert.Equal(t, "must be one of: Beginner Advanced", appErr.Fields["level"])
		assert.Equal(t, "is required", appErr.Fields["items[0].name"])
	})
}
