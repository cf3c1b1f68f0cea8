package validation

import (
	"net/http/httptest"
	"strings"
	"testing"

	"azbeauty-be/internal/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lineItem struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"gte=1"`
}

type sampleInput struct {
	Name  string     `json:"name" validate:"required,max=10"`
	Kind  string     `json:"kind" validate:"oneof=percent fixed"`
	Items []lineItem `json:"items" validate:"min=1,dive"`
}

func TestStruct(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		in := sampleInput{
			Name:  "ok",
			Kind:  "fixed",
			Items: []lineItem{{ProductID: "6f1c2a52-8f1c-4b53-a1f4-3b7fb0a1c0de", Quantity: 1}},
		}
		assert.NoError(t, Struct(in))
	})

	t.Run("reports json field names", func(t *testing.T) {
		in := sampleInput{
			Name:  "",
			Kind:  "bogus",
			Items: []lineItem{{ProductID: "nope", Quantity: 0}},
		}
		err := Struct(in)
		require.Error(t, err)

		appErr := apperror.As(err)
		require.NotNil(t, appErr)
		assert.Equal(t, apperror.CodeValidation, appErr.Code())
		assert.Equal(t, "name is required", appErr.Message())

		details, ok := appErr.Details().(map[string]string)
		require.True(t, ok)
		assert.Equal(t, "must be one of [percent fixed]", details["kind"])
		assert.Equal(t, "must be a valid UUID", details["items[0].product_id"])
		assert.Equal(t, "must be greater than or equal to 1", details["items[0].quantity"])
	})

	t.Run("empty slice", func(t *testing.T) {
		err := Struct(sampleInput{Name: "x", Kind: "percent"})
		require.Error(t, err)
		assert.Equal(t, "items must contain at least 1 item(s)", apperror.As(err).Message())
	})
}

func TestVar(t *testing.T) {
	assert.NoError(t, Var("id", "6f1c2a52-8f1c-4b53-a1f4-3b7fb0a1c0de", "uuid"))

	err := Var("id", "abc", "uuid")
	require.Error(t, err)
	assert.Equal(t, "id must be a valid UUID", apperror.As(err).Message())
}

func TestDecodeJSONBody(t *testing.T) {
	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader("{"))
		var dest sampleInput
		err := DecodeJSONBody(req, &dest)
		require.Error(t, err)
		assert.Equal(t, "Invalid JSON body", apperror.As(err).Message())
	})

	t.Run("validates after decode", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"way too long a name","kind":"fixed","items":[]}`))
		var dest sampleInput
		err := DecodeJSONBody(req, &dest)
		require.Error(t, err)
		assert.Equal(t, "name must be at most 10 characters", apperror.As(err).Message())
	})
}
