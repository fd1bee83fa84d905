package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/pkg/validator"
)

func TestEntryInput_Defaults(t *testing.T) {
	e := EntryInput{ID: "1", Name: "Headphones", Price: NewPrice("299.99")}.Entry()

	assert.Equal(t, PlaceholderImage, e.Image)
	assert.Equal(t, UncategorizedLabel, e.Category)
	assert.True(t, e.DateAdded.IsZero())
}

func TestEntryInput_KeepsProvidedFields(t *testing.T) {
	e := EntryInput{
		ID: "1", Name: "Headphones", Price: NewPrice("299.99"),
		Image: "/img/h.jpg", Category: "electronics", Brand: "Acme",
		AverageRating: 4.5, ReviewCount: 12,
	}.Entry()

	assert.Equal(t, "/img/h.jpg", e.Image)
	assert.Equal(t, "electronics", e.Category)
	assert.Equal(t, "Acme", e.Brand)
	assert.Equal(t, 4.5, e.AverageRating)
	assert.Equal(t, 12, e.ReviewCount)
}

func TestEntryInput_Validation(t *testing.T) {
	tests := []struct {
		name    string
		input   EntryInput
		wantErr string
	}{
		{"valid", EntryInput{ID: "1", Name: "Headphones"}, ""},
		{"missing id", EntryInput{Name: "Headphones"}, "id"},
		{"blank id", EntryInput{ID: "   ", Name: "Headphones"}, "id"},
		{"missing name", EntryInput{ID: "1"}, "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.Validate(tt.input)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var verr *validator.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields(), tt.wantErr)
		})
	}
}

func TestEntry_RangeWarnings(t *testing.T) {
	ok := Entry{Price: NewPrice("10"), AverageRating: 5, ReviewCount: 0}
	assert.Empty(t, ok.RangeWarnings())

	bad := Entry{Price: NewPrice("-1"), AverageRating: 7.5, ReviewCount: -2}
	warnings := bad.RangeWarnings()
	require.Len(t, warnings, 3)
	assert.Contains(t, warnings[0], "price")
	assert.Contains(t, warnings[1], "averageRating")
	assert.Contains(t, warnings[2], "reviewCount")
}

func TestEntry_ItemContract(t *testing.T) {
	e := Entry{ID: "7", Name: "Lamp"}
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	stamped := e.Stamped(at)
	assert.Equal(t, "7", stamped.Key())
	assert.Equal(t, "Lamp", stamped.DisplayName())
	assert.Equal(t, at, stamped.DateAdded)
	assert.True(t, e.DateAdded.IsZero(), "Stamped must not modify the receiver")

	assert.Equal(t, "This product", Entry{ID: "x"}.DisplayName())
}

func TestEntry_JSONLayout(t *testing.T) {
	e := Entry{
		ID: "1", Name: "Headphones", Price: NewPrice("299.99"),
		Image: "/placeholder.svg", Category: "electronics", Brand: "Acme",
		AverageRating: 4.5, ReviewCount: 128,
		DateAdded: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	raw, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id":"1","name":"Headphones","price":299.99,"image":"/placeholder.svg",
		"category":"electronics","brand":"Acme","averageRating":4.5,
		"reviewCount":128,"dateAdded":"2026-01-02T03:04:05Z"
	}`, string(raw))
}

func TestPrice_AcceptsNumberAndString(t *testing.T) {
	var fromNumber, fromString struct{ Price Price }
	require.NoError(t, json.Unmarshal([]byte(`{"Price":19.99}`), &fromNumber))
	require.NoError(t, json.Unmarshal([]byte(`{"Price":"19.99"}`), &fromString))

	assert.True(t, fromNumber.Price.Equal(fromString.Price.Decimal))
	assert.Equal(t, "19.99", fromNumber.Price.String())
}
