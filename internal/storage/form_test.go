package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/sizing"
)

func TestProductForm_ParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		change  func(v map[string]string)
		field   string
		message string
	}{
		{
			name:    "blank title",
			change:  func(v map[string]string) { v["title"] = "   " },
			field:   "title",
			message: "title is required",
		},
		{
			name:    "missing deposit",
			change:  func(v map[string]string) { delete(v, "security_deposit") },
			field:   "security_deposit",
			message: "security_deposit is required",
		},
		{
			name:    "negative rental price",
			change:  func(v map[string]string) { v["rental_price"] = "-5" },
			field:   "rental_price",
			message: "rental_price must not be negative",
		},
		{
			name:    "garbage original price",
			change:  func(v map[string]string) { v["original_price"] = "lots" },
			field:   "original_price",
			message: "original_price must be a number",
		},
		{
			name:    "bad date",
			change:  func(v map[string]string) { v["available_from"] = "03/01/2025" },
			field:   "available_from",
			message: "available_from must be a date in YYYY-MM-DD format",
		},
		{
			name: "window ends before it starts",
			change: func(v map[string]string) {
				v["available_from"] = "2025-03-10"
				v["available_until"] = "2025-03-01"
			},
			field:   "available_until",
			message: "available_until must not be before available_from",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			form := validForm()
			tc.change(form.Values)

			_, err := form.parse()
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tc.field, vErr.Field)
			assert.Equal(t, tc.message, vErr.Message)
		})
	}
}

func TestProductForm_Measurement(t *testing.T) {
	f64 := func(v float64) *float64 { return &v }

	tests := []struct {
		name     string
		values   map[string]string
		expected sizing.Range
		present  bool
	}{
		{name: "nothing submitted", values: map[string]string{}, present: false},
		{name: "free text range", values: map[string]string{"hip_size": "36 - 38"}, expected: sizing.Range{Min: f64(36), Max: f64(38)}, present: true},
		{name: "free text wins over bounds", values: map[string]string{"hip_size": "40", "hip_min": "1"}, expected: sizing.Range{Min: f64(40)}, present: true},
		{name: "blank free text clears", values: map[string]string{"hip_size": ""}, expected: sizing.Range{}, present: true},
		{name: "separate bounds", values: map[string]string{"hip_min": "34", "hip_max": "36.5"}, expected: sizing.Range{Min: f64(34), Max: f64(36.5)}, present: true},
		{name: "invalid bound is dropped", values: map[string]string{"hip_min": "abc", "hip_max": "36"}, expected: sizing.Range{Min: f64(36)}, present: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, ok := ProductForm{Values: tc.values}.measurement(sizing.Hip)
			assert.Equal(t, tc.present, ok)
			assert.Equal(t, tc.expected, r)
		})
	}
}

func TestProductForm_ParseDefaults(t *testing.T) {
	form := validForm()
	form.Images = nil
	form.Values["available_from"] = "2025-03-01"

	fields, err := form.parse()
	require.NoError(t, err)
	assert.Equal(t, []string{}, fields.images)
	assert.Nil(t, fields.originalPrice)
	assert.Nil(t, fields.sleeveLength)
	require.NotNil(t, fields.availableFrom)
	assert.Equal(t, "2025-03-01", fields.availableFrom.Format(dateLayout))
	assert.Nil(t, fields.availableUntil)
	assert.NotContains(t, fields.ranges, sizing.Length)
}
