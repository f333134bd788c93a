package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSortMode(t *testing.T) {
	tests := []struct {
		input       string
		expected    SortMode
		expectError bool
	}{
		{input: "", expected: SortPotential},
		{input: "potential", expected: SortPotential},
		{input: "ratings", expected: SortRatings},
		{input: "rents", expected: SortRents},
		{input: "activity", expected: SortActivity},
		{input: "Ratings", expectError: true},
		{input: "name", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			mode, err := ParseSortMode(tt.input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, mode)
		})
	}
}

func TestSortMode_Field(t *testing.T) {
	field, ok := SortRatings.Field()
	assert.True(t, ok)
	assert.Equal(t, FieldRatings, field)

	field, ok = SortRents.Field()
	assert.True(t, ok)
	assert.Equal(t, FieldRents, field)

	field, ok = SortActivity.Field()
	assert.True(t, ok)
	assert.Equal(t, FieldActivity, field)

	_, ok = SortPotential.Field()
	assert.False(t, ok)
}

func TestFields_IsEmptyAndApply(t *testing.T) {
	assert.True(t, Fields{}.IsEmpty())

	touched := Timestamp(99)
	assert.True(t, Fields{UpdatedAt: &touched, RecentlyActive: &touched}.IsEmpty())

	name := "Alice"
	rents := int64(7)
	f := Fields{Name: &name, NumberOfRents: &rents, UpdatedAt: &touched}
	assert.False(t, f.IsEmpty())

	u := User{Name: "Old", Email: "old@example.com", NumberOfRents: 1}
	f.Apply(&u)
	assert.Equal(t, "Alice", u.Name)
	assert.Equal(t, "old@example.com", u.Email)
	assert.Equal(t, int64(7), u.NumberOfRents)
	assert.Equal(t, touched, u.UpdatedAt)
}
