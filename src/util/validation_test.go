package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("ada@example.com"))
	assert.False(t, ValidateEmail("ada@example"))
	assert.False(t, ValidateEmail("not an email"))
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		want     bool
	}{
		{"Sup3r$ecret", true},
		{"short1!", false},
		{"alllowercase1!", false},
		{"ALLUPPERCASE1!", false},
		{"NoDigits!!", false},
		{"NoSpecial12", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidatePassword(tt.password), tt.password)
	}
}

func TestValidateUsername(t *testing.T) {
	assert.True(t, ValidateUsername("ada"))
	assert.False(t, ValidateUsername("ad"))
}

func TestValidateMonth(t *testing.T) {
	assert.True(t, ValidateMonth("2025-03"))
	assert.False(t, ValidateMonth("2025-3"))
	assert.False(t, ValidateMonth("2025-13"))
	assert.False(t, ValidateMonth("March"))
}

func TestValidateDate(t *testing.T) {
	d, ok := ValidateDate("2025-03-09")
	assert.True(t, ok)
	assert.Equal(t, 9, d.Day())

	_, ok = ValidateDate("09/03/2025")
	assert.False(t, ok)
}
