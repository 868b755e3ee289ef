package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"already canonical", "919876543210", "919876543210"},
		{"plus and spaces", "+91 98765 43210", "919876543210"},
		{"bare ten digits", "9876543210", "919876543210"},
		{"trunk prefix", "09876543210", "919876543210"},
		{"dashes", "098765-43210", "919876543210"},
		{"no digits", "n/a", ""},
		{"other country code kept", "+4479460958", "4479460958"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePhone(tt.raw))
		})
	}
}

func TestPlayerRefMatches(t *testing.T) {
	id7 := int64(7)
	id9 := int64(9)

	t.Run("player id wins over phone", func(t *testing.T) {
		ref := NewPlayerRef(&id7, "9876543210")
		assert.True(t, ref.Matches(&id7, "0000000000"))
		assert.False(t, ref.Matches(&id9, "9876543210"))
	})

	t.Run("falls back to normalized phone", func(t *testing.T) {
		ref := NewPlayerRef(nil, "+91 98765 43210")
		assert.True(t, ref.Matches(nil, "9876543210"))
		assert.True(t, ref.Matches(&id7, "09876543210"))
		assert.False(t, ref.Matches(nil, "9123456789"))
	})

	t.Run("empty phone never matches", func(t *testing.T) {
		ref := NewPlayerRef(nil, "")
		assert.False(t, ref.Matches(nil, ""))
	})
}
