package finance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeVendor(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain name", "Apex Steel Supply", "Apex Steel Supply"},
		{"leading and trailing spaces", "  Apex Steel Supply  ", "Apex Steel Supply"},
		{"internal runs collapse", "Apex   Steel\tSupply", "Apex Steel Supply"},
		{"fullwidth digits fold", "Ｓｕｐｐｌｙ ２４", "Supply 24"},
		{"empty", "", ""},
		{"only whitespace", "   \t ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeVendor(tt.input))
		})
	}
}

func TestSameVendor(t *testing.T) {
	assert.True(t, SameVendor("Apex Steel Supply", "apex steel supply"))
	assert.True(t, SameVendor("  Apex   Steel ", "Apex Steel"))
	assert.False(t, SameVendor("Apex Steel", "Apex Concrete"))
}
