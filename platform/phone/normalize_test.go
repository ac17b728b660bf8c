package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeE164(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+39 312 345 6789", "+393123456789"},
		{"312 345 6789", "+393123456789"},
		{"  ", ""},
		{"not a number", "not a number"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, NormalizeE164(tc.in), "input %q", tc.in)
	}
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid("+39 312 345 6789", DefaultRegion))
	assert.False(t, IsValid("12", DefaultRegion))
	assert.False(t, IsValid("", DefaultRegion))
}
