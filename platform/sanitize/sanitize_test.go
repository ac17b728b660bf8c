package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripHTML(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"<b>bold</b> move", "bold move"},
		{"<script>alert(1)</script>hello", "hello"},
		{"Tom &amp; Jerry", "Tom & Jerry"},
		{"  <p>trimmed</p>  ", "trimmed"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, StripHTML(tc.in), "input %q", tc.in)
	}
}

func TestValuesRecurses(t *testing.T) {
	in := map[string]any{
		"note":   "<i>hi</i>",
		"count":  float64(3),
		"nested": map[string]any{"x": "<b>y</b>"},
		"list":   []any{"<u>a</u>", true},
	}

	out := Values(in)

	assert.Equal(t, "hi", out["note"])
	assert.Equal(t, float64(3), out["count"])
	assert.Equal(t, "y", out["nested"].(map[string]any)["x"])
	assert.Equal(t, []any{"a", true}, out["list"])
	assert.Nil(t, Values(nil))
}
