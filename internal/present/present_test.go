package present

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresent(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(&buf).Present("It adds two numbers."))

	expected := "💡 Code Explanation:\n" +
		"--------------------------------------------------\n" +
		"It adds two numbers.\n" +
		"--------------------------------------------------\n"
	assert.Equal(t, expected, buf.String())
}

func TestPresent_TextIsNotTransformed(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"markdown", "# Title\n\n* item\n* `code`"},
		{"tabs and trailing spaces", "\tindented  \n  "},
		{"empty", ""},
		{"wide line", string(bytes.Repeat([]byte("x"), 300))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, New(&buf).Present(tt.text))
			assert.Equal(t, Header+"\n"+Rule+"\n"+tt.text+"\n"+Rule+"\n", buf.String())
		})
	}
}

func TestRuleWidth(t *testing.T) {
	assert.Len(t, Rule, RuleWidth)
}
