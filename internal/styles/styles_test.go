package styles

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStylerPlainOnNonTerminal(t *testing.T) {
	s := New(&bytes.Buffer{})

	tests := []struct {
		name  string
		style func(string) string
	}{
		{"error", s.ERROR},
		{"warning", s.WARNING},
		{"info", s.INFO},
		{"hint", s.HINT},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, "OpenAI Error: boom", tt.style("OpenAI Error: boom"))
		})
	}
}
