package core

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/robottwo/codexplain/internal/config"
	"github.com/robottwo/codexplain/internal/explain"
	"github.com/robottwo/codexplain/internal/present"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRun_Fallback(t *testing.T) {
	var out bytes.Buffer
	cfg := &config.Config{Text: "while x: pass"}

	require.NoError(t, Run(context.Background(), cfg, &out, zap.NewNop(), "codexplain/test"))

	expected := "\n🧠 Generating explanation...\n\n" +
		"ℹ️ Using basic explanation (no AI)...\n" +
		present.Header + "\n" + present.Rule + "\n" +
		explain.BasicAnalysis("while x: pass") + "\n" +
		present.Rule + "\n"
	assert.Equal(t, expected, out.String())
}

func TestRun_EmptyTextIsExplained(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Run(context.Background(), &config.Config{}, &out, zap.NewNop(), "codexplain/test"))
	assert.Contains(t, out.String(), "- Key operations: unknown\n")
}

func TestRun_InputError(t *testing.T) {
	var out bytes.Buffer
	cfg := &config.Config{File: filepath.Join(t.TempDir(), "nope.py"), FromFile: true}

	err := Run(context.Background(), cfg, &out, zap.NewNop(), "codexplain/test")
	require.Error(t, err)
	assert.True(t, IsInputError(err))
	assert.True(t, strings.HasPrefix(out.String(), "Error reading file: "))
	assert.NotContains(t, out.String(), present.Header)
}

func TestRun_RemoteFailureFallsBack(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":{"message":"upstream unavailable","type":"server_error"}}`))
	}))
	defer server.Close()

	var out bytes.Buffer
	cfg := &config.Config{
		APIKey:              "sk-test",
		BaseURL:             server.URL + "/v1",
		Model:               explain.DefaultModel,
		Temperature:         explain.DefaultTemperature,
		MaxTokens:           explain.DefaultMaxTokens,
		RateLimitWait:       time.Millisecond,
		MaxRateLimitRetries: 1,
		Text:                "import sys",
	}

	require.NoError(t, Run(context.Background(), cfg, &out, zap.NewNop(), "codexplain/test"))
	assert.Equal(t, 1, calls)
	assert.Contains(t, out.String(), "OpenAI Error:")
	assert.Contains(t, out.String(), present.Rule+"\n"+explain.BasicAnalysis("import sys")+"\n"+present.Rule+"\n")
}

func TestIsInputError(t *testing.T) {
	assert.False(t, IsInputError(nil))
	assert.False(t, IsInputError(errors.New("other")))
}
