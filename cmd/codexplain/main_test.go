package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rule = "--------------------------------------------------"

func isolateEnv(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("OPENAI_API_KEY", "")
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "CODEXPLAIN_") {
			key, _, _ := strings.Cut(kv, "=")
			t.Setenv(key, "")
			require.NoError(t, os.Unsetenv(key))
		}
	}
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeCompletion(w http.ResponseWriter, status int, content string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if status != http.StatusOK {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": http.StatusText(status), "type": "test_error"},
		})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":     "chatcmpl-test",
		"object": "chat.completion",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
	})
}

func useEndpoint(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("CODEXPLAIN_BASE_URL", server.URL+"/v1")
	t.Setenv("CODEXPLAIN_RATE_LIMIT_WAIT", "0s")
}

func TestRun_FallbackWithoutCredential(t *testing.T) {
	isolateEnv(t)

	stdout, _, err := execute(t, "--text", "def add(a, b):\n    return a + b")
	require.NoError(t, err)

	assert.Contains(t, stdout, "🧠 Generating explanation...")
	assert.Contains(t, stdout, "ℹ️ Using basic explanation (no AI)...")
	assert.Contains(t, stdout, "💡 Code Explanation:\n"+rule+"\n"+
		"Basic Code Analysis:\n"+
		"- This appears to be a function\n"+
		"- Key operations: def, return\n"+
		"- Try adding comments to understand it better!\n"+
		rule+"\n")
}

func TestRun_FileInput(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "loop.py")
	require.NoError(t, os.WriteFile(path, []byte("while True:\n    pass\n"), 0644))

	stdout, _, err := execute(t, "-f", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "- This appears to be a code snippet\n- Key operations: while\n")
}

func TestRun_MissingFileReportsErrorOnly(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "missing.py")

	stdout, _, err := execute(t, "--file", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Error reading file:")
	assert.Contains(t, stdout, "missing.py")
	assert.NotContains(t, stdout, "Generating explanation")
	assert.NotContains(t, stdout, "💡 Code Explanation:")
	assert.NotContains(t, stdout, rule)
}

func TestRun_FlagValidation(t *testing.T) {
	isolateEnv(t)

	tests := []struct {
		name string
		args []string
	}{
		{"both text and file", []string{"--text", "x", "--file", filepath.Join(t.TempDir(), "missing.py")}},
		{"neither text nor file", []string{}},
		{"positional argument", []string{"--text", "x", "extra"}},
		{"unknown flag", []string{"--text", "x", "--model", "gpt-4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Empty(t, stdout, "invocation must be rejected before any I/O")
		})
	}
}

func TestRun_RemoteSuccess(t *testing.T) {
	isolateEnv(t)
	var calls atomic.Int32
	useEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "codexplain/"+BUILD_VERSION, r.Header.Get("User-Agent"))
		writeCompletion(w, http.StatusOK, "This function adds two numbers.")
	})

	stdout, _, err := execute(t, "--text", "def add(a, b): return a + b")
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load())
	assert.Contains(t, stdout, "💡 Code Explanation:\n"+rule+"\nThis function adds two numbers.\n"+rule+"\n")
	assert.NotContains(t, stdout, "Using basic explanation")
	assert.NotContains(t, stdout, "Basic Code Analysis:")
}

func TestRun_RemoteRateLimitedOnce(t *testing.T) {
	isolateEnv(t)
	var calls atomic.Int32
	useEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			writeCompletion(w, http.StatusTooManyRequests, "")
			return
		}
		writeCompletion(w, http.StatusOK, "second answer")
	})

	stdout, _, err := execute(t, "-t", "x = 1")
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 1, strings.Count(stdout, "rate limit reached"))
	assert.Contains(t, stdout, rule+"\nsecond answer\n"+rule+"\n")
}

func TestRun_RemoteServerErrorFallsBack(t *testing.T) {
	isolateEnv(t)
	var calls atomic.Int32
	useEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeCompletion(w, http.StatusInternalServerError, "")
	})

	stdout, _, err := execute(t, "-t", "import os")
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls.Load(), "non-429 errors are not retried")
	assert.Contains(t, stdout, "OpenAI Error:")
	assert.Contains(t, stdout, rule+"\nBasic Code Analysis:\n"+
		"- This appears to be a code snippet\n"+
		"- Key operations: import\n"+
		"- Try adding comments to understand it better!\n"+rule+"\n")
}

func TestRun_InvalidConfiguration(t *testing.T) {
	isolateEnv(t)
	t.Setenv("CODEXPLAIN_MAX_TOKENS", "0")

	stdout, _, err := execute(t, "-t", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_tokens")
	assert.Empty(t, stdout)
}

func TestHelpListsProviders(t *testing.T) {
	isolateEnv(t)

	stdout, _, err := execute(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, stdout, "OpenRouter: Unified API for multiple providers")
	assert.Contains(t, stdout, "CODEXPLAIN_PROVIDER")
}

func TestVersionFlag(t *testing.T) {
	isolateEnv(t)

	stdout, _, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, stdout, BUILD_VERSION)
}
