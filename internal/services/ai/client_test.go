package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/user/kam-assistant-api/internal/config"
	"github.com/user/kam-assistant-api/internal/models"
)

const chatCompletionBody = `{"id":"chatcmpl-42","object":"chat.completion","created":1718870400,"model":"gpt-4o-mini","choices":[{"index":0,"message":{"role":"assistant","content":"{\"morning_priorities\":[\"Call Acme\"],\"kpis\":{},\"warnings\":[],\"recommended_actions\":[]}"},"finish_reason":"stop"}],"usage":{"prompt_tokens":120,"completion_tokens":30,"total_tokens":150}}`

func testAnalysisConfig(apiKey, baseURL string) config.AnalysisConfig {
	return config.AnalysisConfig{
		APIKey:  apiKey,
		BaseURL: baseURL,
		Model:   "gpt-4o-mini",
	}
}

func TestClientCompleteSendsContract(t *testing.T) {
	var (
		method, path, authHeader string
		body                     []byte
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		authHeader = r.Header.Get("Authorization")
		body, _ = io.ReadAll(r.Body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, chatCompletionBody)
	}))
	defer srv.Close()

	client := NewClient(testAnalysisConfig("sk-test", srv.URL))
	require.True(t, client.IsEnabled())

	completion, err := client.Complete(context.Background(), "system text", "user text")
	require.NoError(t, err)

	require.Equal(t, http.MethodPost, method)
	require.True(t, strings.HasSuffix(path, "/chat/completions"), path)
	require.Equal(t, "Bearer sk-test", authHeader)

	var captured map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &captured))
	require.Equal(t, "gpt-4o-mini", captured["model"])
	require.Equal(t, float64(MaxTokens), captured["max_tokens"])
	require.Equal(t, Temperature, captured["temperature"])

	messages, ok := captured["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, messages, 2)
	require.Equal(t, "system", messages[0].(map[string]interface{})["role"])
	require.Equal(t, "system text", messages[0].(map[string]interface{})["content"])
	require.Equal(t, "user", messages[1].(map[string]interface{})["role"])
	require.Equal(t, "user text", messages[1].(map[string]interface{})["content"])

	require.JSONEq(t, chatCompletionBody, string(completion.Raw))
	require.Equal(t, int64(120), completion.PromptTokens)
	require.Equal(t, int64(30), completion.CompletionTokens)
}

func TestClientCompleteNoRetryOnFailure(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":{"message":"upstream exploded","type":"server_error"}}`)
	}))
	defer srv.Close()

	client := NewClient(testAnalysisConfig("sk-test", srv.URL))
	_, err := client.Complete(context.Background(), "s", "u")
	require.ErrorIs(t, err, models.ErrExternalService)
	require.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestClientDisabledWithoutKey(t *testing.T) {
	client := NewClient(testAnalysisConfig("", "http://127.0.0.1:1"))
	require.False(t, client.IsEnabled())

	_, err := client.Complete(context.Background(), "s", "u")
	require.ErrorIs(t, err, models.ErrExternalService)
}

func TestAnalyzeEndToEndWithServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, chatCompletionBody)
	}))
	defer srv.Close()

	svc := NewService(&fakeStore{rows: makeRows(10)}, NewClient(testAnalysisConfig("sk-test", srv.URL)), 0)
	result := svc.Analyze(context.Background(), "ketan", today)
	require.Empty(t, result.Error)
	require.JSONEq(t, chatCompletionBody, string(result.AnalysisResponse))
}

func TestAnalyzeEndToEndUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	svc := NewService(&fakeStore{rows: makeRows(1)}, NewClient(testAnalysisConfig("sk-test", url)), 0)
	result := svc.Analyze(context.Background(), "ketan", today)
	require.Equal(t, ErrorCallFailed, result.Error)
	require.NotEmpty(t, result.Details)
}
