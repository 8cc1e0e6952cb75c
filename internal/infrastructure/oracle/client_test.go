package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mshogin/fastslow/internal/domain/models"
	"github.com/mshogin/fastslow/internal/infrastructure/config"
)

// chatServer answers every chat completion with content and records the
// last request body.
func chatServer(t *testing.T, content string, last *map[string]interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		if last != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(last))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "gpt-4o-mini",
			"choices": []map[string]interface{}{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]string{"role": "assistant", "content": content},
			}},
			"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
		})
	}))
}

func testConfig(baseURL string) config.OracleConfig {
	cfg := config.Default().Oracle
	cfg.APIKey = "sk-test"
	cfg.BaseURL = baseURL + "/v1"
	cfg.RequestsPerSec = 100
	return cfg
}

// TestClient_ConsultFast tests the fast prompt and reply parsing
func TestClient_ConsultFast(t *testing.T) {
	var body map[string]interface{}
	srv := chatServer(t, "Sure!\n{\"answer\": 4, \"explanation\": \"2 plus 2\", \"confidence\": 0.9}\nDone.", &body)
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	resp, err := c.Consult(context.Background(), models.OracleRequest{Prompt: "What is 2+2?", Mode: models.ThinkingModeFast})
	require.NoError(t, err)

	require.NotNil(t, resp.Answer)
	assert.Equal(t, "4", *resp.Answer)
	assert.Equal(t, 0.9, resp.Confidence)
	assert.Equal(t, []string{"2 plus 2"}, resp.Steps)

	assert.Equal(t, "gpt-4o-mini", body["model"])
	assert.InDelta(t, 0.3, body["temperature"], 1e-6)
	assert.Equal(t, float64(1000), body["max_tokens"])
	msgs := body["messages"].([]interface{})
	require.Len(t, msgs, 2)
	assert.Equal(t, systemPrompt, msgs[0].(map[string]interface{})["content"])
	assert.Contains(t, msgs[1].(map[string]interface{})["content"], "quickly and efficiently:\nWhat is 2+2?")
}

// TestClient_ConsultSlow tests the slow prompt settings
func TestClient_ConsultSlow(t *testing.T) {
	var body map[string]interface{}
	srv := chatServer(t, `{"analysis": "linear", "steps": ["2x = 4", "x = 2"], "verification": "2*2 = 4", "answer": "x = 2", "confidence": 0.95}`, &body)
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	resp, err := c.Consult(context.Background(), models.OracleRequest{Prompt: "Solve 2x = 4", Mode: models.ThinkingModeSlow})
	require.NoError(t, err)

	assert.Equal(t, "x = 2", *resp.Answer)
	assert.Equal(t, []string{"2x = 4", "x = 2"}, resp.Steps)
	assert.Equal(t, "2*2 = 4", resp.Verification)
	assert.InDelta(t, 0.7, body["temperature"], 1e-6)
	assert.Equal(t, float64(2000), body["max_tokens"])
}

// TestClient_Errors tests transport and parse failures
func TestClient_Errors(t *testing.T) {
	srv := chatServer(t, "I cannot answer that.", nil)
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	_, err := c.Consult(context.Background(), models.OracleRequest{Prompt: "2+2", Mode: models.ThinkingModeFast})
	assert.ErrorIs(t, err, models.ErrOracleMalformed)

	_, err = c.Consult(context.Background(), models.OracleRequest{Prompt: " ", Mode: models.ThinkingModeFast})
	assert.ErrorIs(t, err, models.ErrEmptyPrompt)

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "boom"}}`, http.StatusInternalServerError)
	}))
	defer failing.Close()

	c = NewClient(testConfig(failing.URL))
	_, err = c.Consult(context.Background(), models.OracleRequest{Prompt: "2+2", Mode: models.ThinkingModeFast})
	assert.ErrorIs(t, err, models.ErrOracleUnavailable)
}

// TestClient_Timeout tests that a slow endpoint surfaces as a timeout
func TestClient_Timeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()

	c := NewClient(testConfig(slow.URL))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Consult(ctx, models.OracleRequest{Prompt: "2+2", Mode: models.ThinkingModeFast})
	assert.Error(t, err)
}

// TestParseReply tests JSON extraction from free text
func TestParseReply(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		mode       models.ThinkingMode
		answer     *string
		confidence float64
		steps      []string
		wantErr    bool
	}{
		{
			name:       "missing explanation",
			content:    `{"answer": "7", "confidence": 0.8}`,
			mode:       models.ThinkingModeFast,
			answer:     strPtr("7"),
			confidence: 0.8,
			steps:      []string{"No explanation provided"},
		},
		{
			name:    "null answer",
			content: `{"answer": null, "explanation": "unsure"}`,
			mode:    models.ThinkingModeFast,
			steps:   []string{"unsure"},
		},
		{
			name:       "confidence clamped",
			content:    `{"answer": "1", "confidence": 3}`,
			mode:       models.ThinkingModeSlow,
			answer:     strPtr("1"),
			confidence: 1,
		},
		{name: "no object", content: "nothing here", mode: models.ThinkingModeFast, wantErr: true},
		{name: "broken object", content: `{"answer": }`, mode: models.ThinkingModeFast, wantErr: true},
		{name: "reversed braces", content: `} {`, mode: models.ThinkingModeFast, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseReply(tt.content, tt.mode)
			if tt.wantErr {
				assert.ErrorIs(t, err, models.ErrOracleMalformed)
				assert.Nil(t, got.Answer)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.answer, got.Answer)
			assert.Equal(t, tt.confidence, got.Confidence)
			assert.Equal(t, tt.steps, got.Steps)
		})
	}
}

// TestNew tests selection of the configured oracle
func TestNew(t *testing.T) {
	cfg := config.Default().Oracle
	assert.Equal(t, "unavailable", New(cfg).Name())

	cfg.APIKey = "sk-test"
	assert.Equal(t, "openai", New(cfg).Name())

	_, err := Unavailable{}.Consult(context.Background(), models.OracleRequest{Prompt: "2+2", Mode: models.ThinkingModeFast})
	assert.ErrorIs(t, err, models.ErrOracleUnavailable)
}

func strPtr(s string) *string { return &s }
