// internal/workers/assistant/analyze-intent/handler_test.go
package analyzeintent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lms-assistant/internal/common/logger"
	"lms-assistant/internal/nlu"
)

func createTestConfig() *Config {
	return &Config{
		MaxMessageLength: 2000,
		ShortCircuit:     0.95,
		ConfidenceFloor:  0.5,
		Timeout:          5 * time.Second,
		MaxRetries:       1,
	}
}

func newTestHandler(t *testing.T, cfg *Config) *Handler {
	t.Helper()
	analyzer := nlu.NewAnalyzer(nlu.WithShortCircuit(cfg.ShortCircuit))
	return NewHandler(cfg, analyzer, logger.NewTestLogger(t))
}

func TestHandler_Execute_RuleEngine(t *testing.T) {
	tests := []struct {
		name           string
		message        string
		expectedIntent string
		validateOutput func(t *testing.T, output *Output)
	}{
		{
			name:           "single enrollment",
			message:        "Enroll John.Doe@acme.com in the Safety Basics course",
			expectedIntent: "enroll_user_in_course",
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, "John.Doe@acme.com", output.Entities.Email)
				assert.Equal(t, "Safety Basics", output.Entities.CourseName)
				assert.Equal(t, "rules", output.Source)
			},
		},
		{
			name:           "bulk enrollment",
			message:        "Enroll a@x.com and b@x.com in the Safety Basics course",
			expectedIntent: "bulk_enroll_course",
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, []string{"a@x.com", "b@x.com"}, output.Entities.Emails)
				assert.True(t, output.Entities.IsBulk)
			},
		},
		{
			name:           "unrecognized message falls back to unknown",
			message:        "what is the weather like today",
			expectedIntent: "unknown",
			validateOutput: func(t *testing.T, output *Output) {
				assert.Zero(t, output.Confidence)
				assert.True(t, output.Entities.IsEmpty())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, createTestConfig())

			output, err := h.Execute(context.Background(), &Input{
				Message:    tt.message,
				AdminEmail: "admin@acme.com",
			})
			require.NoError(t, err)
			assert.Equal(t, tt.expectedIntent, output.Intent)
			if tt.validateOutput != nil {
				tt.validateOutput(t, output)
			}
		})
	}
}

func TestHandler_Execute_MessageTooLong(t *testing.T) {
	cfg := createTestConfig()
	cfg.MaxMessageLength = 50
	h := newTestHandler(t, cfg)

	_, err := h.Execute(context.Background(), &Input{
		Message: strings.Repeat("enroll someone somewhere ", 10),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMessageTooLong)
}

func TestHandler_Execute_GenAIFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ai/classify", r.URL.Path)

		var reqBody map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		assert.NotEmpty(t, reqBody["message"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"intent":     "get_user_info",
			"entities":   map[string]interface{}{"email": "jane@acme.com"},
			"confidence": 0.7,
		})
	}))
	defer server.Close()

	cfg := createTestConfig()
	cfg.GenAIEnabled = true
	cfg.GenAIBaseURL = server.URL
	h := newTestHandler(t, cfg)

	output, err := h.Execute(context.Background(), &Input{
		Message: "hmm something about that jane person maybe",
	})
	require.NoError(t, err)
	assert.Equal(t, "genai", output.Source)
	assert.Equal(t, "get_user_info", output.Intent)
	assert.Equal(t, "jane@acme.com", output.Entities.Email)
	assert.Equal(t, 0.7, output.Confidence)
}

func TestHandler_Execute_GenAIFallbackOnlyBelowFloor(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		json.NewEncoder(w).Encode(map[string]interface{}{"intent": "help", "confidence": 0.9})
	}))
	defer server.Close()

	cfg := createTestConfig()
	cfg.GenAIEnabled = true
	cfg.GenAIBaseURL = server.URL
	h := newTestHandler(t, cfg)

	output, err := h.Execute(context.Background(), &Input{
		Message: "Enroll bob@acme.com in the Safety Basics course",
	})
	require.NoError(t, err)
	assert.Equal(t, "enroll_user_in_course", output.Intent)
	assert.Equal(t, "rules", output.Source)
	assert.False(t, called, "confident rule match must not reach the fallback")
}

func TestHandler_Execute_GenAIFailureKeepsRuleResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := createTestConfig()
	cfg.GenAIEnabled = true
	cfg.GenAIBaseURL = server.URL
	cfg.MaxRetries = 0
	h := newTestHandler(t, cfg)

	output, err := h.Execute(context.Background(), &Input{
		Message: "random noise with no command at all",
	})
	require.NoError(t, err)
	assert.Equal(t, "unknown", output.Intent)
	assert.Equal(t, "rules", output.Source)
}

func TestHandler_Execute_GenAITimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	cfg := createTestConfig()
	cfg.GenAIEnabled = true
	cfg.GenAIBaseURL = server.URL
	h := newTestHandler(t, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// Fallback errors never surface to the caller; the rule result stands.
	output, err := h.Execute(ctx, &Input{Message: "gibberish text"})
	require.NoError(t, err)
	assert.Equal(t, "unknown", output.Intent)
}
