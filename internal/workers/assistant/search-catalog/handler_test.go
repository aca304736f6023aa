// internal/workers/assistant/search-catalog/handler_test.go
package searchcatalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lms-assistant/internal/common/logger"
	"lms-assistant/internal/nlu"
)

func newESClient(t *testing.T, handler http.HandlerFunc) *elasticsearch.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{server.URL},
	})
	require.NoError(t, err)
	return client
}

func searchResponse(hits ...map[string]interface{}) map[string]interface{} {
	wrapped := make([]interface{}, 0, len(hits))
	for _, h := range hits {
		wrapped = append(wrapped, map[string]interface{}{"_source": h})
	}
	return map[string]interface{}{
		"took": 3,
		"hits": map[string]interface{}{
			"total":     map[string]interface{}{"value": len(hits)},
			"max_score": 1.2,
			"hits":      wrapped,
		},
	}
}

func TestHandler_Execute_SearchCourses(t *testing.T) {
	var gotPath string
	client := newESClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		json.NewEncoder(w).Encode(searchResponse(
			map[string]interface{}{"id": "c-1", "name": "Safety Basics"},
			map[string]interface{}{"id": "c-2", "name": "Safety Advanced"},
		))
	})

	h := NewHandler(LoadConfig(), client, logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{
		Intent:   nlu.IntentSearchCourses,
		Entities: nlu.Entities{SearchTerm: "safety"},
	})
	require.NoError(t, err)
	assert.Equal(t, "/lms-courses/_search", gotPath)
	assert.Equal(t, int64(2), out.TotalHits)
	require.Len(t, out.Results, 2)
	assert.Equal(t, "Safety Basics", out.Results[0]["name"])
}

func TestHandler_Execute_SearchUsersTargetsUserIndex(t *testing.T) {
	var gotPath string
	client := newESClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		json.NewEncoder(w).Encode(searchResponse())
	})

	h := NewHandler(LoadConfig(), client, logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{
		Intent:   nlu.IntentSearchUsers,
		Entities: nlu.Entities{SearchTerm: "jane"},
	})
	require.NoError(t, err)
	assert.Equal(t, "/lms-users/_search", gotPath)
	assert.Zero(t, out.TotalHits)
	assert.Empty(t, out.Results)
}

func TestHandler_Execute_MissingSearchTerm(t *testing.T) {
	client := newESClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	h := NewHandler(LoadConfig(), client, logger.NewTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{
		Intent:   nlu.IntentSearchCourses,
		Entities: nlu.Entities{},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingTerm)
}

func TestHandler_Execute_UnsupportedIntent(t *testing.T) {
	client := newESClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	h := NewHandler(LoadConfig(), client, logger.NewTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{
		Intent:   nlu.IntentGetUserInfo,
		Entities: nlu.Entities{SearchTerm: "jane"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedIntent)
}

func TestHandler_Execute_UpstreamError(t *testing.T) {
	client := newESClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{"error": "parsing_exception"})
	})

	cfg := LoadConfig()
	cfg.Timeout = 5 * time.Second
	h := NewHandler(cfg, client, logger.NewTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{
		Intent:   nlu.IntentSearchCourses,
		Entities: nlu.Entities{SearchTerm: "safety"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSearchQueryFailed)
}
