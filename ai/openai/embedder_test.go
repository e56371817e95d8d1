package openai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/utkarshchauhan26/CivicConnect/ai"
)

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingDatum struct {
	Object    string    `json:"object"`
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

// embeddingServer answers /v1/embeddings with {len(text), index} per input.
func embeddingServer(t *testing.T, requests *[]embeddingRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			http.NotFound(w, r)
			return
		}
		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		*requests = append(*requests, req)

		data := make([]embeddingDatum, len(req.Input))
		for i, text := range req.Input {
			data[i] = embeddingDatum{Object: "embedding", Embedding: []float32{float32(len(text)), float32(i)}, Index: i}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": data, "model": req.Model})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewEmbedder(t *testing.T) {
	var requests []embeddingRequest
	srv := embeddingServer(t, &requests)

	embedder, err := NewEmbedder(ai.NewConfig(
		ai.WithEmbeddingHost(srv.URL),
		ai.WithEmbeddingModel("test-model"),
	))
	require.NoError(t, err)

	t.Run("single text", func(t *testing.T) {
		vec, err := embedder.EmbedText(context.Background(), "PM Kisan")
		require.NoError(t, err)
		assert.Equal(t, []float32{8, 0}, vec)
	})

	t.Run("batch keeps input order", func(t *testing.T) {
		vecs, err := embedder.EmbedTexts(context.Background(), []string{"a", "bbb"})
		require.NoError(t, err)
		assert.Equal(t, [][]float32{{1, 0}, {3, 1}}, vecs)
	})

	require.NotEmpty(t, requests)
	assert.Equal(t, "test-model", requests[0].Model)
}

func TestNewEmbedder_ServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"model not loaded"}}`, http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	embedder, err := NewEmbedder(ai.NewConfig(ai.WithEmbeddingHost(srv.URL)))
	require.NoError(t, err)

	_, err = embedder.EmbedText(context.Background(), "PM Kisan")
	assert.Error(t, err)
}

func TestNewEmbedder_InvalidConfig(t *testing.T) {
	_, err := NewEmbedder(ai.NewConfig(ai.WithEmbeddingModel("")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EmbeddingModel")
}
