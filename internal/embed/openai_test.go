package embed

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func embeddingServer(t *testing.T, vec []float32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotEmpty(t, req.Input)

		resp := map[string]any{"data": []map[string]any{{"embedding": vec}}}
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestEmbedText_ReturnsUnitVector(t *testing.T) {
	srv := embeddingServer(t, []float32{3, 4})
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "test-key"})
	vec, err := c.EmbedText(context.Background(), "Jean Dupont")
	require.NoError(t, err)
	require.Len(t, vec, 2)

	assert.InDelta(t, 0.6, vec[0], 1e-6)
	assert.InDelta(t, 0.8, vec[1], 1e-6)
	assert.Equal(t, 2, c.Dimension())
}

func TestEmbedText_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"data": []map[string]any{{"embedding": []float32{1, 0}}}})
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	vec, err := c.EmbedText(context.Background(), "text")
	require.NoError(t, err)
	assert.Len(t, vec, 2)
	assert.Equal(t, int32(3), calls.Load())
}

func TestEmbedText_ConcurrentCallsShareDimension(t *testing.T) {
	srv := embeddingServer(t, []float32{3, 4})
	defer srv.Close()

	// One client serves every ingest worker; the lazy dimension discovery
	// must hold up under concurrent first calls.
	c := NewClient(Config{BaseURL: srv.URL, APIKey: "test-key"})

	const callers = 8
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			vec, err := c.EmbedText(context.Background(), "Jean Dupont")
			assert.NoError(t, err)
			assert.Len(t, vec, 2)
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, c.Dimension())
}

func TestEmbedText_BadRequestIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	_, err := c.EmbedText(context.Background(), "text")
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestNormalizeVector(t *testing.T) {
	v := []float32{2, 0, 0}
	NormalizeVector(v)
	assert.Equal(t, []float32{1, 0, 0}, v)

	var norm float64
	w := []float32{1, 2, 3, 4}
	NormalizeVector(w)
	for _, x := range w {
		norm += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-6)

	zero := []float32{0, 0}
	NormalizeVector(zero)
	assert.Equal(t, []float32{0, 0}, zero)
}
