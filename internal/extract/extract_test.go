package extract

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woodway-ua/photoindex/pkg/config"
)

type countingExtractor struct {
	keywords []string
	err      error
	calls    atomic.Int64
	block    chan struct{}
}

func (c *countingExtractor) Extract(_ context.Context, _ string) ([]string, error) {
	c.calls.Add(1)
	if c.block != nil {
		<-c.block
	}
	return c.keywords, c.err
}

func TestHTTPClientExtract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req struct {
			Message string `json:"message"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "покажи дуб і дошку", req.Message)

		json.NewEncoder(w).Encode(map[string][]string{"keywords": {"дуб", "дошка"}})
	}))
	defer srv.Close()

	client := NewHTTPClient(config.ExtractionConfig{URL: srv.URL, Timeout: 5 * time.Second})
	keywords, err := client.Extract(context.Background(), "покажи дуб і дошку")
	require.NoError(t, err)
	assert.Equal(t, []string{"дуб", "дошка"}, keywords)
}

func TestHTTPClientExtractServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewHTTPClient(config.ExtractionConfig{URL: srv.URL, Timeout: 5 * time.Second})
	_, err := client.Extract(context.Background(), "oak")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestCachedWithoutRedisDelegates(t *testing.T) {
	inner := &countingExtractor{keywords: []string{"oak"}}
	cached := NewCached(inner, nil, time.Minute, nil)

	for i := 0; i < 3; i++ {
		keywords, err := cached.Extract(context.Background(), "show me oak")
		require.NoError(t, err)
		assert.Equal(t, []string{"oak"}, keywords)
	}
	// No cache backend: sequential calls all reach the inner extractor.
	assert.Equal(t, int64(3), inner.calls.Load())
}

func TestCachedCollapsesConcurrentCalls(t *testing.T) {
	inner := &countingExtractor{keywords: []string{"oak"}, block: make(chan struct{})}
	cached := NewCached(inner, nil, time.Minute, nil)

	const n = 5
	var wg sync.WaitGroup
	results := make([][]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			keywords, err := cached.Extract(context.Background(), "show me oak")
			assert.NoError(t, err)
			results[i] = keywords
		}(i)
	}

	// Wait until at least one call is inside the inner extractor, give the
	// rest a moment to pile onto the same singleflight key, then release.
	require.Eventually(t, func() bool { return inner.calls.Load() >= 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(inner.block)
	wg.Wait()

	assert.Less(t, inner.calls.Load(), int64(n))
	for _, keywords := range results {
		assert.Equal(t, []string{"oak"}, keywords)
	}
}

func TestCachedPropagatesError(t *testing.T) {
	inner := &countingExtractor{err: errors.New("service down")}
	cached := NewCached(inner, nil, time.Minute, nil)

	_, err := cached.Extract(context.Background(), "oak")
	assert.Error(t, err)
}

func TestBuildKeyNormalization(t *testing.T) {
	assert.Equal(t, buildKey("Show Me  Oak"), buildKey("show me oak"))
	assert.Equal(t, buildKey("  oak\tboard\n"), buildKey("oak board"))
	assert.NotEqual(t, buildKey("oak"), buildKey("pine"))
	assert.True(t, len(buildKey("oak")) > len(keyPrefix))
}
