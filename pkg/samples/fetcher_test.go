package samples

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFetcher(t *testing.T, handler http.HandlerFunc) (*Fetcher, string) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	u, err := url.Parse(server.URL)
	require.NoError(t, err)
	return NewFetcher([]string{u.Hostname()}, time.Minute, server.Client()), server.URL
}

func TestFetcher_Fetch(t *testing.T) {
	t.Run("downloads and caches", func(t *testing.T) {
		var calls atomic.Int32
		f, base := newTestFetcher(t, func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			_, _ = w.Write([]byte("Name,County\nSilver Falls,Marion\n"))
		})

		for i := 0; i < 3; i++ {
			data, err := f.Fetch(context.Background(), base+"/oregon.csv")
			require.NoError(t, err)
			assert.Contains(t, string(data), "Silver Falls")
		}
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("HTTP error", func(t *testing.T) {
		f, base := newTestFetcher(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		_, err := f.Fetch(context.Background(), base+"/missing.csv")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "404")
	})

	t.Run("oversized sample is rejected, not truncated", func(t *testing.T) {
		f, base := newTestFetcher(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("Name\nSilver Falls\n"))
		})
		f.maxBytes = 8

		_, err := f.Fetch(context.Background(), base+"/big.csv")
		require.ErrorIs(t, err, ErrSampleTooLarge)
		assert.Zero(t, f.cache.Len(), "nothing cached")
	})

	t.Run("sample at the limit is accepted", func(t *testing.T) {
		body := []byte("Name\nSilver Falls\n")
		f, base := newTestFetcher(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write(body)
		})
		f.maxBytes = int64(len(body))

		data, err := f.Fetch(context.Background(), base+"/exact.csv")
		require.NoError(t, err)
		assert.Equal(t, body, data)
	})

	t.Run("disallowed host is not contacted", func(t *testing.T) {
		f := NewFetcher(nil, time.Minute, nil)
		_, err := f.Fetch(context.Background(), "https://example.com/data.csv")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not in allowed list")
	})
}
