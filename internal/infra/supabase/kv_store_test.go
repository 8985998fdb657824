package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mgm-veiculos/mgm-api-go/internal/domain"
	"github.com/mgm-veiculos/mgm-api-go/internal/infra/resilience"
)

// fakePostgREST serves the subset of PostgREST the KV adapter uses.
type fakePostgREST struct {
	mu    sync.Mutex
	rows  map[string]string
	posts atomic.Int32
}

func (f *fakePostgREST) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("apikey") != "anon" || r.Header.Get("Authorization") != "Bearer service" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if r.URL.Path != "/rest/v1/mgm_kv" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	q := r.URL.Query()
	switch r.Method {
	case http.MethodGet:
		var out []kvRow
		keyEq := strings.TrimPrefix(q.Get("key"), "eq.")
		like := strings.TrimSuffix(strings.TrimPrefix(q.Get("key"), "like."), "*")
		for k, v := range f.rows {
			switch {
			case strings.HasPrefix(q.Get("key"), "eq.") && k != keyEq:
				continue
			case strings.HasPrefix(q.Get("key"), "like.") && !strings.HasPrefix(k, like):
				continue
			}
			out = append(out, kvRow{Key: k, Value: v})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
		if out == nil {
			out = []kvRow{}
		}
		_ = json.NewEncoder(w).Encode(out)
	case http.MethodPost:
		f.posts.Add(1)
		if !strings.Contains(r.Header.Get("Prefer"), "resolution=merge-duplicates") {
			w.WriteHeader(http.StatusConflict)
			return
		}
		var rows []kvRow
		if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		for _, row := range rows {
			f.rows[row.Key] = row.Value
		}
		w.WriteHeader(http.StatusCreated)
	case http.MethodDelete:
		list := strings.TrimSuffix(strings.TrimPrefix(q.Get("key"), "in.("), ")")
		for _, quoted := range strings.Split(list, ",") {
			k, err := strconv.Unquote(quoted)
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			delete(f.rows, k)
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg := resilience.Config{MaxRetries: 2, InitialBackoff: time.Millisecond}
	return NewClient(srv.Client(), srv.URL, "anon", "service", "mgm_kv",
		resilience.NewCircuitBreaker("supabase-test", nil), cfg, zap.NewNop())
}

func TestKVStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	fake := &fakePostgREST{rows: map[string]string{"other_key": "1"}}
	c := newTestClient(t, fake)

	_, found, err := c.Get(ctx, "mgm_vehicles_sold_v1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.SetMany(ctx, map[string][]byte{
		"mgm_vehicles_sold_v1":     []byte(`[{"id":"1"}]`),
		"mgm_vehicles_for_sale_v1": []byte(`[]`),
	}))
	assert.Equal(t, int32(1), fake.posts.Load())

	raw, found, err := c.Get(ctx, "mgm_vehicles_sold_v1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `[{"id":"1"}]`, string(raw))

	keys, err := c.Keys(ctx, "mgm_")
	require.NoError(t, err)
	assert.Equal(t, []string{"mgm_vehicles_for_sale_v1", "mgm_vehicles_sold_v1"}, keys)

	require.NoError(t, c.Delete(ctx, "mgm_vehicles_sold_v1"))
	_, found, err = c.Get(ctx, "mgm_vehicles_sold_v1")
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, c.Ping(ctx))
}

func TestKVStoreDeleteManyIsOneRequest(t *testing.T) {
	ctx := context.Background()
	fake := &fakePostgREST{rows: map[string]string{
		"mgm_a":     "[]",
		"mgm_b":     "[]",
		"other_key": "1",
	}}
	var deletes atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			deletes.Add(1)
		}
		fake.ServeHTTP(w, r)
	}))

	require.NoError(t, c.DeleteMany(ctx, []string{"mgm_a", "mgm_b"}))
	assert.Equal(t, int32(1), deletes.Load())

	keys, err := c.Keys(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"other_key"}, keys)

	require.NoError(t, c.DeleteMany(ctx, nil))
	assert.Equal(t, int32(1), deletes.Load())
}

func TestKVStoreDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))

	err := c.Set(context.Background(), "mgm_x", []byte(`[]`))
	var ext *domain.ErrExternalService
	require.True(t, errors.As(err, &ext), "got %v", err)
	assert.Equal(t, "supabase/set", ext.Service)
	assert.Equal(t, int32(1), calls.Load())
}

func TestKVStoreRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[{"key":"mgm_x","value":"[1]"}]`))
	}))

	raw, found, err := c.Get(context.Background(), "mgm_x")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "[1]", string(raw))
	assert.Equal(t, int32(3), calls.Load())
}

func TestKVStoreCircuitOpens(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	c.cfg.MaxRetries = 0

	var err error
	for i := 0; i < 6; i++ {
		err = c.Ping(context.Background())
	}
	var open *domain.ErrCircuitOpen
	assert.True(t, errors.As(err, &open), "got %v", err)
}
