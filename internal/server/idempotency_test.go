package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func idempotentService(t *testing.T) *Service {
	s := testService()
	s.rdb = newTestRedis(t)
	s.idempotencyTTL = time.Minute
	return s
}

func doIdemRequest(t *testing.T, h http.Handler, method, body, key string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, "/posts/post-1/invest", bytes.NewBufferString(body))
	if key != "" {
		req.Header.Set(idempotencyKeyHeader, key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIdempotency_ReplaysRetriedRequest(t *testing.T) {
	s := idempotentService(t)

	var calls int32
	h := s.Idempotency(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"inv-1"}`))
	}))

	body := `{"amount":"250"}`

	first := doIdemRequest(t, h, http.MethodPost, body, "req-42")
	assert.Equal(t, http.StatusCreated, first.Code)

	retry := doIdemRequest(t, h, http.MethodPost, body, "req-42")
	assert.Equal(t, http.StatusCreated, retry.Code)
	assert.Equal(t, first.Body.String(), retry.Body.String())

	// The second investment never reaches the handler, so nothing is
	// double-counted.
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestIdempotency_RejectsReusedKeyWithDifferentBody(t *testing.T) {
	s := idempotentService(t)

	h := s.Idempotency(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"inv-1"}`))
	}))

	first := doIdemRequest(t, h, http.MethodPost, `{"amount":"250"}`, "req-42")
	assert.Equal(t, http.StatusCreated, first.Code)

	conflict := doIdemRequest(t, h, http.MethodPost, `{"amount":"9999"}`, "req-42")
	assert.Equal(t, http.StatusConflict, conflict.Code)
	assert.Contains(t, conflict.Body.String(), "different body")
}

func TestIdempotency_ConflictsWhileInProgress(t *testing.T) {
	s := idempotentService(t)

	var calls int32
	h := s.Idempotency(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusCreated)
	}))

	body := `{"amount":"250"}`

	// A provisional lock left by a request still being processed.
	entry := idempEntry{
		InProgress: true,
		BodySHA256: bodyHash([]byte(body)),
		CreatedAt:  time.Now().UTC(),
	}
	data, err := json.Marshal(entry)
	require.NoError(t, err)
	key := buildIdempKey(http.MethodPost, "/posts/post-1/invest", "", "req-42")
	require.NoError(t, s.rdb.Set(context.Background(), key, data, provisionalLockTTL).Err())

	rec := doIdemRequest(t, h, http.MethodPost, body, "req-42")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "in progress")
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestIdempotency_PassesThroughWithoutKey(t *testing.T) {
	s := idempotentService(t)

	var calls int32
	h := s.Idempotency(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusCreated)
	}))

	doIdemRequest(t, h, http.MethodPost, `{"amount":"250"}`, "")
	doIdemRequest(t, h, http.MethodPost, `{"amount":"250"}`, "")

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestIdempotency_SkipsReads(t *testing.T) {
	s := idempotentService(t)

	var calls int32
	h := s.Idempotency(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusOK)
	}))

	doIdemRequest(t, h, http.MethodGet, "", "req-42")
	doIdemRequest(t, h, http.MethodGet, "", "req-42")

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
