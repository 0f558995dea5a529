package server

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// How long the "in progress" lock survives a handler that never finishes.
const provisionalLockTTL = 60 * time.Second

const idempotencyKeyHeader = "Idempotency-Key"

type idempEntry struct {
	InProgress bool      `json:"in_progress"`
	Code       int       `json:"code"`
	Body       []byte    `json:"body"`
	BodySHA256 string    `json:"body_sha256"`
	CreatedAt  time.Time `json:"created_at"`
}

type respRecorder struct {
	http.ResponseWriter
	buf  *bytes.Buffer
	code int
}

func (r *respRecorder) Write(b []byte) (int, error) {
	if r.buf != nil {
		r.buf.Write(b)
	}
	return r.ResponseWriter.Write(b)
}

func (r *respRecorder) WriteHeader(statusCode int) {
	r.code = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

// Idempotency replays the stored response when a mutating request is retried
// with the same Idempotency-Key. A retried invest call therefore cannot
// double-count. Requests without the header pass through unchanged.
func (s *Service) Idempotency(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		idemKey := strings.TrimSpace(r.Header.Get(idempotencyKeyHeader))
		if idemKey == "" {
			next.ServeHTTP(w, r)
			return
		}

		userID, _ := r.Context().Value(contextKeyUserID).(string)

		// Buffer & hash body so a reused key with a different payload is
		// rejected instead of replayed.
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
		}
		r.Body = io.NopCloser(bytes.NewBuffer(body))
		bhash := bodyHash(body)

		key := buildIdempKey(r.Method, r.URL.Path, userID, idemKey)
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		entry := idempEntry{
			InProgress: true,
			BodySHA256: bhash,
			CreatedAt:  time.Now().UTC(),
		}
		ok, err := provisionalSet(ctx, s.rdb, key, entry)
		if err != nil {
			s.logger.WithError(err).Error("idempotency store unavailable")
			s.respondError(w, http.StatusServiceUnavailable, "idempotency store unavailable")
			return
		}
		if !ok {
			cur, errLoad := loadEntry(ctx, s.rdb, key)
			if errLoad != nil {
				s.logger.WithError(errLoad).WithField("key", key).Error("failed to load idempotency entry")
				s.respondError(w, http.StatusConflict, "request is already in progress")
				return
			}

			if cur.BodySHA256 != "" && cur.BodySHA256 != bhash {
				s.respondError(w, http.StatusConflict, "Idempotency-Key reused with different body")
				return
			}
			if !cur.InProgress && cur.Code != 0 && len(cur.Body) > 0 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(cur.Code)
				w.Write(cur.Body)
				return
			}
			s.respondError(w, http.StatusConflict, "request is already in progress")
			return
		}

		rec := &respRecorder{ResponseWriter: w, buf: &bytes.Buffer{}, code: http.StatusOK}
		next.ServeHTTP(rec, r)

		final := idempEntry{
			InProgress: false,
			Code:       rec.code,
			Body:       rec.buf.Bytes(),
			BodySHA256: bhash,
			CreatedAt:  time.Now().UTC(),
		}
		if err := saveFinal(context.Background(), s.rdb, key, final, s.idempotencyTTL); err != nil {
			s.logger.WithError(err).WithField("key", key).Error("failed to store idempotency entry")
		}
	})
}

func buildIdempKey(method, path, userID, reqID string) string {
	return fmt.Sprintf("idemp:%s:%s:%s:%s", method, path, userID, reqID)
}

func bodyHash(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

func provisionalSet(ctx context.Context, rdb *redis.Client, key string, entry idempEntry) (bool, error) {
	data, err := json.Marshal(entry)
	if err != nil {
		return false, err
	}
	return rdb.SetNX(ctx, key, data, provisionalLockTTL).Result()
}

func loadEntry(ctx context.Context, rdb *redis.Client, key string) (idempEntry, error) {
	var entry idempEntry
	data, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		return entry, err
	}
	err = json.Unmarshal(data, &entry)
	return entry, err
}

func saveFinal(ctx context.Context, rdb *redis.Client, key string, entry idempEntry, ttl time.Duration) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, data, ttl).Err()
}
