package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"time"

	"github.com/Strob0t/crmlite/internal/port/cache"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	headerReplayed       = "Idempotent-Replayed"
	maxIdempotencyBody   = 1 << 20
	maxIdempotencyKeyLen = 255
)

// idempotencyEntry is a stored response.
type idempotencyEntry struct {
	StatusCode  int    `json:"status_code"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// Idempotency returns middleware that replays the stored response of a POST
// carrying an Idempotency-Key header already seen from the same caller.
// Only 2xx responses are stored, so a failed request can be retried with the
// same key. Mount it only on routes whose replay cannot outlive a parent row.
func Idempotency(c cache.Cache, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(headerIdempotencyKey)
			if r.Method != http.MethodPost || key == "" || len(key) > maxIdempotencyKeyLen {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			cacheKey := "idem:" + UserIDFromContext(ctx) + ":" + r.URL.Path + ":" + key

			if cached, ok := cache.GetJSON[idempotencyEntry](ctx, c, cacheKey); ok {
				w.Header().Set("Content-Type", cached.ContentType)
				w.Header().Set(headerReplayed, "true")
				w.WriteHeader(cached.StatusCode)
				_, _ = w.Write(cached.Body)
				return
			}

			rec := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK, body: &bytes.Buffer{}}
			next.ServeHTTP(rec, r)

			if rec.statusCode < 200 || rec.statusCode >= 300 || rec.body.Len() > maxIdempotencyBody {
				return
			}
			entry := &idempotencyEntry{
				StatusCode:  rec.statusCode,
				ContentType: w.Header().Get("Content-Type"),
				Body:        rec.body.Bytes(),
			}
			if err := cache.SetJSON(ctx, c, cacheKey, entry, ttl); err != nil {
				slog.WarnContext(ctx, "idempotency: failed to store response", "key", key, "error", err)
			}
		})
	}
}

// responseRecorder captures the status and body written through it.
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

