package middleware

import (
	"net/http"
)

// BodyLimitMiddleware caps request body size. limit <= 0 falls back to
// the default.
type BodyLimitMiddleware struct {
	limit int64
}

const defaultBodyLimit = 64 << 10

func NewBodyLimitMiddleware(limit int64) *BodyLimitMiddleware {
	if limit <= 0 {
		limit = defaultBodyLimit
	}
	return &BodyLimitMiddleware{limit: limit}
}

func (m *BodyLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, m.limit)
		}
		next.ServeHTTP(w, r)
	})
}
