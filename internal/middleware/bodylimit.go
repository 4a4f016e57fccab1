package middleware

import (
	"net/http"

	apperrors "github.com/wanderai/api-server/internal/errors"
)

// BodyLimitMiddleware caps request bodies. Chat messages and auth forms are
// small, so anything past the cap is rejected before decoding.
type BodyLimitMiddleware struct {
	maxBytes int64
}

func NewBodyLimitMiddleware(maxBytes int64) *BodyLimitMiddleware {
	return &BodyLimitMiddleware{maxBytes: maxBytes}
}

func (m *BodyLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body == nil || r.Body == http.NoBody {
			next.ServeHTTP(w, r)
			return
		}

		if r.ContentLength > m.maxBytes {
			writeError(w, apperrors.ValidationError("Request body too large").
				WithDetails(map[string]int64{"maxBytes": m.maxBytes}))
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, m.maxBytes)
		next.ServeHTTP(w, r)
	})
}
