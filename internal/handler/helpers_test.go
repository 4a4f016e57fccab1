package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wanderai/api-server/internal/middleware"
	"github.com/wanderai/api-server/internal/model"
	"github.com/wanderai/api-server/internal/sse"
)

// serve runs req through h, with user attached when non-nil.
func serve(h http.Handler, method, target, body string, user *model.User) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		req = req.WithContext(middleware.WithUser(req.Context(), user))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, sse.Event) error { return nil }
