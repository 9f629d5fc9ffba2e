package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"secretsanta/internal/repository/file"
	"secretsanta/internal/service"
)

func setupRouter(t *testing.T, opts ...service.Option) *chi.Mux {
	t.Helper()

	repo, err := file.New(filepath.Join(t.TempDir(), "data.json"))
	require.NoError(t, err, "failed to open data file")

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	base := []service.Option{service.WithRand(rand.New(rand.NewPCG(3, 4))), service.WithLogger(log)}
	svc := service.New(repo, append(base, opts...)...)
	h := New(svc, log)

	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader = http.NoBody
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func seedGroup(t *testing.T, r http.Handler, group string, names ...string) {
	t.Helper()
	w := do(r, http.MethodPost, "/groups", `{"group_name": "`+group+`"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	for _, n := range names {
		w := do(r, http.MethodPost, "/groups/"+group+"/participants", `{"name": "`+n+`"}`)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}
}
