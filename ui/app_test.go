package ui

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gosdt/adapters/memory"
	"gosdt/domain/block"
	"gosdt/domain/core"
	"gosdt/domain/sdt"
	"gosdt/internal"
	"gosdt/ports"
)

func newTestApp(t *testing.T) (*App, ports.BlockRepository) {
	t.Helper()
	repo := memory.NewBlockRepository()
	app, err := NewApp(repo, internal.NewLoggerTo(io.Discard, internal.LogLevelError))
	require.NoError(t, err)
	return app, repo
}

func get(app http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestIndex(t *testing.T) {
	app, repo := newTestApp(t)

	w := get(app, "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No blocks stored yet")

	b, err := block.New("<session>", sdt.Counts{Hits: 15, Misses: 10, FalseAlarms: 15, CorrectRejections: 5})
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), b))

	w = get(app, "/")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "/blocks/"+b.ID.String())
	assert.Contains(t, body, "&lt;session&gt;")
	assert.Contains(t, body, "-0.421143")
}

func TestBlockReport(t *testing.T) {
	app, repo := newTestApp(t)
	b, err := block.New("Session A", sdt.Counts{Hits: 8, Misses: 2, FalseAlarms: 3, CorrectRejections: 7})
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), b))

	w := get(app, "/blocks/"+b.ID.String())
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<table>")
	assert.Contains(t, w.Body.String(), "Session A")
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
}

func TestBlockReportErrors(t *testing.T) {
	app, _ := newTestApp(t)

	assert.Equal(t, http.StatusBadRequest, get(app, "/blocks/nope").Code)
	assert.Equal(t, http.StatusNotFound, get(app, "/blocks/"+core.NewBlockID().String()).Code)
	assert.Equal(t, http.StatusOK, get(app, "/healthz").Code)
}

func TestBlockReportEscapesLabel(t *testing.T) {
	app, repo := newTestApp(t)
	b, err := block.New(`<img src=x onerror=alert(1)>`, sdt.Counts{Hits: 8, Misses: 2, FalseAlarms: 3, CorrectRejections: 7})
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), b))

	w := get(app, "/blocks/"+b.ID.String())
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "<img")
	assert.Contains(t, w.Body.String(), "&lt;img src=x onerror=alert(1)&gt;")
}
