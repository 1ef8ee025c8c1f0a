package api

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gosdt/adapters/memory"
	"gosdt/internal"
	"gosdt/internal/analysis"
	"gosdt/internal/errors"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := internal.NewLoggerTo(io.Discard, internal.LogLevelError)
	h := NewHandler(
		memory.NewBlockRepository(),
		analysis.NewSummarizer(2, logger),
		DensityDefaults{Points: 21, Span: 3},
		logger,
	)
	return NewRouter(h)
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestFloatMarshalJSON(t *testing.T) {
	tests := []struct {
		in  float64
		out string
	}{
		{0.5, `0.5`},
		{-2, `-2`},
		{math.Inf(1), `"+Inf"`},
		{math.Inf(-1), `"-Inf"`},
		{math.NaN(), `"NaN"`},
	}
	for _, tt := range tests {
		b, err := json.Marshal(Float(tt.in))
		require.NoError(t, err)
		assert.Equal(t, tt.out, string(b))
	}
}

func TestCompute(t *testing.T) {
	router := newTestRouter()

	w := do(t, router, http.MethodPost, "/api/v1/sdt",
		`{"hits":15,"misses":10,"false_alarms":15,"correct_rejections":5}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.InDelta(t, -0.421142647060282, body["d_prime"], 1e-6)
	assert.InDelta(t, -0.463918426665941, body["criterion"], 1e-6)
	assert.InDelta(t, 0.6, body["hit_rate"], 1e-12)
}

func TestComputeInfiniteValues(t *testing.T) {
	w := do(t, newTestRouter(), http.MethodPost, "/api/v1/sdt",
		`{"hits":10,"misses":0,"false_alarms":2,"correct_rejections":8}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, "+Inf", body["z_hit"])
	assert.Equal(t, "+Inf", body["d_prime"])
	assert.Equal(t, "-Inf", body["criterion"])
}

func TestComputeErrors(t *testing.T) {
	router := newTestRouter()

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"negative", `{"hits":-1,"misses":0,"false_alarms":0,"correct_rejections":0}`, http.StatusUnprocessableEntity, errors.CodeInvalidTrialCount},
		{"degenerate", `{"hits":0,"misses":0,"false_alarms":5,"correct_rejections":5}`, http.StatusUnprocessableEntity, errors.CodeDegenerateRate},
		{"malformed", `{"hits":`, http.StatusBadRequest, errors.CodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, router, http.MethodPost, "/api/v1/sdt", tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decode(t, w)["code"])
		})
	}
}

func TestPoolAndScale(t *testing.T) {
	router := newTestRouter()

	pooled := do(t, router, http.MethodPost, "/api/v1/sdt/pool", `{"blocks":[
		{"hits":1,"misses":1,"false_alarms":2,"correct_rejections":1},
		{"hits":2,"misses":1,"false_alarms":1,"correct_rejections":3}]}`)
	direct := do(t, router, http.MethodPost, "/api/v1/sdt",
		`{"hits":3,"misses":2,"false_alarms":3,"correct_rejections":4}`)
	require.Equal(t, http.StatusOK, pooled.Code, pooled.Body.String())
	assert.InDelta(t, decode(t, direct)["criterion"], decode(t, pooled)["criterion"], 1e-9)

	scaled := do(t, router, http.MethodPost, "/api/v1/sdt/scale",
		`{"counts":{"hits":1,"misses":2,"false_alarms":3,"correct_rejections":1},"factor":4}`)
	direct = do(t, router, http.MethodPost, "/api/v1/sdt",
		`{"hits":4,"misses":8,"false_alarms":12,"correct_rejections":4}`)
	require.Equal(t, http.StatusOK, scaled.Code, scaled.Body.String())
	assert.InDelta(t, decode(t, direct)["criterion"], decode(t, scaled)["criterion"], 1e-9)

	negative := do(t, router, http.MethodPost, "/api/v1/sdt/scale",
		`{"counts":{"hits":1,"misses":2,"false_alarms":3,"correct_rejections":1},"factor":-1}`)
	assert.Equal(t, http.StatusUnprocessableEntity, negative.Code)

	missing := do(t, router, http.MethodPost, "/api/v1/sdt/scale",
		`{"counts":{"hits":1,"misses":2,"false_alarms":3,"correct_rejections":1}}`)
	assert.Equal(t, http.StatusBadRequest, missing.Code)

	empty := do(t, router, http.MethodPost, "/api/v1/sdt/pool", `{"blocks":[]}`)
	assert.Equal(t, http.StatusBadRequest, empty.Code)

	bad := do(t, router, http.MethodPost, "/api/v1/sdt/pool", `{"blocks":[
		{"hits":1,"misses":1,"false_alarms":1,"correct_rejections":1},
		{"hits":-1,"misses":1,"false_alarms":1,"correct_rejections":1}]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, bad.Code)
	assert.Contains(t, decode(t, bad)["error"], "block 1")
}

func TestPlots(t *testing.T) {
	router := newTestRouter()
	counts := `{"hits":8,"misses":2,"false_alarms":3,"correct_rejections":7}`

	roc := decode(t, do(t, router, http.MethodPost, "/api/v1/sdt/roc", counts))
	point := roc["point"].(map[string]interface{})
	assert.InDelta(t, 0.3, point["x"], 1e-12)
	assert.InDelta(t, 0.8, point["y"], 1e-12)

	w := do(t, router, http.MethodPost, "/api/v1/sdt/density", counts)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decode(t, w)["x"], 21)

	w = do(t, router, http.MethodPost, "/api/v1/sdt/density?points=5", counts)
	assert.Len(t, decode(t, w)["noise"], 5)

	w = do(t, router, http.MethodPost, "/api/v1/sdt/density?points=1", counts)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodPost, "/api/v1/sdt/density",
		`{"hits":10,"misses":0,"false_alarms":0,"correct_rejections":10}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, errors.CodeUnplottable, decode(t, w)["code"])
}

func TestDensityRejectsOversizedGrid(t *testing.T) {
	router := newTestRouter()
	counts := `{"hits":8,"misses":2,"false_alarms":3,"correct_rejections":7}`

	for _, points := range []string{"4611686018427387904", "10002", "-3", "many"} {
		w := do(t, router, http.MethodPost, "/api/v1/sdt/density?points="+points, counts)
		assert.Equal(t, http.StatusBadRequest, w.Code, points)
		assert.Equal(t, errors.CodeInvalidInput, decode(t, w)["code"], points)
	}
}

func TestSummary(t *testing.T) {
	w := do(t, newTestRouter(), http.MethodPost, "/api/v1/summary", `{"blocks":[
		{"hits":10,"misses":0,"false_alarms":2,"correct_rejections":8},
		{"hits":5,"misses":5,"false_alarms":5,"correct_rejections":5}]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, float64(1), body["non_finite_blocks"])
	blocks := body["blocks"].([]interface{})
	assert.Equal(t, "+Inf", blocks[0].(map[string]interface{})["d_prime"])
	pooled := body["pooled"].(map[string]interface{})
	assert.Equal(t, float64(15), pooled["counts"].(map[string]interface{})["hits"])
}

func TestBlockLifecycle(t *testing.T) {
	router := newTestRouter()

	w := do(t, router, http.MethodPost, "/api/v1/blocks",
		`{"label":"session 1","counts":{"hits":15,"misses":10,"false_alarms":15,"correct_rejections":5}}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	id := created["id"].(string)
	assert.Equal(t, "session 1", created["label"])

	w = do(t, router, http.MethodGet, "/api/v1/blocks/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode(t, w)["stats"].(map[string]interface{})
	assert.InDelta(t, -0.421142647060282, stats["d_prime"], 1e-6)

	w = do(t, router, http.MethodGet, "/api/v1/blocks/"+id+"/report", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "# session 1")

	w = do(t, router, http.MethodGet, "/api/v1/blocks?limit=10", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["blocks"], 1)

	w = do(t, router, http.MethodDelete, "/api/v1/blocks/"+id, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, router, http.MethodGet, "/api/v1/blocks/"+id, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, errors.CodeNotFound, decode(t, w)["code"])
}

func TestBlockRequestErrors(t *testing.T) {
	router := newTestRouter()

	w := do(t, router, http.MethodPost, "/api/v1/blocks",
		`{"label":"bad","counts":{"hits":0,"misses":0,"false_alarms":1,"correct_rejections":1}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, router, http.MethodGet, "/api/v1/blocks/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodGet, "/api/v1/blocks?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthz(t *testing.T) {
	w := do(t, newTestRouter(), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bytes.Contains(w.Body.Bytes(), []byte("ok")))
}
