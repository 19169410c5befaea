package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/glassbox/internal/pipeline"
)

func get(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return rec, body
}

func TestRouter_NoRun(t *testing.T) {
	h := buildRouter(pipeline.NewSession(), []string{"*"})

	rec, body := get(t, h, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])

	for _, path := range []string{"/leads", "/leads/abc", "/rejections", "/stats"} {
		rec, body := get(t, h, path)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
		assert.Equal(t, "no run available yet", body["error"], path)
	}
}

func TestRouter_Leads(t *testing.T) {
	env, res := sampleEnv(t)
	h := buildRouter(env.Session, []string{"*"})

	rec, body := get(t, h, "/leads")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.EqualValues(t, 4, body["count"])
	leads, ok := body["leads"].([]any)
	require.True(t, ok)
	first, ok := leads[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, res.Leads[0].ID, first["lead_id"])
	assert.Equal(t, "hiring", first["intent_type"])

	_, body = get(t, h, "/leads?min_tier=b")
	assert.EqualValues(t, 4, body["count"])

	id := res.Leads[0].ID
	rec, body = get(t, h, "/leads/"+id)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, body["lead_id"])

	rec, body = get(t, h, "/leads/"+id+"/explain")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 90, body["score"])
	assert.Equal(t, "A", body["tier"])
	assert.Contains(t, body["explanation"], "**Acme Labs** is ranked as Tier A")
	assert.NotEmpty(t, body["summary"])

	rec, body = get(t, h, "/leads/"+id+"/evidence")
	assert.Equal(t, http.StatusOK, rec.Code)
	evs, ok := body["evidence"].([]any)
	require.True(t, ok)
	assert.Len(t, evs, len(res.Leads[0].Evidence))

	for _, path := range []string{"/leads/missing", "/leads/missing/explain", "/leads/missing/evidence"} {
		rec, body := get(t, h, path)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Equal(t, `lead "missing" not found`, body["error"], path)
	}
}

func TestRouter_Rejections(t *testing.T) {
	env, _ := sampleEnv(t)
	h := buildRouter(env.Session, []string{"*"})

	rec, body := get(t, h, "/rejections")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 4, body["count"])

	_, body = get(t, h, "/rejections?rule=missing_entity")
	assert.EqualValues(t, 1, body["count"])

	_, body = get(t, h, "/rejections?rule=size_mismatch")
	assert.EqualValues(t, 0, body["count"])
	assert.Equal(t, []any{}, body["rejections"])

	rec, body = get(t, h, "/rejections?rule=nope")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, `unknown rule "nope"`, body["error"])
}

func TestRouter_Stats(t *testing.T) {
	env, _ := sampleEnv(t)
	h := buildRouter(env.Session, []string{"*"})

	rec, body := get(t, h, "/stats")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 9, body["candidates"])
	assert.EqualValues(t, 4, body["leads"])
	assert.EqualValues(t, 0.5, body["acceptance_rate"])
}

func TestRouter_CORS(t *testing.T) {
	h := buildRouter(pipeline.NewSession(), []string{"https://app.example.com"})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
