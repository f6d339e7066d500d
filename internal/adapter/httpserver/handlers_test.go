package httpserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirelens/matchengine/internal/adapter/ai/stub"
	"github.com/hirelens/matchengine/internal/config"
	"github.com/hirelens/matchengine/internal/domain"
	"github.com/hirelens/matchengine/internal/scoring/cache"
	"github.com/hirelens/matchengine/internal/scoring/embedding"
	"github.com/hirelens/matchengine/internal/scoring/semantic"
	"github.com/hirelens/matchengine/internal/usecase"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	client := stub.New()
	svc := usecase.NewScoreService(
		embedding.NewScorer(client, time.Second),
		semantic.NewAnalyzer(client, "openai/gpt-4o-mini", 5*time.Second, 1200),
		cache.New(cache.NewMemoryStore(16), time.Minute),
	)
	return NewServer(config.Config{AppEnv: "test", MaxTextChars: 20000}, svc)
}

func doMatch(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/match", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.MatchHandler().ServeHTTP(rec, req)
	return rec
}

func TestMatchHandlerFastMode(t *testing.T) {
	t.Parallel()

	rec := doMatch(t, newTestServer(t), `{
		"requirement_text": "Recherche Développeur React senior, remote ok",
		"candidate_text": "5 ans React, Node.js, disponible immédiatement",
		"performance_mode": "fast"
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		ID         string             `json:"id"`
		FinalScore int                `json:"final_score"`
		Breakdown  map[string]float64 `json:"breakdown"`
		Analysis   struct {
			SkillsAlignment []string `json:"skills_alignment"`
		} `json:"analysis"`
		FromCache bool `json:"from_cache"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.NotEmpty(t, resp.ID)
	assert.GreaterOrEqual(t, resp.FinalScore, 55)
	assert.LessOrEqual(t, resp.FinalScore, 80)
	assert.Contains(t, resp.Breakdown, "keyword")
	assert.Contains(t, resp.Breakdown, "vector")
	assert.NotContains(t, resp.Breakdown, "semantic")
	assert.Contains(t, resp.Analysis.SkillsAlignment, "react")
	assert.False(t, resp.FromCache)
}

func TestMatchHandlerBalancedModeRunsAllSignals(t *testing.T) {
	t.Parallel()

	rec := doMatch(t, newTestServer(t), `{
		"requirement_text": "Senior Go developer with Kubernetes",
		"candidate_text": "Go developer, Docker and Kubernetes in production",
		"performance_mode": "balanced"
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Breakdown map[string]float64 `json:"breakdown"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Breakdown, 4)
}

func TestMatchHandlerCachedSecondCall(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	body := `{
		"requirement_text": "Python data engineer",
		"candidate_text": "Python, SQL, Airflow",
		"performance_mode": "fast"
	}`

	first := doMatch(t, s, body)
	require.Equal(t, http.StatusOK, first.Code)

	second := doMatch(t, s, body)
	require.Equal(t, http.StatusOK, second.Code)

	var resp struct {
		FromCache bool `json:"from_cache"`
	}
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &resp))
	assert.True(t, resp.FromCache)
}

func TestMatchHandlerMissingField(t *testing.T) {
	t.Parallel()

	rec := doMatch(t, newTestServer(t), `{"requirement_text": "something"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_ARGUMENT")
}

func TestMatchHandlerMalformedJSON(t *testing.T) {
	t.Parallel()

	rec := doMatch(t, newTestServer(t), `{"requirement_text": `)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_ARGUMENT")
}

func TestMatchHandlerInvalidMode(t *testing.T) {
	t.Parallel()

	rec := doMatch(t, newTestServer(t), `{
		"requirement_text": "a role",
		"candidate_text": "a profile",
		"performance_mode": "turbo"
	}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMatchHandlerOversizedText(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	s.Cfg.MaxTextChars = 100
	big := strings.Repeat("x", 200)
	rec := doMatch(t, s, `{"requirement_text": "`+big+`", "candidate_text": "short"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthzHandler(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	newTestServer(t).HealthzHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestReadyzHandler(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.ReadyzHandler(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	failing := func(domain.Context) error { return errors.New("redis down") }
	s.ReadyzHandler(failing).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
