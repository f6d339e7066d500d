package app

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirelens/matchengine/internal/adapter/ai/stub"
	httpserver "github.com/hirelens/matchengine/internal/adapter/httpserver"
	"github.com/hirelens/matchengine/internal/config"
	"github.com/hirelens/matchengine/internal/scoring/cache"
	"github.com/hirelens/matchengine/internal/scoring/embedding"
	"github.com/hirelens/matchengine/internal/scoring/semantic"
	"github.com/hirelens/matchengine/internal/usecase"
)

func TestParseOrigins(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"*"}, ParseOrigins(""))
	assert.Equal(t, []string{"*"}, ParseOrigins("*"))
	assert.Equal(t, []string{"https://a.example", "https://b.example"},
		ParseOrigins(" https://a.example , https://b.example "))
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	client := stub.New()
	svc := usecase.NewScoreService(
		embedding.NewScorer(client, time.Second),
		semantic.NewAnalyzer(client, "openai/gpt-4o-mini", 5*time.Second, 1200),
		cache.New(cache.NewMemoryStore(16), time.Minute),
	)
	cfg := config.Config{
		AppEnv:           "test",
		MaxTextChars:     20000,
		CORSAllowOrigins: "*",
		RateLimitPerMin:  100,
		SemanticTimeout:  5 * time.Second,
	}
	return BuildRouter(cfg, httpserver.NewServer(cfg, svc), nil)
}

func TestRouterHealthEndpoints(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterMatchEndToEnd(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t)
	body := `{
		"requirement_text": "Senior Go developer",
		"candidate_text": "Go and Kubernetes experience",
		"performance_mode": "fast"
	}`
	req := httptest.NewRequest(http.MethodPost, "/v1/match", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, rec.Body.String(), "final_score")
}

func TestRouterUnknownRoute(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
