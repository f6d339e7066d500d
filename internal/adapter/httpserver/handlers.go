package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/hirelens/matchengine/internal/config"
	"github.com/hirelens/matchengine/internal/domain"
	"github.com/hirelens/matchengine/internal/usecase"
)

// Server wires the scoring usecase into HTTP handlers.
type Server struct {
	Cfg      config.Config
	Scores   usecase.ScoreService
	validate *validator.Validate
}

// NewServer constructs the handler set.
func NewServer(cfg config.Config, scores usecase.ScoreService) *Server {
	return &Server{
		Cfg:      cfg,
		Scores:   scores,
		validate: validator.New(),
	}
}

type matchRequest struct {
	RequirementText string `json:"requirement_text" validate:"required"`
	CandidateText   string `json:"candidate_text" validate:"required"`
	PerformanceMode string `json:"performance_mode" validate:"omitempty,oneof=fast balanced thorough"`
	DomainFocus     string `json:"domain_focus" validate:"omitempty,oneof=banking_insurance"`
	// UseCache defaults to true when omitted.
	UseCache *bool `json:"use_cache"`
}

type matchResponse struct {
	ID         string             `json:"id"`
	FinalScore int                `json:"final_score"`
	Breakdown  map[string]float64 `json:"breakdown"`
	Analysis   analysisResponse   `json:"analysis"`
	FromCache  bool               `json:"from_cache"`
}

type analysisResponse struct {
	Strengths             []string `json:"strengths"`
	Weaknesses            []string `json:"weaknesses"`
	Recommendations       []string `json:"recommendations"`
	SkillsAlignment       []string `json:"skills_alignment"`
	MissingCompetencies   []string `json:"missing_competencies"`
	DetailedJustification string   `json:"detailed_justification"`
}

// MatchHandler handles POST /v1/match.
func (s *Server) MatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Generous body cap: two texts plus JSON overhead.
		r.Body = http.MaxBytesReader(w, r.Body, int64(s.Cfg.MaxTextChars)*4+4096)

		var req matchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				writeError(w, r, fmt.Errorf("%w: request body too large", domain.ErrInvalidInput), nil)
				return
			}
			writeError(w, r, fmt.Errorf("%w: malformed JSON body", domain.ErrInvalidInput), nil)
			return
		}
		if err := s.validate.Struct(req); err != nil {
			writeError(w, r, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err), nil)
			return
		}
		if len(req.RequirementText) > s.Cfg.MaxTextChars || len(req.CandidateText) > s.Cfg.MaxTextChars {
			writeError(w, r, fmt.Errorf("%w: text exceeds %d characters", domain.ErrInvalidInput, s.Cfg.MaxTextChars), nil)
			return
		}

		useCache := true
		if req.UseCache != nil {
			useCache = *req.UseCache
		}
		cfg := domain.ScoringConfig{
			PerformanceMode: domain.PerformanceMode(req.PerformanceMode),
			DomainFocus:     domain.DomainFocus(req.DomainFocus),
			UseCache:        useCache,
		}

		res, err := s.Scores.CalculateHybridScore(r.Context(), req.RequirementText, req.CandidateText, cfg)
		if err != nil {
			LoggerFrom(r).Warn("match request failed", slog.Any("error", err))
			writeError(w, r, err, nil)
			return
		}

		breakdown := make(map[string]float64, len(res.Breakdown))
		for sig, score := range res.Breakdown {
			breakdown[string(sig)] = score
		}
		writeJSON(w, http.StatusOK, matchResponse{
			ID:         uuid.NewString(),
			FinalScore: res.FinalScore,
			Breakdown:  breakdown,
			Analysis: analysisResponse{
				Strengths:             emptyIfNil(res.Analysis.Strengths),
				Weaknesses:            emptyIfNil(res.Analysis.Weaknesses),
				Recommendations:       emptyIfNil(res.Analysis.Recommendations),
				SkillsAlignment:       emptyIfNil(res.Analysis.SkillsAlignment),
				MissingCompetencies:   emptyIfNil(res.Analysis.MissingCompetencies),
				DetailedJustification: res.Analysis.DetailedJustification,
			},
			FromCache: res.FromCache,
		})
	}
}

// HealthzHandler reports liveness.
func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// ReadyzHandler reports readiness. ping is optional; a nil ping means no
// external store to verify.
func (s *Server) ReadyzHandler(ping func(ctx domain.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			if err := ping(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "degraded",
					"cache":  err.Error(),
				})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

