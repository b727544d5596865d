package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/baxromumarov/velocity/internal/auth"
	"github.com/baxromumarov/velocity/internal/catalog"
	"github.com/baxromumarov/velocity/internal/core"
	"github.com/baxromumarov/velocity/internal/observability"
	"github.com/baxromumarov/velocity/internal/store"
)

const maxBodyBytes = 64 << 10

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	user, err := s.profiles.Me(r.Context(), id)
	if err != nil {
		s.logger.Error("failed to load user", "clerk_id", id.ClerkID, "error", err)
		respondMessage(w, http.StatusInternalServerError, "Server error")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

type SubmitQuizRequest struct {
	Skills *[]string `json:"skills"`
	Role   string    `json:"role"`
}

func (s *Server) handleSubmitQuiz(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	var req SubmitQuizRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Skills == nil {
		respondMessage(w, http.StatusBadRequest, "skills must be an array")
		return
	}

	user, err := s.profiles.SubmitQuiz(r.Context(), id.ClerkID, core.QuizInput{
		Skills: *req.Skills,
		Role:   req.Role,
	})
	if errors.Is(err, core.ErrInvalidQuiz) {
		respondMessage(w, http.StatusBadRequest, "role is required")
		return
	}
	if err != nil {
		s.logger.Error("failed to save quiz", "clerk_id", id.ClerkID, "error", err)
		respondMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Quiz saved",
		"user":    user,
	})
}

func (s *Server) handleRequestInsights(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	d, err := s.profiles.RequestInsights(r.Context(), id.ClerkID)
	switch {
	case err == nil:
	case errors.Is(err, core.ErrEnrichmentDisabled):
		respondMessage(w, http.StatusConflict, "AI enrichment is disabled")
		return
	case errors.Is(err, store.ErrNotFound):
		respondMessage(w, http.StatusNotFound, "User not found")
		return
	case errors.Is(err, core.ErrEmptyProfile):
		respondMessage(w, http.StatusUnprocessableEntity, "Complete the quiz before requesting insights")
		return
	case errors.Is(err, core.ErrAnalysisFailed):
		s.logger.Warn("skill analysis failed", "clerk_id", id.ClerkID, "error", err)
		respondMessage(w, http.StatusBadGateway, "AI analysis failed")
		return
	default:
		s.logger.Error("failed to request insights", "clerk_id", id.ClerkID, "error", err)
		respondMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	if d.JobID != "" {
		respondJSON(w, http.StatusAccepted, map[string]string{
			"message": "Enrichment queued",
			"jobId":   d.JobID,
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Insights updated",
		"user":    d.User,
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	sum, err := s.dashboard.Summary(r.Context(), id.ClerkID)
	if errors.Is(err, store.ErrNotFound) {
		respondMessage(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to build dashboard", "clerk_id", id.ClerkID, "error", err)
		respondMessage(w, http.StatusInternalServerError, "Server error")
		return
	}
	respondJSON(w, http.StatusOK, sum)
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"categories": catalog.Categories(q),
		"roles":      catalog.Roles(q),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, observability.Snapshot())
}
