package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/baxromumarov/velocity/internal/auth"
	"github.com/baxromumarov/velocity/internal/roadmap"
	"github.com/baxromumarov/velocity/internal/store"
)

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	t, err := s.trends.Get(r.Context())
	if err != nil {
		s.logger.Error("failed to fetch market trends", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to fetch market trends")
		return
	}
	respondJSON(w, http.StatusOK, t)
}

func (s *Server) handleRoles(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"roles": s.roadmaps.Roles(),
	})
}

func (s *Server) handleRoadmap(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	role := strings.TrimSpace(q.Get("role"))
	if role == "" {
		respondError(w, http.StatusBadRequest, "Missing 'role' parameter")
		return
	}
	s.writeRoadmap(w, r, role, splitKnown(q.Get("known")))
}

func (s *Server) handleMyRoadmap(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	user, err := s.dashboard.User(r.Context(), id.ClerkID)
	if errors.Is(err, store.ErrNotFound) {
		respondMessage(w, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to load user", "clerk_id", id.ClerkID, "error", err)
		respondMessage(w, http.StatusInternalServerError, "Server error")
		return
	}
	if strings.TrimSpace(user.Role) == "" {
		respondMessage(w, http.StatusUnprocessableEntity, "Complete the quiz to choose a target role")
		return
	}
	s.writeRoadmap(w, r, user.Role, user.Skills)
}

func (s *Server) writeRoadmap(w http.ResponseWriter, r *http.Request, role string, known []string) {
	rm, err := s.roadmaps.Build(r.Context(), role, known)
	if errors.Is(err, roadmap.ErrNotFound) {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("roadmap extraction failed", "role", role, "error", err)
		respondError(w, http.StatusInternalServerError, "Extraction failed: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, rm)
}

func splitKnown(raw string) []string {
	if raw == "" {
		return []string{}
	}
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
