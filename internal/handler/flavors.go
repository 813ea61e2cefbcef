package handler

import (
	"net/http"

	"github.com/msomdec/swirl-rewards/internal/service"
)

// FlavorHandler serves the flavor vote.
type FlavorHandler struct {
	votes *service.VoteService
}

// NewFlavorHandler creates a new FlavorHandler.
func NewFlavorHandler(votes *service.VoteService) *FlavorHandler {
	return &FlavorHandler{votes: votes}
}

// HandleList returns the candidates with their share of the vote and
// whether this client has voted.
// GET /api/flavors
// Response: {"flavors":[...],"hasVoted":false}
func (h *FlavorHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	s := SessionFromContext(r.Context())
	flavors, err := h.votes.List(r.Context())
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	voted, err := h.votes.HasVoted(r.Context(), s.Storage)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"flavors":  toFlavorDTOs(flavors),
		"hasVoted": voted,
	})
}

// HandleVote casts this client's single vote.
// POST /api/flavors/{id}/vote
// Response: {"success":true,"flavors":[...]}
func (h *FlavorHandler) HandleVote(w http.ResponseWriter, r *http.Request) {
	s := SessionFromContext(r.Context())
	flavors, err := h.votes.Vote(r.Context(), s.Storage, r.PathValue("id"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"flavors": toFlavorDTOs(flavors),
	})
}
