package handler

import (
	"net/http"

	"github.com/msomdec/swirl-rewards/internal/domain"
)

// HandleListRewards returns the reward catalog in insertion order.
// GET /api/rewards
// Response: {"rewards":[...]}
func HandleListRewards(w http.ResponseWriter, r *http.Request) {
	s := SessionFromContext(r.Context())
	rewards, err := s.Loyalty.Catalog(r.Context())
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rewards": toRewardDTOs(rewards)})
}

// HandleCreateReward appends a reward to the catalog. Admin only.
// POST /api/rewards
// Request:  {"name":"...","image":"...","pointsCost":100,"category":"..."}
// Response: 201 {"success":true,"reward":{...}}
func HandleCreateReward(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name       string `json:"name"`
		Image      string `json:"image"`
		PointsCost int    `json:"pointsCost"`
		Category   string `json:"category"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	s := SessionFromContext(r.Context())
	reward, err := s.Loyalty.AddReward(r.Context(), domain.Reward{
		Name:       req.Name,
		Image:      req.Image,
		PointsCost: req.PointsCost,
		Category:   req.Category,
	})
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"reward":  toRewardDTO(*reward),
	})
}
