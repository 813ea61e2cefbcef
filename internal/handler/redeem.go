package handler

import "net/http"

// HandleRedeem credits the points of a promotional code.
// POST /api/redeem
// Request:  {"code":"..."}
// Response: {"success":true,"message":"...","points":100,"account":{...}}
func HandleRedeem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	s := SessionFromContext(r.Context())
	result, err := s.Loyalty.RedeemCode(r.Context(), req.Code)
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": result.Message,
		"points":  result.Points,
		"account": toAccountDTO(result.Account),
	})
}
