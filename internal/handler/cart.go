package handler

import (
	"net/http"
)

// HandleGetCart returns the cart with its total and item count.
// GET /api/cart
// Response: {"items":[...],"total":0,"count":0}
func HandleGetCart(w http.ResponseWriter, r *http.Request) {
	s := SessionFromContext(r.Context())
	writeJSON(w, http.StatusOK, toCartDTO(s.Loyalty.Cart()))
}

// HandleAddToCart adds one unit of a catalog reward.
// POST /api/cart/items
// Request:  {"rewardId":"..."}
// Response: the cart
func HandleAddToCart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RewardID string `json:"rewardId"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	s := SessionFromContext(r.Context())
	reward, err := s.Loyalty.Reward(r.Context(), req.RewardID)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	if err := s.Loyalty.AddToCart(*reward); err != nil {
		writeFailure(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toCartDTO(s.Loyalty.Cart()))
}

// HandleUpdateQuantity sets the quantity of a cart line. A quantity below
// one removes it; one above domain.MaxQuantity is rejected with 422.
// PUT /api/cart/items/{id}
// Request:  {"quantity":2}
// Response: the cart
func HandleUpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	s := SessionFromContext(r.Context())
	if err := s.Loyalty.UpdateQuantity(r.PathValue("id"), req.Quantity); err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartDTO(s.Loyalty.Cart()))
}

// HandleRemoveFromCart deletes a cart line.
// DELETE /api/cart/items/{id}
// Response: the cart
func HandleRemoveFromCart(w http.ResponseWriter, r *http.Request) {
	s := SessionFromContext(r.Context())
	s.Loyalty.RemoveFromCart(r.PathValue("id"))
	writeJSON(w, http.StatusOK, toCartDTO(s.Loyalty.Cart()))
}

// HandleClearCart empties the cart.
// DELETE /api/cart
// Response: the cart
func HandleClearCart(w http.ResponseWriter, r *http.Request) {
	s := SessionFromContext(r.Context())
	s.Loyalty.ClearCart()
	writeJSON(w, http.StatusOK, toCartDTO(s.Loyalty.Cart()))
}

// HandleCheckout spends the cart total from the account balance.
// POST /api/cart/checkout
// Response: {"success":true,"message":"...","total":0,"account":{...}}
func HandleCheckout(w http.ResponseWriter, r *http.Request) {
	s := SessionFromContext(r.Context())
	result, err := s.Loyalty.Checkout(r.Context())
	if err != nil {
		writeFailure(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": result.Message,
		"total":   result.Total,
		"account": toAccountDTO(result.Account),
	})
}
