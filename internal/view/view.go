// Package view renders the HTML fragments pushed to the browser over
// server-sent events.
package view

//go:generate templ generate

// Element IDs targeted by the fragments.
const (
	BalanceID = "points-balance"
	CartID    = "cart-summary"
	FlavorsID = "flavor-results"
)
