package domain

import (
	"context"
	"math"
)

// Reward is a catalog item redeemable for points.
type Reward struct {
	ID         string
	Name       string
	Image      string
	PointsCost int
	Category   string
}

// MaxQuantity is the largest quantity a single cart line may hold.
const MaxQuantity = 999

// CartItem is a reward selected for checkout along with its quantity.
// Quantity is always between one and MaxQuantity.
type CartItem struct {
	Reward
	Quantity int
}

// Subtotal returns the points cost of the line, saturating at math.MaxInt.
func (c CartItem) Subtotal() int {
	sub, ok := mulPoints(c.PointsCost, c.Quantity)
	if !ok {
		return math.MaxInt
	}
	return sub
}

// CartTotal sums the subtotals of all items, saturating at math.MaxInt.
// Use CheckedCartTotal where the exact value is spent.
func CartTotal(items []CartItem) int {
	total, ok := CheckedCartTotal(items)
	if !ok {
		return math.MaxInt
	}
	return total
}

// CheckedCartTotal sums the subtotals of all items. ok is false when the
// total does not fit in an int.
func CheckedCartTotal(items []CartItem) (total int, ok bool) {
	for _, item := range items {
		sub, fits := mulPoints(item.PointsCost, item.Quantity)
		if !fits || total > math.MaxInt-sub {
			return 0, false
		}
		total += sub
	}
	return total, true
}

// mulPoints multiplies two non-negative point values, reporting overflow.
func mulPoints(a, b int) (int, bool) {
	if a < 0 || b < 0 {
		return 0, false
	}
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxInt/b {
		return 0, false
	}
	return a * b, true
}

// RewardRepository persists the reward catalog. List returns rewards in
// insertion order. Seed inserts rewards that do not exist yet.
type RewardRepository interface {
	List(ctx context.Context) ([]Reward, error)
	GetByID(ctx context.Context, id string) (*Reward, error)
	Create(ctx context.Context, reward *Reward) error
	Seed(ctx context.Context, rewards []Reward) error
}
