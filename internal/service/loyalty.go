package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/msomdec/swirl-rewards/internal/domain"
	"github.com/msomdec/swirl-rewards/internal/metrics"
)

// RedeemResult describes a successful code redemption.
type RedeemResult struct {
	Code    string
	Points  int
	Message string
	Account *domain.Account
}

// CheckoutResult describes a completed checkout.
type CheckoutResult struct {
	Total   int
	Items   []domain.CartItem
	Message string
	Account *domain.Account
}

// LoyaltyStore manages the cart and code ledger of one client, plus access
// to the shared reward catalog. Point changes go through the IdentityStore.
type LoyaltyStore struct {
	identity *IdentityStore
	rewards  domain.RewardRepository

	mu        sync.Mutex
	cart      []domain.CartItem
	redeemed  []string
	listeners listeners[[]domain.CartItem]
}

var errQuantityTooLarge = domain.Fail(domain.ErrInvalidInput,
	fmt.Sprintf("You can order at most %d of a reward.", domain.MaxQuantity))

// NewLoyaltyStore creates a LoyaltyStore with an empty cart and ledger.
func NewLoyaltyStore(identity *IdentityStore, rewards domain.RewardRepository) *LoyaltyStore {
	return &LoyaltyStore{identity: identity, rewards: rewards}
}

// SeedCatalog inserts the initial rewards that are not in the catalog yet.
func SeedCatalog(ctx context.Context, rewards domain.RewardRepository) error {
	if err := rewards.Seed(ctx, InitialRewards); err != nil {
		return fmt.Errorf("seed rewards: %w", err)
	}
	return nil
}

// Subscribe registers fn to receive the cart after every change. fn must
// not block or call back into the stores.
func (s *LoyaltyStore) Subscribe(fn func([]domain.CartItem)) func() {
	return s.listeners.add(fn)
}

// Catalog returns all rewards in insertion order.
func (s *LoyaltyStore) Catalog(ctx context.Context) ([]domain.Reward, error) {
	return s.rewards.List(ctx)
}

// Reward returns a single catalog reward.
func (s *LoyaltyStore) Reward(ctx context.Context, id string) (*domain.Reward, error) {
	return s.rewards.GetByID(ctx, id)
}

// AddReward appends a reward to the catalog. Only admins may do this.
// A missing ID is generated.
func (s *LoyaltyStore) AddReward(ctx context.Context, reward domain.Reward) (*domain.Reward, error) {
	account := s.identity.Current()
	if account == nil {
		return nil, domain.Fail(domain.ErrNotAuthenticated, "Please login first.")
	}
	if !account.IsAdmin() {
		return nil, domain.Fail(domain.ErrForbidden, "Only administrators can add rewards.")
	}

	reward.Name = strings.TrimSpace(reward.Name)
	if reward.Name == "" {
		return nil, domain.Fail(domain.ErrInvalidInput, "Reward name is required.")
	}
	if reward.PointsCost < 0 {
		return nil, domain.Fail(domain.ErrInvalidInput, "Points cost must not be negative.")
	}
	if reward.ID == "" {
		reward.ID = uuid.NewString()
	}

	if err := s.rewards.Create(ctx, &reward); err != nil {
		return nil, fmt.Errorf("create reward: %w", err)
	}
	slog.Info("reward added", "reward_id", reward.ID, "admin", account.Email)
	return &reward, nil
}

// Cart returns a copy of the cart in insertion order.
func (s *LoyaltyStore) Cart() []domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.cart)
}

// Total returns the points cost of the whole cart.
func (s *LoyaltyStore) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CartTotal(s.cart)
}

// AddToCart increments the quantity of reward, adding it with quantity one
// if it is not in the cart yet. A line already at domain.MaxQuantity is
// left unchanged and ErrInvalidInput is returned.
func (s *LoyaltyStore) AddToCart(reward domain.Reward) error {
	return s.mutateCart(func(cart []domain.CartItem) ([]domain.CartItem, error) {
		if i := indexOf(cart, reward.ID); i >= 0 {
			if cart[i].Quantity >= domain.MaxQuantity {
				return nil, errQuantityTooLarge
			}
			cart[i].Quantity++
			return cart, nil
		}
		return append(cart, domain.CartItem{Reward: reward, Quantity: 1}), nil
	})
}

// RemoveFromCart deletes the reward's entry. Unknown IDs are ignored.
func (s *LoyaltyStore) RemoveFromCart(rewardID string) {
	s.mutateCart(func(cart []domain.CartItem) ([]domain.CartItem, error) {
		return slices.DeleteFunc(cart, func(item domain.CartItem) bool {
			return item.ID == rewardID
		}), nil
	})
}

// UpdateQuantity sets the quantity of an entry already in the cart. A
// quantity below one removes the entry; one above domain.MaxQuantity is
// rejected with ErrInvalidInput.
func (s *LoyaltyStore) UpdateQuantity(rewardID string, quantity int) error {
	if quantity < 1 {
		s.RemoveFromCart(rewardID)
		return nil
	}
	if quantity > domain.MaxQuantity {
		return errQuantityTooLarge
	}
	return s.mutateCart(func(cart []domain.CartItem) ([]domain.CartItem, error) {
		if i := indexOf(cart, rewardID); i >= 0 {
			cart[i].Quantity = quantity
		}
		return cart, nil
	})
}

// ClearCart empties the cart.
func (s *LoyaltyStore) ClearCart() {
	s.mutateCart(func([]domain.CartItem) ([]domain.CartItem, error) { return nil, nil })
}

// RedeemedCodes returns the codes claimed so far, in claim order.
func (s *LoyaltyStore) RedeemedCodes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.redeemed)
}

// RedeemCode credits the points of a promotional code once per session.
// Codes are upper-cased before lookup; surrounding whitespace is kept.
func (s *LoyaltyStore) RedeemCode(ctx context.Context, code string) (*RedeemResult, error) {
	if s.identity.Current() == nil {
		metrics.CodeRedemptions.WithLabelValues("unauthenticated").Inc()
		return nil, domain.Fail(domain.ErrNotAuthenticated, "Please login to redeem codes.")
	}

	normalized := strings.ToUpper(code)

	s.mu.Lock()
	defer s.mu.Unlock()

	if slices.Contains(s.redeemed, normalized) {
		metrics.CodeRedemptions.WithLabelValues("already_redeemed").Inc()
		return nil, domain.Fail(domain.ErrAlreadyRedeemed, "Code already redeemed.")
	}

	points, ok := codeValues[normalized]
	if !ok {
		metrics.CodeRedemptions.WithLabelValues("invalid").Inc()
		return nil, domain.Fail(domain.ErrInvalidCode, "Invalid code.")
	}

	account, err := s.identity.UpdatePoints(ctx, points)
	if err != nil {
		return nil, fmt.Errorf("credit code points: %w", err)
	}
	if account == nil {
		// Signed out between the check above and the credit.
		metrics.CodeRedemptions.WithLabelValues("unauthenticated").Inc()
		return nil, domain.Fail(domain.ErrNotAuthenticated, "Please login to redeem codes.")
	}
	s.redeemed = append(s.redeemed, normalized)

	metrics.CodeRedemptions.WithLabelValues("success").Inc()
	metrics.PointsCredited.Add(float64(points))

	return &RedeemResult{
		Code:    normalized,
		Points:  points,
		Message: fmt.Sprintf("Success! You earned %d points.", points),
		Account: account,
	}, nil
}

// Checkout debits the cart total from the signed-in account and empties the
// cart. On any failure the cart and balance are left unchanged.
func (s *LoyaltyStore) Checkout(ctx context.Context) (*CheckoutResult, error) {
	s.mu.Lock()

	if len(s.cart) == 0 {
		s.mu.Unlock()
		metrics.Checkouts.WithLabelValues("empty").Inc()
		return nil, domain.Fail(domain.ErrInvalidInput, "Your cart is empty.")
	}

	total, ok := domain.CheckedCartTotal(s.cart)
	if !ok {
		s.mu.Unlock()
		metrics.Checkouts.WithLabelValues("total_overflow").Inc()
		return nil, domain.Fail(domain.ErrInvalidInput, "Your cart total is too large.")
	}
	account, err := s.identity.Debit(ctx, total)
	if err != nil {
		s.mu.Unlock()
		switch {
		case errors.Is(err, domain.ErrNotAuthenticated):
			metrics.Checkouts.WithLabelValues("unauthenticated").Inc()
		case errors.Is(err, domain.ErrInsufficientPoints):
			metrics.Checkouts.WithLabelValues("insufficient_points").Inc()
		}
		return nil, err
	}

	items := s.cart
	s.cart = nil
	s.mu.Unlock()

	s.listeners.notify(nil)
	metrics.Checkouts.WithLabelValues("success").Inc()
	metrics.PointsSpent.Add(float64(total))
	slog.Info("checkout completed", "account_id", account.ID, "total", total, "items", len(items))

	return &CheckoutResult{
		Total:   total,
		Items:   items,
		Message: "Order placed successfully! You will receive an email shortly.",
		Account: account,
	}, nil
}

// mutateCart applies fn to the cart and notifies subscribers. When fn
// fails the cart is left as it was.
func (s *LoyaltyStore) mutateCart(fn func([]domain.CartItem) ([]domain.CartItem, error)) error {
	s.mu.Lock()
	cart, err := fn(slices.Clone(s.cart))
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.cart = cart
	snapshot := slices.Clone(cart)
	s.mu.Unlock()

	s.listeners.notify(snapshot)
	return nil
}

func indexOf(cart []domain.CartItem, rewardID string) int {
	return slices.IndexFunc(cart, func(item domain.CartItem) bool {
		return item.ID == rewardID
	})
}
