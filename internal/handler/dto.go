package handler

import "github.com/msomdec/swirl-rewards/internal/domain"

// AccountDTO is the JSON representation of an account.
type AccountDTO struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Points int    `json:"points"`
	Role   string `json:"role"`
}

func toAccountDTO(a *domain.Account) *AccountDTO {
	if a == nil {
		return nil
	}
	return &AccountDTO{
		ID:     a.ID,
		Name:   a.Name,
		Email:  a.Email,
		Points: a.Points,
		Role:   string(a.Role),
	}
}

// RewardDTO is the JSON representation of a catalog reward.
type RewardDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Image      string `json:"image"`
	PointsCost int    `json:"pointsCost"`
	Category   string `json:"category"`
}

func toRewardDTO(r domain.Reward) RewardDTO {
	return RewardDTO{
		ID:         r.ID,
		Name:       r.Name,
		Image:      r.Image,
		PointsCost: r.PointsCost,
		Category:   r.Category,
	}
}

func toRewardDTOs(rewards []domain.Reward) []RewardDTO {
	dtos := make([]RewardDTO, len(rewards))
	for i, r := range rewards {
		dtos[i] = toRewardDTO(r)
	}
	return dtos
}

// CartItemDTO is a reward in the cart with its quantity.
type CartItemDTO struct {
	RewardDTO
	Quantity int `json:"quantity"`
	Subtotal int `json:"subtotal"`
}

// CartDTO is the JSON representation of the cart.
type CartDTO struct {
	Items []CartItemDTO `json:"items"`
	Total int           `json:"total"`
	Count int           `json:"count"`
}

func toCartDTO(items []domain.CartItem) CartDTO {
	dto := CartDTO{Items: make([]CartItemDTO, len(items)), Total: domain.CartTotal(items)}
	for i, item := range items {
		dto.Items[i] = CartItemDTO{
			RewardDTO: toRewardDTO(item.Reward),
			Quantity:  item.Quantity,
			Subtotal:  item.Subtotal(),
		}
		dto.Count += item.Quantity
	}
	return dto
}

// FlavorDTO is the JSON representation of a vote candidate.
type FlavorDTO struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Colors     [2]string `json:"colors"`
	Image      string    `json:"image"`
	Votes      int       `json:"votes"`
	Percentage int       `json:"percentage"`
}

func toFlavorDTOs(flavors []domain.Flavor) []FlavorDTO {
	dtos := make([]FlavorDTO, len(flavors))
	for i, f := range flavors {
		dtos[i] = FlavorDTO{
			ID:         f.ID,
			Name:       f.Name,
			Colors:     f.Colors,
			Image:      f.Image,
			Votes:      f.Votes,
			Percentage: f.Percentage,
		}
	}
	return dtos
}
