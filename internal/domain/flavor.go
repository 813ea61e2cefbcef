package domain

import "context"

// Flavor is a candidate in the new-flavor vote.
type Flavor struct {
	ID         string
	Name       string
	Colors     [2]string
	Image      string
	Votes      int
	Percentage int
}

// FlavorRepository persists flavor candidates and their tallies.
type FlavorRepository interface {
	List(ctx context.Context) ([]Flavor, error)
	IncrementVotes(ctx context.Context, id string) error
	Seed(ctx context.Context, flavors []Flavor) error
}
