package service

import "github.com/msomdec/swirl-rewards/internal/domain"

// InitialRewards is the catalog every fresh database starts with.
var InitialRewards = []domain.Reward{
	{ID: "1", Name: "Duo Penotti Lunchbox", Image: "https://placehold.co/400x400/3E2723/FFF?text=Lunchbox", PointsCost: 500, Category: "Merchandise"},
	{ID: "2", Name: "Beach Towel", Image: "https://placehold.co/400x400/D32F2F/FFF?text=Towel", PointsCost: 1200, Category: "Merchandise"},
	{ID: "3", Name: "Gym Bag", Image: "https://placehold.co/400x400/3E2723/FFF?text=Gym+Bag", PointsCost: 1500, Category: "Accessories"},
	{ID: "4", Name: "Swirly Socks", Image: "https://placehold.co/400x400/FFF8E1/3E2723?text=Socks", PointsCost: 300, Category: "Clothing"},
	{ID: "5", Name: "Boxer Shorts", Image: "https://placehold.co/400x400/D32F2F/FFF?text=Boxers", PointsCost: 400, Category: "Clothing"},
}

// InitialFlavors are the new-flavor candidates and their opening tallies.
var InitialFlavors = []domain.Flavor{
	{ID: "1", Name: "Karamel Zeezout", Colors: [2]string{"#D84315", "#FFF8E1"}, Votes: 120, Image: "/salted-caramel-popcorn.png"},
	{ID: "2", Name: "Bosvruchten Swirl", Colors: [2]string{"#880E4F", "#F8BBD0"}, Votes: 85, Image: "/white-choco-raspberry.png"},
	{ID: "3", Name: "Banana Toffee", Colors: [2]string{"#FBC02D", "#5D4037"}, Votes: 95, Image: "/banana-toffee-choco.png"},
	{ID: "4", Name: "Double Dark Espresso", Colors: [2]string{"#3E2723", "#212121"}, Votes: 100, Image: "/double-dark-espresso.png"},
}

// codeValues maps upper-case promotional codes to the points they credit.
var codeValues = map[string]int{
	"DUO2024":    100,
	"SWIRL50":    50,
	"HAZELNUT":   25,
	"VANILLA":    25,
	"ADMIN1000":  1000,
	"SUPERSWIRL": 9999,
}
