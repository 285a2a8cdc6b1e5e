package model

// Restaurant is the tenant: every category and menu item belongs to exactly
// one restaurant.  Optional text columns are pointers so that NULL and ""
// stay distinguishable in API responses.
type Restaurant struct {
	ID          uint64  `json:"id"`
	Name        string  `json:"name"`
	Address     *string `json:"address"`
	Description *string `json:"description"`
	Image       *string `json:"image"`
}

// Category groups menu items of one restaurant.  Names are unique per
// restaurant.
type Category struct {
	ID           uint64 `json:"id"`
	Name         string `json:"name"`
	RestaurantID uint64 `json:"restaurant_id"`
}

// MenuItem is a dish offered by a restaurant.  CategoryID becomes nil when
// its category is deleted; Category carries the joined category name on
// reads and is ignored on writes.
type MenuItem struct {
	ID           uint64  `json:"id"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	Description  *string `json:"description"`
	Image        *string `json:"image"`
	CategoryID   *uint64 `json:"category_id"`
	Category     *string `json:"category"`
	RestaurantID uint64  `json:"restaurant_id"`
}
