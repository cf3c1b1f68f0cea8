package category

import "time"

type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

// Brand shares the shape of Category; both are flat slug-keyed lookups.
type Brand = Category
