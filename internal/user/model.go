package user

import (
	"time"

	"azbeauty-be/internal/auth"
)

type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  *string   `json:"full_name"`
	AvatarURL *string   `json:"avatar_url"`
	Phone     *string   `json:"phone"`
	Role      auth.Role `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Customer is a profile with its order aggregates.
type Customer struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	FullName   *string   `json:"full_name"`
	Phone      *string   `json:"phone"`
	CreatedAt  time.Time `json:"created_at"`
	OrderCount int       `json:"order_count"`
	TotalSpent int64     `json:"total_spent"`
}

type UpsertProfileInput struct {
	ID        *string `json:"id" validate:"omitempty,uuid"`
	Email     *string `json:"email" validate:"omitempty,email"`
	FullName  *string `json:"full_name" validate:"omitempty,max=200"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url"`
}
