package marketing

import (
	"encoding/json"
	"time"
)

type Event struct {
	ID          string          `json:"id"`
	EventName   string          `json:"event_name"`
	Page        *string         `json:"page"`
	UTMSource   *string         `json:"utm_source"`
	UTMMedium   *string         `json:"utm_medium"`
	UTMCampaign *string         `json:"utm_campaign"`
	ProductID   *string         `json:"product_id"`
	OrderID     *string         `json:"order_id"`
	Value       *float64        `json:"value"`
	Meta        json.RawMessage `json:"meta,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// EventInput is the body of POST /api/events.
type EventInput struct {
	EventName   string         `json:"event_name" validate:"required,min=1,max=100"`
	Page        *string        `json:"page" validate:"omitempty,max=500"`
	UTMSource   *string        `json:"utm_source" validate:"omitempty,max=200"`
	UTMMedium   *string        `json:"utm_medium" validate:"omitempty,max=200"`
	UTMCampaign *string        `json:"utm_campaign" validate:"omitempty,max=200"`
	ProductID   *string        `json:"product_id" validate:"omitempty,uuid"`
	OrderID     *string        `json:"order_id" validate:"omitempty,uuid"`
	Value       *float64       `json:"value"`
	Meta        map[string]any `json:"meta"`
}

type Count struct {
	EventName string `json:"event_name"`
	Count     int    `json:"count"`
}

type ListFilter struct {
	EventName   *string
	UTMCampaign *string
}
