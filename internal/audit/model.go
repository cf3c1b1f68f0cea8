package audit

import (
	"encoding/json"
	"time"
)

// Entry is one row of the append-only audit log.
type Entry struct {
	ID         string          `json:"id"`
	UserID     *string         `json:"user_id"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   *string         `json:"entity_id"`
	Meta       json.RawMessage `json:"meta,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

const (
	ActionProductCreate    = "product.create"
	ActionProductUpdate    = "product.update"
	ActionProductDelete    = "product.delete"
	ActionInventoryAdjust  = "inventory.adjust"
	ActionOrderCreate      = "order.create"
	ActionOrderStatus      = "order.update_status"
	ActionCouponCreate     = "coupon.create"
	ActionCouponUpdate     = "coupon.update"
	ActionCouponDelete     = "coupon.delete"
	ActionSettingsUpdate   = "settings.update"
	ActionBootstrapOwner   = "profile.bootstrap_owner"
	ActionPaymentConfirmed = "payment.confirmed"
)
