package graph

import (
	"context"

	"azbeauty-be/internal/apperror"
	"azbeauty-be/internal/auth"
	"azbeauty-be/internal/coupon"
	"azbeauty-be/internal/inventory"
	"azbeauty-be/internal/order"
	"azbeauty-be/internal/product"
	"azbeauty-be/internal/settings"
	"azbeauty-be/internal/user"
)

func (r *Resolver) upsertProfileIfMissing(ctx context.Context, args map[string]any) (any, error) {
	var in user.UpsertProfileInput
	if err := decodeArgs(args, &in); err != nil {
		return nil, err
	}
	profile, _, err := r.Users.UpsertIfMissing(ctx, in)
	return profile, err
}

func (r *Resolver) createOrUpdateProduct(ctx context.Context, args map[string]any) (any, error) {
	var in product.CreateInput
	if err := decodeArgs(args["input"], &in); err != nil {
		return nil, err
	}
	return r.Products.Create(ctx, in)
}

func (r *Resolver) updateProduct(ctx context.Context, args map[string]any) (any, error) {
	var in product.UpdateInput
	if err := decodeArgs(args["input"], &in); err != nil {
		return nil, err
	}
	return r.Products.Update(ctx, in)
}

func (r *Resolver) deleteProduct(ctx context.Context, args map[string]any) (any, error) {
	id, _ := args["id"].(string)
	if err := r.Products.Delete(ctx, id); err != nil {
		return nil, err
	}
	return true, nil
}

func (r *Resolver) adjustInventory(ctx context.Context, args map[string]any) (any, error) {
	var in inventory.AdjustInput
	if err := decodeArgs(args["input"], &in); err != nil {
		return nil, err
	}
	if _, err := r.Inventory.Adjust(ctx, in); err != nil {
		return nil, err
	}
	return true, nil
}

func (r *Resolver) createOrder(ctx context.Context, args map[string]any) (any, error) {
	raw, _ := args["input"].(map[string]any)

	// user_id is accepted for older clients but the order always belongs to the caller
	if uid, ok := raw["user_id"].(string); ok && uid != "" {
		if p := auth.PrincipalFrom(ctx); p != nil && p.UserID != uid {
			return nil, apperror.Forbidden("Forbidden")
		}
	}

	var in order.CreateInput
	if err := decodeArgs(raw, &in); err != nil {
		return nil, err
	}
	return r.Orders.CreateOrder(ctx, in)
}

func (r *Resolver) updateOrderStatus(ctx context.Context, args map[string]any) (any, error) {
	var in order.UpdateStatusInput
	if err := decodeArgs(args["input"], &in); err != nil {
		return nil, err
	}
	return r.Orders.UpdateStatus(ctx, in)
}

func (r *Resolver) createCoupon(ctx context.Context, args map[string]any) (any, error) {
	var in coupon.CreateInput
	if err := decodeArgs(args["input"], &in); err != nil {
		return nil, err
	}
	return r.Coupons.Create(ctx, in)
}

func (r *Resolver) updateCoupon(ctx context.Context, args map[string]any) (any, error) {
	var in coupon.UpdateInput
	if err := decodeArgs(args["input"], &in); err != nil {
		return nil, err
	}
	// an explicit null clears the limit
	if raw, ok := args["input"].(map[string]any); ok {
		if v, present := raw["min_order_amount"]; present && v == nil {
			in.ClearMinOrderAmount = true
		}
		if v, present := raw["max_uses"]; present && v == nil {
			in.ClearMaxUses = true
		}
	}
	return r.Coupons.Update(ctx, in)
}

func (r *Resolver) deleteCoupon(ctx context.Context, args map[string]any) (any, error) {
	id, _ := args["id"].(string)
	if err := r.Coupons.Delete(ctx, id); err != nil {
		return nil, err
	}
	return true, nil
}

func (r *Resolver) updateStoreSettings(ctx context.Context, args map[string]any) (any, error) {
	var in settings.UpdateInput
	if err := decodeArgs(args["input"], &in); err != nil {
		return nil, err
	}
	return r.Settings.Update(ctx, in)
}
