package graph

import (
	"context"

	"azbeauty-be/internal/marketing"
	"azbeauty-be/internal/product"
)

func (r *Resolver) me(ctx context.Context, _ map[string]any) (any, error) {
	return r.Users.Me(ctx)
}

func (r *Resolver) products(ctx context.Context, args map[string]any) (any, error) {
	var a struct {
		Filter *product.Filter `json:"filter"`
		Sort   *string         `json:"sort"`
		Limit  *int            `json:"limit"`
		Offset *int            `json:"offset"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	opts := product.ListOptions{Sort: product.Sort(deref(a.Sort))}
	if a.Filter != nil {
		opts.Filter = *a.Filter
	}
	if a.Limit != nil {
		opts.Limit = *a.Limit
	}
	if a.Offset != nil {
		opts.Offset = *a.Offset
	}
	return r.Products.Products(ctx, opts)
}

func (r *Resolver) productBySlug(ctx context.Context, args map[string]any) (any, error) {
	slug, _ := args["slug"].(string)
	return r.Products.ProductBySlug(ctx, slug)
}

func (r *Resolver) categories(ctx context.Context, _ map[string]any) (any, error) {
	return r.Catalog.GetCategories(ctx)
}

func (r *Resolver) brands(ctx context.Context, _ map[string]any) (any, error) {
	return r.Catalog.GetBrands(ctx)
}

func (r *Resolver) previewCoupon(ctx context.Context, args map[string]any) (any, error) {
	var a struct {
		Code     string `json:"code"`
		Subtotal int64  `json:"subtotal"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return r.Coupons.Preview(ctx, a.Code, a.Subtotal)
}

func (r *Resolver) storeSettings(ctx context.Context, _ map[string]any) (any, error) {
	return r.Settings.Get(ctx)
}

func (r *Resolver) myOrders(ctx context.Context, args map[string]any) (any, error) {
	var a struct {
		Paging *paging `json:"paging"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	limit, offset := a.Paging.values()
	return r.Orders.MyOrders(ctx, limit, offset)
}

func (r *Resolver) adminProducts(ctx context.Context, args map[string]any) (any, error) {
	var a struct {
		Paging *paging         `json:"paging"`
		Filter *product.Filter `json:"filter"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	limit, offset := a.Paging.values()
	var f product.Filter
	if a.Filter != nil {
		f = *a.Filter
	}
	return r.Products.AdminProducts(ctx, f, limit, offset)
}

func (r *Resolver) adminProduct(ctx context.Context, args map[string]any) (any, error) {
	id, _ := args["id"].(string)
	return r.Products.AdminProduct(ctx, id)
}

func (r *Resolver) adminProductsTotal(ctx context.Context, args map[string]any) (any, error) {
	var a struct {
		Filter *product.Filter `json:"filter"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	var f product.Filter
	if a.Filter != nil {
		f = *a.Filter
	}
	return r.Products.AdminProductsTotal(ctx, f)
}

func (r *Resolver) adminInventoryMovements(ctx context.Context, args map[string]any) (any, error) {
	var a struct {
		ProductID *string `json:"product_id"`
		Paging    *paging `json:"paging"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	limit, offset := a.Paging.values()
	return r.Inventory.Movements(ctx, deref(a.ProductID), limit, offset)
}

func (r *Resolver) adminOrders(ctx context.Context, args map[string]any) (any, error) {
	var a struct {
		Paging *paging `json:"paging"`
		Status *string `json:"status"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	limit, offset := a.Paging.values()
	return r.Orders.AdminOrders(ctx, deref(a.Status), limit, offset)
}

func (r *Resolver) adminOrdersTotal(ctx context.Context, args map[string]any) (any, error) {
	status, _ := args["status"].(string)
	return r.Orders.AdminOrdersTotal(ctx, status)
}

func (r *Resolver) adminOrder(ctx context.Context, args map[string]any) (any, error) {
	id, _ := args["id"].(string)
	return r.Orders.AdminOrder(ctx, id)
}

func (r *Resolver) adminCustomers(ctx context.Context, args map[string]any) (any, error) {
	var a struct {
		Paging *paging `json:"paging"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	limit, offset := a.Paging.values()
	return r.Users.Customers(ctx, limit, offset)
}

func (r *Resolver) adminCustomersTotal(ctx context.Context, _ map[string]any) (any, error) {
	return r.Users.CustomersTotal(ctx)
}

func (r *Resolver) dashboardStats(ctx context.Context, args map[string]any) (any, error) {
	rangeName, _ := args["range"].(string)
	return r.Dashboard.Stats(ctx, rangeName)
}

func (r *Resolver) marketingEventCounts(ctx context.Context, args map[string]any) (any, error) {
	rangeName, _ := args["range"].(string)
	return r.Marketing.EventCounts(ctx, rangeName)
}

type marketingFilterArgs struct {
	Paging      *paging `json:"paging"`
	EventName   *string `json:"event_name"`
	UTMCampaign *string `json:"utm_campaign"`
}

func (a marketingFilterArgs) filter() marketing.ListFilter {
	return marketing.ListFilter{EventName: a.EventName, UTMCampaign: a.UTMCampaign}
}

func (r *Resolver) adminMarketingEvents(ctx context.Context, args map[string]any) (any, error) {
	var a marketingFilterArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	limit, offset := a.Paging.values()
	return r.Marketing.AdminEvents(ctx, a.filter(), limit, offset)
}

func (r *Resolver) adminMarketingEventsTotal(ctx context.Context, args map[string]any) (any, error) {
	var a marketingFilterArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return r.Marketing.AdminEventsTotal(ctx, a.filter())
}

func (r *Resolver) adminCoupons(ctx context.Context, args map[string]any) (any, error) {
	var a struct {
		Paging *paging `json:"paging"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	limit, offset := a.Paging.values()
	return r.Coupons.List(ctx, limit, offset)
}

func (r *Resolver) adminCouponsTotal(ctx context.Context, _ map[string]any) (any, error) {
	return r.Coupons.Count(ctx)
}

func (r *Resolver) adminAuditLogs(ctx context.Context, args map[string]any) (any, error) {
	var a struct {
		Paging     *paging `json:"paging"`
		EntityType *string `json:"entity_type"`
	}
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	limit, offset := a.Paging.values()
	return r.Audit.List(ctx, deref(a.EntityType), limit, offset)
}

func (r *Resolver) adminAuditLogsTotal(ctx context.Context, args map[string]any) (any, error) {
	entityType, _ := args["entity_type"].(string)
	return r.Audit.Count(ctx, entityType)
}
