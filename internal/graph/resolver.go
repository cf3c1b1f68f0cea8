package graph

import (
	"context"

	"azbeauty-be/internal/audit"
	"azbeauty-be/internal/category"
	"azbeauty-be/internal/coupon"
	"azbeauty-be/internal/dashboard"
	"azbeauty-be/internal/inventory"
	"azbeauty-be/internal/marketing"
	"azbeauty-be/internal/order"
	"azbeauty-be/internal/product"
	"azbeauty-be/internal/settings"
	"azbeauty-be/internal/user"
)

// Resolver holds the services root fields delegate to.
type Resolver struct {
	Users     user.Service
	Products  product.Service
	Catalog   category.Service
	Inventory inventory.Service
	Orders    order.Service
	Coupons   coupon.Service
	Marketing marketing.Service
	Settings  settings.Service
	Audit     audit.Service
	Dashboard dashboard.Service
}

// fieldResolver resolves one root field from its coerced arguments.
type fieldResolver func(ctx context.Context, args map[string]any) (any, error)

func (r *Resolver) queryFields() map[string]fieldResolver {
	return map[string]fieldResolver{
		"me":                        r.me,
		"products":                  r.products,
		"productBySlug":             r.productBySlug,
		"categories":                r.categories,
		"brands":                    r.brands,
		"previewCoupon":             r.previewCoupon,
		"storeSettings":             r.storeSettings,
		"myOrders":                  r.myOrders,
		"adminProducts":             r.adminProducts,
		"adminProduct":              r.adminProduct,
		"adminProductsTotal":        r.adminProductsTotal,
		"adminInventoryMovements":   r.adminInventoryMovements,
		"adminOrders":               r.adminOrders,
		"adminOrdersTotal":          r.adminOrdersTotal,
		"adminOrder":                r.adminOrder,
		"adminCustomers":            r.adminCustomers,
		"adminCustomersTotal":       r.adminCustomersTotal,
		"dashboardStats":            r.dashboardStats,
		"marketingEventCounts":      r.marketingEventCounts,
		"adminMarketingEvents":      r.adminMarketingEvents,
		"adminMarketingEventsTotal": r.adminMarketingEventsTotal,
		"adminCoupons":              r.adminCoupons,
		"adminCouponsTotal":         r.adminCouponsTotal,
		"adminAuditLogs":            r.adminAuditLogs,
		"adminAuditLogsTotal":       r.adminAuditLogsTotal,
	}
}

func (r *Resolver) mutationFields() map[string]fieldResolver {
	return map[string]fieldResolver{
		"upsertProfileIfMissing": r.upsertProfileIfMissing,
		"createOrUpdateProduct":  r.createOrUpdateProduct,
		"updateProduct":          r.updateProduct,
		"deleteProduct":          r.deleteProduct,
		"adjustInventory":        r.adjustInventory,
		"createOrder":            r.createOrder,
		"updateOrderStatus":      r.updateOrderStatus,
		"createCoupon":           r.createCoupon,
		"updateCoupon":           r.updateCoupon,
		"deleteCoupon":           r.deleteCoupon,
		"updateStoreSettings":    r.updateStoreSettings,
	}
}
