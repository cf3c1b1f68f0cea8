package graph

import "azbeauty-be/internal/auth"

// Permissions is enforced for every root field before its resolver runs.
// A root field missing from the table is denied.
var Permissions = map[string]auth.Policy{
	// storefront
	"products":               auth.Public,
	"productBySlug":          auth.Public,
	"categories":             auth.Public,
	"brands":                 auth.Public,
	"storeSettings":          auth.Public,
	"me":                     auth.Public,
	"previewCoupon":          auth.Public,
	"myOrders":               auth.Authenticated,
	"createOrder":            auth.Authenticated,
	"upsertProfileIfMissing": auth.Authenticated,

	// orders and customers, support included
	"adminOrders":         auth.Staff,
	"adminOrdersTotal":    auth.Staff,
	"adminOrder":          auth.Staff,
	"updateOrderStatus":   auth.Staff,
	"adminCustomers":      auth.Staff,
	"adminCustomersTotal": auth.Staff,
	"dashboardStats":      auth.Staff,

	// catalog, pricing and marketing
	"adminProducts":             auth.CatalogManagers,
	"adminProduct":              auth.CatalogManagers,
	"adminProductsTotal":        auth.CatalogManagers,
	"createOrUpdateProduct":     auth.CatalogManagers,
	"updateProduct":             auth.CatalogManagers,
	"deleteProduct":             auth.CatalogManagers,
	"adjustInventory":           auth.CatalogManagers,
	"adminInventoryMovements":   auth.CatalogManagers,
	"adminCoupons":              auth.CatalogManagers,
	"adminCouponsTotal":         auth.CatalogManagers,
	"createCoupon":              auth.CatalogManagers,
	"updateCoupon":              auth.CatalogManagers,
	"deleteCoupon":              auth.CatalogManagers,
	"updateStoreSettings":       auth.CatalogManagers,
	"marketingEventCounts":      auth.CatalogManagers,
	"adminMarketingEvents":      auth.CatalogManagers,
	"adminMarketingEventsTotal": auth.CatalogManagers,

	"adminAuditLogs":      auth.OwnerAdmin,
	"adminAuditLogsTotal": auth.OwnerAdmin,
}
