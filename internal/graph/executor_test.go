package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/99designs/gqlgen/graphql/errcode"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/ast"

	"azbeauty-be/internal/apperror"
	"azbeauty-be/internal/auth"
	"azbeauty-be/internal/coupon"
	"azbeauty-be/internal/metrics"
	"azbeauty-be/internal/order"
	"azbeauty-be/internal/product"
	"azbeauty-be/internal/user"
)

// --- Mocks ---
// Each mock embeds the service interface so only the methods a test needs are stubbed.

type MockProductService struct {
	mock.Mock
	product.Service
}

func (m *MockProductService) Products(ctx context.Context, opts product.ListOptions) ([]*product.Product, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*product.Product), args.Error(1)
}

func (m *MockProductService) Create(ctx context.Context, input product.CreateInput) (*product.Product, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*product.Product), args.Error(1)
}

type MockOrderService struct {
	mock.Mock
	order.Service
}

func (m *MockOrderService) MyOrders(ctx context.Context, limit, offset int) ([]*order.Order, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderService) CreateOrder(ctx context.Context, input order.CreateInput) (*order.Order, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

type MockUserService struct {
	mock.Mock
	user.Service
}

func (m *MockUserService) Me(ctx context.Context) (*user.Profile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.Profile), args.Error(1)
}

type MockCouponService struct {
	mock.Mock
	coupon.Service
}

func (m *MockCouponService) Update(ctx context.Context, input coupon.UpdateInput) (*coupon.Coupon, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*coupon.Coupon), args.Error(1)
}

// --- Helpers ---

const userID = "5b0f0c2e-8f43-4a3e-9d0c-2b6f3f6a9c11"

var sampleProduct = &product.Product{
	ID:            "c7a1f3d2-0000-4000-8000-000000000001",
	Name:          "Snail Mucin Essence",
	Slug:          "snail-mucin-essence",
	Brand:         "COSRX",
	Category:      "skincare",
	Price:         45000,
	StockQuantity: 3,
	InStock:       true,
	CreatedAt:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	UpdatedAt:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
}

func newTestServer(r *Resolver) http.Handler {
	return NewServer(NewSchema(r, nil), true)
}

func asRole(role auth.Role) context.Context {
	return auth.WithPrincipal(context.Background(), &auth.Principal{UserID: userID, Email: "a@b.mn", Role: role})
}

func post(t *testing.T, h http.Handler, ctx context.Context, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/graphql", strings.NewReader(body)).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return rec, out
}

func gqlBody(t *testing.T, query string, vars map[string]any) string {
	t.Helper()
	b, err := json.Marshal(map[string]any{"query": query, "variables": vars})
	require.NoError(t, err)
	return string(b)
}

func firstErrorCode(t *testing.T, out map[string]any) string {
	t.Helper()
	errs, ok := out["errors"].([]any)
	require.True(t, ok, "expected errors in %v", out)
	require.NotEmpty(t, errs)
	ext := errs[0].(map[string]any)["extensions"].(map[string]any)
	return ext["code"].(string)
}

// --- Tests ---

func TestPermissions_CoverEveryRootField(t *testing.T) {
	r := &Resolver{}
	resolvers := map[string]map[string]fieldResolver{
		"Query":    r.queryFields(),
		"Mutation": r.mutationFields(),
	}

	for _, root := range []*ast.Definition{Schema.Query, Schema.Mutation} {
		for _, f := range root.Fields {
			if strings.HasPrefix(f.Name, "__") {
				continue
			}
			_, ok := Permissions[f.Name]
			assert.True(t, ok, "%s.%s has no permission entry", root.Name, f.Name)
			_, ok = resolvers[root.Name][f.Name]
			assert.True(t, ok, "%s.%s has no resolver", root.Name, f.Name)
		}
	}

	for name := range Permissions {
		defined := Schema.Query.Fields.ForName(name) != nil || Schema.Mutation.Fields.ForName(name) != nil
		assert.True(t, defined, "permission entry %s matches no root field", name)
	}
}

func TestExecute_ProjectsSelectionInRequestOrder(t *testing.T) {
	products := new(MockProductService)
	products.On("Products", mock.Anything, product.ListOptions{
		Filter: product.Filter{Category: ptr("skincare")},
		Sort:   product.SortPriceAsc,
		Limit:  5,
	}).Return([]*product.Product{sampleProduct}, nil)

	h := newTestServer(&Resolver{Products: products})
	query := `
		query List($cat: String) {
			items: products(filter: {category: $cat}, sort: "price_asc", limit: 5) {
				__typename
				slug
				...Pricing
				name
			}
		}
		fragment Pricing on Product { price in_stock }`

	rec, _ := post(t, h, context.Background(), gqlBody(t, query, map[string]any{"cat": "skincare"}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"data":{"items":[{"__typename":"Product","slug":"snail-mucin-essence","price":45000,"in_stock":true,"name":"Snail Mucin Essence"}]}}`,
		rec.Body.String(),
	)
	body := rec.Body.String()
	assert.Less(t, strings.Index(body, `"slug"`), strings.Index(body, `"price"`))
	assert.Less(t, strings.Index(body, `"in_stock"`), strings.Index(body, `"name"`))
	products.AssertExpectations(t)
}

func TestExecute_SkipAndInclude(t *testing.T) {
	products := new(MockProductService)
	products.On("Products", mock.Anything, mock.Anything).Return([]*product.Product{sampleProduct}, nil)

	h := newTestServer(&Resolver{Products: products})
	query := `query ($full: Boolean!) { products { slug price @include(if: $full) brand @skip(if: true) } }`

	rec, _ := post(t, h, context.Background(), gqlBody(t, query, map[string]any{"full": false}))

	assert.JSONEq(t, `{"data":{"products":[{"slug":"snail-mucin-essence"}]}}`, rec.Body.String())
}

func TestExecute_AuthenticatedFieldWithoutPrincipal(t *testing.T) {
	orders := new(MockOrderService)
	h := newTestServer(&Resolver{Orders: orders})

	rec, out := post(t, h, context.Background(), gqlBody(t, `{ myOrders { id } }`, nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, string(apperror.CodeUnauthorized), firstErrorCode(t, out))
	assert.Nil(t, out["data"], "myOrders is non-null so the failure nulls data")
	orders.AssertNotCalled(t, "MyOrders", mock.Anything, mock.Anything, mock.Anything)
}

func TestExecute_SupportCannotManageCatalog(t *testing.T) {
	products := new(MockProductService)
	h := newTestServer(&Resolver{Products: products})

	query := `mutation { createOrUpdateProduct(input: {name: "Toner", price: 1000}) { id } }`
	_, out := post(t, h, asRole(auth.RoleSupport), gqlBody(t, query, nil))

	assert.Equal(t, string(apperror.CodeForbidden), firstErrorCode(t, out))
	products.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestExecute_ManagerCreatesProductFromVariables(t *testing.T) {
	products := new(MockProductService)
	products.On("Create", mock.Anything, mock.MatchedBy(func(in product.CreateInput) bool {
		return in.Name == "Toner" && in.Price == 12500 && in.StockQuantity == 4 &&
			assert.ObjectsAreEqual([]string{"dry", "oily"}, in.SkinType)
	})).Return(sampleProduct, nil)

	h := newTestServer(&Resolver{Products: products})
	query := `mutation Create($input: CreateProductInput!) { createOrUpdateProduct(input: $input) { id slug } }`
	vars := map[string]any{"input": map[string]any{
		"name":           "Toner",
		"price":          12500,
		"stock_quantity": 4,
		"skin_type":      []string{"dry", "oily"},
	}}

	rec, _ := post(t, h, asRole(auth.RoleManager), gqlBody(t, query, vars))

	assert.JSONEq(t, `{"data":{"createOrUpdateProduct":{"id":"c7a1f3d2-0000-4000-8000-000000000001","slug":"snail-mucin-essence"}}}`, rec.Body.String())
	products.AssertExpectations(t)
}

func TestExecute_CreateOrderForAnotherUserIsForbidden(t *testing.T) {
	orders := new(MockOrderService)
	h := newTestServer(&Resolver{Orders: orders})

	query := `mutation ($input: CreateOrderInput!) { createOrder(input: $input) { id } }`
	vars := map[string]any{"input": map[string]any{
		"user_id":          "00000000-0000-4000-8000-000000000000",
		"subtotal":         1000,
		"shipping_cost":    0,
		"shipping_address": map[string]any{"city": "UB"},
		"customer_info":    map[string]any{"name": "B"},
		"items":            []any{},
	}}
	_, out := post(t, h, asRole(auth.RoleUser), gqlBody(t, query, vars))

	assert.Equal(t, string(apperror.CodeForbidden), firstErrorCode(t, out))
	orders.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func TestExecute_FieldErrorCarriesCodeAndIssues(t *testing.T) {
	orders := new(MockOrderService)
	orders.On("CreateOrder", mock.Anything, mock.Anything).Return(nil,
		apperror.Validation("subtotal does not match items").
			WithDetails(map[string]string{"subtotal": "must equal the sum of price * quantity"}))

	h := newTestServer(&Resolver{Orders: orders})
	query := `mutation ($input: CreateOrderInput!) { createOrder(input: $input) { id } }`
	vars := map[string]any{"input": map[string]any{
		"user_id":          userID,
		"subtotal":         999,
		"shipping_cost":    0,
		"shipping_address": map[string]any{"city": "UB"},
		"customer_info":    map[string]any{"name": "B"},
		"items":            []any{map[string]any{"product_id": sampleProduct.ID, "product_name": "x", "quantity": 1, "price": 1000}},
	}}
	rec, out := post(t, h, asRole(auth.RoleUser), gqlBody(t, query, vars))

	assert.Equal(t, http.StatusOK, rec.Code)
	errs := out["errors"].([]any)
	first := errs[0].(map[string]any)
	assert.Equal(t, "subtotal does not match items", first["message"])
	assert.Equal(t, []any{"createOrder"}, first["path"])
	ext := first["extensions"].(map[string]any)
	assert.Equal(t, "VALIDATION_ERROR", ext["code"])
	assert.Equal(t, map[string]any{"subtotal": "must equal the sum of price * quantity"}, ext["issues"])
	assert.Nil(t, out["data"])
}

func TestExecute_NullableFieldErrorKeepsSiblings(t *testing.T) {
	users := new(MockUserService)
	users.On("Me", mock.Anything).Return(nil, apperror.NotFound("Profile not found"))
	products := new(MockProductService)
	products.On("Products", mock.Anything, mock.Anything).Return([]*product.Product{sampleProduct}, nil)

	h := newTestServer(&Resolver{Users: users, Products: products})
	rec, out := post(t, h, asRole(auth.RoleUser), gqlBody(t, `{ me { id } products { slug } }`, nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "NOT_FOUND", firstErrorCode(t, out))
	data := out["data"].(map[string]any)
	assert.Nil(t, data["me"])
	assert.Equal(t, []any{map[string]any{"slug": "snail-mucin-essence"}}, data["products"])
}

func TestExecute_ResolverPanicIsInternalError(t *testing.T) {
	users := new(MockUserService)
	users.On("Me", mock.Anything).Run(func(mock.Arguments) { panic("boom") })

	h := newTestServer(&Resolver{Users: users})
	rec, out := post(t, h, asRole(auth.RoleUser), gqlBody(t, `{ me { id } }`, nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", firstErrorCode(t, out))
	assert.Nil(t, out["data"].(map[string]any)["me"])
}

func TestExecute_InternalErrorsAreMasked(t *testing.T) {
	users := new(MockUserService)
	users.On("Me", mock.Anything).Return(nil, assert.AnError)

	h := newTestServer(&Resolver{Users: users})
	_, out := post(t, h, asRole(auth.RoleUser), gqlBody(t, `{ me { id } }`, nil))

	first := out["errors"].([]any)[0].(map[string]any)
	assert.Equal(t, "internal server error", first["message"])
	assert.Equal(t, "INTERNAL_ERROR", first["extensions"].(map[string]any)["code"])
}

func TestExecute_RequestErrors(t *testing.T) {
	h := newTestServer(&Resolver{})

	tests := []struct {
		name string
		body string
		code string
	}{
		{"parse error", gqlBody(t, `{ products { `, nil), errcode.ParseFailed},
		{"unknown field", gqlBody(t, `{ products { nope } }`, nil), errcode.ValidationFailed},
		{"missing variable", gqlBody(t, `query ($s: String!) { productBySlug(slug: $s) { id } }`, nil), errcode.ValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, out := post(t, h, context.Background(), tt.body)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Equal(t, tt.code, firstErrorCode(t, out))
			assert.Nil(t, out["data"])
		})
	}
}

func TestServer_InvalidJSON(t *testing.T) {
	h := newTestServer(&Resolver{})
	req := httptest.NewRequest(http.MethodPost, "/api/graphql", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "errors")
}

func TestServer_BodyLimit(t *testing.T) {
	h := newTestServer(&Resolver{})
	query := `{ products { slug } }` + strings.Repeat(" ", maxBodyBytes)
	req := httptest.NewRequest(http.MethodPost, "/api/graphql", strings.NewReader(gqlBody(t, query, nil)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExecute_Introspection(t *testing.T) {
	h := newTestServer(&Resolver{})
	query := `{
		__schema { queryType { name } mutationType { name } }
		__type(name: "CouponPreview") {
			kind
			fields { name type { kind name ofType { name } } }
		}
	}`

	rec, out := post(t, h, context.Background(), gqlBody(t, query, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	data := out["data"].(map[string]any)
	schema := data["__schema"].(map[string]any)
	assert.Equal(t, "Query", schema["queryType"].(map[string]any)["name"])
	assert.Equal(t, "Mutation", schema["mutationType"].(map[string]any)["name"])

	typ := data["__type"].(map[string]any)
	assert.Equal(t, "OBJECT", typ["kind"])
	fields := typ["fields"].([]any)
	require.Len(t, fields, 4)
	valid := fields[0].(map[string]any)
	assert.Equal(t, "valid", valid["name"])
	assert.Equal(t, map[string]any{"kind": "NON_NULL", "name": nil, "ofType": map[string]any{"name": "Boolean"}}, valid["type"])
}

func TestExecute_UpdateCouponExplicitNullClearsLimit(t *testing.T) {
	const couponID = "0f8fad5b-d9cb-469f-a165-70867728950e"
	coupons := new(MockCouponService)
	coupons.On("Update", mock.Anything, mock.MatchedBy(func(in coupon.UpdateInput) bool {
		return in.ID == couponID && in.ClearMaxUses && in.MaxUses == nil && !in.ClearMinOrderAmount
	})).Return(&coupon.Coupon{ID: couponID, Code: "SAVE10"}, nil)

	h := newTestServer(&Resolver{Coupons: coupons})
	query := `mutation ($input: UpdateCouponInput!) { updateCoupon(input: $input) { id max_uses } }`
	vars := map[string]any{"input": map[string]any{"id": couponID, "max_uses": nil}}

	rec, _ := post(t, h, asRole(auth.RoleManager), gqlBody(t, query, vars))

	assert.JSONEq(t, `{"data":{"updateCoupon":{"id":"0f8fad5b-d9cb-469f-a165-70867728950e","max_uses":null}}}`, rec.Body.String())
	coupons.AssertExpectations(t)
}

func TestExecute_IntrospectionDisabled(t *testing.T) {
	h := NewServer(NewSchema(&Resolver{}, nil), false)

	_, out := post(t, h, context.Background(), gqlBody(t, `{ __schema { queryType { name } } }`, nil))

	assert.Equal(t, "FORBIDDEN", firstErrorCode(t, out))
}

func TestPresentError_MasksUnclassifiedErrors(t *testing.T) {
	gqlErr := presentError(context.Background(), errors.New("plain failure"))
	assert.Equal(t, "internal server error", gqlErr.Message)
	assert.Equal(t, "INTERNAL_ERROR", gqlErr.Extensions["code"])
}

func TestExecute_RecordsFieldMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := NewServer(NewSchema(&Resolver{}, metrics.New(reg)), true)

	post(t, h, context.Background(), gqlBody(t, `{ myOrders { id } }`, nil))

	n, err := testutil.GatherAndCount(reg, "azbeauty_graphql_fields_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func ptr[T any](v T) *T { return &v }
