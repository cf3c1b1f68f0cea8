package order

import (
	"errors"
	"testing"
	"time"

	"azbeauty-be/internal/audit"
	"azbeauty-be/internal/coupon"
	"azbeauty-be/internal/notification"
	"azbeauty-be/internal/user"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var couponCols = []string{"id", "code", "type", "value", "min_order_amount", "max_uses", "used_count", "valid_from", "valid_until", "created_at"}

// Checkout against the real coupon and order repositories on one mocked database.
func TestCheckout_Save10AgainstDatabase(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	profiles := new(MockProfiles)
	profiles.On("GetByID", mock.Anything, userID).Return(&user.Profile{Email: "bat@example.com"}, nil)

	svc := NewService(
		NewRepository(db),
		coupon.NewService(coupon.NewRepository(db), audit.Nop{}),
		profiles,
		notification.Nop{},
		audit.Nop{},
		nil,
	)

	now := time.Now()
	dbMock.ExpectQuery(`FROM coupons WHERE code = \$1`).
		WithArgs("SAVE10").
		WillReturnRows(sqlmock.NewRows(couponCols).
			AddRow(couponID, "SAVE10", "percent", 10, 0, nil, 4, nil, nil, now))
	dbMock.ExpectBegin()
	dbMock.ExpectQuery(`INSERT INTO orders`).
		WithArgs(userID, int64(45000), int64(5000), int64(5000), int64(50000),
			"pending", "qpay", "pending", sqlmock.AnyArg(), sqlmock.AnyArg(), couponID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(orderID, now, now))
	dbMock.ExpectQuery(`INSERT INTO order_items`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("item-1", now))
	dbMock.ExpectExec(`UPDATE coupons SET used_count = used_count \+ 1`).
		WithArgs(couponID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	dbMock.ExpectCommit()

	input := validInput()
	input.Items = []ItemInput{{ProductID: productID, ProductName: "Serum", Quantity: 2, Price: 25000}}
	input.Subtotal = 50000
	code := "save10"
	input.CouponCode = &code

	o, err := svc.CreateOrder(customerCtx(), input)
	require.NoError(t, err)
	assert.Equal(t, int64(45000)+input.ShippingCost, o.Total)
	assert.NoError(t, dbMock.ExpectationsWereMet(), "coupon used_count must be incremented exactly once")
}

func TestCheckout_ItemFailureLeavesNoOrder(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc := NewService(NewRepository(db), new(MockCoupons), new(MockProfiles), notification.Nop{}, audit.Nop{}, nil)

	now := time.Now()
	dbMock.ExpectBegin()
	dbMock.ExpectQuery(`INSERT INTO orders`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(orderID, now, now))
	dbMock.ExpectQuery(`INSERT INTO order_items`).
		WillReturnError(errors.New("violates foreign key constraint \"order_items_product_id_fkey\""))
	dbMock.ExpectRollback()

	_, err = svc.CreateOrder(customerCtx(), validInput())
	assert.Error(t, err)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}
