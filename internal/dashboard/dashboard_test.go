package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"azbeauty-be/internal/apperror"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, now time.Time) (Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &service{repo: NewRepository(db), now: func() time.Time { return now }}, mock
}

func TestService_Stats(t *testing.T) {
	now := time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)
	weekAgo := now.Add(-7 * 24 * time.Hour)

	t.Run("AllTime", func(t *testing.T) {
		svc, mock := newTestService(t, now)

		mock.ExpectQuery(`SELECT COALESCE\(SUM\(total\) FILTER \(WHERE payment_status = 'paid' AND`).
			WithArgs(nil, weekAgo).
			WillReturnRows(sqlmock.NewRows([]string{"revenue", "orders", "pending", "recent"}).
				AddRow(int64(1250000), 40, 3, 9))
		mock.ExpectQuery(`SELECT COUNT\(\*\), COUNT\(\*\) FILTER \(WHERE NOT in_stock\) FROM products`).
			WillReturnRows(sqlmock.NewRows([]string{"total", "oos"}).AddRow(120, 7))

		stats, err := svc.Stats(context.Background(), "")
		require.NoError(t, err)
		assert.Equal(t, &Stats{
			TotalRevenue:      1250000,
			TotalOrders:       40,
			PendingOrders:     3,
			TotalProducts:     120,
			OutOfStock:        7,
			RecentOrdersCount: 9,
		}, stats)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("RangeBoundsOrders", func(t *testing.T) {
		svc, mock := newTestService(t, now)
		dayAgo := now.Add(-24 * time.Hour)

		mock.ExpectQuery(`COUNT\(\*\) FILTER \(WHERE created_at >= \$2\) FROM orders`).
			WithArgs(dayAgo, weekAgo).
			WillReturnRows(sqlmock.NewRows([]string{"revenue", "orders", "pending", "recent"}).AddRow(0, 0, 0, 0))
		mock.ExpectQuery(`FROM products`).
			WillReturnRows(sqlmock.NewRows([]string{"total", "oos"}).AddRow(1, 1))

		stats, err := svc.Stats(context.Background(), "24h")
		require.NoError(t, err)
		assert.Zero(t, stats.TotalRevenue)
		assert.Equal(t, 1, stats.OutOfStock)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("BadRange", func(t *testing.T) {
		svc, _ := newTestService(t, now)
		_, err := svc.Stats(context.Background(), "century")
		assert.Equal(t, apperror.CodeValidation, apperror.CodeOf(err))
	})

	t.Run("QueryError", func(t *testing.T) {
		svc, mock := newTestService(t, now)
		mock.ExpectQuery(`FROM orders`).WillReturnError(errors.New("conn refused"))

		_, err := svc.Stats(context.Background(), "all")
		assert.Error(t, err)
	})
}
