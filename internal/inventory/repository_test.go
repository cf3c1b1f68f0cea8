package inventory

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const productID = "3d8f7a2e-4b6c-4f1e-9a7d-1c2b3e4f5a6b"

func TestRepository_Adjust(t *testing.T) {
	t.Run("clamps at zero and records the movement in one transaction", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`UPDATE products SET stock_quantity = GREATEST\(0, stock_quantity \+ \$1\), in_stock = \(stock_quantity \+ \$1\) > 0, updated_at = now\(\) WHERE id = \$2 RETURNING stock_quantity`).
			WithArgs(-1000, productID).
			WillReturnRows(sqlmock.NewRows([]string{"stock_quantity"}).AddRow(0))
		mock.ExpectQuery(`INSERT INTO inventory_movements`).
			WithArgs(productID, -1000, "damaged", nil).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("m-1", time.Now()))
		mock.ExpectCommit()

		m := &Movement{ProductID: productID, QuantityDelta: -1000, Reason: "damaged"}
		qty, err := repo.Adjust(context.Background(), m)
		require.NoError(t, err)
		assert.Equal(t, 0, qty)
		assert.Equal(t, "m-1", m.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown product writes nothing", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`UPDATE products`).
			WithArgs(5, productID).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		_, err = repo.Adjust(context.Background(), &Movement{ProductID: productID, QuantityDelta: 5, Reason: "restock"})
		assert.ErrorIs(t, err, ErrProductNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("movement failure rolls back the stock change", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`UPDATE products`).
			WillReturnRows(sqlmock.NewRows([]string{"stock_quantity"}).AddRow(15))
		mock.ExpectQuery(`INSERT INTO inventory_movements`).
			WillReturnError(errors.New("insert failed"))
		mock.ExpectRollback()

		_, err = repo.Adjust(context.Background(), &Movement{ProductID: productID, QuantityDelta: 10, Reason: "restock"})
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepository_ListMovements(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewRepository(db)
	ref := "9b2e1c3d-0000-4000-8000-000000000001"

	mock.ExpectQuery(`FROM inventory_movements WHERE product_id = \$1 ORDER BY created_at DESC LIMIT \$2 OFFSET \$3`).
		WithArgs(productID, 20, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "quantity_delta", "reason", "reference_id", "created_at"}).
			AddRow("m-2", productID, -2, "order", ref, time.Now()).
			AddRow("m-1", productID, 10, "initial stock", nil, time.Now()))

	list, err := repo.ListMovements(context.Background(), productID, 20, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, ref, *list[0].ReferenceID)
	assert.Nil(t, list[1].ReferenceID)

	mock.ExpectQuery(`FROM inventory_movements ORDER BY created_at DESC LIMIT \$1 OFFSET \$2`).
		WithArgs(50, 50).
		WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "quantity_delta", "reason", "reference_id", "created_at"}))
	list, err = repo.ListMovements(context.Background(), "", 50, 50)
	require.NoError(t, err)
	assert.Empty(t, list)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM inventory_movements WHERE product_id = \$1`).
		WithArgs(productID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	n, err := repo.CountMovements(context.Background(), productID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.NoError(t, mock.ExpectationsWereMet())
}
