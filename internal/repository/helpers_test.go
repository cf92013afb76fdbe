package repository

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

var orderCols = []string{
	"id", "buyer_id", "seller_id", "project_id", "total_amount", "tax_amount", "delivery_method",
	"delivery_status", "escrow_status", "created_at", "updated_at",
}

func orderRow(id, buyer, seller uuid.UUID, total, escrow string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(orderCols).
		AddRow(id.String(), buyer.String(), seller.String(), nil, total, "0.00", "pickup", "pending", escrow, now, now)
}

var disputeCols = []string{
	"id", "order_id", "raised_by", "reason", "description", "buyer_evidence", "seller_evidence", "status",
	"resolution_type", "refund_amount", "resolution_notes", "resolved_by", "resolved_at", "created_at", "updated_at",
}

func disputeRow(id, orderID, raisedBy uuid.UUID, status string) *sqlmock.Rows {
	now := time.Now()
	var resolution interface{}
	if status != "open" && status != "under_review" {
		resolution = status
	}
	return sqlmock.NewRows(disputeCols).
		AddRow(id.String(), orderID.String(), raisedBy.String(), "damaged", "", "", "", status, resolution, nil, "", nil, nil, now, now)
}

var productCols = []string{
	"id", "seller_id", "category_id", "title", "description", "condition", "quantity", "unit_of_measure",
	"price", "market_price", "weight_per_unit", "dimensions", "location_lat", "location_long", "location_name",
	"status", "views", "saves", "created_at", "updated_at",
}

func addProductRow(rows *sqlmock.Rows, id, seller uuid.UUID, qty, price string) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(id.String(), seller.String(), nil, "Oak parquet", "", "new", qty, "sqm",
		price, nil, nil, nil, 52.36, 4.90, nil, "active", 0, 0, now, now)
}
