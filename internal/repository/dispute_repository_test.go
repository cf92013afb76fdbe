package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/cocreate-backend/internal/models"
	"github.com/ignatzorin/cocreate-backend/internal/pkg/apperror"
)

func TestDisputeRepository_ResolveSellerFavoredReleasesEscrow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDisputeRepository(db)

	disputeID, orderID := uuid.New(), uuid.New()
	buyer, seller, admin := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM disputes WHERE id = \\$1 FOR UPDATE").
		WillReturnRows(disputeRow(disputeID, orderID, buyer, "under_review"))
	mock.ExpectQuery("FROM orders WHERE id = \\$1 FOR UPDATE").
		WillReturnRows(orderRow(orderID, buyer, seller, "25.00", "disputed"))
	mock.ExpectQuery("UPDATE disputes").
		WillReturnRows(disputeRow(disputeID, orderID, buyer, "seller_favored"))
	mock.ExpectExec("UPDATE orders SET escrow_status").
		WithArgs(orderID, "released").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := repo.Resolve(context.Background(), models.DisputeResolution{
		DisputeID:      disputeID,
		ResolutionType: "seller_favored",
		ResolvedBy:     admin,
	})
	require.NoError(t, err)

	assert.True(t, res.Applied)
	assert.Equal(t, "seller_favored", res.Dispute.Status)
	assert.Equal(t, models.EscrowStatusReleased, res.Order.EscrowStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDisputeRepository_ResolveEscrowMapping(t *testing.T) {
	tests := []struct {
		resolution string
		escrow     string
		refund     decimal.NullDecimal
	}{
		{"buyer_favored", models.EscrowStatusRefunded, decimal.NullDecimal{}},
		{"seller_favored", models.EscrowStatusReleased, decimal.NullDecimal{}},
		{"partial_refund", models.EscrowStatusDisputed, decimal.NewNullDecimal(decimal.RequireFromString("10.00"))},
	}

	for _, tt := range tests {
		t.Run(tt.resolution, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewDisputeRepository(db)
			disputeID, orderID, buyer := uuid.New(), uuid.New(), uuid.New()

			mock.ExpectBegin()
			mock.ExpectQuery("FROM disputes WHERE id = \\$1 FOR UPDATE").
				WillReturnRows(disputeRow(disputeID, orderID, buyer, "open"))
			mock.ExpectQuery("FROM orders WHERE id = \\$1 FOR UPDATE").
				WillReturnRows(orderRow(orderID, buyer, uuid.New(), "25.00", "disputed"))
			mock.ExpectQuery("UPDATE disputes").
				WillReturnRows(disputeRow(disputeID, orderID, buyer, tt.resolution))
			mock.ExpectExec("UPDATE orders SET escrow_status").
				WithArgs(orderID, tt.escrow).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectCommit()

			res, err := repo.Resolve(context.Background(), models.DisputeResolution{
				DisputeID:      disputeID,
				ResolutionType: tt.resolution,
				RefundAmount:   tt.refund,
				ResolvedBy:     uuid.New(),
			})
			require.NoError(t, err)
			assert.Equal(t, tt.escrow, res.Order.EscrowStatus)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDisputeRepository_ResolveSameTypeIsIdempotent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDisputeRepository(db)

	disputeID, orderID, buyer := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM disputes WHERE id = \\$1 FOR UPDATE").
		WillReturnRows(disputeRow(disputeID, orderID, buyer, "seller_favored"))
	mock.ExpectQuery("FROM orders WHERE id = \\$1 FOR UPDATE").
		WillReturnRows(orderRow(orderID, buyer, uuid.New(), "25.00", "released"))
	mock.ExpectCommit()

	res, err := repo.Resolve(context.Background(), models.DisputeResolution{
		DisputeID:      disputeID,
		ResolutionType: "seller_favored",
		ResolvedBy:     uuid.New(),
	})
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.Equal(t, "released", res.Order.EscrowStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDisputeRepository_ResolveRejectsRegression(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDisputeRepository(db)

	disputeID, orderID, buyer := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM disputes WHERE id = \\$1 FOR UPDATE").
		WillReturnRows(disputeRow(disputeID, orderID, buyer, "closed"))
	mock.ExpectQuery("FROM orders WHERE id = \\$1 FOR UPDATE").
		WillReturnRows(orderRow(orderID, buyer, uuid.New(), "25.00", "refunded"))
	mock.ExpectRollback()

	_, err := repo.Resolve(context.Background(), models.DisputeResolution{
		DisputeID:      disputeID,
		ResolutionType: "buyer_favored",
		ResolvedBy:     uuid.New(),
	})
	assert.ErrorIs(t, err, ErrInvalidDisputeTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDisputeRepository_ResolvePartialRefundAboveTotal(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDisputeRepository(db)

	disputeID, orderID, buyer := uuid.New(), uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM disputes WHERE id = \\$1 FOR UPDATE").
		WillReturnRows(disputeRow(disputeID, orderID, buyer, "open"))
	mock.ExpectQuery("FROM orders WHERE id = \\$1 FOR UPDATE").
		WillReturnRows(orderRow(orderID, buyer, uuid.New(), "25.00", "disputed"))
	mock.ExpectRollback()

	_, err := repo.Resolve(context.Background(), models.DisputeResolution{
		DisputeID:      disputeID,
		ResolutionType: "partial_refund",
		RefundAmount:   decimal.NewNullDecimal(decimal.RequireFromString("30.00")),
		ResolvedBy:     uuid.New(),
	})
	assert.True(t, apperror.IsValidation(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDisputeRepository_ResolveRejectsNonResolutionType(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDisputeRepository(db)

	_, err := repo.Resolve(context.Background(), models.DisputeResolution{
		DisputeID:      uuid.New(),
		ResolutionType: "closed",
	})
	assert.True(t, apperror.IsValidation(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDisputeRepository_CreateMarksEscrowDisputed(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDisputeRepository(db)

	orderID, buyer := uuid.New(), uuid.New()
	disputeID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM orders WHERE id = \\$1 FOR UPDATE").
		WillReturnRows(orderRow(orderID, buyer, uuid.New(), "25.00", "held"))
	mock.ExpectQuery("INSERT INTO disputes").
		WillReturnRows(sqlmock.NewRows([]string{"id", "buyer_evidence", "seller_evidence", "resolution_notes", "created_at", "updated_at"}).
			AddRow(disputeID.String(), "", "", "", time.Now(), time.Now()))
	mock.ExpectExec("UPDATE orders SET escrow_status").
		WithArgs(orderID, "disputed").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	d := &models.Dispute{OrderID: orderID, RaisedBy: buyer, Reason: "damaged"}
	require.NoError(t, repo.Create(context.Background(), d))
	assert.Equal(t, disputeID, d.ID)
	assert.Equal(t, models.DisputeStatusOpen, d.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDisputeRepository_CreateRequiresHeldEscrow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDisputeRepository(db)

	orderID, buyer := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM orders WHERE id = \\$1 FOR UPDATE").
		WillReturnRows(orderRow(orderID, buyer, uuid.New(), "25.00", "released"))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Dispute{OrderID: orderID, RaisedBy: buyer, Reason: "damaged"})
	assert.ErrorIs(t, err, ErrEscrowNotHeld)
	assert.NoError(t, mock.ExpectationsWereMet())
}
