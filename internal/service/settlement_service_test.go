package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhokang/car-sharing-reservation/internal/apperrors"
	"github.com/minhokang/car-sharing-reservation/internal/model"
)

func newMockSettlementService(t *testing.T) (*SettlementService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	s := NewSettlementService(db)
	s.Now = testClock()
	return s, mock
}

// Settlement charges the distance fee exactly once: the first call
// writes the post-use row and finishes the reservation, the second is
// rejected by the existing row before any debit can run.
func TestSettleAfterUseChargesOnce(t *testing.T) {
	s, mock := newMockSettlementService(t)

	from := fixedNow.Add(-3 * time.Hour)
	to := fixedNow.Add(-time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM reservations WHERE id = \\? FOR UPDATE").
		WillReturnRows(reservationRows(from, to, false))
	mock.ExpectQuery("SELECT id FROM payments_after_use").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("JOIN car_prices").WillReturnRows(carRatesRows())
	// 150km: 50x110 + 70x170 + 30x230 = 24300.
	mock.ExpectExec("UPDATE members SET credit_point = credit_point -").
		WithArgs(24300, 7, 24300).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO payments_after_use").
		WithArgs(42, 150, 5500, 11900, 6900, 0, 24300).
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectExec("UPDATE reservation_statuses SET status").
		WithArgs(model.StatusPaidAfter, 42).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("SET is_finished = TRUE").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	pay, err := s.SettleAfterUse(context.Background(), 42, 7, 150)
	require.NoError(t, err)
	assert.Equal(t, int64(24300), pay.TotalFee)
	assert.Equal(t, int64(5500), pay.FirstSectionFee)
	assert.Equal(t, int64(11900), pay.SecondSectionFee)
	assert.Equal(t, int64(6900), pay.ThirdSectionFee)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM reservations WHERE id = \\? FOR UPDATE").
		WillReturnRows(reservationRows(from, to, true))
	mock.ExpectQuery("SELECT id FROM payments_after_use").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
	mock.ExpectRollback()

	_, err = s.SettleAfterUse(context.Background(), 42, 7, 150)
	require.ErrorIs(t, err, apperrors.ErrAlreadySettled)
	require.NoError(t, mock.ExpectationsWereMet())
}

// A balance too small for the distance fee rolls the whole settlement
// back: no post-use row, no status change, the rental stays open.
func TestSettleAfterUseShortCreditRollsBack(t *testing.T) {
	s, mock := newMockSettlementService(t)

	from := fixedNow.Add(-3 * time.Hour)
	to := fixedNow.Add(-time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM reservations WHERE id = \\? FOR UPDATE").
		WillReturnRows(reservationRows(from, to, false))
	mock.ExpectQuery("SELECT id FROM payments_after_use").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("JOIN car_prices").WillReturnRows(carRatesRows())
	mock.ExpectExec("UPDATE members SET credit_point = credit_point -").
		WithArgs(24300, 7, 24300).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := s.SettleAfterUse(context.Background(), 42, 7, 150)
	require.ErrorIs(t, err, apperrors.ErrShortCredit)
	require.NoError(t, mock.ExpectationsWereMet())
}
