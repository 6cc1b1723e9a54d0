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

// The transaction tests run the services against a mocked database so
// the exact statement sequence of each flow is pinned down: what gets
// written, with which amounts, and what never runs at all when a step
// rejects.  Expectations are ordered, so an unexpected extra write
// fails the test.

func newMockReservationService(t *testing.T) (*ReservationService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	s := NewReservationService(db)
	s.Now = testClock()
	return s, mock
}

// carRatesRows is the joined cars/car_prices/insurance_fees fixture:
// 5000 won per 30 min, distance rates 110/170/230 won per km and
// light/standard/special insurance at 4000/6000/8000 base plus
// 500/700/900 per started 10 minutes.
func carRatesRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "number", "name", "zone_id", "manufacturer", "fuel_type",
		"vehicle_type", "shift_type", "riding_capacity", "is_event_model",
		"standard_price", "min_price_per_km", "mid_price_per_km", "max_price_per_km",
		"weekday_price_per_ten_min", "weekend_price_per_ten_min",
		"light_price", "standard_price", "special_price",
		"light_price_per_ten_min", "standard_price_per_ten_min", "special_price_per_ten_min",
	}).AddRow(
		11, "12A3456", "Avante", 3, "Hyundai", "gasoline",
		"compact", "auto", 5, false,
		5000, 110, 170, 230,
		500, 600,
		4000, 6000, 8000,
		500, 700, 900,
	)
}

func reservationRows(from, to time.Time, finished bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "member_id", "car_id", "zone_id", "insurance", "from_when", "to_when",
		"is_extended", "extended_to_when", "is_finished", "created_at", "updated_at",
	}).AddRow(42, 7, 11, 3, model.InsuranceLight, from, to, false, nil, finished, from, from)
}

func beforeUseRows(rental, insurance, discount, extension, total int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "reservation_id", "rental_fee", "insurance_fee",
		"coupon_discount", "extension_fee", "total_fee", "created_at", "updated_at",
	}).AddRow(5, 42, rental, insurance, discount, extension, total, fixedNow, fixedNow)
}

// A booking that fails the balance check must roll back without a
// single reservation, payment or time-table insert.  The mock would
// report any statement beyond the expected ones.
func TestCreateShortCreditWritesNothing(t *testing.T) {
	s, mock := newMockReservationService(t)

	zone := sqlmock.NewRows([]string{
		"id", "address", "name", "region", "latitude", "longitude",
		"sub_info", "detail_info", "type", "operating_time",
	}).AddRow(3, "123 Teheran-ro", "Gangnam Zone", "Seoul", 37.49, 127.03, "", "", "street", "00:00~24:00")
	mock.ExpectQuery("FROM car_zones WHERE id").WillReturnRows(zone)
	mock.ExpectQuery("JOIN car_prices").WillReturnRows(carRatesRows())

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM cars WHERE id").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectQuery("FROM time_tables t").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("FROM coupons").WillReturnError(sql.ErrNoRows)
	// Two hours: rental 20000 plus light insurance 4000 + 9x500.
	mock.ExpectExec("UPDATE members SET credit_point = credit_point -").
		WithArgs(28500, 7, 28500).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := s.Create(context.Background(), 7, 3, 11, "202608291200", "202608291400", model.InsuranceLight)
	require.ErrorIs(t, err, apperrors.ErrShortCredit)
	require.NoError(t, mock.ExpectationsWereMet())
}

// Extension debits exactly the fee of the added window and accumulates
// it onto the pre-use payment row instead of replacing it.
func TestExtendDebitsAndAccumulatesFee(t *testing.T) {
	s, mock := newMockReservationService(t)

	from := fixedNow.Add(-time.Hour)
	to := fixedNow.Add(time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM reservations WHERE id = \\? FOR UPDATE").
		WillReturnRows(reservationRows(from, to, false))
	mock.ExpectQuery("JOIN car_prices").WillReturnRows(carRatesRows())
	mock.ExpectQuery("SELECT id FROM cars WHERE id").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectQuery("FROM time_tables t").WillReturnError(sql.ErrNoRows)
	// The added window is two hours, priced like a fresh light rental.
	mock.ExpectExec("UPDATE members SET credit_point = credit_point -").
		WithArgs(28500, 7, 28500).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("SET extension_fee = extension_fee \\+").
		WithArgs(28500, 28500, 42).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("SET is_extended = TRUE").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE time_tables SET ends_at").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE reservation_statuses SET status").
		WithArgs(model.StatusExtended, 42).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("FROM payments_before_use WHERE reservation_id").
		WillReturnRows(beforeUseRows(20000, 8500, 0, 28500, 57000))

	pay, err := s.Extend(context.Background(), 42, 7, "202608291300")
	require.NoError(t, err)
	assert.Equal(t, int64(28500), pay.ExtensionFee)
	assert.Equal(t, int64(57000), pay.TotalFee)
	require.NoError(t, mock.ExpectationsWereMet())
}

// Upgrading the insurance tier debits only the difference between the
// recomputed total and what was already paid; the coupon discount from
// booking time keeps counting.
func TestUpdateInsuranceDebitsDifference(t *testing.T) {
	s, mock := newMockReservationService(t)

	from := fixedNow.Add(2 * time.Hour)
	to := fixedNow.Add(4 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM reservations WHERE id = \\? FOR UPDATE").
		WillReturnRows(reservationRows(from, to, false))
	mock.ExpectQuery("JOIN car_prices").WillReturnRows(carRatesRows())
	// Paid so far: rental 20000 + light 8500 - coupon 1000 = 27500.
	mock.ExpectQuery("FROM payments_before_use WHERE reservation_id").
		WillReturnRows(beforeUseRows(20000, 8500, 1000, 0, 27500))
	// Special tier: 8000 + 9x900 = 16100, new total 35100, diff 7600.
	mock.ExpectExec("UPDATE members SET credit_point = credit_point -").
		WithArgs(7600, 7, 7600).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("SET rental_fee = \\?, insurance_fee").
		WithArgs(20000, 16100, 35100, 42).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE reservations SET insurance").
		WithArgs(model.InsuranceSpecial, 42).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	pay, err := s.UpdateInsurance(context.Background(), 42, 7, model.InsuranceSpecial)
	require.NoError(t, err)
	assert.Equal(t, int64(16100), pay.InsuranceFee)
	assert.Equal(t, int64(35100), pay.TotalFee)
	require.NoError(t, mock.ExpectationsWereMet())
}

// Dropping insurance entirely lowers the total, so the member is
// credited the difference back.
func TestUpdateInsuranceRefundsDifference(t *testing.T) {
	s, mock := newMockReservationService(t)

	from := fixedNow.Add(2 * time.Hour)
	to := fixedNow.Add(4 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM reservations WHERE id = \\? FOR UPDATE").
		WillReturnRows(reservationRows(from, to, false))
	mock.ExpectQuery("JOIN car_prices").WillReturnRows(carRatesRows())
	mock.ExpectQuery("FROM payments_before_use WHERE reservation_id").
		WillReturnRows(beforeUseRows(20000, 8500, 1000, 0, 27500))
	// No insurance: new total 19000, refund 8500.
	mock.ExpectExec("UPDATE members SET credit_point = credit_point \\+").
		WithArgs(8500, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("SET rental_fee = \\?, insurance_fee").
		WithArgs(20000, 0, 19000, 42).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE reservations SET insurance").
		WithArgs(model.InsuranceNone, 42).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	pay, err := s.UpdateInsurance(context.Background(), 42, 7, model.InsuranceNone)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pay.InsuranceFee)
	assert.Equal(t, int64(19000), pay.TotalFee)
	require.NoError(t, mock.ExpectationsWereMet())
}
