// Package service implements the reservation engine: booking,
// pre-use changes, extension, post-use settlement and browse reads.
// Services own the transaction boundaries; repositories only expose
// the ...Tx building blocks.  Validation always completes before the
// first write so a rejected request never mutates anything.
package service

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/minhokang/car-sharing-reservation/internal/apperrors"
	"github.com/minhokang/car-sharing-reservation/internal/model"
	"github.com/minhokang/car-sharing-reservation/internal/pricing"
	"github.com/minhokang/car-sharing-reservation/internal/queue"
	"github.com/minhokang/car-sharing-reservation/internal/repository"
	"github.com/minhokang/car-sharing-reservation/internal/utils"
)

// Rental window duration bounds.
const (
	minRentalDuration = 30 * time.Minute
	maxRentalDuration = 30 * 24 * time.Hour
)

// ReservationService orchestrates booking and every pre-use mutation
// of a reservation.  Each operation runs in a single transaction; the
// booking path locks the car row before the availability check so that
// concurrent check-and-insert on the same car serializes.
type ReservationService struct {
	DB           *sql.DB
	Members      *repository.MemberRepo
	Zones        *repository.CarZoneRepo
	Cars         *repository.CarRepo
	Reservations *repository.ReservationRepo
	Payments     *repository.PaymentRepo
	Coupons      *repository.CouponRepo
	TimeTables   *repository.TimeTableRepo
	Now          func() time.Time // injectable clock for tests
}

// NewReservationService constructs a ReservationService over a shared
// database handle.
func NewReservationService(db *sql.DB) *ReservationService {
	return &ReservationService{
		DB:           db,
		Members:      repository.NewMemberRepo(db),
		Zones:        repository.NewCarZoneRepo(db),
		Cars:         repository.NewCarRepo(db),
		Reservations: repository.NewReservationRepo(db),
		Payments:     repository.NewPaymentRepo(db),
		Coupons:      repository.NewCouponRepo(db),
		TimeTables:   repository.NewTimeTableRepo(db),
		Now:          time.Now,
	}
}

func (s *ReservationService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// validateWindow enforces the duration bounds and the strictly-future
// start on an already-parsed window.
func validateWindow(from, to, now time.Time) error {
	d := to.Sub(from)
	if d < minRentalDuration || d > maxRentalDuration {
		return apperrors.ErrTooLessOrTooMuchTime
	}
	if !from.After(now) {
		return apperrors.ErrBeforeTheCurrentTime
	}
	return nil
}

// loadCarInZone fetches the car with its rate tables, verifies the
// zone exists and that the car is stationed in it.
func (s *ReservationService) loadCarInZone(ctx context.Context, carID, zoneID uint64) (repository.CarWithRates, model.CarZone, error) {
	zone, err := s.Zones.GetByID(ctx, zoneID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return repository.CarWithRates{}, model.CarZone{}, apperrors.ErrCarZoneNotFound
		}
		return repository.CarWithRates{}, model.CarZone{}, err
	}
	cw, err := s.Cars.GetWithRates(ctx, carID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return repository.CarWithRates{}, model.CarZone{}, apperrors.ErrCarNotFound
		}
		return repository.CarWithRates{}, model.CarZone{}, err
	}
	if cw.Car.ZoneID != zoneID {
		return repository.CarWithRates{}, model.CarZone{}, apperrors.ErrNotAvailableCar
	}
	return cw, zone, nil
}

// CreateResult is what a successful booking returns to the handler.
type CreateResult struct {
	Reservation model.Reservation
	Payment     model.PaymentBeforeUse
	Status      string
}

// Create books a car for a member.  The full validation chain runs
// before the transaction opens: window shape, duration bounds, future
// start, zone and car existence, car-in-zone, insurance tier.  Inside
// the transaction the car row is locked, availability is checked, the
// member's single best usable coupon is applied (clamped at the
// total), the balance is debited conditionally and the reservation,
// status, payment and time-table rows are written together.
func (s *ReservationService) Create(ctx context.Context, memberID, zoneID, carID uint64, rawFrom, rawTo, insurance string) (CreateResult, error) {
	from, to, err := utils.ParseWindow(rawFrom, rawTo)
	if err != nil {
		return CreateResult{}, err
	}
	now := s.now()
	if err := validateWindow(from, to, now); err != nil {
		return CreateResult{}, err
	}
	cw, zone, err := s.loadCarInZone(ctx, carID, zoneID)
	if err != nil {
		return CreateResult{}, err
	}
	quote, err := pricing.QuoteWindow(cw.Rates, cw.Insurance, insurance, from, to)
	if err != nil {
		return CreateResult{}, err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return CreateResult{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := s.Cars.LockTx(ctx, tx, carID); err != nil {
		return CreateResult{}, err
	}
	conflict, err := s.TimeTables.HasConflictTx(ctx, tx, carID, from, to, 0)
	if err != nil {
		return CreateResult{}, err
	}
	if conflict {
		return CreateResult{}, apperrors.ErrAlreadyReservedTime
	}

	coupon, err := s.Coupons.FindUsableTx(ctx, tx, memberID, now)
	if err != nil {
		return CreateResult{}, err
	}
	var discount int64
	if coupon != nil {
		discount = coupon.DiscountFee
	}
	applied, total := pricing.ApplyCoupon(quote.Total(), discount)

	if err := s.Members.DebitTx(ctx, tx, memberID, total); err != nil {
		if errors.Is(err, repository.ErrInsufficientCredit) {
			return CreateResult{}, apperrors.ErrShortCredit
		}
		return CreateResult{}, err
	}

	res := model.Reservation{
		MemberID:  memberID,
		CarID:     carID,
		ZoneID:    zoneID,
		Insurance: insurance,
		FromWhen:  from,
		ToWhen:    to,
	}
	if err := s.Reservations.CreateTx(ctx, tx, &res); err != nil {
		return CreateResult{}, err
	}
	if err := s.Reservations.InsertStatusTx(ctx, tx, res.ID, model.StatusNotPaid); err != nil {
		return CreateResult{}, err
	}
	pay := model.PaymentBeforeUse{
		ReservationID:  res.ID,
		RentalFee:      quote.RentalFee,
		InsuranceFee:   quote.InsuranceFee,
		CouponDiscount: applied,
		TotalFee:       total,
	}
	if err := s.Payments.InsertBeforeUseTx(ctx, tx, &pay); err != nil {
		return CreateResult{}, err
	}
	entry := model.TimeTableEntry{
		ReservationID: res.ID,
		ZoneID:        zoneID,
		CarID:         carID,
		StartsAt:      from,
		EndsAt:        to,
	}
	if err := s.TimeTables.InsertTx(ctx, tx, &entry); err != nil {
		return CreateResult{}, err
	}
	if coupon != nil && applied > 0 {
		if err := s.Coupons.ConsumeTx(ctx, tx, coupon.ID); err != nil {
			return CreateResult{}, err
		}
	}
	// Payment succeeded within the same transaction, so the status row
	// advances from NOT_PAID immediately.
	if err := s.Reservations.UpdateStatusTx(ctx, tx, res.ID, model.StatusPaidBefore); err != nil {
		return CreateResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return CreateResult{}, err
	}
	committed = true

	if err := PublishReservationConfirmed(ctx, queue.ReservationConfirmedEvent{
		ReservationID: res.ID,
		MemberID:      memberID,
		CarID:         carID,
		CarName:       cw.Car.Name,
		ZoneID:        zoneID,
		ZoneName:      zone.Name,
		Insurance:     insurance,
		FromWhen:      utils.FormatKST(from),
		ToWhen:        utils.FormatKST(to),
		RentalFee:     quote.RentalFee,
		InsuranceFee:  quote.InsuranceFee,
		CouponApplied: applied,
		TotalFee:      total,
		ConfirmedAt:   now.Format(time.RFC3339),
	}); err != nil {
		log.Printf("reservation %d: confirmed event not published: %v", res.ID, err)
	}

	return CreateResult{Reservation: res, Payment: pay, Status: model.StatusPaidBefore}, nil
}

// settleDiff charges or refunds the difference between a recomputed
// total and the already-paid total.  A positive diff debits the member
// (ShortCredit when the balance cannot cover it); a negative diff
// credits the refund back.
func (s *ReservationService) settleDiff(ctx context.Context, tx *sql.Tx, memberID uint64, diff int64) error {
	switch {
	case diff > 0:
		if err := s.Members.DebitTx(ctx, tx, memberID, diff); err != nil {
			if errors.Is(err, repository.ErrInsufficientCredit) {
				return apperrors.ErrShortCredit
			}
			return err
		}
	case diff < 0:
		if err := s.Members.CreditTx(ctx, tx, memberID, -diff); err != nil {
			return err
		}
	}
	return nil
}

// beginPreUseChange loads and locks the reservation for a pre-use
// mutation, rejecting reservations that are finished or already
// running.  The caller owns the returned transaction.
func (s *ReservationService) beginPreUseChange(ctx context.Context, reservationID, memberID uint64, now time.Time) (*sql.Tx, model.Reservation, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, model.Reservation{}, err
	}
	res, err := s.Reservations.GetForMemberTx(ctx, tx, reservationID, memberID)
	if err != nil {
		_ = tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.Reservation{}, apperrors.ErrReservationNotFound
		}
		return nil, model.Reservation{}, err
	}
	if res.IsFinished || !res.FromWhen.After(now) {
		_ = tx.Rollback()
		return nil, model.Reservation{}, apperrors.ErrBeforeTheCurrentTime
	}
	return tx, res, nil
}

// UpdateInsurance switches the insurance tier of an upcoming
// reservation and settles the fee difference against the member's
// balance.  The coupon discount granted at booking time is retained.
func (s *ReservationService) UpdateInsurance(ctx context.Context, reservationID, memberID uint64, insurance string) (model.PaymentBeforeUse, error) {
	now := s.now()
	tx, res, err := s.beginPreUseChange(ctx, reservationID, memberID, now)
	if err != nil {
		return model.PaymentBeforeUse{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	cw, err := s.Cars.GetWithRates(ctx, res.CarID)
	if err != nil {
		return model.PaymentBeforeUse{}, err
	}
	quote, err := pricing.QuoteWindow(cw.Rates, cw.Insurance, insurance, res.FromWhen, res.ToWhen)
	if err != nil {
		return model.PaymentBeforeUse{}, err
	}
	pay, err := s.Payments.GetBeforeUseTx(ctx, tx, res.ID)
	if err != nil {
		return model.PaymentBeforeUse{}, err
	}
	newTotal := quote.Total() - pay.CouponDiscount + pay.ExtensionFee
	if newTotal < 0 {
		newTotal = 0
	}
	if err := s.settleDiff(ctx, tx, memberID, newTotal-pay.TotalFee); err != nil {
		return model.PaymentBeforeUse{}, err
	}
	if err := s.Payments.UpdateBeforeUseFeesTx(ctx, tx, res.ID, quote.RentalFee, quote.InsuranceFee, newTotal); err != nil {
		return model.PaymentBeforeUse{}, err
	}
	if err := s.Reservations.UpdateInsuranceTx(ctx, tx, res.ID, insurance); err != nil {
		return model.PaymentBeforeUse{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.PaymentBeforeUse{}, err
	}
	committed = true

	pay.RentalFee = quote.RentalFee
	pay.InsuranceFee = quote.InsuranceFee
	pay.TotalFee = newTotal
	return pay, nil
}

// UpdateTime moves the rental window of an upcoming reservation.  The
// new window passes the same validation as booking, the availability
// check re-runs excluding this reservation, and the fee difference is
// settled against the member's balance.
func (s *ReservationService) UpdateTime(ctx context.Context, reservationID, memberID uint64, rawFrom, rawTo string) (model.PaymentBeforeUse, error) {
	from, to, err := utils.ParseWindow(rawFrom, rawTo)
	if err != nil {
		return model.PaymentBeforeUse{}, err
	}
	now := s.now()
	if err := validateWindow(from, to, now); err != nil {
		return model.PaymentBeforeUse{}, err
	}
	tx, res, err := s.beginPreUseChange(ctx, reservationID, memberID, now)
	if err != nil {
		return model.PaymentBeforeUse{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	cw, err := s.Cars.GetWithRates(ctx, res.CarID)
	if err != nil {
		return model.PaymentBeforeUse{}, err
	}
	if err := s.Cars.LockTx(ctx, tx, res.CarID); err != nil {
		return model.PaymentBeforeUse{}, err
	}
	conflict, err := s.TimeTables.HasConflictTx(ctx, tx, res.CarID, from, to, res.ID)
	if err != nil {
		return model.PaymentBeforeUse{}, err
	}
	if conflict {
		return model.PaymentBeforeUse{}, apperrors.ErrAlreadyReservedTime
	}
	quote, err := pricing.QuoteWindow(cw.Rates, cw.Insurance, res.Insurance, from, to)
	if err != nil {
		return model.PaymentBeforeUse{}, err
	}
	pay, err := s.Payments.GetBeforeUseTx(ctx, tx, res.ID)
	if err != nil {
		return model.PaymentBeforeUse{}, err
	}
	newTotal := quote.Total() - pay.CouponDiscount + pay.ExtensionFee
	if newTotal < 0 {
		newTotal = 0
	}
	if err := s.settleDiff(ctx, tx, memberID, newTotal-pay.TotalFee); err != nil {
		return model.PaymentBeforeUse{}, err
	}
	if err := s.Payments.UpdateBeforeUseFeesTx(ctx, tx, res.ID, quote.RentalFee, quote.InsuranceFee, newTotal); err != nil {
		return model.PaymentBeforeUse{}, err
	}
	if err := s.Reservations.UpdateWindowTx(ctx, tx, res.ID, from, to); err != nil {
		return model.PaymentBeforeUse{}, err
	}
	if err := s.TimeTables.UpdateWindowTx(ctx, tx, res.ID, from, to); err != nil {
		return model.PaymentBeforeUse{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.PaymentBeforeUse{}, err
	}
	committed = true

	pay.RentalFee = quote.RentalFee
	pay.InsuranceFee = quote.InsuranceFee
	pay.TotalFee = newTotal
	return pay, nil
}

// UpdateCar swaps an upcoming reservation onto another car in the same
// zone.  The target car must exist, be stationed in the reservation's
// zone, and be free for the window; the fee difference under the new
// car's rates is settled against the member's balance.
func (s *ReservationService) UpdateCar(ctx context.Context, reservationID, memberID, newCarID uint64) (model.PaymentBeforeUse, error) {
	now := s.now()
	tx, res, err := s.beginPreUseChange(ctx, reservationID, memberID, now)
	if err != nil {
		return model.PaymentBeforeUse{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	cw, err := s.Cars.GetWithRates(ctx, newCarID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.PaymentBeforeUse{}, apperrors.ErrCarNotFound
		}
		return model.PaymentBeforeUse{}, err
	}
	if cw.Car.ZoneID != res.ZoneID {
		return model.PaymentBeforeUse{}, apperrors.ErrNotAvailableCar
	}
	if err := s.Cars.LockTx(ctx, tx, newCarID); err != nil {
		return model.PaymentBeforeUse{}, err
	}
	conflict, err := s.TimeTables.HasConflictTx(ctx, tx, newCarID, res.FromWhen, res.ToWhen, res.ID)
	if err != nil {
		return model.PaymentBeforeUse{}, err
	}
	if conflict {
		return model.PaymentBeforeUse{}, apperrors.ErrAlreadyReservedTime
	}
	quote, err := pricing.QuoteWindow(cw.Rates, cw.Insurance, res.Insurance, res.FromWhen, res.ToWhen)
	if err != nil {
		return model.PaymentBeforeUse{}, err
	}
	pay, err := s.Payments.GetBeforeUseTx(ctx, tx, res.ID)
	if err != nil {
		return model.PaymentBeforeUse{}, err
	}
	newTotal := quote.Total() - pay.CouponDiscount + pay.ExtensionFee
	if newTotal < 0 {
		newTotal = 0
	}
	if err := s.settleDiff(ctx, tx, memberID, newTotal-pay.TotalFee); err != nil {
		return model.PaymentBeforeUse{}, err
	}
	if err := s.Payments.UpdateBeforeUseFeesTx(ctx, tx, res.ID, quote.RentalFee, quote.InsuranceFee, newTotal); err != nil {
		return model.PaymentBeforeUse{}, err
	}
	if err := s.Reservations.UpdateCarTx(ctx, tx, res.ID, newCarID); err != nil {
		return model.PaymentBeforeUse{}, err
	}
	if err := s.TimeTables.UpdateCarTx(ctx, tx, res.ID, newCarID); err != nil {
		return model.PaymentBeforeUse{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.PaymentBeforeUse{}, err
	}
	committed = true

	pay.RentalFee = quote.RentalFee
	pay.InsuranceFee = quote.InsuranceFee
	pay.TotalFee = newTotal
	return pay, nil
}

// Extend pushes the return time of a running reservation out.  The
// rental must have started, not yet ended and not be finished, and the
// new end must lie beyond the current one.  The extension is priced
// over (currentEnd, newEnd) only, debited, and accumulated onto the
// pre-use payment row; the time-table end moves with it.
func (s *ReservationService) Extend(ctx context.Context, reservationID, memberID uint64, rawExtendTo string) (model.PaymentBeforeUse, error) {
	extendTo, err := utils.ParseWindowTime(rawExtendTo)
	if err != nil {
		return model.PaymentBeforeUse{}, err
	}
	now := s.now()

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.PaymentBeforeUse{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := s.Reservations.GetForMemberTx(ctx, tx, reservationID, memberID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.PaymentBeforeUse{}, apperrors.ErrReservationNotFound
		}
		return model.PaymentBeforeUse{}, err
	}
	currentEnd := res.CurrentEnd()
	// Extension only applies while the rental is actually running.
	if res.IsFinished || now.Before(res.FromWhen) || now.After(currentEnd) {
		return model.PaymentBeforeUse{}, apperrors.ErrBeforeTheCurrentTime
	}
	if !extendTo.After(currentEnd) {
		return model.PaymentBeforeUse{}, apperrors.ErrTooLessOrTooMuchTime
	}
	if extendTo.Sub(res.FromWhen) > maxRentalDuration {
		return model.PaymentBeforeUse{}, apperrors.ErrTooLessOrTooMuchTime
	}

	cw, err := s.Cars.GetWithRates(ctx, res.CarID)
	if err != nil {
		return model.PaymentBeforeUse{}, err
	}
	if err := s.Cars.LockTx(ctx, tx, res.CarID); err != nil {
		return model.PaymentBeforeUse{}, err
	}
	conflict, err := s.TimeTables.HasConflictTx(ctx, tx, res.CarID, currentEnd, extendTo, res.ID)
	if err != nil {
		return model.PaymentBeforeUse{}, err
	}
	if conflict {
		return model.PaymentBeforeUse{}, apperrors.ErrAlreadyReservedTime
	}

	quote, err := pricing.QuoteWindow(cw.Rates, cw.Insurance, res.Insurance, currentEnd, extendTo)
	if err != nil {
		return model.PaymentBeforeUse{}, err
	}
	fee := quote.Total()
	if err := s.Members.DebitTx(ctx, tx, memberID, fee); err != nil {
		if errors.Is(err, repository.ErrInsufficientCredit) {
			return model.PaymentBeforeUse{}, apperrors.ErrShortCredit
		}
		return model.PaymentBeforeUse{}, err
	}
	if err := s.Payments.AddExtensionFeeTx(ctx, tx, res.ID, fee); err != nil {
		return model.PaymentBeforeUse{}, err
	}
	if err := s.Reservations.ExtendTx(ctx, tx, res.ID, extendTo); err != nil {
		return model.PaymentBeforeUse{}, err
	}
	if err := s.TimeTables.UpdateEndTx(ctx, tx, res.ID, extendTo); err != nil {
		return model.PaymentBeforeUse{}, err
	}
	if err := s.Reservations.UpdateStatusTx(ctx, tx, res.ID, model.StatusExtended); err != nil {
		return model.PaymentBeforeUse{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.PaymentBeforeUse{}, err
	}
	committed = true

	pay, err := s.Payments.GetBeforeUse(ctx, res.ID)
	if err != nil {
		return model.PaymentBeforeUse{}, err
	}
	return pay, nil
}
