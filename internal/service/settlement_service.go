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
)

// SettlementService closes reservations: the reported driving distance
// becomes a tiered mileage fee, the fee is debited, and the
// reservation is marked finished.  Settlement happens exactly once per
// reservation.
type SettlementService struct {
	DB           *sql.DB
	Members      *repository.MemberRepo
	Cars         *repository.CarRepo
	Reservations *repository.ReservationRepo
	Payments     *repository.PaymentRepo
	Now          func() time.Time
}

// NewSettlementService constructs a SettlementService over a shared
// database handle.
func NewSettlementService(db *sql.DB) *SettlementService {
	return &SettlementService{
		DB:           db,
		Members:      repository.NewMemberRepo(db),
		Cars:         repository.NewCarRepo(db),
		Reservations: repository.NewReservationRepo(db),
		Payments:     repository.NewPaymentRepo(db),
		Now:          time.Now,
	}
}

func (s *SettlementService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// SettleAfterUse charges the distance fee for a completed rental and
// closes the reservation.  Rejected with AlreadySettled when a
// post-use payment row already exists; the existence check locks the
// row so concurrent settlement attempts serialize.  The per-band fee
// breakdown is persisted on the payment row, the stored status becomes
// PAID_AFTER_USE, and is_finished is set in the same transaction.
func (s *SettlementService) SettleAfterUse(ctx context.Context, reservationID, memberID uint64, distanceKm int64) (model.PaymentAfterUse, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.PaymentAfterUse{}, err
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
			return model.PaymentAfterUse{}, apperrors.ErrReservationNotFound
		}
		return model.PaymentAfterUse{}, err
	}
	settled, err := s.Payments.ExistsAfterUseTx(ctx, tx, res.ID)
	if err != nil {
		return model.PaymentAfterUse{}, err
	}
	if settled || res.IsFinished {
		return model.PaymentAfterUse{}, apperrors.ErrAlreadySettled
	}

	cw, err := s.Cars.GetWithRates(ctx, res.CarID)
	if err != nil {
		return model.PaymentAfterUse{}, err
	}
	fee := pricing.DistanceFee(distanceKm, cw.Rates)

	if err := s.Members.DebitTx(ctx, tx, memberID, fee.Total); err != nil {
		if errors.Is(err, repository.ErrInsufficientCredit) {
			return model.PaymentAfterUse{}, apperrors.ErrShortCredit
		}
		return model.PaymentAfterUse{}, err
	}
	pay := model.PaymentAfterUse{
		ReservationID:    res.ID,
		DrivingDistance:  distanceKm,
		FirstSectionFee:  fee.FirstSectionFee,
		SecondSectionFee: fee.SecondSectionFee,
		ThirdSectionFee:  fee.ThirdSectionFee,
		TotalTollFee:     0,
		TotalFee:         fee.Total,
	}
	if err := s.Payments.InsertAfterUseTx(ctx, tx, &pay); err != nil {
		return model.PaymentAfterUse{}, err
	}
	if err := s.Reservations.UpdateStatusTx(ctx, tx, res.ID, model.StatusPaidAfter); err != nil {
		return model.PaymentAfterUse{}, err
	}
	if err := s.Reservations.FinishTx(ctx, tx, res.ID); err != nil {
		return model.PaymentAfterUse{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.PaymentAfterUse{}, err
	}
	committed = true

	if err := PublishReservationSettled(ctx, queue.ReservationSettledEvent{
		ReservationID:   res.ID,
		MemberID:        memberID,
		CarID:           res.CarID,
		DrivingDistance: distanceKm,
		TotalFee:        fee.Total,
		SettledAt:       s.now().Format(time.RFC3339),
	}); err != nil {
		log.Printf("reservation %d: settled event not published: %v", res.ID, err)
	}

	return pay, nil
}
