package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/minhokang/car-sharing-reservation/internal/apperrors"
	"github.com/minhokang/car-sharing-reservation/internal/model"
	"github.com/minhokang/car-sharing-reservation/internal/pricing"
	"github.com/minhokang/car-sharing-reservation/internal/repository"
	"github.com/minhokang/car-sharing-reservation/internal/utils"
)

// BrowseService serves the read-only surfaces: available cars in a
// zone with per-car quotes, a car's reserved windows, insurance quotes
// and a member's reservation history.  Reads run outside transactions;
// the lazy PAID_AFTER_USE -> FINISHED transition is the only write a
// browse call can trigger.
type BrowseService struct {
	DB           *sql.DB
	Zones        *repository.CarZoneRepo
	Cars         *repository.CarRepo
	Reservations *repository.ReservationRepo
	Payments     *repository.PaymentRepo
	TimeTables   *repository.TimeTableRepo
	Now          func() time.Time
}

// NewBrowseService constructs a BrowseService over a shared database
// handle.
func NewBrowseService(db *sql.DB) *BrowseService {
	return &BrowseService{
		DB:           db,
		Zones:        repository.NewCarZoneRepo(db),
		Cars:         repository.NewCarRepo(db),
		Reservations: repository.NewReservationRepo(db),
		Payments:     repository.NewPaymentRepo(db),
		TimeTables:   repository.NewTimeTableRepo(db),
		Now:          time.Now,
	}
}

func (s *BrowseService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// InsuranceQuotes is the fee of each selectable tier over one window.
type InsuranceQuotes struct {
	Light    int64 `json:"light"`
	Standard int64 `json:"standard"`
	Special  int64 `json:"special"`
}

func quoteInsurances(it pricing.InsuranceRateTable, from, to time.Time) InsuranceQuotes {
	light, _ := pricing.InsuranceFee(it, model.InsuranceLight, from, to)
	standard, _ := pricing.InsuranceFee(it, model.InsuranceStandard, from, to)
	special, _ := pricing.InsuranceFee(it, model.InsuranceSpecial, from, to)
	return InsuranceQuotes{Light: light, Standard: standard, Special: special}
}

// AvailableCar is one bookable car in a zone with its price preview
// for the requested window.
type AvailableCar struct {
	ID             uint64          `json:"id"`
	Number         string          `json:"number"`
	Name           string          `json:"name"`
	Manufacturer   string          `json:"manufacturer"`
	FuelType       string          `json:"fuel_type"`
	VehicleType    string          `json:"vehicle_type"`
	ShiftType      string          `json:"shift_type"`
	RidingCapacity uint32          `json:"riding_capacity"`
	IsEventModel   bool            `json:"is_event_model"`
	RentalFee      int64           `json:"rental_fee"`
	Insurances     InsuranceQuotes `json:"insurances"`
}

// ListAvailableCars returns the zone's cars that are free for the
// whole window, each with its rental fee and the three insurance
// quotes.  The window passes the same shape validation as booking but
// may start in the past only by rejection, same as booking.
func (s *BrowseService) ListAvailableCars(ctx context.Context, zoneID uint64, rawFrom, rawTo string) ([]AvailableCar, error) {
	from, to, err := utils.ParseWindow(rawFrom, rawTo)
	if err != nil {
		return nil, err
	}
	if err := validateWindow(from, to, s.now()); err != nil {
		return nil, err
	}
	if _, err := s.Zones.GetByID(ctx, zoneID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrCarZoneNotFound
		}
		return nil, err
	}
	cars, err := s.Cars.ListByZoneWithRates(ctx, zoneID)
	if err != nil {
		return nil, err
	}
	busy, err := s.TimeTables.BusyCarIDs(ctx, zoneID, from, to)
	if err != nil {
		return nil, err
	}
	out := make([]AvailableCar, 0, len(cars))
	for _, cw := range cars {
		if _, taken := busy[cw.Car.ID]; taken {
			continue
		}
		out = append(out, AvailableCar{
			ID:             cw.Car.ID,
			Number:         cw.Car.Number,
			Name:           cw.Car.Name,
			Manufacturer:   cw.Car.Manufacturer,
			FuelType:       cw.Car.FuelType,
			VehicleType:    cw.Car.VehicleType,
			ShiftType:      cw.Car.ShiftType,
			RidingCapacity: cw.Car.RidingCapacity,
			IsEventModel:   cw.Car.IsEventModel,
			RentalFee:      pricing.RentalFee(cw.Rates.StandardPrice, from, to),
			Insurances:     quoteInsurances(cw.Insurance, from, to),
		})
	}
	return out, nil
}

// TimeTableWindow is one reserved interval of a car, rendered in the
// display timezone.
type TimeTableWindow struct {
	StartsAt string `json:"starts_at"`
	EndsAt   string `json:"ends_at"`
}

// GetCarTimeTable returns the active reserved windows of a car, oldest
// first, for the public timetable endpoint.
func (s *BrowseService) GetCarTimeTable(ctx context.Context, carID uint64) ([]TimeTableWindow, error) {
	if _, err := s.Cars.GetWithRates(ctx, carID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrCarNotFound
		}
		return nil, err
	}
	windows, err := s.TimeTables.ListActiveByCar(ctx, carID)
	if err != nil {
		return nil, err
	}
	out := make([]TimeTableWindow, 0, len(windows))
	for _, w := range windows {
		out = append(out, TimeTableWindow{
			StartsAt: utils.FormatKST(w.StartsAt),
			EndsAt:   utils.FormatKST(w.EndsAt),
		})
	}
	return out, nil
}

// ReservationInsuranceQuotes prices the three selectable tiers over an
// existing reservation's current window, so a member can preview an
// insurance change.
func (s *BrowseService) ReservationInsuranceQuotes(ctx context.Context, reservationID, memberID uint64) (InsuranceQuotes, error) {
	res, err := s.Reservations.GetForMember(ctx, reservationID, memberID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return InsuranceQuotes{}, apperrors.ErrReservationNotFound
		}
		return InsuranceQuotes{}, err
	}
	cw, err := s.Cars.GetWithRates(ctx, res.CarID)
	if err != nil {
		return InsuranceQuotes{}, err
	}
	return quoteInsurances(cw.Insurance, res.FromWhen, res.CurrentEnd()), nil
}

// ReservationView is a member-facing rendering of one reservation:
// timestamps in the display timezone, the stored status projected
// through the USING derivation, and the payment totals.
type ReservationView struct {
	ID             uint64  `json:"id"`
	CarID          uint64  `json:"car_id"`
	CarName        string  `json:"car_name"`
	ZoneID         uint64  `json:"zone_id"`
	Insurance      string  `json:"insurance"`
	FromWhen       string  `json:"from_when"`
	ToWhen         string  `json:"to_when"`
	IsExtended     bool    `json:"is_extended"`
	ExtendedToWhen *string `json:"extended_to_when,omitempty"`
	Status         string  `json:"status"`
	RentalFee      int64   `json:"rental_fee"`
	InsuranceFee   int64   `json:"insurance_fee"`
	CouponDiscount int64   `json:"coupon_discount"`
	ExtensionFee   int64   `json:"extension_fee"`
	TotalFee       int64   `json:"total_fee"`
}

func (s *BrowseService) renderReservation(ctx context.Context, res model.Reservation, now time.Time) (ReservationView, error) {
	stored, err := s.Reservations.FinalizeStatus(ctx, res.ID)
	if err != nil {
		return ReservationView{}, err
	}
	pay, err := s.Payments.GetBeforeUse(ctx, res.ID)
	if err != nil {
		return ReservationView{}, err
	}
	cw, err := s.Cars.GetWithRates(ctx, res.CarID)
	if err != nil {
		return ReservationView{}, err
	}
	v := ReservationView{
		ID:             res.ID,
		CarID:          res.CarID,
		CarName:        cw.Car.Name,
		ZoneID:         res.ZoneID,
		Insurance:      res.Insurance,
		FromWhen:       utils.FormatKST(res.FromWhen),
		ToWhen:         utils.FormatKST(res.ToWhen),
		IsExtended:     res.IsExtended,
		Status:         model.DeriveStatus(stored, &res, now),
		RentalFee:      pay.RentalFee,
		InsuranceFee:   pay.InsuranceFee,
		CouponDiscount: pay.CouponDiscount,
		ExtensionFee:   pay.ExtensionFee,
		TotalFee:       pay.TotalFee,
	}
	if res.IsExtended && res.ExtendedToWhen != nil {
		ext := utils.FormatKST(*res.ExtendedToWhen)
		v.ExtendedToWhen = &ext
	}
	return v, nil
}

// ListReservations returns the member's reservation history, newest
// first.
func (s *BrowseService) ListReservations(ctx context.Context, memberID uint64) ([]ReservationView, error) {
	list, err := s.Reservations.ListByMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]ReservationView, 0, len(list))
	for _, res := range list {
		v, err := s.renderReservation(ctx, res, now)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// ReservationDetail is the single-reservation view: the summary plus
// the post-use settlement when one exists.
type ReservationDetail struct {
	ReservationView
	Settlement *model.PaymentAfterUse `json:"settlement,omitempty"`
}

// GetReservation returns one reservation of the member, including the
// settlement breakdown when the reservation has been settled.
func (s *BrowseService) GetReservation(ctx context.Context, reservationID, memberID uint64) (ReservationDetail, error) {
	res, err := s.Reservations.GetForMember(ctx, reservationID, memberID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ReservationDetail{}, apperrors.ErrReservationNotFound
		}
		return ReservationDetail{}, err
	}
	v, err := s.renderReservation(ctx, res, s.now())
	if err != nil {
		return ReservationDetail{}, err
	}
	detail := ReservationDetail{ReservationView: v}
	after, err := s.Payments.GetAfterUse(ctx, res.ID)
	if err == nil {
		detail.Settlement = &after
	} else if !errors.Is(err, sql.ErrNoRows) {
		return ReservationDetail{}, err
	}
	return detail, nil
}
