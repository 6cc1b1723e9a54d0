package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/minhokang/car-sharing-reservation/internal/model"
	"github.com/minhokang/car-sharing-reservation/internal/service"
)

// paymentSummary renders the pre-use payment row as returned by the
// mutation endpoints.
func paymentSummary(p model.PaymentBeforeUse) echo.Map {
	return echo.Map{
		"reservation_id":  p.ReservationID,
		"rental_fee":      p.RentalFee,
		"insurance_fee":   p.InsuranceFee,
		"coupon_discount": p.CouponDiscount,
		"extension_fee":   p.ExtensionFee,
		"total_fee":       p.TotalFee,
	}
}

// ReservationHandler exposes the booking lifecycle: create, pre-use
// changes, extension and post-use settlement.  JWT authentication has
// already run; every method resolves the member from the context and
// delegates to the services, which own validation and transactions.
type ReservationHandler struct {
	Reservations *service.ReservationService
	Settlement   *service.SettlementService
	Browse       *service.BrowseService
}

// NewReservationHandler constructs a ReservationHandler.  All
// dependencies must be non-nil.
func NewReservationHandler(r *service.ReservationService, s *service.SettlementService, b *service.BrowseService) *ReservationHandler {
	if r == nil || s == nil || b == nil {
		panic("nil service passed to NewReservationHandler")
	}
	return &ReservationHandler{Reservations: r, Settlement: s, Browse: b}
}

type createReservationReq struct {
	ZoneID    uint64 `json:"zone_id"`
	CarID     uint64 `json:"car_id"`
	FromWhen  string `json:"from_when"` // yyyymmddHHMM, KST wall clock
	ToWhen    string `json:"to_when"`
	Insurance string `json:"insurance"` // light | standard | special | none
}

// Create handles POST /v1/reservations.
func (h *ReservationHandler) Create(c echo.Context) error {
	memberID, err := getMemberID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.ZoneID == 0 || req.CarID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "zone_id and car_id are required"})
	}
	result, err := h.Reservations.Create(c.Request().Context(), memberID, req.ZoneID, req.CarID,
		req.FromWhen, req.ToWhen, req.Insurance)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"reservation_id":  result.Reservation.ID,
		"status":          result.Status,
		"rental_fee":      result.Payment.RentalFee,
		"insurance_fee":   result.Payment.InsuranceFee,
		"coupon_discount": result.Payment.CouponDiscount,
		"total_fee":       result.Payment.TotalFee,
	})
}

// List handles GET /v1/reservations.
func (h *ReservationHandler) List(c echo.Context) error {
	memberID, err := getMemberID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Browse.ListReservations(c.Request().Context(), memberID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /v1/reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
	memberID, err := getMemberID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	resID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	detail, err := h.Browse.GetReservation(c.Request().Context(), resID, memberID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": detail})
}

type updateInsuranceReq struct {
	Insurance string `json:"insurance"`
}

// UpdateInsurance handles PATCH /v1/reservations/:id/insurance.
func (h *ReservationHandler) UpdateInsurance(c echo.Context) error {
	memberID, err := getMemberID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	resID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var req updateInsuranceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	pay, err := h.Reservations.UpdateInsurance(c.Request().Context(), resID, memberID, req.Insurance)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, paymentSummary(pay))
}

type updateTimeReq struct {
	FromWhen string `json:"from_when"`
	ToWhen   string `json:"to_when"`
}

// UpdateTime handles PATCH /v1/reservations/:id/time.
func (h *ReservationHandler) UpdateTime(c echo.Context) error {
	memberID, err := getMemberID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	resID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var req updateTimeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	pay, err := h.Reservations.UpdateTime(c.Request().Context(), resID, memberID, req.FromWhen, req.ToWhen)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, paymentSummary(pay))
}

type updateCarReq struct {
	CarID uint64 `json:"car_id"`
}

// UpdateCar handles PATCH /v1/reservations/:id/car.
func (h *ReservationHandler) UpdateCar(c echo.Context) error {
	memberID, err := getMemberID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	resID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var req updateCarReq
	if err := c.Bind(&req); err != nil || req.CarID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "car_id is required"})
	}
	pay, err := h.Reservations.UpdateCar(c.Request().Context(), resID, memberID, req.CarID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, paymentSummary(pay))
}

type extendReq struct {
	ExtendTo string `json:"extend_to"` // yyyymmddHHMM, KST wall clock
}

// Extend handles PATCH /v1/reservations/:id/extension.
func (h *ReservationHandler) Extend(c echo.Context) error {
	memberID, err := getMemberID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	resID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var req extendReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	pay, err := h.Reservations.Extend(c.Request().Context(), resID, memberID, req.ExtendTo)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, paymentSummary(pay))
}

type settleReq struct {
	DrivingDistance int64 `json:"driving_distance"` // km
}

// Settle handles POST /v1/reservations/:id/settlement.
func (h *ReservationHandler) Settle(c echo.Context) error {
	memberID, err := getMemberID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	resID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var req settleReq
	if err := c.Bind(&req); err != nil || req.DrivingDistance < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "driving_distance must be a non-negative number"})
	}
	pay, err := h.Settlement.SettleAfterUse(c.Request().Context(), resID, memberID, req.DrivingDistance)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"reservation_id":     pay.ReservationID,
		"driving_distance":   pay.DrivingDistance,
		"first_section_fee":  pay.FirstSectionFee,
		"second_section_fee": pay.SecondSectionFee,
		"third_section_fee":  pay.ThirdSectionFee,
		"total_toll_fee":     pay.TotalTollFee,
		"total_fee":          pay.TotalFee,
	})
}

// InsuranceQuotes handles GET /v1/reservations/:id/insurances.
func (h *ReservationHandler) InsuranceQuotes(c echo.Context) error {
	memberID, err := getMemberID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	resID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	quotes, err := h.Browse.ReservationInsuranceQuotes(c.Request().Context(), resID, memberID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"insurances": quotes})
}
