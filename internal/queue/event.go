// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservationConfirmedEvent is published when a reservation is created and
// paid for. It contains enough information for downstream consumers to log,
// notify, or trigger analytics without querying the primary database.
type ReservationConfirmedEvent struct {
	ReservationID uint64 `json:"reservation_id"`
	MemberID      uint64 `json:"member_id"`
	CarID         uint64 `json:"car_id"`
	CarName       string `json:"car_name"`
	ZoneID        uint64 `json:"zone_id"`
	ZoneName      string `json:"zone_name"`
	Insurance     string `json:"insurance"`
	FromWhen      string `json:"from_when"`
	ToWhen        string `json:"to_when"`
	RentalFee     int64  `json:"rental_fee"`
	InsuranceFee  int64  `json:"insurance_fee"`
	CouponApplied int64  `json:"coupon_applied"`
	TotalFee      int64  `json:"total_fee"`
	ConfirmedAt   string `json:"confirmed_at"`
}

// ReservationSettledEvent is published after post-use settlement, when the
// distance-based fees have been charged and the reservation is closed.
type ReservationSettledEvent struct {
	ReservationID   uint64 `json:"reservation_id"`
	MemberID        uint64 `json:"member_id"`
	CarID           uint64 `json:"car_id"`
	DrivingDistance int64  `json:"driving_distance"`
	TotalFee        int64  `json:"total_fee"`
	SettledAt       string `json:"settled_at"`
}
