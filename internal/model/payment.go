package model

import "time"

// PaymentBeforeUse is the one-to-one up-front payment record of a
// reservation.  It is written in the same transaction as the
// reservation itself.  ExtensionFee and TotalFee grow when the rental
// is extended; every other field is immutable after creation.
//
// Fields:
//  ID             – primary key identifier.
//  ReservationID  – reservation this payment belongs to.
//  RentalFee      – base rental fee in won.
//  InsuranceFee   – insurance fee in won (0 for tier "none").
//  CouponDiscount – discount applied from a consumed coupon.
//  ExtensionFee   – cumulative extension fees added after booking.
//  TotalFee       – total charged so far (never negative).
type PaymentBeforeUse struct {
	ID             uint64    // payments_before_use.id
	ReservationID  uint64    // payments_before_use.reservation_id
	RentalFee      int64     // payments_before_use.rental_fee
	InsuranceFee   int64     // payments_before_use.insurance_fee
	CouponDiscount int64     // payments_before_use.coupon_discount
	ExtensionFee   int64     // payments_before_use.extension_fee
	TotalFee       int64     // payments_before_use.total_fee
	CreatedAt      time.Time // payments_before_use.created_at
	UpdatedAt      time.Time // payments_before_use.updated_at
}

// PaymentAfterUse is the one-to-one settlement record: the reported
// driving distance and the tiered mileage fee it produced.  It is
// created exactly once per reservation and never mutated afterwards;
// a second settlement attempt is rejected before any write.
//
// TotalTollFee is carried from the original data model and always 0
// here – toll ingestion happens outside this service.
type PaymentAfterUse struct {
	ID               uint64    // payments_after_use.id
	ReservationID    uint64    // payments_after_use.reservation_id
	DrivingDistance  int64     // payments_after_use.driving_distance (km)
	FirstSectionFee  int64     // payments_after_use.first_section_fee  (beyond 100km band)
	SecondSectionFee int64     // payments_after_use.second_section_fee (31–100km band)
	ThirdSectionFee  int64     // payments_after_use.third_section_fee  (0–30km band)
	TotalTollFee     int64     // payments_after_use.total_toll_fee
	TotalFee         int64     // payments_after_use.total_fee
	CreatedAt        time.Time // payments_after_use.created_at
	UpdatedAt        time.Time // payments_after_use.updated_at
}
