package model

import "time"

// Coupon belongs to a member and discounts the up-front fee of exactly
// one booking.  A coupon is applied when it is enabled, flagged for use
// (WillUseCheck) and not expired; consuming it flips it to
// disabled+used inside the booking transaction so it can never be
// spent twice.
//
// Fields:
//  ID             – primary key identifier.
//  MemberID       – owner of the coupon.
//  Title          – coupon display name.
//  ExpireDateTime – expiry timestamp (UTC).
//  LimitDeltaTerm – minimum reservation length (days) the coupon requires.
//  DiscountFee    – discount amount in won.
//  IsEnabled      – whether the coupon can still be applied.
//  WillUseCheck   – member opted in to spend this coupon on the next booking.
//  IsUsed         – set once the coupon has been consumed.
//  IsFree         – promotional free coupon flag.
//  Description    – optional descriptive text.
type Coupon struct {
	ID             uint64    // coupons.id
	MemberID       uint64    // coupons.member_id
	Title          string    // coupons.title
	ExpireDateTime time.Time // coupons.expire_date_time
	LimitDeltaTerm uint32    // coupons.limit_delta_term
	DiscountFee    int64     // coupons.discount_fee
	IsEnabled      bool      // coupons.is_enabled
	WillUseCheck   bool      // coupons.will_use_check
	IsUsed         bool      // coupons.is_used
	IsFree         bool      // coupons.is_free
	Description    *string   // coupons.description (nullable)
	CreatedAt      time.Time // coupons.created_at
	UpdatedAt      time.Time // coupons.updated_at
}
