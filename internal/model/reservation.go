package model

import "time"

// Stored reservation status values.  USING is intentionally absent:
// it is a display-only state derived from the clock, never persisted.
const (
	StatusNotPaid    = "NOT_PAID"
	StatusPaidBefore = "PAID_BEFORE_USE"
	StatusUsing      = "USING"
	StatusExtended   = "EXTENDED"
	StatusPaidAfter  = "PAID_AFTER_USE"
	StatusFinished   = "FINISHED"
)

// Insurance tier names accepted on a reservation.  The pricing rules
// for each tier live in the pricing package.
const (
	InsuranceLight    = "light"
	InsuranceStandard = "standard"
	InsuranceSpecial  = "special"
	InsuranceNone     = "none"
)

// Reservation records a member's booking of a car for a time window.
// It is the central entity of the system: payments, the status row and
// the time-table row all hang off it.  Reservations are never deleted;
// settlement marks them finished and they remain as history.
//
// Fields:
//  ID             – primary key identifier.
//  MemberID       – member who booked the car.
//  CarID          – car being rented.
//  ZoneID         – zone the car is picked up from.
//  Insurance      – insurance tier (light/standard/special/none).
//  FromWhen       – rental window start (UTC).
//  ToWhen         – rental window end (UTC).  Always after FromWhen.
//  IsExtended     – whether the rental has been extended at least once.
//  ExtendedToWhen – pushed-out return time when extended (nullable).
//  IsFinished     – set exactly once by post-use settlement.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Reservation struct {
	ID             uint64     // reservations.id
	MemberID       uint64     // reservations.member_id
	CarID          uint64     // reservations.car_id
	ZoneID         uint64     // reservations.zone_id
	Insurance      string     // reservations.insurance
	FromWhen       time.Time  // reservations.from_when
	ToWhen         time.Time  // reservations.to_when
	IsExtended     bool       // reservations.is_extended
	ExtendedToWhen *time.Time // reservations.extended_to_when (nullable)
	IsFinished     bool       // reservations.is_finished
	CreatedAt      time.Time  // reservations.created_at
	UpdatedAt      time.Time  // reservations.updated_at
}

// CurrentEnd returns the effective end of the rental window: the
// extended return time when the reservation has been extended,
// otherwise the originally booked end.
func (r *Reservation) CurrentEnd() time.Time {
	if r.IsExtended && r.ExtendedToWhen != nil {
		return *r.ExtendedToWhen
	}
	return r.ToWhen
}

// DeriveStatus maps a stored status to the status shown to members.
// A paid, unfinished reservation whose window contains the current
// time is displayed as USING even though USING is never stored.
func DeriveStatus(stored string, r *Reservation, now time.Time) string {
	if stored == StatusPaidBefore || stored == StatusExtended {
		if !now.Before(r.FromWhen) && !now.After(r.CurrentEnd()) {
			return StatusUsing
		}
	}
	return stored
}

// ReservationStatus is the one-to-one status row driven exclusively by
// reservation lifecycle events.  The transition PAID_AFTER_USE ->
// FINISHED happens lazily on the first read after settlement instead
// of via a background job.
type ReservationStatus struct {
	ID            uint64    // reservation_statuses.id
	ReservationID uint64    // reservation_statuses.reservation_id
	Status        string    // reservation_statuses.status
	CreatedAt     time.Time // reservation_statuses.created_at
	UpdatedAt     time.Time // reservation_statuses.updated_at
}

// TimeTableEntry is the durable booked-interval record the
// availability index queries: one row per reservation, created at
// booking time, its end pushed out on extension and re-pointed when
// the reservation's car or window changes.  Rows are never deleted
// while the reservation is active.
type TimeTableEntry struct {
	ID            uint64    // time_tables.id
	ReservationID uint64    // time_tables.reservation_id
	ZoneID        uint64    // time_tables.zone_id
	CarID         uint64    // time_tables.car_id
	StartsAt      time.Time // time_tables.starts_at
	EndsAt        time.Time // time_tables.ends_at
}
