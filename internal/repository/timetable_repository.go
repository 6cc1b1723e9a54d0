package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/minhokang/car-sharing-reservation/internal/model"
)

// TimeTableRepo is the availability index: it owns the time_tables
// rows that record which car is booked for which interval.  One row
// exists per reservation; extension pushes its end out and a car or
// window change re-points it.  Rows are joined against the
// reservations table so that finished reservations stop blocking the
// car without any row deletion.
//
// The canonical overlap rule is closed-interval: a candidate window
// conflicts with a booked interval when candidateStart <= bookedEnd
// AND candidateEnd >= bookedStart, i.e. boundary touching conflicts.
type TimeTableRepo struct{ DB *sql.DB }

// NewTimeTableRepo returns a TimeTableRepo bound to the given database.
func NewTimeTableRepo(db *sql.DB) *TimeTableRepo { return &TimeTableRepo{DB: db} }

// Overlaps reports whether two closed intervals share at least one
// instant.  It is the in-process mirror of the SQL conflict predicate
// and is symmetric in its arguments.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !aEnd.Before(bStart)
}

// HasConflictTx reports whether the candidate window collides with any
// active (non-finished) reservation on the car, excluding the
// reservation with excludeID (0 to exclude nothing).  Matching rows
// are locked with FOR UPDATE.  Callers must have taken the car row
// lock (CarRepo.LockTx) earlier in the same transaction: the check can
// match zero rows, and without the car lock two concurrent bookings
// could both pass it and insert overlapping intervals.
func (r *TimeTableRepo) HasConflictTx(ctx context.Context, tx *sql.Tx, carID uint64, start, end time.Time, excludeID uint64) (bool, error) {
	const q = `SELECT t.id
	           FROM time_tables t
	           JOIN reservations res ON res.id = t.reservation_id
	           WHERE t.car_id = ?
	             AND res.is_finished = FALSE
	             AND t.reservation_id <> ?
	             AND t.starts_at <= ?
	             AND t.ends_at >= ?
	           LIMIT 1
	           FOR UPDATE`
	var id uint64
	err := tx.QueryRowContext(ctx, q, carID, excludeID, end, start).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// InsertTx records the booked interval for a new reservation and
// populates the generated ID on the entry.
func (r *TimeTableRepo) InsertTx(ctx context.Context, tx *sql.Tx, e *model.TimeTableEntry) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO time_tables (reservation_id, zone_id, car_id, starts_at, ends_at)
		 VALUES (?,?,?,?,?)`,
		e.ReservationID, e.ZoneID, e.CarID, e.StartsAt.UTC(), e.EndsAt.UTC())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// UpdateEndTx pushes the booked interval's end out to newEnd, used by
// rental extension.
func (r *TimeTableRepo) UpdateEndTx(ctx context.Context, tx *sql.Tx, reservationID uint64, newEnd time.Time) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE time_tables SET ends_at = ? WHERE reservation_id = ?",
		newEnd.UTC(), reservationID)
	return err
}

// UpdateWindowTx rewrites the booked interval when a pre-use time
// change moves the reservation window.
func (r *TimeTableRepo) UpdateWindowTx(ctx context.Context, tx *sql.Tx, reservationID uint64, start, end time.Time) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE time_tables SET starts_at = ?, ends_at = ? WHERE reservation_id = ?",
		start.UTC(), end.UTC(), reservationID)
	return err
}

// UpdateCarTx re-points the booked interval at another car when a
// pre-use car change swaps vehicles within the zone.
func (r *TimeTableRepo) UpdateCarTx(ctx context.Context, tx *sql.Tx, reservationID, carID uint64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE time_tables SET car_id = ? WHERE reservation_id = ?",
		carID, reservationID)
	return err
}

// ReservedWindow is one booked interval of a car, returned for the
// public timetable listing.
type ReservedWindow struct {
	ReservationID uint64
	StartsAt      time.Time
	EndsAt        time.Time
}

// ListActiveByCar returns the booked intervals of all active
// reservations for a car, ordered by start time.
func (r *TimeTableRepo) ListActiveByCar(ctx context.Context, carID uint64) ([]ReservedWindow, error) {
	const q = `SELECT t.reservation_id, t.starts_at, t.ends_at
	           FROM time_tables t
	           JOIN reservations res ON res.id = t.reservation_id
	           WHERE t.car_id = ? AND res.is_finished = FALSE
	           ORDER BY t.starts_at`
	rows, err := r.DB.QueryContext(ctx, q, carID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ReservedWindow, 0)
	for rows.Next() {
		var w ReservedWindow
		if err := rows.Scan(&w.ReservationID, &w.StartsAt, &w.EndsAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// BusyCarIDs returns the set of car ids in a zone that have at least
// one active reservation overlapping the window.  The available-cars
// listing filters the zone's fleet against this set.
func (r *TimeTableRepo) BusyCarIDs(ctx context.Context, zoneID uint64, start, end time.Time) (map[uint64]struct{}, error) {
	const q = `SELECT DISTINCT t.car_id
	           FROM time_tables t
	           JOIN reservations res ON res.id = t.reservation_id
	           WHERE t.zone_id = ?
	             AND res.is_finished = FALSE
	             AND t.starts_at <= ?
	             AND t.ends_at >= ?`
	rows, err := r.DB.QueryContext(ctx, q, zoneID, end, start)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	busy := make(map[uint64]struct{})
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		busy[id] = struct{}{}
	}
	return busy, rows.Err()
}
