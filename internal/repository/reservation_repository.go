package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/minhokang/car-sharing-reservation/internal/model"
)

// ReservationRepo provides CRUD operations for reservations and their
// one-to-one status rows.  All timestamp columns are stored in UTC.
// Reservations are never deleted; settlement flips is_finished and the
// row stays as history.
type ReservationRepo struct{ DB *sql.DB }

// NewReservationRepo returns a ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{DB: db} }

const reservationColumns = `
	id, member_id, car_id, zone_id, insurance, from_when, to_when,
	is_extended, extended_to_when, is_finished, created_at, updated_at`

func scanReservation(row interface{ Scan(...any) error }) (model.Reservation, error) {
	var (
		res      model.Reservation
		extended sql.NullTime
	)
	err := row.Scan(&res.ID, &res.MemberID, &res.CarID, &res.ZoneID, &res.Insurance,
		&res.FromWhen, &res.ToWhen, &res.IsExtended, &extended, &res.IsFinished,
		&res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return model.Reservation{}, err
	}
	if extended.Valid {
		t := extended.Time
		res.ExtendedToWhen = &t
	}
	return res, nil
}

// CreateTx inserts a new reservation within the given transaction and
// populates the generated ID and timestamps on the provided record.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	result, err := tx.ExecContext(ctx,
		`INSERT INTO reservations (member_id, car_id, zone_id, insurance, from_when, to_when)
		 VALUES (?,?,?,?,?,?)`,
		res.MemberID, res.CarID, res.ZoneID, res.Insurance,
		res.FromWhen.UTC(), res.ToWhen.UTC())
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	stored, err := scanReservation(tx.QueryRowContext(ctx,
		`SELECT`+reservationColumns+` FROM reservations WHERE id = ?`, res.ID))
	if err != nil {
		return err
	}
	*res = stored
	return nil
}

// GetByID fetches a reservation by id without an ownership check.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (model.Reservation, error) {
	return scanReservation(r.DB.QueryRowContext(ctx,
		`SELECT`+reservationColumns+` FROM reservations WHERE id = ?`, id))
}

// GetForMember fetches a reservation and enforces ownership:
// sql.ErrNoRows when the id does not exist, ErrForbidden when it
// belongs to another member.
func (r *ReservationRepo) GetForMember(ctx context.Context, id, memberID uint64) (model.Reservation, error) {
	res, err := r.GetByID(ctx, id)
	if err != nil {
		return model.Reservation{}, err
	}
	if res.MemberID != memberID {
		return model.Reservation{}, ErrForbidden
	}
	return res, nil
}

// GetForMemberTx is GetForMember inside a transaction, locking the
// reservation row FOR UPDATE so concurrent mutations of the same
// reservation serialize.
func (r *ReservationRepo) GetForMemberTx(ctx context.Context, tx *sql.Tx, id, memberID uint64) (model.Reservation, error) {
	res, err := scanReservation(tx.QueryRowContext(ctx,
		`SELECT`+reservationColumns+` FROM reservations WHERE id = ? FOR UPDATE`, id))
	if err != nil {
		return model.Reservation{}, err
	}
	if res.MemberID != memberID {
		return model.Reservation{}, ErrForbidden
	}
	return res, nil
}

// ListByMember returns all reservations of a member, newest first.
func (r *ReservationRepo) ListByMember(ctx context.Context, memberID uint64) ([]model.Reservation, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT`+reservationColumns+` FROM reservations WHERE member_id = ? ORDER BY created_at DESC`,
		memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// UpdateInsuranceTx changes the reservation's insurance tier.
func (r *ReservationRepo) UpdateInsuranceTx(ctx context.Context, tx *sql.Tx, id uint64, tier string) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE reservations SET insurance = ? WHERE id = ?", tier, id)
	return err
}

// UpdateWindowTx changes the reservation's rental window.
func (r *ReservationRepo) UpdateWindowTx(ctx context.Context, tx *sql.Tx, id uint64, from, to time.Time) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE reservations SET from_when = ?, to_when = ? WHERE id = ?",
		from.UTC(), to.UTC(), id)
	return err
}

// UpdateCarTx swaps the reservation onto another car.
func (r *ReservationRepo) UpdateCarTx(ctx context.Context, tx *sql.Tx, id, carID uint64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE reservations SET car_id = ? WHERE id = ?", carID, id)
	return err
}

// ExtendTx marks the reservation extended and records the pushed-out
// return time.
func (r *ReservationRepo) ExtendTx(ctx context.Context, tx *sql.Tx, id uint64, extendedTo time.Time) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE reservations SET is_extended = TRUE, extended_to_when = ? WHERE id = ?",
		extendedTo.UTC(), id)
	return err
}

// FinishTx sets the is_finished flag.  Called exactly once, by
// post-use settlement.
func (r *ReservationRepo) FinishTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE reservations SET is_finished = TRUE WHERE id = ?", id)
	return err
}

// InsertStatusTx creates the one-to-one status row for a new
// reservation.
func (r *ReservationRepo) InsertStatusTx(ctx context.Context, tx *sql.Tx, reservationID uint64, status string) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO reservation_statuses (reservation_id, status) VALUES (?,?)",
		reservationID, status)
	return err
}

// UpdateStatusTx advances the stored status of a reservation.
func (r *ReservationRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, reservationID uint64, status string) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE reservation_statuses SET status = ? WHERE reservation_id = ?",
		status, reservationID)
	return err
}

// GetStatus returns the stored status of a reservation.
func (r *ReservationRepo) GetStatus(ctx context.Context, reservationID uint64) (string, error) {
	var s string
	err := r.DB.QueryRowContext(ctx,
		"SELECT status FROM reservation_statuses WHERE reservation_id = ?",
		reservationID).Scan(&s)
	return s, err
}

// FinalizeStatus performs the lazy PAID_AFTER_USE -> FINISHED
// transition on read.  The UPDATE is conditional so concurrent readers
// race harmlessly; the stored status after the call is returned.
func (r *ReservationRepo) FinalizeStatus(ctx context.Context, reservationID uint64) (string, error) {
	s, err := r.GetStatus(ctx, reservationID)
	if err != nil {
		return "", err
	}
	if s != model.StatusPaidAfter {
		return s, nil
	}
	_, err = r.DB.ExecContext(ctx,
		"UPDATE reservation_statuses SET status = ? WHERE reservation_id = ? AND status = ?",
		model.StatusFinished, reservationID, model.StatusPaidAfter)
	if err != nil {
		return "", err
	}
	return model.StatusFinished, nil
}
