package repository

import (
	"context"
	"database/sql"

	"github.com/minhokang/car-sharing-reservation/internal/model"
)

// PaymentRepo persists the two payment rows a reservation can carry:
// one pre-use row (rental + insurance, coupon discount, accumulated
// extension fees) and at most one post-use row (distance fees).
type PaymentRepo struct{ DB *sql.DB }

// NewPaymentRepo returns a PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{DB: db} }

// InsertBeforeUseTx creates the pre-use payment row and populates the
// generated ID on the record.
func (r *PaymentRepo) InsertBeforeUseTx(ctx context.Context, tx *sql.Tx, p *model.PaymentBeforeUse) error {
	result, err := tx.ExecContext(ctx,
		`INSERT INTO payments_before_use
		 (reservation_id, rental_fee, insurance_fee, coupon_discount, extension_fee, total_fee)
		 VALUES (?,?,?,?,?,?)`,
		p.ReservationID, p.RentalFee, p.InsuranceFee, p.CouponDiscount, p.ExtensionFee, p.TotalFee)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// GetBeforeUse fetches the pre-use payment row of a reservation.
func (r *PaymentRepo) GetBeforeUse(ctx context.Context, reservationID uint64) (model.PaymentBeforeUse, error) {
	return r.scanBeforeUse(r.DB.QueryRowContext(ctx,
		`SELECT id, reservation_id, rental_fee, insurance_fee, coupon_discount, extension_fee, total_fee, created_at, updated_at
		 FROM payments_before_use WHERE reservation_id = ?`, reservationID))
}

// GetBeforeUseTx is GetBeforeUse inside a transaction, locking the row
// FOR UPDATE.
func (r *PaymentRepo) GetBeforeUseTx(ctx context.Context, tx *sql.Tx, reservationID uint64) (model.PaymentBeforeUse, error) {
	return r.scanBeforeUse(tx.QueryRowContext(ctx,
		`SELECT id, reservation_id, rental_fee, insurance_fee, coupon_discount, extension_fee, total_fee, created_at, updated_at
		 FROM payments_before_use WHERE reservation_id = ? FOR UPDATE`, reservationID))
}

func (r *PaymentRepo) scanBeforeUse(row *sql.Row) (model.PaymentBeforeUse, error) {
	var p model.PaymentBeforeUse
	err := row.Scan(&p.ID, &p.ReservationID, &p.RentalFee, &p.InsuranceFee,
		&p.CouponDiscount, &p.ExtensionFee, &p.TotalFee, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// UpdateBeforeUseFeesTx rewrites the rental and insurance components
// after a pre-use change (window, car or insurance tier) and bumps
// total_fee accordingly.  The coupon discount and extension fee are
// left as they are.
func (r *PaymentRepo) UpdateBeforeUseFeesTx(ctx context.Context, tx *sql.Tx, reservationID uint64, rentalFee, insuranceFee, totalFee int64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE payments_before_use
		 SET rental_fee = ?, insurance_fee = ?, total_fee = ?
		 WHERE reservation_id = ?`,
		rentalFee, insuranceFee, totalFee, reservationID)
	return err
}

// AddExtensionFeeTx accumulates an extension charge onto the pre-use
// row.  Extensions can stack, so the column is additive.
func (r *PaymentRepo) AddExtensionFeeTx(ctx context.Context, tx *sql.Tx, reservationID uint64, fee int64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE payments_before_use
		 SET extension_fee = extension_fee + ?, total_fee = total_fee + ?
		 WHERE reservation_id = ?`,
		fee, fee, reservationID)
	return err
}

// ExistsAfterUseTx reports whether the reservation has already been
// settled.  Locks the row FOR UPDATE when present so double settlement
// attempts serialize.
func (r *PaymentRepo) ExistsAfterUseTx(ctx context.Context, tx *sql.Tx, reservationID uint64) (bool, error) {
	var id uint64
	err := tx.QueryRowContext(ctx,
		"SELECT id FROM payments_after_use WHERE reservation_id = ? FOR UPDATE",
		reservationID).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// InsertAfterUseTx creates the post-use payment row and populates the
// generated ID on the record.
func (r *PaymentRepo) InsertAfterUseTx(ctx context.Context, tx *sql.Tx, p *model.PaymentAfterUse) error {
	result, err := tx.ExecContext(ctx,
		`INSERT INTO payments_after_use
		 (reservation_id, driving_distance, first_section_fee, second_section_fee, third_section_fee, total_toll_fee, total_fee)
		 VALUES (?,?,?,?,?,?,?)`,
		p.ReservationID, p.DrivingDistance, p.FirstSectionFee, p.SecondSectionFee,
		p.ThirdSectionFee, p.TotalTollFee, p.TotalFee)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// GetAfterUse fetches the post-use payment row of a reservation.
func (r *PaymentRepo) GetAfterUse(ctx context.Context, reservationID uint64) (model.PaymentAfterUse, error) {
	var p model.PaymentAfterUse
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, reservation_id, driving_distance, first_section_fee, second_section_fee, third_section_fee, total_toll_fee, total_fee, created_at, updated_at
		 FROM payments_after_use WHERE reservation_id = ?`, reservationID).
		Scan(&p.ID, &p.ReservationID, &p.DrivingDistance, &p.FirstSectionFee,
			&p.SecondSectionFee, &p.ThirdSectionFee, &p.TotalTollFee, &p.TotalFee,
			&p.CreatedAt, &p.UpdatedAt)
	return p, err
}
