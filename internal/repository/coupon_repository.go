package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/minhokang/car-sharing-reservation/internal/model"
)

// CouponRepo manages member discount coupons.  A coupon is usable when
// it is enabled, flagged for use, not yet consumed and not expired.
type CouponRepo struct{ DB *sql.DB }

// NewCouponRepo returns a CouponRepo bound to the given database.
func NewCouponRepo(db *sql.DB) *CouponRepo { return &CouponRepo{DB: db} }

const couponColumns = `
	id, member_id, title, expire_date_time, limit_delta_term, discount_fee,
	is_enabled, will_use_check, is_used, is_free, description, created_at, updated_at`

func scanCoupon(row interface{ Scan(...any) error }) (model.Coupon, error) {
	var (
		c    model.Coupon
		desc sql.NullString
	)
	err := row.Scan(&c.ID, &c.MemberID, &c.Title, &c.ExpireDateTime, &c.LimitDeltaTerm,
		&c.DiscountFee, &c.IsEnabled, &c.WillUseCheck, &c.IsUsed, &c.IsFree, &desc,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return model.Coupon{}, err
	}
	if desc.Valid {
		s := desc.String
		c.Description = &s
	}
	return c, nil
}

// FindUsableTx returns the member's single best usable coupon locked
// FOR UPDATE, or (nil, nil) when none applies.  Picking the largest
// discount first keeps the choice deterministic when a member holds
// several usable coupons.
func (r *CouponRepo) FindUsableTx(ctx context.Context, tx *sql.Tx, memberID uint64, now time.Time) (*model.Coupon, error) {
	c, err := scanCoupon(tx.QueryRowContext(ctx,
		`SELECT`+couponColumns+`
		 FROM coupons
		 WHERE member_id = ? AND is_enabled = TRUE AND will_use_check = TRUE
		   AND is_used = FALSE AND expire_date_time > ?
		 ORDER BY discount_fee DESC, id ASC
		 LIMIT 1
		 FOR UPDATE`,
		memberID, now.UTC()))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ConsumeTx marks a coupon spent.  A consumed coupon is both disabled
// and flagged used so it never matches FindUsableTx again.
func (r *CouponRepo) ConsumeTx(ctx context.Context, tx *sql.Tx, couponID uint64) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE coupons SET is_enabled = FALSE, is_used = TRUE WHERE id = ?",
		couponID)
	return err
}

// Create inserts a coupon and populates the generated ID.  The signup
// welcome grant goes through here.
func (r *CouponRepo) Create(ctx context.Context, c *model.Coupon) error {
	result, err := r.DB.ExecContext(ctx,
		`INSERT INTO coupons
		 (member_id, title, expire_date_time, limit_delta_term, discount_fee,
		  is_enabled, will_use_check, is_used, is_free, description)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		c.MemberID, c.Title, c.ExpireDateTime.UTC(), c.LimitDeltaTerm, c.DiscountFee,
		c.IsEnabled, c.WillUseCheck, c.IsUsed, c.IsFree, c.Description)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// ListByMember returns all coupons of a member, soonest expiry first.
func (r *CouponRepo) ListByMember(ctx context.Context, memberID uint64) ([]model.Coupon, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT`+couponColumns+` FROM coupons WHERE member_id = ? ORDER BY expire_date_time ASC`,
		memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Coupon, 0)
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
