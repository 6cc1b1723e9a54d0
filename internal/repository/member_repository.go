package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/minhokang/car-sharing-reservation/internal/model"
	"github.com/minhokang/car-sharing-reservation/internal/utils"
)

// MemberRepo provides access to the members table, including the
// credit balance that every reservation mutation debits or credits.
// Balance updates are expressed as single conditional UPDATE
// statements so they stay correct under concurrent requests from the
// same member; the balance is never read into memory, modified and
// written back.
type MemberRepo struct{ DB *sql.DB }

// NewMemberRepo returns a MemberRepo bound to the given database.
func NewMemberRepo(db *sql.DB) *MemberRepo { return &MemberRepo{DB: db} }

// Create inserts a member with a hashed password and the signup credit
// grant, returning the new ID.  Duplicate emails surface as
// ErrEmailExists.
func (r *MemberRepo) Create(ctx context.Context, email, password string, cost int, signupCredit int64) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO members (email, password_hash, credit_point) VALUES (?,?,?)",
		email, hash, signupCredit)
	if err != nil {
		// MySQL duplicate-key errors carry code 1062.
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a member by normalized email.
func (r *MemberRepo) GetByEmail(ctx context.Context, email string) (model.Member, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var m model.Member
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,credit_point,is_active,created_at,updated_at FROM members WHERE email=? LIMIT 1",
		email).Scan(&m.ID, &m.Email, &m.PasswordHash, &m.CreditPoint, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

// GetByID fetches a member by id.
func (r *MemberRepo) GetByID(ctx context.Context, id uint64) (model.Member, error) {
	var m model.Member
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,email,password_hash,credit_point,is_active,created_at,updated_at FROM members WHERE id=? LIMIT 1",
		id).Scan(&m.ID, &m.Email, &m.PasswordHash, &m.CreditPoint, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

// DebitTx atomically subtracts amount from the member's balance inside
// the given transaction.  The WHERE clause guards against overdraft:
// when the balance is too small no row is updated and
// ErrInsufficientCredit is returned, leaving the transaction free to
// roll back without any partial write.
func (r *MemberRepo) DebitTx(ctx context.Context, tx *sql.Tx, memberID uint64, amount int64) error {
	if amount == 0 {
		return nil
	}
	res, err := tx.ExecContext(ctx,
		"UPDATE members SET credit_point = credit_point - ? WHERE id = ? AND credit_point >= ?",
		amount, memberID, amount)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInsufficientCredit
	}
	return nil
}

// CreditTx atomically adds amount to the member's balance inside the
// given transaction.  Used for refund-style adjustments when a
// pre-use change lowers the total fee.
func (r *MemberRepo) CreditTx(ctx context.Context, tx *sql.Tx, memberID uint64, amount int64) error {
	if amount == 0 {
		return nil
	}
	_, err := tx.ExecContext(ctx,
		"UPDATE members SET credit_point = credit_point + ? WHERE id = ?",
		amount, memberID)
	return err
}
