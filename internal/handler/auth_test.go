package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhokang/car-sharing-reservation/internal/config"
	"github.com/minhokang/car-sharing-reservation/internal/repository"
)

func newAuthHandler(t *testing.T, cfg config.Config) (*AuthHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	h := NewAuthHandler(cfg,
		repository.NewMemberRepo(db), repository.NewTokenRepo(db),
		repository.NewCouponRepo(db))
	return h, mock
}

func jsonContext(e *echo.Echo, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// Registration with a configured welcome coupon inserts the member,
// grants the coupon and stores the refresh token, in that order.
func TestRegisterGrantsWelcomeCoupon(t *testing.T) {
	cfg := config.Config{
		JWTSecret:      "test-secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 7,
		BcryptCost:     4,
		SignupCredit:   100000,
		WelcomeCoupon:  5000,
	}
	h, mock := newAuthHandler(t, cfg)

	mock.ExpectExec("INSERT INTO members").
		WithArgs("new@example.com", sqlmock.AnyArg(), 100000).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec("INSERT INTO coupons").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO refresh_tokens").
		WillReturnResult(sqlmock.NewResult(1, 1))

	e := echo.New()
	c, rec := jsonContext(e, http.MethodPost, "/v1/auth/register",
		`{"email":"new@example.com","password":"pass1234"}`)

	require.NoError(t, h.Register(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"credit_point":100000`)
	require.NoError(t, mock.ExpectationsWereMet())
}

// With all=true a logout revokes every active session of the member
// that owns the presented refresh token.
func TestLogoutAllRevokesEverySession(t *testing.T) {
	h, mock := newAuthHandler(t, config.Config{})

	mock.ExpectQuery("FROM refresh_tokens WHERE token_hash").
		WillReturnRows(sqlmock.NewRows([]string{"member_id", "expires_at", "revoked_at"}).
			AddRow(7, time.Now().UTC().Add(time.Hour), nil))
	mock.ExpectExec("UPDATE refresh_tokens SET revoked_at=NOW\\(\\) WHERE member_id").
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 3))

	e := echo.New()
	c, rec := jsonContext(e, http.MethodPost, "/v1/auth/logout",
		`{"refresh_token":"raw-token","all":true}`)

	require.NoError(t, h.Logout(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

// The coupon listing renders the member's coupons with KST expiry.
func TestMyCoupons(t *testing.T) {
	h, mock := newAuthHandler(t, config.Config{})

	expire := time.Date(2026, 9, 28, 1, 0, 0, 0, time.UTC) // 10:00 KST
	mock.ExpectQuery("FROM coupons WHERE member_id").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "member_id", "title", "expire_date_time", "limit_delta_term",
			"discount_fee", "is_enabled", "will_use_check", "is_used", "is_free",
			"description", "created_at", "updated_at",
		}).AddRow(1, 7, "Welcome coupon", expire, 30, 5000, true, true, false, true, nil, expire, expire))

	e := echo.New()
	c, rec := jsonContext(e, http.MethodGet, "/v1/me/coupons", "")
	c.Set("user_id", "7")

	require.NoError(t, h.MyCoupons(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Welcome coupon"`)
	assert.Contains(t, rec.Body.String(), `"2026-09-28 10:00"`)
	require.NoError(t, mock.ExpectationsWereMet())
}
