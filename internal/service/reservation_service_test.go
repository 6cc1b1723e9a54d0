package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhokang/car-sharing-reservation/internal/apperrors"
)

// fixedNow is the reference clock for validation tests:
// 2026-08-29 10:00 KST.
var fixedNow = time.Date(2026, 8, 29, 1, 0, 0, 0, time.UTC)

func testClock() func() time.Time { return func() time.Time { return fixedNow } }

func TestValidateWindow(t *testing.T) {
	from := fixedNow.Add(time.Hour)

	cases := []struct {
		name string
		from time.Time
		to   time.Time
		want error
	}{
		{"minimum duration", from, from.Add(30 * time.Minute), nil},
		{"maximum duration", from, from.Add(30 * 24 * time.Hour), nil},
		{"too short", from, from.Add(20 * time.Minute), apperrors.ErrTooLessOrTooMuchTime},
		{"too long", from, from.Add(30*24*time.Hour + 10*time.Minute), apperrors.ErrTooLessOrTooMuchTime},
		{"start in the past", fixedNow.Add(-time.Hour), fixedNow.Add(time.Hour), apperrors.ErrBeforeTheCurrentTime},
		{"start exactly now", fixedNow, fixedNow.Add(time.Hour), apperrors.ErrBeforeTheCurrentTime},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateWindow(tc.from, tc.to, fixedNow)
			if tc.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.want)
			}
		})
	}
}

// Create must reject malformed or out-of-bounds windows before it
// touches any repository: the service under test carries no database
// handle at all, so reaching storage would panic the test.
func TestCreateRejectsBadWindowsBeforeStorage(t *testing.T) {
	s := &ReservationService{Now: testClock()}
	ctx := context.Background()

	cases := []struct {
		name    string
		rawFrom string
		rawTo   string
		want    *apperrors.Error
	}{
		{"from too short", "20260829", "202608291400", apperrors.ErrInvalidTimeFormat},
		{"from not a number", "2026x8291000", "202608291400", apperrors.ErrInvalidTimeFormat},
		{"from off boundary", "202608291005", "202608291400", apperrors.ErrNotOnTenMinuteBoundary},
		{"to off boundary", "202608291000", "202608291405", apperrors.ErrNotOnTenMinuteBoundary},
		{"inverted window", "202608291400", "202608291000", apperrors.ErrTooLessOrTooMuchTime},
		{"too short window", "202608291400", "202608291410", apperrors.ErrTooLessOrTooMuchTime},
		{"window in the past", "202508291000", "202508291400", apperrors.ErrBeforeTheCurrentTime},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Create(ctx, 1, 1, 1, tc.rawFrom, tc.rawTo, "light")
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestExtendRejectsBadTimeBeforeStorage(t *testing.T) {
	s := &ReservationService{Now: testClock()}

	_, err := s.Extend(context.Background(), 1, 1, "bogus")
	assert.ErrorIs(t, err, apperrors.ErrInvalidTimeFormat)

	_, err = s.Extend(context.Background(), 1, 1, "202608291405")
	assert.ErrorIs(t, err, apperrors.ErrNotOnTenMinuteBoundary)
}

func TestListAvailableCarsRejectsBadWindowBeforeStorage(t *testing.T) {
	s := &BrowseService{Now: testClock()}

	_, err := s.ListAvailableCars(context.Background(), 1, "bad", "worse")
	assert.ErrorIs(t, err, apperrors.ErrInvalidTimeFormat)

	_, err = s.ListAvailableCars(context.Background(), 1, "202508291000", "202508291400")
	assert.ErrorIs(t, err, apperrors.ErrBeforeTheCurrentTime)
}

func TestNowDefaultsToWallClock(t *testing.T) {
	s := &ReservationService{}
	before := time.Now().UTC().Add(-time.Second)
	got := s.now()
	after := time.Now().UTC().Add(time.Second)
	require.True(t, got.After(before) && got.Before(after))
}
