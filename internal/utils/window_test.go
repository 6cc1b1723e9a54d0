package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhokang/car-sharing-reservation/internal/apperrors"
)

func TestParseWindowTime(t *testing.T) {
	// 2020-09-25 14:00 KST is 05:00 UTC the same day.
	got, err := ParseWindowTime("202009251400")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, 9, 25, 5, 0, 0, 0, time.UTC), got)
	assert.Equal(t, time.UTC, got.Location())
}

func TestParseWindowTimeErrors(t *testing.T) {
	tests := []struct {
		raw  string
		want error
	}{
		{"20200925140", apperrors.ErrInvalidTimeFormat},    // too short
		{"2020092514000", apperrors.ErrInvalidTimeFormat},  // too long
		{"2020-09-25 14", apperrors.ErrInvalidTimeFormat},  // wrong shape
		{"202013251400", apperrors.ErrInvalidTimeFormat},   // month 13
		{"202009251405", apperrors.ErrNotOnTenMinuteBoundary},
		{"202009251459", apperrors.ErrNotOnTenMinuteBoundary},
	}
	for _, tc := range tests {
		_, err := ParseWindowTime(tc.raw)
		assert.ErrorIs(t, err, tc.want, "raw=%q", tc.raw)
	}
}

func TestParseWindow(t *testing.T) {
	from, to, err := ParseWindow("202009251400", "202009251440")
	require.NoError(t, err)
	assert.Equal(t, 40*time.Minute, to.Sub(from))

	// Inverted and empty windows are rejected.
	_, _, err = ParseWindow("202009251440", "202009251400")
	assert.ErrorIs(t, err, apperrors.ErrTooLessOrTooMuchTime)
	_, _, err = ParseWindow("202009251400", "202009251400")
	assert.ErrorIs(t, err, apperrors.ErrTooLessOrTooMuchTime)
}

func TestFormatKST(t *testing.T) {
	utc := time.Date(2020, 9, 25, 5, 0, 0, 0, time.UTC)
	assert.Equal(t, "2020-09-25 14:00", FormatKST(utc))
}
