package utils

import (
	"time"

	"github.com/minhokang/car-sharing-reservation/internal/apperrors"
)

// KST is the fixed display timezone (UTC+9).  Members enter and see
// wall-clock times in KST; everything stored or compared internally is
// UTC.  The conversion happens only at this boundary.
var KST = time.FixedZone("Asia/Seoul", 9*60*60)

// windowLayout is the fixed-width wall-clock format members submit,
// e.g. 202009251400 for 2020-09-25 14:00 KST.
const windowLayout = "200601021504"

// displayLayout is how timestamps are rendered in responses.
const displayLayout = "2006-01-02 15:04"

// ParseWindowTime parses a single 12 digit yyyymmddHHMM string as KST
// wall-clock time and returns the UTC instant.  It fails with
// InvalidTimeFormat when the shape or the calendar date is wrong and
// with NotOnTenMinuteBoundary when the minutes are not a multiple of
// 10.
func ParseWindowTime(raw string) (time.Time, error) {
	if len(raw) != len(windowLayout) {
		return time.Time{}, apperrors.ErrInvalidTimeFormat
	}
	t, err := time.ParseInLocation(windowLayout, raw, KST)
	if err != nil {
		return time.Time{}, apperrors.ErrInvalidTimeFormat
	}
	if t.Minute()%10 != 0 {
		return time.Time{}, apperrors.ErrNotOnTenMinuteBoundary
	}
	return t.UTC(), nil
}

// ParseWindow parses a (from, to) pair of wall-clock strings and
// enforces the basic window invariant from < to.  An inverted or empty
// window is reported as a duration error.
func ParseWindow(rawFrom, rawTo string) (from, to time.Time, err error) {
	if from, err = ParseWindowTime(rawFrom); err != nil {
		return
	}
	if to, err = ParseWindowTime(rawTo); err != nil {
		return
	}
	if !from.Before(to) {
		err = apperrors.ErrTooLessOrTooMuchTime
	}
	return
}

// FormatKST renders a stored UTC timestamp in the display timezone
// using the 2006-01-02 15:04 layout used throughout the API.
func FormatKST(t time.Time) string {
	return t.In(KST).Format(displayLayout)
}
