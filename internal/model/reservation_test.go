package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func window(t *testing.T) (time.Time, time.Time) {
	t.Helper()
	from := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	return from, from.Add(2 * time.Hour)
}

func TestCurrentEnd(t *testing.T) {
	from, to := window(t)
	r := Reservation{FromWhen: from, ToWhen: to}
	assert.Equal(t, to, r.CurrentEnd())

	ext := to.Add(30 * time.Minute)
	r.IsExtended = true
	r.ExtendedToWhen = &ext
	assert.Equal(t, ext, r.CurrentEnd())
}

func TestDeriveStatus(t *testing.T) {
	from, to := window(t)
	ext := to.Add(time.Hour)

	base := Reservation{FromWhen: from, ToWhen: to}
	extended := Reservation{FromWhen: from, ToWhen: to, IsExtended: true, ExtendedToWhen: &ext}

	cases := []struct {
		name   string
		stored string
		res    Reservation
		now    time.Time
		want   string
	}{
		{"paid before window", StatusPaidBefore, base, from.Add(-time.Minute), StatusPaidBefore},
		{"paid inside window", StatusPaidBefore, base, from.Add(time.Hour), StatusUsing},
		{"paid at window start", StatusPaidBefore, base, from, StatusUsing},
		{"paid at window end", StatusPaidBefore, base, to, StatusUsing},
		{"paid after window", StatusPaidBefore, base, to.Add(time.Minute), StatusPaidBefore},
		{"extended inside pushed-out window", StatusExtended, extended, to.Add(30 * time.Minute), StatusUsing},
		{"extended after pushed-out window", StatusExtended, extended, ext.Add(time.Minute), StatusExtended},
		{"not paid inside window stays", StatusNotPaid, base, from.Add(time.Hour), StatusNotPaid},
		{"settled inside window stays", StatusPaidAfter, base, from.Add(time.Hour), StatusPaidAfter},
		{"finished stays", StatusFinished, base, from.Add(time.Hour), StatusFinished},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := tc.res
			assert.Equal(t, tc.want, DeriveStatus(tc.stored, &res, tc.now))
		})
	}
}
