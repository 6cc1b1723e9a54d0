package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOverlaps(t *testing.T) {
	at := func(h int) time.Time {
		return time.Date(2026, 8, 29, h, 0, 0, 0, time.UTC)
	}

	cases := []struct {
		name         string
		aStart, aEnd time.Time
		bStart, bEnd time.Time
		want         bool
	}{
		{"disjoint before", at(1), at(2), at(3), at(4), false},
		{"disjoint after", at(5), at(6), at(3), at(4), false},
		{"contained", at(2), at(3), at(1), at(4), true},
		{"containing", at(1), at(4), at(2), at(3), true},
		{"partial overlap", at(1), at(3), at(2), at(4), true},
		{"identical", at(1), at(2), at(1), at(2), true},
		{"touching at end", at(1), at(2), at(2), at(3), true},
		{"touching at start", at(2), at(3), at(1), at(2), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Overlaps(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd))
			// the predicate is symmetric
			assert.Equal(t, tc.want, Overlaps(tc.bStart, tc.bEnd, tc.aStart, tc.aEnd))
		})
	}
}
