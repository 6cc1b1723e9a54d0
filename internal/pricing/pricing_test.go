package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhokang/car-sharing-reservation/internal/apperrors"
	"github.com/minhokang/car-sharing-reservation/internal/model"
)

func window(minutes int) (time.Time, time.Time) {
	from := time.Date(2020, 9, 25, 14, 0, 0, 0, time.UTC)
	return from, from.Add(time.Duration(minutes) * time.Minute)
}

func TestRoundingIdempotence(t *testing.T) {
	for _, v := range []float64{0, 4, 5, 15, 1333.33, 99999, -15, -1333.33} {
		assert.Equal(t, Round10(float64(Round10(v))), Round10(v), "Round10 v=%v", v)
		assert.Equal(t, Round100(float64(Round100(v))), Round100(v), "Round100 v=%v", v)
	}
}

func TestRoundingHalfAwayFromZero(t *testing.T) {
	assert.Equal(t, int64(20), Round10(15))
	assert.Equal(t, int64(-20), Round10(-15))
	assert.Equal(t, int64(100), Round100(50))
	assert.Equal(t, int64(-100), Round100(-50))
	assert.Equal(t, int64(1300), Round100(1333.33))
}

// Rental fee: standard rate 1000 won per 30 min over a 40 minute
// window is 1333.33 won, rounded to the nearest 100 -> 1300.
func TestRentalFee(t *testing.T) {
	from, to := window(40)
	assert.Equal(t, int64(1300), RentalFee(1000, from, to))

	from, to = window(30)
	assert.Equal(t, int64(1000), RentalFee(1000, from, to))
}

// Insurance fee: light tier base 100 won plus 10 won per started 10
// minute step past the first 30 minutes; 40 minutes -> 110.
func TestInsuranceFee(t *testing.T) {
	tbl := InsuranceRateTable{
		LightPrice: 100, LightPerTenMin: 10,
		StandardPrice: 200, StandardPerTenMin: 20,
		SpecialPrice: 300, SpecialPerTenMin: 30,
	}

	from, to := window(40)
	fee, err := InsuranceFee(tbl, model.InsuranceLight, from, to)
	require.NoError(t, err)
	assert.Equal(t, int64(110), fee)

	fee, err = InsuranceFee(tbl, model.InsuranceStandard, from, to)
	require.NoError(t, err)
	assert.Equal(t, int64(220), fee)

	// The base price covers the first 30 minutes.
	from, to = window(30)
	fee, err = InsuranceFee(tbl, model.InsuranceSpecial, from, to)
	require.NoError(t, err)
	assert.Equal(t, int64(300), fee)

	fee, err = InsuranceFee(tbl, model.InsuranceNone, from, to)
	require.NoError(t, err)
	assert.Equal(t, int64(0), fee)

	_, err = InsuranceFee(tbl, "premium", from, to)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInsurance)
}

func TestDistanceFee(t *testing.T) {
	rates := RateTable{MinPricePerKm: 10, MidPricePerKm: 100, MaxPricePerKm: 1000}

	tests := []struct {
		name                 string
		distance             int64
		first, second, third int64
		total                int64
	}{
		{"beyond 100km", 120, 200, 7000, 30000, 37200},
		{"middle band", 90, 0, 2000, 30000, 32000},
		{"short trip", 20, 0, 0, 20000, 20000},
		{"upper band edge", 100, 0, 3000, 30000, 33000},
		{"lower band edge", 30, 0, 0, 30000, 30000},
		{"zero distance", 0, 0, 0, 0, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := DistanceFee(tc.distance, rates)
			assert.Equal(t, tc.first, b.FirstSectionFee)
			assert.Equal(t, tc.second, b.SecondSectionFee)
			assert.Equal(t, tc.third, b.ThirdSectionFee)
			assert.Equal(t, tc.total, b.Total)
		})
	}
}

func TestQuoteWindow(t *testing.T) {
	rt := RateTable{StandardPrice: 750}
	it := InsuranceRateTable{LightPrice: 100, LightPerTenMin: 10}

	from, to := window(40)
	q, err := QuoteWindow(rt, it, model.InsuranceLight, from, to)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), q.RentalFee)
	assert.Equal(t, int64(110), q.InsuranceFee)
	assert.Equal(t, int64(1110), q.Total())
}

func TestApplyCoupon(t *testing.T) {
	applied, final := ApplyCoupon(1000, 300)
	assert.Equal(t, int64(300), applied)
	assert.Equal(t, int64(700), final)

	// Discounts never push the total below zero.
	applied, final = ApplyCoupon(1000, 5000)
	assert.Equal(t, int64(1000), applied)
	assert.Equal(t, int64(0), final)

	applied, final = ApplyCoupon(1000, 0)
	assert.Equal(t, int64(0), applied)
	assert.Equal(t, int64(1000), final)
}
