// Package pricing holds the per-car rate tables and the pure fee
// functions of the reservation engine.  All amounts are integral won.
// Monetary rounding follows fixed rules: sub-totals round half away
// from zero to the nearest 10 won, the base rental fee to the nearest
// 100 won.  None of the functions touch storage or the clock; they
// only turn (rates, window) or (rates, distance) into fees.
package pricing

import (
	"math"
	"time"

	"github.com/minhokang/car-sharing-reservation/internal/apperrors"
	"github.com/minhokang/car-sharing-reservation/internal/model"
)

// RateTable is the per-car rental pricing data, one row per car in the
// car_prices table.  StandardPrice is the per-30-minute base rate; the
// three per-km rates feed the post-use distance fee; the per-10-minute
// increments are retained for weekday/weekend surcharge display.
type RateTable struct {
	CarID            uint64 // car_prices.car_id
	StandardPrice    int64  // car_prices.standard_price (won per 30 min)
	MinPricePerKm    int64  // car_prices.min_price_per_km  (beyond 100km)
	MidPricePerKm    int64  // car_prices.mid_price_per_km  (31–100km)
	MaxPricePerKm    int64  // car_prices.max_price_per_km  (0–30km)
	WeekdayPerTenMin int64  // car_prices.weekday_price_per_ten_min
	WeekendPerTenMin int64  // car_prices.weekend_price_per_ten_min
}

// InsuranceRateTable is the per-car insurance pricing data, one row
// per car in the insurance_fees table.  Each tier carries a base price
// covering the first 30 minutes and a per-10-minute increment beyond
// that.
type InsuranceRateTable struct {
	CarID             uint64 // insurance_fees.car_id
	LightPrice        int64  // insurance_fees.light_price
	StandardPrice     int64  // insurance_fees.standard_price
	SpecialPrice      int64  // insurance_fees.special_price
	LightPerTenMin    int64  // insurance_fees.light_price_per_ten_min
	StandardPerTenMin int64  // insurance_fees.standard_price_per_ten_min
	SpecialPerTenMin  int64  // insurance_fees.special_price_per_ten_min
}

// roundTo rounds v half away from zero to the nearest multiple of unit.
func roundTo(v float64, unit int64) int64 {
	u := float64(unit)
	if v < 0 {
		return -int64(math.Floor(-v/u+0.5)) * unit
	}
	return int64(math.Floor(v/u+0.5)) * unit
}

// Round10 rounds half away from zero to the nearest 10 won.
func Round10(v float64) int64 { return roundTo(v, 10) }

// Round100 rounds half away from zero to the nearest 100 won.
func Round100(v float64) int64 { return roundTo(v, 100) }

// Minutes returns the length of the window in minutes.
func Minutes(from, to time.Time) float64 {
	return to.Sub(from).Minutes()
}

// RentalFee computes the up-front rental fee for a window:
// standardPrice x minutes / 30, rounded to the nearest 100 won.
func RentalFee(standardPrice int64, from, to time.Time) int64 {
	return Round100(float64(standardPrice) * Minutes(from, to) / 30)
}

// InsuranceFee computes the insurance fee for a window under the given
// tier: the tier's base price covers the first 30 minutes and each
// additional started 10 minute step adds the tier's increment.  Tier
// "none" costs nothing; any other unknown tier is rejected.
func InsuranceFee(tbl InsuranceRateTable, tier string, from, to time.Time) (int64, error) {
	var base, perTen int64
	switch tier {
	case model.InsuranceLight:
		base, perTen = tbl.LightPrice, tbl.LightPerTenMin
	case model.InsuranceStandard:
		base, perTen = tbl.StandardPrice, tbl.StandardPerTenMin
	case model.InsuranceSpecial:
		base, perTen = tbl.SpecialPrice, tbl.SpecialPerTenMin
	case model.InsuranceNone:
		return 0, nil
	default:
		return 0, apperrors.ErrInvalidInsurance
	}
	steps := int64(Minutes(from, to)-30) / 10
	if steps < 0 {
		steps = 0
	}
	return Round10(float64(base + steps*perTen)), nil
}

// DistanceFeeBreakdown carries the three per-band section fees of the
// post-use mileage charge.  Each section fee is rounded to the nearest
// 10 won independently before the total is formed; the breakdown is
// persisted as-is on the PaymentAfterUse row.
type DistanceFeeBreakdown struct {
	FirstSectionFee  int64 // distance beyond 100km at the min rate
	SecondSectionFee int64 // 31–100km band at the mid rate
	ThirdSectionFee  int64 // 0–30km band at the max rate
	Total            int64
}

// DistanceFee converts a reported driving distance (km) into the
// tiered mileage fee.  Bands are evaluated top-down:
//
//	distance > 100      first  = (distance-100) x min, second = 70 x mid, third = 30 x max
//	30 < distance <= 100  second = (distance-70) x mid, third = 30 x max
//	distance <= 30        third  = distance x max
func DistanceFee(distance int64, rt RateTable) DistanceFeeBreakdown {
	var b DistanceFeeBreakdown
	switch {
	case distance > 100:
		b.FirstSectionFee = Round10(float64((distance - 100) * rt.MinPricePerKm))
		b.SecondSectionFee = Round10(float64(70 * rt.MidPricePerKm))
		b.ThirdSectionFee = Round10(float64(30 * rt.MaxPricePerKm))
	case distance > 30:
		b.SecondSectionFee = Round10(float64((distance - 70) * rt.MidPricePerKm))
		b.ThirdSectionFee = Round10(float64(30 * rt.MaxPricePerKm))
	default:
		b.ThirdSectionFee = Round10(float64(distance * rt.MaxPricePerKm))
	}
	b.Total = b.FirstSectionFee + b.SecondSectionFee + b.ThirdSectionFee
	return b
}

// Quote bundles the rental fee and the insurance fee of a window into
// the total a member is charged before any coupon discount.
type Quote struct {
	RentalFee    int64
	InsuranceFee int64
}

// Total is the pre-discount sum of the quote.
func (q Quote) Total() int64 { return q.RentalFee + q.InsuranceFee }

// QuoteWindow prices a window on a car under the given insurance tier.
func QuoteWindow(rt RateTable, it InsuranceRateTable, tier string, from, to time.Time) (Quote, error) {
	ins, err := InsuranceFee(it, tier, from, to)
	if err != nil {
		return Quote{}, err
	}
	return Quote{
		RentalFee:    RentalFee(rt.StandardPrice, from, to),
		InsuranceFee: ins,
	}, nil
}

// ApplyCoupon clamps a coupon discount so the charged total never goes
// negative.  It returns the applied discount and the final total.
func ApplyCoupon(total, discount int64) (applied, final int64) {
	if discount <= 0 {
		return 0, total
	}
	if discount > total {
		discount = total
	}
	return discount, total - discount
}
