package repository

import (
	"context"
	"database/sql"

	"github.com/minhokang/car-sharing-reservation/internal/model"
	"github.com/minhokang/car-sharing-reservation/internal/pricing"
)

// CarWithRates bundles a car with its rate tables.  The reservation
// engine always needs all three together, so the repository loads them
// with a single joined query.
type CarWithRates struct {
	Car       model.Car
	Rates     pricing.RateTable
	Insurance pricing.InsuranceRateTable
}

// CarRepo provides read-only access to cars and their pricing data.
// Cars, zones and rate tables are reference data maintained outside
// this service; the engine never writes to these tables.
type CarRepo struct{ DB *sql.DB }

// NewCarRepo returns a CarRepo bound to the given database.
func NewCarRepo(db *sql.DB) *CarRepo { return &CarRepo{DB: db} }

const carWithRatesColumns = `
	c.id, c.number, c.name, c.zone_id, c.manufacturer, c.fuel_type,
	c.vehicle_type, c.shift_type, c.riding_capacity, c.is_event_model,
	p.standard_price, p.min_price_per_km, p.mid_price_per_km, p.max_price_per_km,
	p.weekday_price_per_ten_min, p.weekend_price_per_ten_min,
	i.light_price, i.standard_price, i.special_price,
	i.light_price_per_ten_min, i.standard_price_per_ten_min, i.special_price_per_ten_min`

func scanCarWithRates(row interface{ Scan(...any) error }) (CarWithRates, error) {
	var cw CarWithRates
	err := row.Scan(
		&cw.Car.ID, &cw.Car.Number, &cw.Car.Name, &cw.Car.ZoneID, &cw.Car.Manufacturer,
		&cw.Car.FuelType, &cw.Car.VehicleType, &cw.Car.ShiftType, &cw.Car.RidingCapacity,
		&cw.Car.IsEventModel,
		&cw.Rates.StandardPrice, &cw.Rates.MinPricePerKm, &cw.Rates.MidPricePerKm,
		&cw.Rates.MaxPricePerKm, &cw.Rates.WeekdayPerTenMin, &cw.Rates.WeekendPerTenMin,
		&cw.Insurance.LightPrice, &cw.Insurance.StandardPrice, &cw.Insurance.SpecialPrice,
		&cw.Insurance.LightPerTenMin, &cw.Insurance.StandardPerTenMin, &cw.Insurance.SpecialPerTenMin,
	)
	if err != nil {
		return CarWithRates{}, err
	}
	cw.Rates.CarID = cw.Car.ID
	cw.Insurance.CarID = cw.Car.ID
	return cw, nil
}

// LockTx takes a row lock on the car inside the transaction.  Booking
// transactions lock the car before running the availability check so
// that check-and-insert on the same car serializes even when the check
// itself matches no rows.
func (r *CarRepo) LockTx(ctx context.Context, tx *sql.Tx, carID uint64) error {
	var id uint64
	return tx.QueryRowContext(ctx, "SELECT id FROM cars WHERE id = ? FOR UPDATE", carID).Scan(&id)
}

// GetWithRates loads a car together with its rental and insurance rate
// tables.  sql.ErrNoRows is returned when the car does not exist.
func (r *CarRepo) GetWithRates(ctx context.Context, carID uint64) (CarWithRates, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT`+carWithRatesColumns+`
	       FROM cars c
	       JOIN car_prices p ON p.car_id = c.id
	       JOIN insurance_fees i ON i.car_id = c.id
	       WHERE c.id = ?`, carID)
	return scanCarWithRates(row)
}

// ListByZoneWithRates returns every car stationed in a zone along with
// its rate tables, ordered by car id for deterministic listings.
func (r *CarRepo) ListByZoneWithRates(ctx context.Context, zoneID uint64) ([]CarWithRates, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT`+carWithRatesColumns+`
	       FROM cars c
	       JOIN car_prices p ON p.car_id = c.id
	       JOIN insurance_fees i ON i.car_id = c.id
	       WHERE c.zone_id = ?
	       ORDER BY c.id`, zoneID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]CarWithRates, 0)
	for rows.Next() {
		cw, err := scanCarWithRates(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cw)
	}
	return out, rows.Err()
}
