package repository

import (
	"context"
	"database/sql"

	"github.com/minhokang/car-sharing-reservation/internal/model"
)

// CarZoneRepo provides read-only access to car zones.
type CarZoneRepo struct{ DB *sql.DB }

// NewCarZoneRepo returns a CarZoneRepo bound to the given database.
func NewCarZoneRepo(db *sql.DB) *CarZoneRepo { return &CarZoneRepo{DB: db} }

// GetByID fetches a zone by id. sql.ErrNoRows when it does not exist.
func (r *CarZoneRepo) GetByID(ctx context.Context, id uint64) (model.CarZone, error) {
	var z model.CarZone
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, address, name, region, latitude, longitude,
		        sub_info, detail_info, type, operating_time
		 FROM car_zones WHERE id = ?`, id).
		Scan(&z.ID, &z.Address, &z.Name, &z.Region, &z.Latitude, &z.Longitude,
			&z.SubInfo, &z.DetailInfo, &z.Type, &z.OperatingTime)
	return z, err
}
