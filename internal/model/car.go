package model

// Car describes a single shareable vehicle stationed in a car zone.
// Each car owns a rate table (see pricing.RateTable) and an insurance
// rate table; both are loaded alongside the car by the repository.
// Cars are reference data here – the engine never mutates them.
//
// Fields:
//  ID             – primary key identifier.
//  Number         – unique licence plate number.
//  Name           – model name shown to members.
//  ZoneID         – zone the car is stationed in.
//  Manufacturer   – vehicle manufacturer.
//  FuelType       – fuel type label (gasoline, electric, ...).
//  VehicleType    – body type label (compact, suv, ...).
//  ShiftType      – transmission label (auto/manual).
//  RidingCapacity – number of seats.
//  IsEventModel   – whether the car is part of a promotion.
type Car struct {
	ID             uint64 // cars.id
	Number         string // cars.number
	Name           string // cars.name
	ZoneID         uint64 // cars.zone_id
	Manufacturer   string // cars.manufacturer
	FuelType       string // cars.fuel_type
	VehicleType    string // cars.vehicle_type
	ShiftType      string // cars.shift_type
	RidingCapacity uint32 // cars.riding_capacity
	IsEventModel   bool   // cars.is_event_model
}
