package model

// CarZone represents a physical pick-up/return zone that hosts a fleet
// of shareable cars.  Zones are immutable reference data from the
// reservation engine's point of view; they are created and maintained
// by an operations pipeline outside this service.
//
// Fields:
//  ID            – primary key identifier.
//  Address       – street address of the zone.
//  Name          – human readable zone name.
//  Region        – coarse region label (e.g. "seoul").
//  Latitude      – WGS84 latitude of the zone.
//  Longitude     – WGS84 longitude of the zone.
//  SubInfo       – short descriptive line shown in listings.
//  DetailInfo    – longer free-form description.
//  Type          – zone type label (street, garage, tower, ...).
//  OperatingTime – display string for the zone's opening hours.
type CarZone struct {
	ID            uint64  // car_zones.id
	Address       string  // car_zones.address
	Name          string  // car_zones.name
	Region        string  // car_zones.region
	Latitude      float64 // car_zones.latitude
	Longitude     float64 // car_zones.longitude
	SubInfo       string  // car_zones.sub_info
	DetailInfo    string  // car_zones.detail_info
	Type          string  // car_zones.type
	OperatingTime string  // car_zones.operating_time
}
