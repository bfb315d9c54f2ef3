package models

// Coordinate is a WGS84 position in floating point degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DeliveryPoint is a fixed, named location eligible to be added to a route.
// The catalog of points is static reference data and never changes at runtime.
type DeliveryPoint struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Address string     `json:"address"`
	Coords  Coordinate `json:"coords"`
}
