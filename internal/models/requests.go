package models

// DriverLogin is the body for driver sign-in.
type DriverLogin struct {
	Name string `json:"name" validate:"required"`
}

// AdminLogin is the body for administrator sign-in.
type AdminLogin struct {
	Secret string `json:"secret" validate:"required"`
}

// OptimizeRequest asks for an optimized route from the given start
// coordinate over the selected delivery points.
type OptimizeRequest struct {
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`
	PointIDs []string `json:"pointIds"`
}

// ConfirmRequest marks one stop of the current route as delivered.
type ConfirmRequest struct {
	StopID string `json:"stopId" validate:"required"`
	Note   string `json:"note"`
}

// LocationReport is one position sample from the driver device. Failed is
// set when the device GPS could not produce a fix; the server then falls
// back to the configured default coordinate.
type LocationReport struct {
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Failed bool    `json:"failed"`
}
