package models

import (
	"time"

	"gorm.io/gorm"
)

// Driver status values as stored in the realtime channel.
const (
	DriverStatusOnline  = "online"
	DriverStatusOffline = "offline"
	DriverStatusBusy    = "busy"
)

// ActiveDriver is one driver's live, overwritable position record in the
// realtime store. At most one record exists per driver id; later writes
// overwrite earlier ones (last write wins).
type ActiveDriver struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	Lat                float64 `json:"lat"`
	Lng                float64 `json:"lng"`
	UpdatedAt          int64   `json:"updatedAt"` // epoch millis
	Status             string  `json:"status"`
	CurrentDestination string  `json:"currentDestination,omitempty"`
}

// UpdatedTime returns the last update instant as a time.Time.
func (d *ActiveDriver) UpdatedTime() time.Time {
	return time.UnixMilli(d.UpdatedAt)
}

// DriverAccount is the persisted roster entry for a driver identity. It is
// touched on every login so the admin console can list known drivers even
// when they are not currently broadcasting.
type DriverAccount struct {
	gorm.Model `json:"-"`

	DriverID   string    `json:"driver_id" gorm:"uniqueIndex"`
	Name       string    `json:"name"`
	LastSeenAt time.Time `json:"last_seen_at"`
}
