package models

import (
	"gorm.io/gorm"
)

// DeliveryHistoryRecord is an immutable log entry created when a stop is
// confirmed delivered. Records are appended to the realtime store and
// archived in the database; nothing ever mutates or deletes them.
type DeliveryHistoryRecord struct {
	gorm.Model `json:"-"`

	// RecordID is the stop id plus the confirmation epoch millis, so the
	// same stop confirmed on different days never collides.
	RecordID    string `json:"id" gorm:"uniqueIndex"`
	StopName    string `json:"stopName"`
	Address     string `json:"address"`
	CompletedAt string `json:"completedAt"`          // HH:MM local time
	Date        string `json:"date" gorm:"index"`    // YYYY-MM-DD calendar key
	Notes       string `json:"notes,omitempty"`
}

// SortKey orders history records; newest (date, time) first when compared
// descending. Matches the composite the admin view sorts on.
func (r *DeliveryHistoryRecord) SortKey() string {
	return r.Date + r.CompletedAt
}
