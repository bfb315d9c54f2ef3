package storage

import (
	"github.com/h2brasil/delivery-backend/internal/models"
)

var storeInstance Store

// SetStore sets the global store instance (call from main.go)
func SetStore(s Store) {
	storeInstance = s
}

// GetStore returns the global store instance
func GetStore() Store {
	return storeInstance
}

// Store is the durable archive behind the realtime channel: delivery
// history rows (append-only, never mutated or deleted) and the driver
// roster. Live position data never touches this store.
type Store interface {
	// History operations
	AppendHistory(rec *models.DeliveryHistoryRecord) error
	GetHistoryByDate(date string) ([]*models.DeliveryHistoryRecord, error)
	GetAllHistory() ([]*models.DeliveryHistoryRecord, error)
	CountHistoryByDate(date string) (int64, error)

	// Driver roster operations
	TouchDriver(driverID, name string) error
	GetDriver(driverID string) (*models.DriverAccount, error)
	GetAllDrivers() ([]*models.DriverAccount, error)
}
