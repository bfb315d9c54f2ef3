package storage

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/h2brasil/delivery-backend/internal/models"
)

// MemoryStore holds all data in memory (testing and local runs only).
type MemoryStore struct {
	history []*models.DeliveryHistoryRecord
	drivers map[string]*models.DriverAccount

	// Mutexes for thread safety
	historyMu sync.RWMutex
	driverMu  sync.RWMutex
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		drivers: make(map[string]*models.DriverAccount),
	}
}

// AppendHistory archives one confirmation record. Records are append-only.
func (m *MemoryStore) AppendHistory(rec *models.DeliveryHistoryRecord) error {
	m.historyMu.Lock()
	defer m.historyMu.Unlock()

	for _, existing := range m.history {
		if existing.RecordID == rec.RecordID {
			return fmt.Errorf("history record %s already exists", rec.RecordID)
		}
	}

	cp := *rec
	m.history = append(m.history, &cp)
	return nil
}

// GetHistoryByDate returns records for one calendar date, newest time first.
func (m *MemoryStore) GetHistoryByDate(date string) ([]*models.DeliveryHistoryRecord, error) {
	m.historyMu.RLock()
	defer m.historyMu.RUnlock()

	var records []*models.DeliveryHistoryRecord
	for _, rec := range m.history {
		if rec.Date == date {
			records = append(records, rec)
		}
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CompletedAt > records[j].CompletedAt
	})
	return records, nil
}

// GetAllHistory returns every archived record, newest first.
func (m *MemoryStore) GetAllHistory() ([]*models.DeliveryHistoryRecord, error) {
	m.historyMu.RLock()
	defer m.historyMu.RUnlock()

	records := make([]*models.DeliveryHistoryRecord, len(m.history))
	copy(records, m.history)

	sort.Slice(records, func(i, j int) bool {
		return records[i].SortKey() > records[j].SortKey()
	})
	return records, nil
}

// CountHistoryByDate counts the deliveries archived for one calendar date.
func (m *MemoryStore) CountHistoryByDate(date string) (int64, error) {
	m.historyMu.RLock()
	defer m.historyMu.RUnlock()

	var count int64
	for _, rec := range m.history {
		if rec.Date == date {
			count++
		}
	}
	return count, nil
}

// TouchDriver creates or refreshes a roster entry for the driver identity.
func (m *MemoryStore) TouchDriver(driverID, name string) error {
	m.driverMu.Lock()
	defer m.driverMu.Unlock()

	if existing, ok := m.drivers[driverID]; ok {
		existing.Name = name
		existing.LastSeenAt = time.Now()
		return nil
	}

	m.drivers[driverID] = &models.DriverAccount{
		DriverID:   driverID,
		Name:       name,
		LastSeenAt: time.Now(),
	}
	return nil
}

// GetDriver retrieves one roster entry.
func (m *MemoryStore) GetDriver(driverID string) (*models.DriverAccount, error) {
	m.driverMu.RLock()
	defer m.driverMu.RUnlock()

	driver, exists := m.drivers[driverID]
	if !exists {
		return nil, fmt.Errorf("driver not found")
	}
	return driver, nil
}

// GetAllDrivers lists the known driver identities.
func (m *MemoryStore) GetAllDrivers() ([]*models.DriverAccount, error) {
	m.driverMu.RLock()
	defer m.driverMu.RUnlock()

	drivers := make([]*models.DriverAccount, 0, len(m.drivers))
	for _, d := range m.drivers {
		drivers = append(drivers, d)
	}

	sort.Slice(drivers, func(i, j int) bool {
		return drivers[i].DriverID < drivers[j].DriverID
	})
	return drivers, nil
}
