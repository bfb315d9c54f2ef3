package storage

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/h2brasil/delivery-backend/internal/models"
)

// DatabaseStore implements Store on PostgreSQL via GORM.
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a database-backed store
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

// AppendHistory archives one confirmation record.
func (s *DatabaseStore) AppendHistory(rec *models.DeliveryHistoryRecord) error {
	return s.db.Create(rec).Error
}

// GetHistoryByDate returns records for one calendar date, newest time first.
func (s *DatabaseStore) GetHistoryByDate(date string) ([]*models.DeliveryHistoryRecord, error) {
	var records []*models.DeliveryHistoryRecord
	err := s.db.
		Where("date = ?", date).
		Order("completed_at DESC").
		Find(&records).Error
	return records, err
}

// GetAllHistory returns every archived record, newest first.
func (s *DatabaseStore) GetAllHistory() ([]*models.DeliveryHistoryRecord, error) {
	var records []*models.DeliveryHistoryRecord
	err := s.db.
		Order("date DESC, completed_at DESC").
		Find(&records).Error
	return records, err
}

// CountHistoryByDate counts the deliveries archived for one calendar date.
func (s *DatabaseStore) CountHistoryByDate(date string) (int64, error) {
	var count int64
	err := s.db.
		Model(&models.DeliveryHistoryRecord{}).
		Where("date = ?", date).
		Count(&count).Error
	return count, err
}

// TouchDriver creates or refreshes a roster entry for the driver identity.
func (s *DatabaseStore) TouchDriver(driverID, name string) error {
	var account models.DriverAccount
	err := s.db.Where("driver_id = ?", driverID).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.db.Create(&models.DriverAccount{
			DriverID:   driverID,
			Name:       name,
			LastSeenAt: time.Now(),
		}).Error
	}
	if err != nil {
		return err
	}

	account.Name = name
	account.LastSeenAt = time.Now()
	return s.db.Save(&account).Error
}

// GetDriver retrieves one roster entry.
func (s *DatabaseStore) GetDriver(driverID string) (*models.DriverAccount, error) {
	var account models.DriverAccount
	if err := s.db.Where("driver_id = ?", driverID).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// GetAllDrivers lists the known driver identities.
func (s *DatabaseStore) GetAllDrivers() ([]*models.DriverAccount, error) {
	var accounts []*models.DriverAccount
	err := s.db.Order("driver_id").Find(&accounts).Error
	return accounts, err
}
