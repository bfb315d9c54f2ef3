package services

import (
	"context"
	"log"
	"time"

	"github.com/h2brasil/delivery-backend/internal/models"
	"github.com/h2brasil/delivery-backend/internal/realtime"
	"github.com/h2brasil/delivery-backend/internal/storage"
	"github.com/h2brasil/delivery-backend/internal/utils"
)

// ProgressService tracks delivery progress over the session's route and
// books completed stops into the history log.
type ProgressService struct {
	store    storage.Store
	channel  realtime.Channel
	sessions *SessionManager
}

// NewProgressService creates a new delivery-progress service.
func NewProgressService(store storage.Store, channel realtime.Channel, sessions *SessionManager) *ProgressService {
	return &ProgressService{
		store:    store,
		channel:  channel,
		sessions: sessions,
	}
}

// Confirm commits the confirmation of one stop: the in-memory route
// advances first, then a history record is appended to the archive and the
// realtime channel. The two effects are not transactional — when a remote
// append fails, the local state stays advanced and the failure comes back
// as a soft warning instead of an error.
func (p *ProgressService) Confirm(ctx context.Context, session *Session, stopID, note string) (models.RouteStop, string, error) {
	now := time.Now()
	completedAt := now.Format("15:04")
	dateKey := now.Format("2006-01-02")

	stop, err := p.sessions.ConfirmStop(session, stopID, completedAt, note)
	if err != nil {
		return models.RouteStop{}, "", err
	}

	record := models.DeliveryHistoryRecord{
		RecordID:    utils.HistoryRecordID(stopID, now),
		StopName:    stop.Name,
		Address:     stop.Address,
		CompletedAt: completedAt,
		Date:        dateKey,
		Notes:       note,
	}

	var warning string
	if err := p.store.AppendHistory(&record); err != nil {
		log.Printf("Failed to archive history record %s: %v", record.RecordID, err)
		warning = "delivery confirmed locally, but saving to the history archive failed"
	}
	if err := p.channel.AppendHistory(ctx, record); err != nil {
		log.Printf("Failed to publish history record %s: %v", record.RecordID, err)
		if warning == "" {
			warning = "delivery confirmed locally, but publishing to the live history failed"
		}
	}

	return stop, warning, nil
}

// HistoryForDate returns the archived records for one calendar date,
// newest time first. date defaults to today when empty.
func (p *ProgressService) HistoryForDate(date string) ([]*models.DeliveryHistoryRecord, error) {
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	return p.store.GetHistoryByDate(date)
}
