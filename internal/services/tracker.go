package services

import (
	"context"
	"time"

	"github.com/h2brasil/delivery-backend/internal/geo"
	"github.com/h2brasil/delivery-backend/internal/models"
	"github.com/h2brasil/delivery-backend/internal/realtime"
)

// TrackerService forwards driver position samples into the realtime
// channel and serves the admin fleet view. Role state gates both
// directions: only drivers publish, only admins read the fleet.
type TrackerService struct {
	channel  realtime.Channel
	sessions *SessionManager
}

// NewTrackerService creates a new location tracker service.
func NewTrackerService(channel realtime.Channel, sessions *SessionManager) *TrackerService {
	return &TrackerService{
		channel:  channel,
		sessions: sessions,
	}
}

// Report ingests one position sample from the driver device and overwrites
// the driver's live record. Writes are best effort and never retried; a
// failed write is reported once and the next sample supersedes it.
func (t *TrackerService) Report(ctx context.Context, session *Session, report models.LocationReport) (geo.Update, error) {
	if session.Role != RoleDriver {
		return geo.Update{}, ErrNotDriver
	}

	watcher := session.Watcher()
	if report.Failed {
		watcher.Fail()
	} else {
		watcher.Report(models.Coordinate{Lat: report.Lat, Lng: report.Lng})
	}
	update := watcher.Current()

	driver := models.ActiveDriver{
		ID:        session.DriverID,
		Name:      session.DriverName,
		Lat:       update.Coords.Lat,
		Lng:       update.Coords.Lng,
		UpdatedAt: time.Now().UnixMilli(),
		Status:    models.DriverStatusOnline,
	}
	if route := t.sessions.Route(session); route != nil {
		if next := route.NextPending(); next != nil {
			driver.CurrentDestination = next.Name
		}
	}

	if err := t.channel.PublishDriver(ctx, driver); err != nil {
		return update, err
	}
	return update, nil
}

// Fleet returns the live driver set for the admin console, already
// filtered for staleness.
func (t *TrackerService) Fleet(ctx context.Context, session *Session) ([]models.ActiveDriver, error) {
	if session.Role != RoleAdmin {
		return nil, ErrNotAdmin
	}
	return t.channel.FleetSnapshot(ctx)
}
