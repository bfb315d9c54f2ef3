// Package realtime is the shared live store: driver position records that
// get overwritten in place, an append-only delivery history, and push-based
// change notification for both. Semantics are deliberately thin — last
// write wins for driver records, append-only growth for history — and the
// rest of the system relies on that directly.
package realtime

import (
	"context"
	"sort"
	"time"

	"github.com/h2brasil/delivery-backend/internal/models"
)

// StaleAfter is the age past which a driver record is treated as stale and
// dropped from fleet views regardless of its stored status.
const StaleAfter = 24 * time.Hour

// Channel is the path-addressed live store shared by driver devices and the
// admin console. Subscriptions deliver full snapshots on every visible
// change, in arrival order, with no ordering guarantee relative to other
// event sources.
type Channel interface {
	// PublishDriver overwrites the driver's live record and refreshes its
	// presence lease.
	PublishDriver(ctx context.Context, d models.ActiveDriver) error

	// MarkOffline converges the driver's visible state to offline. It is a
	// no-op for unknown drivers.
	MarkOffline(ctx context.Context, driverID string) error

	// FleetSnapshot returns the current drivers, with records older than
	// StaleAfter discarded.
	FleetSnapshot(ctx context.Context) ([]models.ActiveDriver, error)

	// SubscribeFleet emits a fleet snapshot for every driver-record change
	// until ctx is cancelled. The current snapshot is emitted first.
	SubscribeFleet(ctx context.Context) (<-chan []models.ActiveDriver, error)

	// AppendHistory adds an immutable record under a store-generated key.
	AppendHistory(ctx context.Context, rec models.DeliveryHistoryRecord) error

	// HistorySnapshot returns all history records, newest first.
	HistorySnapshot(ctx context.Context) ([]models.DeliveryHistoryRecord, error)

	// SubscribeHistory emits the full sorted history on every append until
	// ctx is cancelled. The current snapshot is emitted first.
	SubscribeHistory(ctx context.Context) (<-chan []models.DeliveryHistoryRecord, error)

	// SweepOffline finds drivers whose presence lease has lapsed while
	// their record still says online, rewrites them as offline, and
	// returns the converged records.
	SweepOffline(ctx context.Context) ([]models.ActiveDriver, error)

	// Ping verifies the store connection.
	Ping(ctx context.Context) error
}

// SortHistory orders records newest first by the (date, completion time)
// composite key.
func SortHistory(records []models.DeliveryHistoryRecord) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].SortKey() > records[j].SortKey()
	})
}

// FilterStale drops driver records older than the cutoff, keeping the order
// of the input.
func FilterStale(drivers []models.ActiveDriver, now time.Time, cutoff time.Duration) []models.ActiveDriver {
	fresh := drivers[:0]
	for _, d := range drivers {
		if now.Sub(d.UpdatedTime()) <= cutoff {
			fresh = append(fresh, d)
		}
	}
	return fresh
}
