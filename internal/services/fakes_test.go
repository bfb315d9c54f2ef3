package services

import (
	"context"
	"sync"

	"github.com/h2brasil/delivery-backend/internal/models"
	"github.com/h2brasil/delivery-backend/internal/realtime"
)

// fakeChannel records what the services push into the realtime store, with
// per-call failure switches for the soft-failure paths.
type fakeChannel struct {
	mu sync.Mutex

	published     []models.ActiveDriver
	markedOffline []string
	appended      []models.DeliveryHistoryRecord

	publishErr error
	appendErr  error
	offlineErr error
}

var _ realtime.Channel = (*fakeChannel)(nil)

func (f *fakeChannel) PublishDriver(_ context.Context, d models.ActiveDriver) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, d)
	return nil
}

func (f *fakeChannel) MarkOffline(_ context.Context, driverID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.offlineErr != nil {
		return f.offlineErr
	}
	f.markedOffline = append(f.markedOffline, driverID)
	return nil
}

func (f *fakeChannel) FleetSnapshot(_ context.Context) ([]models.ActiveDriver, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.ActiveDriver(nil), f.published...), nil
}

func (f *fakeChannel) SubscribeFleet(ctx context.Context) (<-chan []models.ActiveDriver, error) {
	out := make(chan []models.ActiveDriver)
	close(out)
	return out, nil
}

func (f *fakeChannel) AppendHistory(_ context.Context, rec models.DeliveryHistoryRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, rec)
	return nil
}

func (f *fakeChannel) HistorySnapshot(_ context.Context) ([]models.DeliveryHistoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.DeliveryHistoryRecord(nil), f.appended...), nil
}

func (f *fakeChannel) SubscribeHistory(ctx context.Context) (<-chan []models.DeliveryHistoryRecord, error) {
	out := make(chan []models.DeliveryHistoryRecord)
	close(out)
	return out, nil
}

func (f *fakeChannel) SweepOffline(_ context.Context) ([]models.ActiveDriver, error) {
	return nil, nil
}

func (f *fakeChannel) Ping(_ context.Context) error {
	return nil
}

// fakeGeneration returns a canned route plan, or an error.
type fakeGeneration struct {
	plan  *RoutePlan
	err   error
	calls int
}

func (f *fakeGeneration) GenerateRoute(_ context.Context, _ models.Coordinate, _ []models.DeliveryPoint) (*RoutePlan, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.plan, nil
}
