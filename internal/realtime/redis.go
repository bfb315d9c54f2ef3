package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/h2brasil/delivery-backend/internal/models"
)

const (
	driverKeyPrefix   = "drivers/"
	presenceKeyPrefix = "presence/"
	historyKey        = "history"

	driversChannel = "notify:drivers"
	historyChannel = "notify:history"
)

// DefaultPresenceTTL is how long a driver stays "present" after its last
// position write. A driver that stops writing (app killed, connection lost)
// loses the lease and the sweeper converges it to offline.
const DefaultPresenceTTL = 90 * time.Second

// RedisChannel implements Channel on a Redis instance. Driver records live
// as JSON values under drivers/<id>, history as a hash with generated field
// keys, and change notification rides pub/sub.
type RedisChannel struct {
	client      *redis.Client
	presenceTTL time.Duration
}

// NewRedisChannel wraps an already-connected client.
func NewRedisChannel(client *redis.Client) *RedisChannel {
	return &RedisChannel{
		client:      client,
		presenceTTL: DefaultPresenceTTL,
	}
}

// SetPresenceTTL overrides the presence lease duration (tests use short ones).
func (r *RedisChannel) SetPresenceTTL(ttl time.Duration) {
	r.presenceTTL = ttl
}

// PublishDriver overwrites the driver's record, refreshes the presence
// lease, and notifies fleet subscribers.
func (r *RedisChannel) PublishDriver(ctx context.Context, d models.ActiveDriver) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal driver %s: %w", d.ID, err)
	}

	if err := r.client.Set(ctx, driverKeyPrefix+d.ID, payload, 0).Err(); err != nil {
		return fmt.Errorf("write driver %s: %w", d.ID, err)
	}
	if err := r.client.Set(ctx, presenceKeyPrefix+d.ID, "1", r.presenceTTL).Err(); err != nil {
		return fmt.Errorf("refresh presence %s: %w", d.ID, err)
	}

	return r.notify(ctx, driversChannel, d.ID)
}

// MarkOffline rewrites the driver's record with status offline and drops
// its presence lease.
func (r *RedisChannel) MarkOffline(ctx context.Context, driverID string) error {
	d, err := r.getDriver(ctx, driverID)
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}

	d.Status = models.DriverStatusOffline
	d.UpdatedAt = time.Now().UnixMilli()

	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal driver %s: %w", driverID, err)
	}
	if err := r.client.Set(ctx, driverKeyPrefix+driverID, payload, 0).Err(); err != nil {
		return fmt.Errorf("write driver %s: %w", driverID, err)
	}
	r.client.Del(ctx, presenceKeyPrefix+driverID)

	return r.notify(ctx, driversChannel, driverID)
}

// FleetSnapshot reconstructs the full driver set, dropping stale records.
func (r *RedisChannel) FleetSnapshot(ctx context.Context) ([]models.ActiveDriver, error) {
	drivers, err := r.allDrivers(ctx)
	if err != nil {
		return nil, err
	}

	drivers = FilterStale(drivers, time.Now(), StaleAfter)
	sort.Slice(drivers, func(i, j int) bool { return drivers[i].ID < drivers[j].ID })
	return drivers, nil
}

// SubscribeFleet delivers a snapshot per change notification. The
// subscription is torn down when ctx is cancelled.
func (r *RedisChannel) SubscribeFleet(ctx context.Context) (<-chan []models.ActiveDriver, error) {
	sub := r.client.Subscribe(ctx, driversChannel)
	if _, err := sub.Receive(ctx); err != nil {
		return nil, fmt.Errorf("subscribe fleet: %w", err)
	}

	out := make(chan []models.ActiveDriver, 1)
	go func() {
		defer close(out)
		defer sub.Close()

		emit := func() {
			snapshot, err := r.FleetSnapshot(ctx)
			if err != nil {
				log.Printf("fleet snapshot failed: %v", err)
				return
			}
			select {
			case out <- snapshot:
			case <-ctx.Done():
			}
		}

		emit()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				emit()
			}
		}
	}()

	return out, nil
}

// AppendHistory adds a record to the append-only history collection under a
// store-generated key.
func (r *RedisChannel) AppendHistory(ctx context.Context, rec models.DeliveryHistoryRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal history record %s: %w", rec.RecordID, err)
	}

	if err := r.client.HSet(ctx, historyKey, uuid.NewString(), payload).Err(); err != nil {
		return fmt.Errorf("append history record %s: %w", rec.RecordID, err)
	}

	return r.notify(ctx, historyChannel, rec.RecordID)
}

// HistorySnapshot reconstructs the full history, newest first.
func (r *RedisChannel) HistorySnapshot(ctx context.Context) ([]models.DeliveryHistoryRecord, error) {
	raw, err := r.client.HGetAll(ctx, historyKey).Result()
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	records := make([]models.DeliveryHistoryRecord, 0, len(raw))
	for field, value := range raw {
		var rec models.DeliveryHistoryRecord
		if err := json.Unmarshal([]byte(value), &rec); err != nil {
			log.Printf("skipping unreadable history entry %s: %v", field, err)
			continue
		}
		records = append(records, rec)
	}

	SortHistory(records)
	return records, nil
}

// SubscribeHistory delivers the sorted history on every append until ctx is
// cancelled.
func (r *RedisChannel) SubscribeHistory(ctx context.Context) (<-chan []models.DeliveryHistoryRecord, error) {
	sub := r.client.Subscribe(ctx, historyChannel)
	if _, err := sub.Receive(ctx); err != nil {
		return nil, fmt.Errorf("subscribe history: %w", err)
	}

	out := make(chan []models.DeliveryHistoryRecord, 1)
	go func() {
		defer close(out)
		defer sub.Close()

		emit := func() {
			snapshot, err := r.HistorySnapshot(ctx)
			if err != nil {
				log.Printf("history snapshot failed: %v", err)
				return
			}
			select {
			case out <- snapshot:
			case <-ctx.Done():
			}
		}

		emit()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				emit()
			}
		}
	}()

	return out, nil
}

// SweepOffline converges drivers whose presence lease lapsed to offline.
func (r *RedisChannel) SweepOffline(ctx context.Context) ([]models.ActiveDriver, error) {
	drivers, err := r.allDrivers(ctx)
	if err != nil {
		return nil, err
	}

	var converged []models.ActiveDriver
	for _, d := range drivers {
		if d.Status != models.DriverStatusOnline && d.Status != models.DriverStatusBusy {
			continue
		}

		present, err := r.client.Exists(ctx, presenceKeyPrefix+d.ID).Result()
		if err != nil {
			return converged, fmt.Errorf("check presence %s: %w", d.ID, err)
		}
		if present > 0 {
			continue
		}

		if err := r.MarkOffline(ctx, d.ID); err != nil {
			return converged, err
		}
		d.Status = models.DriverStatusOffline
		converged = append(converged, d)
	}

	return converged, nil
}

// Ping verifies the Redis connection.
func (r *RedisChannel) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisChannel) getDriver(ctx context.Context, driverID string) (models.ActiveDriver, error) {
	var d models.ActiveDriver

	raw, err := r.client.Get(ctx, driverKeyPrefix+driverID).Result()
	if err != nil {
		return d, err
	}
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return d, fmt.Errorf("unmarshal driver %s: %w", driverID, err)
	}
	return d, nil
}

func (r *RedisChannel) allDrivers(ctx context.Context) ([]models.ActiveDriver, error) {
	var drivers []models.ActiveDriver

	iter := r.client.Scan(ctx, 0, driverKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		raw, err := r.client.Get(ctx, iter.Val()).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", iter.Val(), err)
		}

		var d models.ActiveDriver
		if err := json.Unmarshal([]byte(raw), &d); err != nil {
			log.Printf("skipping unreadable driver record %s: %v", iter.Val(), err)
			continue
		}
		drivers = append(drivers, d)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan drivers: %w", err)
	}

	return drivers, nil
}

func (r *RedisChannel) notify(ctx context.Context, channel, id string) error {
	if err := r.client.Publish(ctx, channel, id).Err(); err != nil {
		return fmt.Errorf("notify %s: %w", channel, err)
	}
	return nil
}
