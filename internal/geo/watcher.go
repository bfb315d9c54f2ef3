// Package geo normalizes the raw position feed coming from a driver device
// into a stream that always carries a usable coordinate.
package geo

import (
	"sync"

	"github.com/h2brasil/delivery-backend/internal/models"
)

// Fix status of the position stream.
const (
	StatusSearching = "searching"
	StatusFound     = "found"
	StatusFailed    = "failed"
)

// Update is one normalized position sample. When the device reported a GPS
// failure, Coords holds the fallback coordinate and Status is failed.
type Update struct {
	Coords models.Coordinate
	Status string
}

// Watcher tracks the latest position of one device. Samples arrive at
// whatever frequency the device produces them; there is no debouncing.
// A Watcher starts in the searching state with the fallback coordinate.
type Watcher struct {
	mu       sync.RWMutex
	fallback models.Coordinate
	current  Update
	updates  chan Update
}

// NewWatcher creates a watcher that substitutes fallback whenever the
// device cannot produce a fix.
func NewWatcher(fallback models.Coordinate) *Watcher {
	return &Watcher{
		fallback: fallback,
		current:  Update{Coords: fallback, Status: StatusSearching},
		updates:  make(chan Update, 16),
	}
}

// Report records a successful position sample.
func (w *Watcher) Report(coords models.Coordinate) {
	w.set(Update{Coords: coords, Status: StatusFound})
}

// Fail records a failed fix. The fallback coordinate is substituted so
// downstream consumers still have something to render and send.
func (w *Watcher) Fail() {
	w.set(Update{Coords: w.fallback, Status: StatusFailed})
}

// Current returns the latest normalized sample.
func (w *Watcher) Current() Update {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Updates exposes the sample stream. Samples are dropped rather than
// blocking the reporter when the consumer falls behind; Current always
// holds the newest one.
func (w *Watcher) Updates() <-chan Update {
	return w.updates
}

func (w *Watcher) set(u Update) {
	w.mu.Lock()
	w.current = u
	w.mu.Unlock()

	select {
	case w.updates <- u:
	default:
	}
}
