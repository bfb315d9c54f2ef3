package models

// Stop status values. A stop only ever moves pending -> completed.
const (
	StopStatusPending   = "pending"
	StopStatusCompleted = "completed"
)

// RouteStop is a DeliveryPoint annotated with its position in an optimized
// route and its completion state.
type RouteStop struct {
	DeliveryPoint

	Sequence    int    `json:"sequence"`
	Status      string `json:"status"`
	CompletedAt string `json:"completedAt,omitempty"` // HH:MM local time
	Notes       string `json:"notes,omitempty"`
}

// Completed reports whether the stop has already been confirmed.
func (s *RouteStop) Completed() bool {
	return s.Status == StopStatusCompleted
}

// OptimizationResult is the ordered route produced by one optimization call.
// It is owned by the driver session until the session resets it.
type OptimizationResult struct {
	Route            []RouteStop `json:"route"`
	Summary          string      `json:"summary"`
	TotalDistanceEst string      `json:"totalDistanceEst"`
}

// FindStop returns a pointer to the stop with the given id, or nil.
func (r *OptimizationResult) FindStop(stopID string) *RouteStop {
	for i := range r.Route {
		if r.Route[i].ID == stopID {
			return &r.Route[i]
		}
	}
	return nil
}

// NextPending returns the first not-yet-completed stop in sequence order,
// or nil when the route is finished.
func (r *OptimizationResult) NextPending() *RouteStop {
	for i := range r.Route {
		if !r.Route[i].Completed() {
			return &r.Route[i]
		}
	}
	return nil
}
