package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/h2brasil/delivery-backend/internal/models"
)

var (
	// ErrGenerationNotConfigured means no credential is configured for the
	// external generation call. Fatal for optimization only; the rest of
	// the application keeps working.
	ErrGenerationNotConfigured = errors.New("generation service credential not configured")

	// ErrBadOptimizationResponse means the generation response was not the
	// expected structured shape, or named none of the selected points.
	ErrBadOptimizationResponse = errors.New("generation response is not a usable route")

	ErrNoSelection       = errors.New("no delivery points selected")
	ErrNoStartCoordinate = errors.New("no start coordinate available")
)

// RoutePlan is the structured answer the generation service is constrained
// to return.
type RoutePlan struct {
	OrderedIDs       []string `json:"orderedIds"`
	Summary          string   `json:"summary"`
	TotalDistanceEst string   `json:"totalDistanceEst"`
}

// GenerationClient is the external black box that orders the stops. The
// system implements no route optimization of its own.
type GenerationClient interface {
	GenerateRoute(ctx context.Context, start models.Coordinate, points []models.DeliveryPoint) (*RoutePlan, error)
}

// OptimizerService turns a start coordinate and a selection of delivery
// points into an ordered, stateful route via the generation service. One
// attempt per user action: no retry, no extra timeout.
type OptimizerService struct {
	client   GenerationClient
	sessions *SessionManager
}

// NewOptimizerService creates a new optimizer service. client may be nil
// when no credential is configured; Optimize then fails with
// ErrGenerationNotConfigured.
func NewOptimizerService(client GenerationClient, sessions *SessionManager) *OptimizerService {
	return &OptimizerService{
		client:   client,
		sessions: sessions,
	}
}

// Optimize requests an ordered route over the selected points and installs
// it on the driver session. The produced stops all start pending with a
// dense 1..N sequence.
func (o *OptimizerService) Optimize(ctx context.Context, session *Session, start *models.Coordinate, selected []models.DeliveryPoint) (*models.OptimizationResult, error) {
	if o.client == nil {
		return nil, ErrGenerationNotConfigured
	}
	if len(selected) == 0 {
		return nil, ErrNoSelection
	}
	if start == nil {
		return nil, ErrNoStartCoordinate
	}

	if err := o.sessions.BeginOptimization(session); err != nil {
		return nil, err
	}
	defer o.sessions.EndOptimization(session)

	plan, err := o.client.GenerateRoute(ctx, *start, selected)
	if err != nil {
		return nil, fmt.Errorf("optimize route: %w", err)
	}

	route := MapOrderedStops(selected, plan.OrderedIDs)
	if len(route) == 0 {
		return nil, fmt.Errorf("%w: no selected point id in response", ErrBadOptimizationResponse)
	}
	if len(route) < len(selected) {
		log.Printf("Generation response omitted %d of %d selected points", len(selected)-len(route), len(selected))
	}

	result := &models.OptimizationResult{
		Route:            route,
		Summary:          plan.Summary,
		TotalDistanceEst: plan.TotalDistanceEst,
	}

	// Last response wins: whatever route the session holds is replaced.
	if err := o.sessions.SetRoute(session, result); err != nil {
		return nil, err
	}
	return result, nil
}

// MapOrderedStops maps the returned id ordering back onto the selected
// delivery points. Ids not in the selection are dropped; selected ids
// missing from the ordering are simply absent. The kept stops get a dense
// 1..N sequence and start pending.
func MapOrderedStops(selected []models.DeliveryPoint, orderedIDs []string) []models.RouteStop {
	byID := make(map[string]models.DeliveryPoint, len(selected))
	for _, p := range selected {
		byID[p.ID] = p
	}

	var stops []models.RouteStop
	seen := make(map[string]bool, len(orderedIDs))
	for _, id := range orderedIDs {
		point, ok := byID[id]
		if !ok {
			log.Printf("Dropping unknown id %q from generation response", id)
			continue
		}
		if seen[id] {
			log.Printf("Dropping duplicate id %q from generation response", id)
			continue
		}
		seen[id] = true

		stops = append(stops, models.RouteStop{
			DeliveryPoint: point,
			Sequence:      len(stops) + 1,
			Status:        models.StopStatusPending,
		})
	}

	return stops
}

// NewGenerationClientFromEnv builds the Gemini-backed client, or reports
// that no credential is configured.
func NewGenerationClientFromEnv() (GenerationClient, error) {
	apiKey := strings.TrimSpace(envGeminiKey())
	if apiKey == "" {
		return nil, ErrGenerationNotConfigured
	}
	return NewGeminiClient(apiKey, http.DefaultClient), nil
}
