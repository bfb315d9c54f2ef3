package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/h2brasil/delivery-backend/internal/models"
	"github.com/h2brasil/delivery-backend/internal/realtime"
	"github.com/h2brasil/delivery-backend/internal/routes"
	"github.com/h2brasil/delivery-backend/internal/services"
	"github.com/h2brasil/delivery-backend/internal/storage"
)

// reverseGeneration visits the selection in reverse, which is enough to see
// the returned ordering flow through the API.
type reverseGeneration struct{}

func (reverseGeneration) GenerateRoute(_ context.Context, _ models.Coordinate, points []models.DeliveryPoint) (*services.RoutePlan, error) {
	plan := &services.RoutePlan{Summary: "test plan", TotalDistanceEst: "9 km"}
	for i := len(points) - 1; i >= 0; i-- {
		plan.OrderedIDs = append(plan.OrderedIDs, points[i].ID)
	}
	return plan, nil
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := storage.NewMemoryStore()
	channel := realtime.NewRedisChannel(client)
	sessions := services.NewSessionManager(store, channel, []byte("test-secret"), "admin-pass")

	app := fiber.New()
	routes.SetupRoutes(app, routes.Deps{
		Store:     store,
		Channel:   channel,
		Sessions:  sessions,
		Optimizer: services.NewOptimizerService(reverseGeneration{}, sessions),
		Progress:  services.NewProgressService(store, channel, sessions),
		Tracker:   services.NewTrackerService(channel, sessions),
	})
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var parsed map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &parsed))
	}
	return resp, parsed
}

func loginDriver(t *testing.T, app *fiber.App, name string) string {
	t.Helper()
	resp, body := doJSON(t, app, http.MethodPost, "/api/auth/driver", "", fiber.Map{"name": name})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func loginAdmin(t *testing.T, app *fiber.App) string {
	t.Helper()
	resp, body := doJSON(t, app, http.MethodPost, "/api/auth/admin", "", fiber.Map{"secret": "admin-pass"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
}

func TestPointsArePublic(t *testing.T) {
	app := newTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/api/points", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(30), body["count"])
}

func TestAuthGates(t *testing.T) {
	app := newTestApp(t)

	// No token at all.
	resp, _ := doJSON(t, app, http.MethodGet, "/api/routes/current", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// A made-up token.
	resp, _ = doJSON(t, app, http.MethodGet, "/api/routes/current", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Wrong role in both directions.
	driverToken := loginDriver(t, app, "Maria")
	resp, _ = doJSON(t, app, http.MethodGet, "/api/fleet", driverToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	adminToken := loginAdmin(t, app)
	resp, _ = doJSON(t, app, http.MethodGet, "/api/routes/current", adminToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAdminLoginRejectsBadSecret(t *testing.T) {
	app := newTestApp(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/auth/admin", "", fiber.Map{"secret": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestOptimizeNeedsAPosition(t *testing.T) {
	app := newTestApp(t)
	token := loginDriver(t, app, "Maria")

	// No explicit coordinate and no position report yet: the watcher is
	// still searching, so the request cannot start.
	resp, body := doJSON(t, app, http.MethodPost, "/api/routes/optimize", token, fiber.Map{
		"pointIds": []string{"ubs-imaru"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Waiting for a GPS fix", body["error"])
}

func TestOptimizeRejectsUnknownPointIDs(t *testing.T) {
	app := newTestApp(t)
	token := loginDriver(t, app, "Maria")

	resp, body := doJSON(t, app, http.MethodPost, "/api/routes/optimize", token, fiber.Map{
		"lat":      -26.9,
		"lng":      -48.66,
		"pointIds": []string{"ubs-imaru", "ubs-nowhere"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "unknown")
}

func TestDriverDeliveryFlow(t *testing.T) {
	app := newTestApp(t)
	token := loginDriver(t, app, "Maria")

	// The device reports a position first.
	resp, body := doJSON(t, app, http.MethodPost, "/api/drivers/location", token, fiber.Map{
		"lat": -26.91, "lng": -48.66,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "found", body["status"])

	// Optimize over three points; the stub orders them in reverse. No
	// explicit coordinate: the watcher position serves as the start.
	resp, body = doJSON(t, app, http.MethodPost, "/api/routes/optimize", token, fiber.Map{
		"pointIds": []string{"ubs-imaru", "ubs-murta", "ubs-fazenda-1"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	route, _ := body["route"].([]interface{})
	require.Len(t, route, 3)
	first, _ := route[0].(map[string]interface{})
	assert.Equal(t, "ubs-fazenda-1", first["id"])
	assert.Equal(t, float64(1), first["sequence"])
	assert.Equal(t, "pending", first["status"])

	// The route is retrievable as long as the session holds it.
	resp, _ = doJSON(t, app, http.MethodGet, "/api/routes/current", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Confirm the first stop.
	resp, body = doJSON(t, app, http.MethodPost, "/api/routes/confirm", token, fiber.Map{
		"stopId": "ubs-fazenda-1", "note": "entregue",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stop, _ := body["stop"].(map[string]interface{})
	assert.Equal(t, "completed", stop["status"])
	assert.Equal(t, "entregue", stop["notes"])

	// Confirming twice is a conflict.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/routes/confirm", token, fiber.Map{
		"stopId": "ubs-fazenda-1",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// A stop outside the route is not found.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/routes/confirm", token, fiber.Map{
		"stopId": "ubs-brilhante",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// The confirmation landed in today's history.
	resp, body = doJSON(t, app, http.MethodGet, "/api/history", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["count"])

	// Reset drops the route.
	resp, _ = doJSON(t, app, http.MethodPost, "/api/routes/reset", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = doJSON(t, app, http.MethodGet, "/api/routes/current", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdminSeesTheFleet(t *testing.T) {
	app := newTestApp(t)

	driverToken := loginDriver(t, app, "Maria")
	resp, _ := doJSON(t, app, http.MethodPost, "/api/drivers/location", driverToken, fiber.Map{
		"lat": -26.91, "lng": -48.66,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	adminToken := loginAdmin(t, app)
	resp, body := doJSON(t, app, http.MethodGet, "/api/fleet", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["count"])

	drivers, _ := body["drivers"].([]interface{})
	require.Len(t, drivers, 1)
	d, _ := drivers[0].(map[string]interface{})
	assert.Equal(t, "maria", d["id"])
	assert.Equal(t, "online", d["status"])

	// The roster remembers the identity independent of live positions.
	resp, body = doJSON(t, app, http.MethodGet, "/api/fleet/roster", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["count"])
}

func TestHistoryRejectsBadDate(t *testing.T) {
	app := newTestApp(t)
	token := loginDriver(t, app, "Maria")

	resp, _ := doJSON(t, app, http.MethodGet, "/api/history?date=29-08-2026", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogoutMarksDriverOffline(t *testing.T) {
	app := newTestApp(t)

	driverToken := loginDriver(t, app, "Maria")
	resp, _ := doJSON(t, app, http.MethodPost, "/api/drivers/location", driverToken, fiber.Map{
		"lat": -26.91, "lng": -48.66,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/auth/logout", driverToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	adminToken := loginAdmin(t, app)
	resp, body := doJSON(t, app, http.MethodGet, "/api/fleet", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	drivers, _ := body["drivers"].([]interface{})
	require.Len(t, drivers, 1)
	d, _ := drivers[0].(map[string]interface{})
	assert.Equal(t, "offline", d["status"])
}
