package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/h2brasil/delivery-backend/internal/models"
	"github.com/h2brasil/delivery-backend/internal/storage"
)

func newTestManager(t *testing.T) (*SessionManager, *fakeChannel) {
	t.Helper()
	channel := &fakeChannel{}
	return NewSessionManager(storage.NewMemoryStore(), channel, []byte("test-secret"), "admin-pass"), channel
}

func driverRoute(ids ...string) *models.OptimizationResult {
	result := &models.OptimizationResult{Summary: "test route"}
	for i, id := range ids {
		result.Route = append(result.Route, models.RouteStop{
			DeliveryPoint: models.DeliveryPoint{ID: id, Name: "Stop " + id},
			Sequence:      i + 1,
			Status:        models.StopStatusPending,
		})
	}
	return result
}

func TestLoginDriver(t *testing.T) {
	sm, _ := newTestManager(t)

	token, session, err := sm.LoginDriver("João Silva")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, RoleDriver, session.Role)
	assert.Equal(t, "joao-silva", session.DriverID)
	require.NotNil(t, session.Watcher())

	// The roster saw the login.
	account, err := sm.store.GetDriver("joao-silva")
	require.NoError(t, err)
	assert.Equal(t, "João Silva", account.Name)

	// Logging in again resumes the same server-side session.
	_, again, err := sm.LoginDriver("joão  silva")
	require.NoError(t, err)
	assert.Same(t, session, again)
}

func TestLoginDriverRequiresName(t *testing.T) {
	sm, _ := newTestManager(t)

	_, _, err := sm.LoginDriver("   ")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginAdmin(t *testing.T) {
	sm, _ := newTestManager(t)

	_, _, err := sm.LoginAdmin("wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	token, session, err := sm.LoginAdmin("admin-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, RoleAdmin, session.Role)
	assert.Nil(t, session.Watcher())
}

func TestLoginAdminDisabledWithoutSecret(t *testing.T) {
	sm := NewSessionManager(storage.NewMemoryStore(), &fakeChannel{}, []byte("test-secret"), "")

	_, _, err := sm.LoginAdmin("")
	assert.Error(t, err)
}

func TestResolveToken(t *testing.T) {
	sm, _ := newTestManager(t)

	token, session, err := sm.LoginDriver("Maria")
	require.NoError(t, err)

	resolved, err := sm.Resolve(token)
	require.NoError(t, err)
	assert.Same(t, session, resolved)

	_, err = sm.Resolve("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestResolveSurvivesRestart(t *testing.T) {
	sm, _ := newTestManager(t)
	token, _, err := sm.LoginDriver("Maria")
	require.NoError(t, err)

	// A fresh manager with the same signing key stands in for a restarted
	// process: the token must still resolve, with the watcher rebuilt.
	restarted := NewSessionManager(storage.NewMemoryStore(), &fakeChannel{}, []byte("test-secret"), "admin-pass")
	session, err := restarted.Resolve(token)
	require.NoError(t, err)
	assert.Equal(t, RoleDriver, session.Role)
	assert.Equal(t, "maria", session.DriverID)
	assert.Equal(t, "Maria", session.DriverName)
	assert.NotNil(t, session.Watcher())
}

func TestResolveRejectsForeignSignature(t *testing.T) {
	sm, _ := newTestManager(t)
	token, _, err := sm.LoginDriver("Maria")
	require.NoError(t, err)

	other := NewSessionManager(storage.NewMemoryStore(), &fakeChannel{}, []byte("different-secret"), "")
	_, err = other.Resolve(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogoutDriverMarksOffline(t *testing.T) {
	sm, channel := newTestManager(t)

	_, session, err := sm.LoginDriver("Maria")
	require.NoError(t, err)

	require.NoError(t, sm.Logout(context.Background(), session))
	assert.Equal(t, []string{"maria"}, channel.markedOffline)
	assert.Empty(t, sm.GetActiveSessions())
}

func TestRouteReturnsACopy(t *testing.T) {
	sm, _ := newTestManager(t)
	_, session, err := sm.LoginDriver("Maria")
	require.NoError(t, err)

	require.NoError(t, sm.SetRoute(session, driverRoute("a", "b")))

	got := sm.Route(session)
	require.NotNil(t, got)
	got.Route[0].Status = models.StopStatusCompleted

	// Mutating the copy must not leak into the session's route.
	assert.Equal(t, models.StopStatusPending, sm.Route(session).Route[0].Status)
}

func TestConfirmStopTransitions(t *testing.T) {
	sm, _ := newTestManager(t)
	_, session, err := sm.LoginDriver("Maria")
	require.NoError(t, err)

	_, err = sm.ConfirmStop(session, "a", "14:30", "")
	assert.ErrorIs(t, err, ErrNoActiveRoute)

	require.NoError(t, sm.SetRoute(session, driverRoute("a", "b")))

	_, err = sm.ConfirmStop(session, "z", "14:30", "")
	assert.ErrorIs(t, err, ErrStopNotFound)

	stop, err := sm.ConfirmStop(session, "a", "14:30", "porta dos fundos")
	require.NoError(t, err)
	assert.Equal(t, models.StopStatusCompleted, stop.Status)
	assert.Equal(t, "14:30", stop.CompletedAt)
	assert.Equal(t, "porta dos fundos", stop.Notes)

	// Completed is terminal.
	_, err = sm.ConfirmStop(session, "a", "15:00", "")
	assert.ErrorIs(t, err, ErrAlreadyCompleted)

	// The other stop is untouched.
	route := sm.Route(session)
	assert.Equal(t, models.StopStatusPending, route.Route[1].Status)
}

func TestResetRoute(t *testing.T) {
	sm, _ := newTestManager(t)
	_, session, err := sm.LoginDriver("Maria")
	require.NoError(t, err)

	require.NoError(t, sm.SetRoute(session, driverRoute("a")))
	require.NoError(t, sm.ResetRoute(session))
	assert.Nil(t, sm.Route(session))
}

func TestAdminOwnsNoRoute(t *testing.T) {
	sm, _ := newTestManager(t)
	_, admin, err := sm.LoginAdmin("admin-pass")
	require.NoError(t, err)

	assert.ErrorIs(t, sm.SetRoute(admin, driverRoute("a")), ErrNotDriver)
	assert.ErrorIs(t, sm.ResetRoute(admin), ErrNotDriver)
	assert.ErrorIs(t, sm.BeginOptimization(admin), ErrNotDriver)
}

func TestBeginOptimizationSingleSlot(t *testing.T) {
	sm, _ := newTestManager(t)
	_, session, err := sm.LoginDriver("Maria")
	require.NoError(t, err)

	require.NoError(t, sm.BeginOptimization(session))
	assert.ErrorIs(t, sm.BeginOptimization(session), ErrOptimizationInFlight)

	sm.EndOptimization(session)
	assert.NoError(t, sm.BeginOptimization(session))
}
