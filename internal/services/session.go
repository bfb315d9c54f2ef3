package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/h2brasil/delivery-backend/internal/catalog"
	"github.com/h2brasil/delivery-backend/internal/geo"
	"github.com/h2brasil/delivery-backend/internal/models"
	"github.com/h2brasil/delivery-backend/internal/realtime"
	"github.com/h2brasil/delivery-backend/internal/storage"
	"github.com/h2brasil/delivery-backend/internal/utils"
)

// Role tags a session. A session carries exactly one role, so invalid
// combinations (an admin with an active route, a driver reading the fleet)
// cannot be represented.
type Role string

const (
	RoleDriver Role = "driver"
	RoleAdmin  Role = "admin"
)

var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrInvalidToken         = errors.New("invalid or expired session token")
	ErrNotDriver            = errors.New("operation requires a driver session")
	ErrNotAdmin             = errors.New("operation requires an admin session")
	ErrNoActiveRoute        = errors.New("no active route")
	ErrStopNotFound         = errors.New("stop not in current route")
	ErrAlreadyCompleted     = errors.New("stop already confirmed")
	ErrOptimizationInFlight = errors.New("an optimization request is already in flight")
)

// Session represents one authenticated identity. Driver sessions own a
// route, a position watcher, and the right to publish locations; admin
// sessions own neither.
type Session struct {
	ID         string    `json:"session_id"`
	Role       Role      `json:"role"`
	DriverID   string    `json:"driver_id,omitempty"`
	DriverName string    `json:"driver_name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`

	// Guarded by the manager's mutex.
	route      *models.OptimizationResult
	optimizing bool
	watcher    *geo.Watcher
}

// Watcher returns the session's position watcher (nil for admin sessions).
func (s *Session) Watcher() *geo.Watcher {
	return s.watcher
}

// SessionManager manages authenticated sessions and owns all mutation of
// per-session route state.
type SessionManager struct {
	store       storage.Store
	channel     realtime.Channel
	jwtSecret   []byte
	adminSecret string
	sessions    map[string]*Session
	mu          sync.RWMutex
	tokenTTL    time.Duration
}

// NewSessionManager creates a new session manager. adminSecret may be
// empty, in which case admin login is disabled.
func NewSessionManager(store storage.Store, channel realtime.Channel, jwtSecret []byte, adminSecret string) *SessionManager {
	sm := &SessionManager{
		store:       store,
		channel:     channel,
		jwtSecret:   jwtSecret,
		adminSecret: adminSecret,
		sessions:    make(map[string]*Session),
		tokenTTL:    24 * time.Hour,
	}

	// Start cleanup routine
	go sm.cleanupIdleSessions()

	return sm
}

// LoginDriver authenticates a driver by display name. The derived slug id
// is the driver's stable identity; the returned token carries it so the
// device can skip re-entering the name across restarts.
func (sm *SessionManager) LoginDriver(name string) (string, *Session, error) {
	driverID := utils.DriverID(name)
	if driverID == "" {
		return "", nil, fmt.Errorf("%w: driver name is required", ErrInvalidCredentials)
	}

	// Roster write is best effort; a failed touch never blocks a login.
	if err := sm.store.TouchDriver(driverID, name); err != nil {
		log.Printf("Failed to touch driver roster for %s: %v", driverID, err)
	}

	session := sm.getOrCreate("driver:"+driverID, func() *Session {
		return &Session{
			ID:         "driver:" + driverID,
			Role:       RoleDriver,
			DriverID:   driverID,
			DriverName: name,
			CreatedAt:  time.Now(),
			watcher:    geo.NewWatcher(catalog.FallbackCenter),
		}
	})

	token, err := sm.sign(RoleDriver, driverID, name)
	if err != nil {
		return "", nil, err
	}

	log.Printf("Driver session created for %s (%s)", name, driverID)
	return token, session, nil
}

// LoginAdmin authenticates an administrator against the configured shared
// secret.
func (sm *SessionManager) LoginAdmin(secret string) (string, *Session, error) {
	if sm.adminSecret == "" {
		return "", nil, fmt.Errorf("admin access is not configured")
	}
	if subtle.ConstantTimeCompare([]byte(secret), []byte(sm.adminSecret)) != 1 {
		return "", nil, ErrInvalidCredentials
	}

	adminID := uuid.NewString()
	session := sm.getOrCreate("admin:"+adminID, func() *Session {
		return &Session{
			ID:        "admin:" + adminID,
			Role:      RoleAdmin,
			CreatedAt: time.Now(),
		}
	})

	token, err := sm.sign(RoleAdmin, adminID, "")
	if err != nil {
		return "", nil, err
	}

	log.Printf("Admin session created (%s)", adminID)
	return token, session, nil
}

// Resolve validates a bearer token and returns its session, recreating the
// server-side state when the token outlived a restart.
func (sm *SessionManager) Resolve(tokenString string) (*Session, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return sm.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	role, _ := claims["role"].(string)
	sub, _ := claims["sub"].(string)
	name, _ := claims["name"].(string)
	if sub == "" {
		return nil, ErrInvalidToken
	}

	var session *Session
	switch Role(role) {
	case RoleDriver:
		session = sm.getOrCreate("driver:"+sub, func() *Session {
			return &Session{
				ID:         "driver:" + sub,
				Role:       RoleDriver,
				DriverID:   sub,
				DriverName: name,
				CreatedAt:  time.Now(),
				watcher:    geo.NewWatcher(catalog.FallbackCenter),
			}
		})
	case RoleAdmin:
		session = sm.getOrCreate("admin:"+sub, func() *Session {
			return &Session{
				ID:        "admin:" + sub,
				Role:      RoleAdmin,
				CreatedAt: time.Now(),
			}
		})
	default:
		return nil, ErrInvalidToken
	}

	sm.mu.Lock()
	session.LastActive = time.Now()
	sm.mu.Unlock()

	return session, nil
}

// Logout ends a session. Driver logout converges the driver's live record
// to offline; admin logout just drops the role.
func (sm *SessionManager) Logout(ctx context.Context, session *Session) error {
	if session.Role == RoleDriver {
		if err := sm.channel.MarkOffline(ctx, session.DriverID); err != nil {
			log.Printf("Failed to mark driver %s offline on logout: %v", session.DriverID, err)
		}
	}

	sm.mu.Lock()
	delete(sm.sessions, session.ID)
	sm.mu.Unlock()

	log.Printf("Session ended (%s)", session.ID)
	return nil
}

// SetRoute installs a freshly optimized route on a driver session.
func (sm *SessionManager) SetRoute(session *Session, result *models.OptimizationResult) error {
	if session.Role != RoleDriver {
		return ErrNotDriver
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()
	session.route = result
	return nil
}

// Route returns a copy of the session's current route, or nil.
func (sm *SessionManager) Route(session *Session) *models.OptimizationResult {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if session.route == nil {
		return nil
	}

	cp := *session.route
	cp.Route = make([]models.RouteStop, len(session.route.Route))
	copy(cp.Route, session.route.Route)
	return &cp
}

// ResetRoute discards the session's route, returning to the selection view.
func (sm *SessionManager) ResetRoute(session *Session) error {
	if session.Role != RoleDriver {
		return ErrNotDriver
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()
	session.route = nil
	return nil
}

// ConfirmStop transitions one stop of the session's route from pending to
// completed. There is no transition out of completed.
func (sm *SessionManager) ConfirmStop(session *Session, stopID, completedAt, note string) (models.RouteStop, error) {
	if session.Role != RoleDriver {
		return models.RouteStop{}, ErrNotDriver
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	if session.route == nil {
		return models.RouteStop{}, ErrNoActiveRoute
	}

	stop := session.route.FindStop(stopID)
	if stop == nil {
		return models.RouteStop{}, ErrStopNotFound
	}
	if stop.Completed() {
		return models.RouteStop{}, ErrAlreadyCompleted
	}

	stop.Status = models.StopStatusCompleted
	stop.CompletedAt = completedAt
	stop.Notes = note
	return *stop, nil
}

// BeginOptimization acquires the session's single-request slot. A second
// optimization while one is outstanding is rejected, not queued.
func (sm *SessionManager) BeginOptimization(session *Session) error {
	if session.Role != RoleDriver {
		return ErrNotDriver
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	if session.optimizing {
		return ErrOptimizationInFlight
	}
	session.optimizing = true
	return nil
}

// EndOptimization releases the slot.
func (sm *SessionManager) EndOptimization(session *Session) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	session.optimizing = false
}

// GetActiveSessions returns all live sessions (for monitoring)
func (sm *SessionManager) GetActiveSessions() []*Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	sessions := make([]*Session, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		sessions = append(sessions, s)
	}
	return sessions
}

func (sm *SessionManager) getOrCreate(key string, create func() *Session) *Session {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if existing, ok := sm.sessions[key]; ok {
		existing.LastActive = time.Now()
		return existing
	}

	session := create()
	session.LastActive = time.Now()
	sm.sessions[key] = session
	return session
}

func (sm *SessionManager) sign(role Role, sub, name string) (string, error) {
	claims := jwt.MapClaims{
		"role": string(role),
		"sub":  sub,
		"exp":  time.Now().Add(sm.tokenTTL).Unix(),
		"iat":  time.Now().Unix(),
	}
	if name != "" {
		claims["name"] = name
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(sm.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// cleanupIdleSessions runs periodically to drop sessions idle longer than
// the token lifetime. Their tokens have expired, so nothing can reach them.
func (sm *SessionManager) cleanupIdleSessions() {
	ticker := time.NewTicker(30 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		sm.mu.Lock()
		for key, session := range sm.sessions {
			if time.Since(session.LastActive) > sm.tokenTTL {
				delete(sm.sessions, key)
				log.Printf("Cleaned up idle session %s", key)
			}
		}
		sm.mu.Unlock()
	}
}
