package commands

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mobile-next/rendershell/devices"
	"github.com/mobile-next/rendershell/shell"
	"github.com/mobile-next/rendershell/utils"
	"go.uber.org/multierr"
)

// CommandResponse represents a standardized response format for all commands
type CommandResponse struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data interface{}) *CommandResponse {
	return &CommandResponse{
		Status: "ok",
		Data:   data,
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(err error) *CommandResponse {
	return &CommandResponse{
		Status: "error",
		Error:  err.Error(),
	}
}

// DefaultMaxSessions bounds the session cache; the least recently used
// session is closed when a new one would exceed it.
const DefaultMaxSessions = 16

// SessionHooks let the transport attach itself to sessions. Options is
// consulted when a session is created, Opened once it is live, and Closed
// after its devices were stopped and its queue closed.
type SessionHooks struct {
	Options func(id string) []shell.Option
	Opened  func(*Session)
	Closed  func(*Session)
}

var (
	mu       sync.Mutex
	sessions *lru.Cache[string, *Session]
	hooks    SessionHooks

	// registry tracks coordinators for cleanup on SIGINT/SIGTERM. It is set
	// once at application startup via SetRegistry.
	registry *devices.Registry
)

func init() {
	if err := ConfigureSessions(DefaultMaxSessions); err != nil {
		panic(err)
	}
}

// SetRegistry sets the global coordinator registry for cleanup tracking.
func SetRegistry(r *devices.Registry) {
	mu.Lock()
	defer mu.Unlock()
	registry = r
}

// GetRegistry returns the current registry, or nil if none was set.
func GetRegistry() *devices.Registry {
	mu.Lock()
	defer mu.Unlock()
	return registry
}

// SetSessionHooks installs transport hooks for sessions opened afterwards.
func SetSessionHooks(h SessionHooks) {
	mu.Lock()
	defer mu.Unlock()
	hooks = h
}

func getHooks() SessionHooks {
	mu.Lock()
	defer mu.Unlock()
	return hooks
}

// ConfigureSessions replaces the session cache with one holding at most max
// sessions. Sessions in the old cache are closed.
func ConfigureSessions(max int) error {
	if max <= 0 {
		return fmt.Errorf("max sessions must be positive, got %d", max)
	}

	cache, err := lru.NewWithEvict[string, *Session](max, func(id string, s *Session) {
		s.close()
	})
	if err != nil {
		return fmt.Errorf("failed to create session cache: %w", err)
	}

	mu.Lock()
	old := sessions
	sessions = cache
	mu.Unlock()

	if old != nil {
		old.Purge()
	}
	return nil
}

func getSessions() *lru.Cache[string, *Session] {
	mu.Lock()
	defer mu.Unlock()
	return sessions
}

// FindSession finds an open session by ID
func FindSession(sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session ID is required")
	}

	s, ok := getSessions().Get(sessionID)
	if !ok {
		return nil, fmt.Errorf("session not found: %s", sessionID)
	}
	return s, nil
}

// FindSessionOrAutoSelect finds a session by ID, or auto-selects if
// sessionID is empty and exactly one session is open
func FindSessionOrAutoSelect(sessionID string) (*Session, error) {
	if sessionID != "" {
		return FindSession(sessionID)
	}

	ids := getSessions().Keys()
	if len(ids) == 0 {
		return nil, fmt.Errorf("no open sessions found")
	}

	if len(ids) > 1 {
		return nil, fmt.Errorf("multiple sessions found (%d), please specify sessionId with one of: %s", len(ids), getSessionIDList(ids))
	}

	return FindSession(ids[0])
}

// CloseAllSessions closes every open session, e.g. on server shutdown
func CloseAllSessions() error {
	cache := getSessions()

	var errs error
	ids := cache.Keys()
	for _, id := range ids {
		if s, ok := cache.Peek(id); ok {
			errs = multierr.Append(errs, s.close())
		}
	}
	cache.Purge()

	utils.Verbose("Closed %d session(s)", len(ids))
	return errs
}

// getSessionIDList returns a sorted, comma-separated list of session IDs for error messages
func getSessionIDList(ids []string) string {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	return fmt.Sprintf("[%s]", strings.Join(sorted, ", "))
}
