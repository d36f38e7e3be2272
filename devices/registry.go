package devices

import (
	"sync"

	"github.com/mobile-next/rendershell/utils"
)

// Registry tracks the coordinator of every live session so devices can be
// released when the process is interrupted.
type Registry struct {
	mu           sync.RWMutex
	coordinators map[string]*Coordinator
}

// NewRegistry creates a new coordinator registry instance
func NewRegistry() *Registry {
	return &Registry{
		coordinators: make(map[string]*Coordinator),
	}
}

// Register adds a session's coordinator for cleanup tracking
func (r *Registry) Register(sessionID string, c *Coordinator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.coordinators[sessionID] = c
}

// Unregister forgets a session without stopping its devices
func (r *Registry) Unregister(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.coordinators, sessionID)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.coordinators)
}

// CleanupAll stops the devices of every registered session
func (r *Registry) CleanupAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.coordinators) == 0 {
		return
	}

	for id, c := range r.coordinators {
		if err := c.StopAll(); err != nil {
			utils.Verbose("Error stopping devices of session %s: %v", id, err)
		}
	}

	// clear the registry
	r.coordinators = make(map[string]*Coordinator)
}
