package devices

import (
	"fmt"
	"sync"

	"github.com/mobile-next/rendershell/utils"
	"go.uber.org/multierr"
)

// ShutdownHook runs cleanup functions when the server goes down, in the
// order they were registered.
type ShutdownHook struct {
	mu    sync.RWMutex
	hooks []namedHook
}

type namedHook struct {
	name string
	fn   func() error
}

func NewShutdownHook() *ShutdownHook {
	return &ShutdownHook{}
}

// Register adds a cleanup function. The name shows up in logs and errors.
func (s *ShutdownHook) Register(name string, cleanupFn func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, namedHook{name: name, fn: cleanupFn})
	utils.Verbose("Registered shutdown hook: %s", name)
}

// Shutdown runs every hook even when some fail, and returns all failures
// combined. Hooks are cleared afterwards.
func (s *ShutdownHook) Shutdown() error {
	s.mu.Lock()
	hooks := s.hooks
	s.hooks = nil
	s.mu.Unlock()

	if len(hooks) == 0 {
		return nil
	}

	utils.Verbose("Executing %d shutdown hook(s)", len(hooks))
	var errs error
	for _, hook := range hooks {
		utils.Verbose("Running shutdown hook: %s", hook.name)
		if err := hook.fn(); err != nil {
			utils.Verbose("Shutdown hook %s failed: %v", hook.name, err)
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", hook.name, err))
		}
	}
	return errs
}

// Count returns the number of registered hooks
func (s *ShutdownHook) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.hooks)
}
