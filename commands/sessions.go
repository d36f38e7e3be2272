package commands

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mobile-next/rendershell/devices"
	"github.com/mobile-next/rendershell/shell"
	"github.com/mobile-next/rendershell/types"
	"github.com/mobile-next/rendershell/utils"
	"github.com/sirupsen/logrus"
)

// Session is one rendering shell addressed by ID over the transport.
type Session struct {
	ID      string
	Shell   *shell.Shell
	Created time.Time

	closeOnce sync.Once
	closeErr  error
}

func (s *Session) Log() *logrus.Entry {
	return utils.WithFields(logrus.Fields{"session": s.ID})
}

// close stops the devices and the queue, then runs the Closed hook. Safe to
// call more than once.
func (s *Session) close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.Shell.Close()
		if r := GetRegistry(); r != nil {
			r.Unregister(s.ID)
		}
		if h := getHooks(); h.Closed != nil {
			h.Closed(s)
		}
		s.Log().Info("session closed")
	})
	return s.closeErr
}

// SessionOpenRequest represents the parameters for opening a session
type SessionOpenRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// SessionRequest addresses an existing session
type SessionRequest struct {
	SessionID string `json:"sessionId"`
}

// SessionInfo describes an open session
type SessionInfo struct {
	SessionID string                                        `json:"sessionId"`
	Screen    types.ScreenSize                              `json:"screen"`
	Devices   map[devices.DeviceKind]devices.LifecycleState `json:"devices"`
	Created   time.Time                                     `json:"created"`
}

func (s *Session) Info() SessionInfo {
	return SessionInfo{
		SessionID: s.ID,
		Screen:    s.Shell.Screen(),
		Devices:   s.Shell.Coordinator().Snapshot().Devices,
		Created:   s.Created,
	}
}

// SessionOpenCommand creates a new session for a screen of the given size
func SessionOpenCommand(req SessionOpenRequest) *CommandResponse {
	if req.Width <= 0 || req.Height <= 0 {
		return NewErrorResponse(fmt.Errorf("width and height must be positive, got %dx%d", req.Width, req.Height))
	}

	id := uuid.New().String()
	h := getHooks()

	var opts []shell.Option
	if h.Options != nil {
		opts = h.Options(id)
	}

	s := &Session{
		ID:      id,
		Shell:   shell.New(types.ScreenSize{Width: req.Width, Height: req.Height}, opts...),
		Created: time.Now(),
	}

	if r := GetRegistry(); r != nil {
		r.Register(id, s.Shell.Coordinator())
	}
	if h.Opened != nil {
		h.Opened(s)
	}
	getSessions().Add(id, s)

	s.Log().Infof("session opened (%dx%d)", req.Width, req.Height)
	return NewSuccessResponse(s.Info())
}

// SessionCloseCommand stops a session's devices and closes its render queue
func SessionCloseCommand(req SessionRequest) *CommandResponse {
	s, err := FindSessionOrAutoSelect(req.SessionID)
	if err != nil {
		return NewErrorResponse(err)
	}

	closeErr := s.close()
	getSessions().Remove(s.ID)
	if closeErr != nil {
		return NewErrorResponse(fmt.Errorf("session %s closed with errors: %w", s.ID, closeErr))
	}

	return NewSuccessResponse(map[string]interface{}{
		"message": fmt.Sprintf("Closed session %s", s.ID),
	})
}

// SessionListCommand lists open sessions, least recently used first
func SessionListCommand() *CommandResponse {
	cache := getSessions()
	list := make([]SessionInfo, 0, cache.Len())
	for _, id := range cache.Keys() {
		if s, ok := cache.Peek(id); ok {
			list = append(list, s.Info())
		}
	}
	return NewSuccessResponse(list)
}

// SessionStateCommand returns touch, device and screen state of a session
func SessionStateCommand(req SessionRequest) *CommandResponse {
	s, err := FindSessionOrAutoSelect(req.SessionID)
	if err != nil {
		return NewErrorResponse(err)
	}
	return NewSuccessResponse(s.Shell.State())
}
