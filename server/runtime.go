package server

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/mobile-next/rendershell/commands"
	"github.com/mobile-next/rendershell/devices"
	"github.com/mobile-next/rendershell/render"
	"github.com/mobile-next/rendershell/shell"
	"github.com/mobile-next/rendershell/types"
)

// ErrNoSubscribers means no platform is connected to own a device
var ErrNoSubscribers = errors.New("no platform subscribed to session")

// sessionRuntime is the server side of one session: its render loop and
// the services that forward device requests to subscribers
type sessionRuntime struct {
	id    string
	shell atomic.Pointer[shell.Shell]
	done  chan struct{}
}

// DeviceRequest is the payload of device.start and device.stop
type DeviceRequest struct {
	SessionID string             `json:"sessionId"`
	Device    devices.DeviceKind `json:"device"`
	Params    *devices.Params    `json:"params,omitempty"`
}

// remoteService owns a device through the platform on the other end of
// the session's WebSocket subscriptions. The platform reports completion
// with device_started and device_stopped.
type remoteService struct {
	hub  *Hub
	rt   *sessionRuntime
	kind devices.DeviceKind
}

func (r *remoteService) Start(params devices.Params) error {
	if r.hub.Count(r.rt.id) == 0 {
		return ErrNoSubscribers
	}

	req := DeviceRequest{SessionID: r.rt.id, Device: r.kind}
	if r.kind == devices.Camera {
		req.Params = &params
	}
	if r.hub.Publish(r.rt.id, notifyDeviceStart, req) == 0 {
		return ErrNoSubscribers
	}
	return nil
}

func (r *remoteService) Stop() error {
	if r.hub.Publish(r.rt.id, notifyDeviceStop, DeviceRequest{SessionID: r.rt.id, Device: r.kind}) > 0 {
		return nil
	}

	// nobody is left to own the device
	if sh := r.rt.shell.Load(); sh != nil {
		sh.DeviceStopped(r.kind, nil)
	}
	return nil
}

// streamEngine publishes every render command to the session subscribers.
// It is only called from the render loop goroutine.
type streamEngine struct {
	hub       *Hub
	sessionID string
	frames    int64
}

func (e *streamEngine) Apply(cmd types.Command) error {
	e.hub.Publish(e.sessionID, notifyRenderCommand, cmd)
	return nil
}

func (e *streamEngine) Render() error {
	e.frames++
	e.hub.Publish(e.sessionID, notifyRenderFrame, map[string]interface{}{"frame": e.frames})
	return nil
}

func (s *Server) sessionHooks() commands.SessionHooks {
	return commands.SessionHooks{
		Options: s.sessionOptions,
		Opened:  s.sessionOpened,
		Closed:  s.sessionClosed,
	}
}

func (s *Server) sessionOptions(id string) []shell.Option {
	rt := &sessionRuntime{id: id, done: make(chan struct{})}

	s.mu.Lock()
	s.runtimes[id] = rt
	s.mu.Unlock()

	opts := make([]shell.Option, 0, len(devices.AllDevices))
	for _, kind := range devices.AllDevices {
		opts = append(opts, shell.WithService(kind, &remoteService{hub: s.hub, rt: rt, kind: kind}))
	}
	return opts
}

func (s *Server) sessionOpened(session *commands.Session) {
	s.mu.Lock()
	rt, ok := s.runtimes[session.ID]
	s.mu.Unlock()
	if !ok {
		return
	}

	rt.shell.Store(session.Shell)
	session.Shell.Coordinator().OnChange(func(kind devices.DeviceKind, state devices.LifecycleState) {
		s.hub.Publish(session.ID, notifyDeviceState, map[string]interface{}{
			"sessionId": session.ID,
			"device":    kind,
			"state":     state,
		})
	})

	loop := render.NewLoop(session.Shell.Queue(), &streamEngine{hub: s.hub, sessionID: session.ID})
	s.group.Go(func() error {
		defer close(rt.done)
		if err := loop.Run(s.ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
}

func (s *Server) sessionClosed(session *commands.Session) {
	s.mu.Lock()
	rt, ok := s.runtimes[session.ID]
	delete(s.runtimes, session.ID)
	s.mu.Unlock()

	if ok {
		// the queue is closed by now; wait for the loop to flush it
		<-rt.done
	}

	s.hub.Publish(session.ID, notifySessionClosed, map[string]interface{}{"sessionId": session.ID})
	s.hub.Drop(session.ID)
}
