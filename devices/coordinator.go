package devices

import (
	"errors"
	"fmt"
	"sync"

	"github.com/mobile-next/rendershell/utils"
	"go.uber.org/multierr"
)

var (
	// ErrPermissionDenied means the device class has not been granted yet.
	ErrPermissionDenied = errors.New("permission not granted")
	// ErrTransitioning means a start or stop is already in flight.
	ErrTransitioning = errors.New("device is transitioning")
	// ErrUnavailable means the service is missing or refused to start.
	ErrUnavailable = errors.New("device service unavailable")
)

// Service is the external owner of a device. Start and Stop must not block
// until the device is up or down; completion is reported through
// Coordinator.StartCompleted and Coordinator.StopCompleted, possibly from
// inside the Start or Stop call itself.
type Service interface {
	Start(params Params) error
	Stop() error
}

// ServiceFuncs adapts a pair of functions to Service.
type ServiceFuncs struct {
	StartFunc func(params Params) error
	StopFunc  func() error
}

func (s ServiceFuncs) Start(params Params) error {
	if s.StartFunc == nil {
		return nil
	}
	return s.StartFunc(params)
}

func (s ServiceFuncs) Stop() error {
	if s.StopFunc == nil {
		return nil
	}
	return s.StopFunc()
}

type device struct {
	state  LifecycleState
	params Params
	// failureLogged mutes repeated failure logs until the next successful start
	failureLogged bool
}

type change struct {
	kind  DeviceKind
	state LifecycleState
}

// Snapshot is a point-in-time copy of the coordinator state.
type Snapshot struct {
	Devices     map[DeviceKind]LifecycleState `json:"devices"`
	Camera      CameraConfig                  `json:"camera"`
	Permissions map[Permission]bool           `json:"permissions"`
}

// Coordinator serializes start and stop requests for the camera, the
// rotation sensor and the GPS. A request made while a device is starting or
// stopping is dropped, never queued.
type Coordinator struct {
	mu          sync.Mutex
	services    map[DeviceKind]Service
	devices     map[DeviceKind]*device
	permissions map[Permission]bool
	observers   []func(DeviceKind, LifecycleState)
	pending     []change
}

func NewCoordinator() *Coordinator {
	c := &Coordinator{
		services:    make(map[DeviceKind]Service),
		devices:     make(map[DeviceKind]*device),
		permissions: make(map[Permission]bool),
	}
	for _, kind := range AllDevices {
		c.devices[kind] = &device{state: Stopped}
	}
	return c
}

// SetService installs the service owning kind.
func (c *Coordinator) SetService(kind DeviceKind, svc Service) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services[kind] = svc
}

// OnChange registers an observer called after every state change. Observers
// run outside the coordinator lock.
func (c *Coordinator) OnChange(fn func(DeviceKind, LifecycleState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// SetPermission records a grant or denial reported by the platform.
func (c *Coordinator) SetPermission(p Permission, granted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.permissions[p] = granted
	utils.Verbose("%s permission granted: %v", p, granted)
}

func (c *Coordinator) Permitted(p Permission) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.permissions[p]
}

func (c *Coordinator) State(kind DeviceKind) LifecycleState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d, ok := c.devices[kind]; ok {
		return d.state
	}
	return Stopped
}

func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		Devices:     make(map[DeviceKind]LifecycleState, len(c.devices)),
		Camera:      c.devices[Camera].params.Camera,
		Permissions: make(map[Permission]bool, len(permissionNames)),
	}
	for kind, d := range c.devices {
		s.Devices[kind] = d.state
	}
	for p := range permissionNames {
		s.Permissions[p] = c.permissions[p]
	}
	return s
}

// RequestStart asks the service to start kind. A running camera with a
// different configuration is stopped first; the caller has to request the
// start again once the stop has completed.
func (c *Coordinator) RequestStart(kind DeviceKind, params Params) error {
	c.mu.Lock()

	d, ok := c.devices[kind]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("unknown device %s", kind)
	}
	if !c.permittedLocked(kind) {
		c.mu.Unlock()
		utils.Verbose("ignoring %s start: %v", kind, ErrPermissionDenied)
		return ErrPermissionDenied
	}

	switch d.state {
	case Starting, Stopping:
		c.mu.Unlock()
		utils.Verbose("ignoring %s start: %s", kind, d.state)
		return ErrTransitioning

	case Running:
		if kind != Camera || d.params.Camera == params.Camera {
			c.mu.Unlock()
			return nil
		}
		utils.Info("Going to stop %s service to change configuration ...", kind)
		return c.stopLocked(kind, d)
	}

	svc := c.services[kind]
	if svc == nil {
		c.logFailureLocked(kind, d, "no service registered")
		c.mu.Unlock()
		return fmt.Errorf("%w: %s has no service", ErrUnavailable, kind)
	}

	c.setStateLocked(kind, d, Starting)
	d.params = params
	c.unlockAndNotify()

	utils.Info("Going to start %s service ...", kind)
	if err := svc.Start(params); err != nil {
		c.mu.Lock()
		if d.state == Starting {
			c.setStateLocked(kind, d, Stopped)
		}
		c.logFailureLocked(kind, d, err.Error())
		c.unlockAndNotify()
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, kind, err)
	}
	return nil
}

// RequestStop asks the service to stop kind. Stopping a stopped device is a
// no-op.
func (c *Coordinator) RequestStop(kind DeviceKind) error {
	c.mu.Lock()

	d, ok := c.devices[kind]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("unknown device %s", kind)
	}
	if !c.permittedLocked(kind) {
		c.mu.Unlock()
		utils.Verbose("ignoring %s stop: %v", kind, ErrPermissionDenied)
		return ErrPermissionDenied
	}

	return c.requestStopLocked(kind, d)
}

// StopAll stops every running device regardless of permissions, e.g. when
// the session goes away.
func (c *Coordinator) StopAll() error {
	var errs error
	for _, kind := range AllDevices {
		c.mu.Lock()
		err := c.requestStopLocked(kind, c.devices[kind])
		if err != nil && !errors.Is(err, ErrTransitioning) {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// StartCompleted is called by a service once a start finished. A nil err
// moves the device to Running; an error moves it back to Stopped.
func (c *Coordinator) StartCompleted(kind DeviceKind, err error) {
	c.mu.Lock()

	d, ok := c.devices[kind]
	if !ok || d.state != Starting {
		c.mu.Unlock()
		utils.Warn("ignoring unexpected %s start completion", kind)
		return
	}

	if err != nil {
		c.setStateLocked(kind, d, Stopped)
		c.logFailureLocked(kind, d, err.Error())
	} else {
		c.setStateLocked(kind, d, Running)
		d.failureLogged = false
		utils.Info("%s service running", kind)
	}
	c.unlockAndNotify()
}

// StopCompleted is called by a service once a stop finished. The device is
// Stopped afterwards whatever err says.
func (c *Coordinator) StopCompleted(kind DeviceKind, err error) {
	c.mu.Lock()

	d, ok := c.devices[kind]
	if !ok || d.state != Stopping {
		c.mu.Unlock()
		utils.Warn("ignoring unexpected %s stop completion", kind)
		return
	}

	if err != nil {
		utils.Warn("%s service stopped with error: %v", kind, err)
	}
	c.setStateLocked(kind, d, Stopped)
	c.unlockAndNotify()
}

// requestStopLocked must be called with c.mu held; it releases it.
func (c *Coordinator) requestStopLocked(kind DeviceKind, d *device) error {
	switch d.state {
	case Starting, Stopping:
		c.mu.Unlock()
		utils.Verbose("ignoring %s stop: %s", kind, d.state)
		return ErrTransitioning
	case Stopped:
		c.mu.Unlock()
		return nil
	}

	utils.Info("Going to stop %s service ...", kind)
	return c.stopLocked(kind, d)
}

// stopLocked moves a running device to Stopping and calls the service.
// It must be called with c.mu held; it releases it.
func (c *Coordinator) stopLocked(kind DeviceKind, d *device) error {
	svc := c.services[kind]
	if svc == nil {
		c.setStateLocked(kind, d, Stopped)
		c.unlockAndNotify()
		return nil
	}

	c.setStateLocked(kind, d, Stopping)
	c.unlockAndNotify()

	if err := svc.Stop(); err != nil {
		c.mu.Lock()
		if d.state == Stopping {
			c.setStateLocked(kind, d, Running)
		}
		c.unlockAndNotify()
		utils.Warn("failed to stop %s service: %v", kind, err)
		return fmt.Errorf("failed to stop %s: %w", kind, err)
	}
	return nil
}

func (c *Coordinator) permittedLocked(kind DeviceKind) bool {
	p, required := requiredPermission(kind)
	return !required || c.permissions[p]
}

func (c *Coordinator) setStateLocked(kind DeviceKind, d *device, s LifecycleState) {
	if d.state == s {
		return
	}
	d.state = s
	c.pending = append(c.pending, change{kind: kind, state: s})
}

func (c *Coordinator) logFailureLocked(kind DeviceKind, d *device, reason string) {
	if d.failureLogged {
		return
	}
	d.failureLogged = true
	utils.Warn("%s unavailable: %s", kind, reason)
}

func (c *Coordinator) unlockAndNotify() {
	pending := c.pending
	c.pending = nil
	observers := c.observers
	c.mu.Unlock()

	for _, ch := range pending {
		for _, fn := range observers {
			fn(ch.kind, ch.state)
		}
	}
}
