package shell

import (
	"errors"
	"fmt"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/mobile-next/rendershell/devices"
	"github.com/mobile-next/rendershell/gesture"
	"github.com/mobile-next/rendershell/orientation"
	"github.com/mobile-next/rendershell/render"
	"github.com/mobile-next/rendershell/types"
	"github.com/mobile-next/rendershell/utils"
)

var ErrInvalidScreenSize = errors.New("invalid screen size")

// Shell is the platform-facing half of a rendering session. It owns the
// touch classifier, the device coordinator and the producer side of the
// render queue, and routes every platform event to the right one.
//
// Input methods are serialized by an internal mutex. Device completions
// bypass it and go straight to the coordinator, so a service may report
// completion from inside Start or Stop.
type Shell struct {
	mu                    sync.Mutex
	classifier            *gesture.Classifier
	screen                types.ScreenSize
	permissionRequestOpen bool

	coordinator *devices.Coordinator
	queue       *render.Queue
	clock       clock.Clock
	now         func() int64
}

type Option func(*Shell)

// WithClock sets the clock used to stamp events that arrive without a
// timestamp.
func WithClock(c clock.Clock) Option {
	return func(s *Shell) {
		s.clock = c
	}
}

// WithService installs the service that owns a device.
func WithService(kind devices.DeviceKind, svc devices.Service) Option {
	return func(s *Shell) {
		s.coordinator.SetService(kind, svc)
	}
}

// WithQueue makes the shell push into an existing queue.
func WithQueue(q *render.Queue) Option {
	return func(s *Shell) {
		s.queue = q
	}
}

func New(screen types.ScreenSize, opts ...Option) *Shell {
	s := &Shell{
		classifier:  gesture.NewClassifier(),
		screen:      screen,
		coordinator: devices.NewCoordinator(),
		queue:       render.NewQueue(),
		clock:       clock.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.now = gesture.MonotonicClock(s.clock)
	return s
}

func (s *Shell) Coordinator() *devices.Coordinator {
	return s.coordinator
}

func (s *Shell) Queue() *render.Queue {
	return s.queue
}

// Now is the shell's monotonic time in milliseconds.
func (s *Shell) Now() int64 {
	return s.now()
}

// OnTouch classifies a pointer frame and queues the resulting commands
// together with a render request. Unhandled frames queue nothing.
func (s *Shell) OnTouch(ev *types.PointerEvent) ([]types.GestureCommand, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cmds, handled := s.classifier.Handle(ev)
	if !handled {
		return nil, false
	}

	if err := s.queue.PushGestures(cmds); err != nil {
		utils.Verbose("dropping %d touch command(s): %v", len(cmds), err)
		return cmds, true
	}
	s.queue.RequestRender()
	return cmds, true
}

// OnRotationVector converts a rotation-vector sample and forwards it like
// OnRotationMatrix.
func (s *Shell) OnRotationVector(values []float64) (types.OrientationSample, bool, error) {
	m, err := orientation.MatrixFromRotationVector(values)
	if err != nil {
		return types.OrientationSample{}, false, err
	}
	return s.OnRotationMatrix(m)
}

// OnRotationMatrix maps a rotation matrix for the current screen and queues
// the sample. Samples are only forwarded while the rotation sensor is
// running; the bool reports whether this one was.
func (s *Shell) OnRotationMatrix(values []float64) (types.OrientationSample, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sample, err := orientation.Map(values, s.screen)
	if err != nil {
		return types.OrientationSample{}, false, err
	}

	if s.coordinator.State(devices.RotationSensor) != devices.Running {
		return sample, false, nil
	}

	if err := s.queue.Push(sample); err != nil {
		return sample, false, err
	}
	s.queue.RequestRender()
	return sample, true, nil
}

// OnLocation forwards a GPS fix while the GPS is running. Fixes without a
// usable accuracy are discarded.
func (s *Shell) OnLocation(sample types.LocationSample) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.coordinator.State(devices.GPS) != devices.Running {
		return false
	}
	if !sample.HasUsableAccuracy() {
		utils.Verbose("discarding location without accuracy")
		return false
	}

	cmd := types.LocationCommand{
		Latitude:  sample.Latitude,
		Longitude: sample.Longitude,
		Altitude:  sample.Altitude,
	}
	if err := s.queue.Push(cmd); err != nil {
		utils.Verbose("dropping location: %v", err)
		return false
	}
	return true
}

func (s *Shell) SetScreenSize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidScreenSize, width, height)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.screen = types.ScreenSize{Width: width, Height: height}
	return nil
}

func (s *Shell) Screen() types.ScreenSize {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.screen
}

// OnPermissionResult records the answer of a permission dialog, which also
// closes it.
func (s *Shell) OnPermissionResult(p devices.Permission, granted bool) {
	s.mu.Lock()
	s.permissionRequestOpen = false
	s.mu.Unlock()

	s.coordinator.SetPermission(p, granted)
}

// SetPermissionRequestOpen marks a permission dialog as shown or dismissed.
func (s *Shell) SetPermissionRequestOpen(open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.permissionRequestOpen = open
}

func (s *Shell) CameraStart(videoType devices.VideoType, resolutionIndex int) error {
	params := devices.Params{Camera: devices.NewCameraConfig(videoType, resolutionIndex)}
	return s.coordinator.RequestStart(devices.Camera, params)
}

func (s *Shell) CameraStop() error {
	return s.coordinator.RequestStop(devices.Camera)
}

func (s *Shell) RotationStart() error {
	return s.coordinator.RequestStart(devices.RotationSensor, devices.Params{})
}

func (s *Shell) RotationStop() error {
	return s.coordinator.RequestStop(devices.RotationSensor)
}

func (s *Shell) GPSStart() error {
	return s.coordinator.RequestStart(devices.GPS, devices.Params{})
}

func (s *Shell) GPSStop() error {
	return s.coordinator.RequestStop(devices.GPS)
}

// DeviceStarted reports a start completion from a service.
func (s *Shell) DeviceStarted(kind devices.DeviceKind, err error) {
	s.coordinator.StartCompleted(kind, err)
}

// DeviceStopped reports a stop completion from a service.
func (s *Shell) DeviceStopped(kind devices.DeviceKind, err error) {
	s.coordinator.StopCompleted(kind, err)
}

// OnPause handles the platform pausing the session. A permission dialog
// pauses the session too; in that case nothing happens. Otherwise the
// engine is told to close its scene and the camera is released. It reports
// whether the pause was acted on.
func (s *Shell) OnPause() bool {
	s.mu.Lock()
	open := s.permissionRequestOpen
	s.mu.Unlock()

	if open {
		utils.Verbose("pause during permission request, keeping scene")
		return false
	}

	if err := s.queue.Push(types.CloseCommand{}); err != nil {
		utils.Verbose("close not queued: %v", err)
	}
	if err := s.CameraStop(); err != nil {
		utils.Verbose("camera not stopped on pause: %v", err)
	}
	return true
}

// State is a snapshot of the session for diagnostics.
type State struct {
	Touch                 gesture.TouchSessionState `json:"touch"`
	Devices               devices.Snapshot          `json:"devices"`
	Screen                types.ScreenSize          `json:"screen"`
	PermissionRequestOpen bool                      `json:"permissionRequestOpen"`
	QueueLength           int                       `json:"queueLength"`
}

func (s *Shell) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Touch:                 s.classifier.State(),
		Devices:               s.coordinator.Snapshot(),
		Screen:                s.screen,
		PermissionRequestOpen: s.permissionRequestOpen,
		QueueLength:           s.queue.Len(),
	}
}

// Close stops every device and closes the render queue. The render loop
// drains what is left and exits.
func (s *Shell) Close() error {
	err := s.coordinator.StopAll()
	s.queue.Close()
	return err
}
