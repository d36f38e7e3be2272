package devices

import (
	"fmt"
	"strings"
)

// DeviceKind names one of the shared hardware resources.
type DeviceKind int

const (
	Camera DeviceKind = iota
	RotationSensor
	GPS
)

// AllDevices lists every device kind in a stable order.
var AllDevices = []DeviceKind{Camera, RotationSensor, GPS}

var deviceKindNames = map[DeviceKind]string{
	Camera:         "camera",
	RotationSensor: "rotation",
	GPS:            "gps",
}

func (k DeviceKind) String() string {
	if name, ok := deviceKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("device(%d)", int(k))
}

func (k DeviceKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *DeviceKind) UnmarshalText(text []byte) error {
	kind, err := ParseDeviceKind(string(text))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

func ParseDeviceKind(s string) (DeviceKind, error) {
	for kind, name := range deviceKindNames {
		if strings.EqualFold(s, name) {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("unknown device '%s', must be one of camera, rotation, gps", s)
}

// LifecycleState is the per-device state. Starting and Stopping are the
// transitioning states during which every request is dropped.
type LifecycleState int

const (
	Stopped LifecycleState = iota
	Starting
	Running
	Stopping
)

var lifecycleStateNames = map[LifecycleState]string{
	Stopped:  "stopped",
	Starting: "starting",
	Running:  "running",
	Stopping: "stopping",
}

func (s LifecycleState) String() string {
	if name, ok := lifecycleStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s LifecycleState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *LifecycleState) UnmarshalText(text []byte) error {
	for state, name := range lifecycleStateNames {
		if strings.EqualFold(string(text), name) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown lifecycle state '%s'", text)
}

// Transitioning reports whether a start or stop is in flight.
func (s LifecycleState) Transitioning() bool {
	return s == Starting || s == Stopping
}

// Permission is a capability class granted by the platform.
type Permission int

const (
	PermissionCamera Permission = iota
	PermissionLocation
)

var permissionNames = map[Permission]string{
	PermissionCamera:   "camera",
	PermissionLocation: "location",
}

func (p Permission) String() string {
	if name, ok := permissionNames[p]; ok {
		return name
	}
	return fmt.Sprintf("permission(%d)", int(p))
}

func (p Permission) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func ParsePermission(s string) (Permission, error) {
	for p, name := range permissionNames {
		if strings.EqualFold(s, name) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown permission '%s', must be 'camera' or 'location'", s)
}

// requiredPermission returns the permission a device needs, if any.
func requiredPermission(kind DeviceKind) (Permission, bool) {
	switch kind {
	case Camera:
		return PermissionCamera, true
	case GPS:
		return PermissionLocation, true
	}
	return 0, false
}

// Facing selects the physical camera.
type Facing int

const (
	FacingBack Facing = iota
	FacingFront
)

func (f Facing) String() string {
	if f == FacingBack {
		return "back"
	}
	return "front"
}

func (f Facing) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Facing) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "back":
		*f = FacingBack
	case "front":
		*f = FacingFront
	default:
		return fmt.Errorf("unknown camera facing '%s'", text)
	}
	return nil
}

// VideoType is the engine's camera selector.
type VideoType int

const (
	VideoTypeNone VideoType = iota
	VideoTypeMain
	VideoTypeSecondary
)

// FacingForVideoType maps the main camera to the back lens and anything
// else to the front lens.
func FacingForVideoType(v VideoType) Facing {
	if v == VideoTypeMain {
		return FacingBack
	}
	return FacingFront
}

// CameraConfig identifies a camera instance. ResolutionIndex 0 is 640x480,
// negative values step to smaller sizes and positive to bigger ones.
type CameraConfig struct {
	Facing          Facing `json:"facing"`
	ResolutionIndex int    `json:"resolutionIndex"`
}

func NewCameraConfig(videoType VideoType, resolutionIndex int) CameraConfig {
	return CameraConfig{
		Facing:          FacingForVideoType(videoType),
		ResolutionIndex: resolutionIndex,
	}
}

// Params are the start parameters for a device. Only the camera uses them.
type Params struct {
	Camera CameraConfig `json:"camera"`
}
