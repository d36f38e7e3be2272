package commands

import (
	"errors"
	"fmt"

	"github.com/mobile-next/rendershell/devices"
)

// cameraDefaults are used when camera_start leaves a field out. The CLI
// fills them from the config file.
var cameraDefaults = CameraDefaults{VideoType: int(devices.VideoTypeMain)}

// CameraDefaults are the camera parameters used when a request omits them
type CameraDefaults struct {
	VideoType      int
	VideoSizeIndex int
}

func SetCameraDefaults(d CameraDefaults) {
	mu.Lock()
	defer mu.Unlock()
	cameraDefaults = d
}

func getCameraDefaults() CameraDefaults {
	mu.Lock()
	defer mu.Unlock()
	return cameraDefaults
}

// PermissionResultRequest reports the answer to a permission dialog
type PermissionResultRequest struct {
	SessionID  string `json:"sessionId"`
	Permission string `json:"permission"`
	Granted    bool   `json:"granted"`
}

// PermissionRequestRequest marks a permission dialog as open or closed
type PermissionRequestRequest struct {
	SessionID string `json:"sessionId"`
	Open      bool   `json:"open"`
}

// CameraStartRequest selects the camera and its resolution
type CameraStartRequest struct {
	SessionID      string `json:"sessionId"`
	VideoType      *int   `json:"videoType,omitempty"`
	VideoSizeIndex *int   `json:"videoSizeIndex,omitempty"`
}

// DeviceCompletionRequest is sent by a device service when a start or stop
// finished. A non-empty Error means it failed.
type DeviceCompletionRequest struct {
	SessionID string `json:"sessionId"`
	Device    string `json:"device"`
	Error     string `json:"error,omitempty"`
}

// LifecycleResponse reports whether a start or stop request was accepted.
// A rejected request is not an error: it is dropped and Reason says why.
type LifecycleResponse struct {
	Device   devices.DeviceKind     `json:"device"`
	State    devices.LifecycleState `json:"state"`
	Accepted bool                   `json:"accepted"`
	Reason   string                 `json:"reason,omitempty"`
}

// PermissionResultCommand records a grant or denial
func PermissionResultCommand(req PermissionResultRequest) *CommandResponse {
	p, err := devices.ParsePermission(req.Permission)
	if err != nil {
		return NewErrorResponse(err)
	}

	s, err := FindSessionOrAutoSelect(req.SessionID)
	if err != nil {
		return NewErrorResponse(err)
	}

	s.Shell.OnPermissionResult(p, req.Granted)
	return NewSuccessResponse(s.Shell.Coordinator().Snapshot().Permissions)
}

// PermissionRequestCommand marks a permission dialog as open or closed
func PermissionRequestCommand(req PermissionRequestRequest) *CommandResponse {
	s, err := FindSessionOrAutoSelect(req.SessionID)
	if err != nil {
		return NewErrorResponse(err)
	}

	s.Shell.SetPermissionRequestOpen(req.Open)
	return NewSuccessResponse(map[string]interface{}{
		"open": req.Open,
	})
}

// CameraStartCommand asks for the camera with the given facing and size
func CameraStartCommand(req CameraStartRequest) *CommandResponse {
	s, err := FindSessionOrAutoSelect(req.SessionID)
	if err != nil {
		return NewErrorResponse(err)
	}

	defaults := getCameraDefaults()
	videoType, sizeIndex := defaults.VideoType, defaults.VideoSizeIndex
	if req.VideoType != nil {
		videoType = *req.VideoType
	}
	if req.VideoSizeIndex != nil {
		sizeIndex = *req.VideoSizeIndex
	}

	err = s.Shell.CameraStart(devices.VideoType(videoType), sizeIndex)
	return lifecycleResponse(s, devices.Camera, err)
}

// DeviceStartCommand asks for the rotation sensor or the GPS
func DeviceStartCommand(kind devices.DeviceKind, req SessionRequest) *CommandResponse {
	s, err := FindSessionOrAutoSelect(req.SessionID)
	if err != nil {
		return NewErrorResponse(err)
	}

	switch kind {
	case devices.RotationSensor:
		err = s.Shell.RotationStart()
	case devices.GPS:
		err = s.Shell.GPSStart()
	default:
		return NewErrorResponse(fmt.Errorf("use camera_start to start the %s", kind))
	}
	return lifecycleResponse(s, kind, err)
}

// DeviceStopCommand releases a device
func DeviceStopCommand(kind devices.DeviceKind, req SessionRequest) *CommandResponse {
	s, err := FindSessionOrAutoSelect(req.SessionID)
	if err != nil {
		return NewErrorResponse(err)
	}

	switch kind {
	case devices.Camera:
		err = s.Shell.CameraStop()
	case devices.RotationSensor:
		err = s.Shell.RotationStop()
	case devices.GPS:
		err = s.Shell.GPSStop()
	}
	return lifecycleResponse(s, kind, err)
}

// DeviceStartedCommand delivers a start completion
func DeviceStartedCommand(req DeviceCompletionRequest) *CommandResponse {
	return deviceCompletion(req, (*Session).deviceStarted)
}

// DeviceStoppedCommand delivers a stop completion
func DeviceStoppedCommand(req DeviceCompletionRequest) *CommandResponse {
	return deviceCompletion(req, (*Session).deviceStopped)
}

// PauseCommand tells the session the platform paused it
func PauseCommand(req SessionRequest) *CommandResponse {
	s, err := FindSessionOrAutoSelect(req.SessionID)
	if err != nil {
		return NewErrorResponse(err)
	}

	return NewSuccessResponse(map[string]interface{}{
		"paused": s.Shell.OnPause(),
	})
}

func (s *Session) deviceStarted(kind devices.DeviceKind, err error) {
	s.Shell.DeviceStarted(kind, err)
}

func (s *Session) deviceStopped(kind devices.DeviceKind, err error) {
	s.Shell.DeviceStopped(kind, err)
}

func deviceCompletion(req DeviceCompletionRequest, complete func(*Session, devices.DeviceKind, error)) *CommandResponse {
	kind, err := devices.ParseDeviceKind(req.Device)
	if err != nil {
		return NewErrorResponse(err)
	}

	s, err := FindSessionOrAutoSelect(req.SessionID)
	if err != nil {
		return NewErrorResponse(err)
	}

	var serviceErr error
	if req.Error != "" {
		serviceErr = errors.New(req.Error)
	}
	complete(s, kind, serviceErr)

	return NewSuccessResponse(LifecycleResponse{
		Device:   kind,
		State:    s.Shell.Coordinator().State(kind),
		Accepted: true,
	})
}

func lifecycleResponse(s *Session, kind devices.DeviceKind, err error) *CommandResponse {
	resp := LifecycleResponse{
		Device:   kind,
		Accepted: err == nil,
	}
	if err != nil {
		resp.Reason = err.Error()
		s.Log().Debugf("%s request dropped: %v", kind, err)
	}
	resp.State = s.Shell.Coordinator().State(kind)
	return NewSuccessResponse(resp)
}
