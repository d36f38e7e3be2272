package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mobile-next/rendershell/commands"
	"github.com/mobile-next/rendershell/devices"
)

func handleSessionOpen(params json.RawMessage) (interface{}, error) {
	if len(params) == 0 {
		return nil, fmt.Errorf("%w: 'params' is required with fields: width, height", ErrInvalidParams)
	}

	var req commands.SessionOpenRequest
	if err := decodeParams(params, &req, "width, height"); err != nil {
		return nil, err
	}

	return fromResponse(commands.SessionOpenCommand(req))
}

func handleSessionClose(params json.RawMessage) (interface{}, error) {
	var req commands.SessionRequest
	if err := decodeParams(params, &req, "sessionId"); err != nil {
		return nil, err
	}

	if _, err := fromResponse(commands.SessionCloseCommand(req)); err != nil {
		return nil, err
	}
	return okResponse, nil
}

func handleSessionList(params json.RawMessage) (interface{}, error) {
	return fromResponse(commands.SessionListCommand())
}

func handleSessionState(params json.RawMessage) (interface{}, error) {
	var req commands.SessionRequest
	if err := decodeParams(params, &req, "sessionId"); err != nil {
		return nil, err
	}

	return fromResponse(commands.SessionStateCommand(req))
}

func handleIoTouch(params json.RawMessage) (interface{}, error) {
	if len(params) == 0 {
		return nil, fmt.Errorf("%w: 'params' is required with fields: phase, pointers", ErrInvalidParams)
	}

	var req commands.TouchRequest
	if err := decodeParams(params, &req, "sessionId, phase, pointerIndex, pointers, timestamp"); err != nil {
		return nil, err
	}

	return fromResponse(commands.TouchCommand(req))
}

func handleSensorRotation(params json.RawMessage) (interface{}, error) {
	var req commands.RotationRequest
	if err := decodeParams(params, &req, "sessionId, vector or matrix"); err != nil {
		return nil, err
	}

	return fromResponse(commands.RotationCommand(req))
}

func handleSensorLocation(params json.RawMessage) (interface{}, error) {
	var req commands.LocationRequest
	if err := decodeParams(params, &req, "sessionId, latitude, longitude, altitude, accuracy"); err != nil {
		return nil, err
	}

	return fromResponse(commands.LocationCommand(req))
}

func handleScreenSize(params json.RawMessage) (interface{}, error) {
	var req commands.ScreenSizeRequest
	if err := decodeParams(params, &req, "sessionId, width, height"); err != nil {
		return nil, err
	}

	return fromResponse(commands.ScreenSizeCommand(req))
}

func handlePermissionResult(params json.RawMessage) (interface{}, error) {
	var req commands.PermissionResultRequest
	if err := decodeParams(params, &req, "sessionId, permission, granted"); err != nil {
		return nil, err
	}
	if req.Permission == "" {
		return nil, fmt.Errorf("%w: 'permission' is required", ErrInvalidParams)
	}

	return fromResponse(commands.PermissionResultCommand(req))
}

func handlePermissionRequest(params json.RawMessage) (interface{}, error) {
	var req commands.PermissionRequestRequest
	if err := decodeParams(params, &req, "sessionId, open"); err != nil {
		return nil, err
	}

	return fromResponse(commands.PermissionRequestCommand(req))
}

func handleCameraStart(params json.RawMessage) (interface{}, error) {
	var req commands.CameraStartRequest
	if err := decodeParams(params, &req, "sessionId, videoType, videoSizeIndex"); err != nil {
		return nil, err
	}

	return fromResponse(commands.CameraStartCommand(req))
}

func deviceStartHandler(kind devices.DeviceKind) HandlerFunc {
	return func(params json.RawMessage) (interface{}, error) {
		var req commands.SessionRequest
		if err := decodeParams(params, &req, "sessionId"); err != nil {
			return nil, err
		}
		return fromResponse(commands.DeviceStartCommand(kind, req))
	}
}

func deviceStopHandler(kind devices.DeviceKind) HandlerFunc {
	return func(params json.RawMessage) (interface{}, error) {
		var req commands.SessionRequest
		if err := decodeParams(params, &req, "sessionId"); err != nil {
			return nil, err
		}
		return fromResponse(commands.DeviceStopCommand(kind, req))
	}
}

func handleDeviceStarted(params json.RawMessage) (interface{}, error) {
	var req commands.DeviceCompletionRequest
	if err := decodeParams(params, &req, "sessionId, device, error"); err != nil {
		return nil, err
	}
	if req.Device == "" {
		return nil, fmt.Errorf("%w: 'device' is required", ErrInvalidParams)
	}

	return fromResponse(commands.DeviceStartedCommand(req))
}

func handleDeviceStopped(params json.RawMessage) (interface{}, error) {
	var req commands.DeviceCompletionRequest
	if err := decodeParams(params, &req, "sessionId, device, error"); err != nil {
		return nil, err
	}
	if req.Device == "" {
		return nil, fmt.Errorf("%w: 'device' is required", ErrInvalidParams)
	}

	return fromResponse(commands.DeviceStoppedCommand(req))
}

func handleLifecyclePause(params json.RawMessage) (interface{}, error) {
	var req commands.SessionRequest
	if err := decodeParams(params, &req, "sessionId"); err != nil {
		return nil, err
	}

	return fromResponse(commands.PauseCommand(req))
}

func handleOrientationMap(params json.RawMessage) (interface{}, error) {
	var req commands.OrientationMapRequest
	if err := decodeParams(params, &req, "matrix or vector, width, height"); err != nil {
		return nil, err
	}

	return fromResponse(commands.OrientationMapCommand(req))
}

// handleReplay is HTTP-only; a replay may take a while and runs against a
// throwaway shell, not a session
func handleReplay(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var req commands.ReplayRequest
	if err := decodeParams(params, &req, "width, height, events"); err != nil {
		return nil, err
	}

	return fromResponse(commands.ReplayCommand(ctx, req))
}
