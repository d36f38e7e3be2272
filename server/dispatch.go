package server

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mobile-next/rendershell/commands"
	"github.com/mobile-next/rendershell/devices"
)

// ErrInvalidParams marks errors caused by the request parameters
var ErrInvalidParams = errors.New("invalid parameters")

// HandlerFunc is the signature for JSON-RPC method handlers
type HandlerFunc func(params json.RawMessage) (interface{}, error)

// GetMethodRegistry returns a map of method names to handler functions
// This is used by both the HTTP server and embedded clients
func GetMethodRegistry() map[string]HandlerFunc {
	return map[string]HandlerFunc{
		"session_open":       handleSessionOpen,
		"session_close":      handleSessionClose,
		"session_list":       handleSessionList,
		"session_state":      handleSessionState,
		"io_touch":           handleIoTouch,
		"sensor_rotation":    handleSensorRotation,
		"sensor_location":    handleSensorLocation,
		"screen_size":        handleScreenSize,
		"permission_result":  handlePermissionResult,
		"permission_request": handlePermissionRequest,
		"camera_start":       handleCameraStart,
		"camera_stop":        deviceStopHandler(devices.Camera),
		"rotation_start":     deviceStartHandler(devices.RotationSensor),
		"rotation_stop":      deviceStopHandler(devices.RotationSensor),
		"gps_start":          deviceStartHandler(devices.GPS),
		"gps_stop":           deviceStopHandler(devices.GPS),
		"device_started":     handleDeviceStarted,
		"device_stopped":     handleDeviceStopped,
		"lifecycle_pause":    handleLifecyclePause,
		"orientation_map":    handleOrientationMap,
	}
}

// Execute dispatches a method call using the registry
// This is the main entry point for embedded clients
func Execute(method string, params json.RawMessage) (interface{}, error) {
	registry := GetMethodRegistry()

	handler, exists := registry[method]
	if !exists {
		return nil, fmt.Errorf("method not found: %s", method)
	}

	return handler(params)
}

// decodeParams unmarshals params into v. Missing params decode as {} so
// that methods with only optional fields can be called bare.
func decodeParams(params json.RawMessage, v interface{}, fields string) error {
	if len(params) == 0 {
		params = json.RawMessage(`{}`)
	}
	if err := json.Unmarshal(params, v); err != nil {
		return fmt.Errorf("%w: %v. Expected fields: %s", ErrInvalidParams, err, fields)
	}
	return nil
}

// fromResponse unwraps a command response into a handler result
func fromResponse(response *commands.CommandResponse) (interface{}, error) {
	if response.Status == "error" {
		return nil, fmt.Errorf("%s", response.Error)
	}
	return response.Data, nil
}
