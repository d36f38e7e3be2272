package commands

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mobile-next/rendershell/devices"
	"github.com/mobile-next/rendershell/shell"
	"github.com/mobile-next/rendershell/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetSessions(t *testing.T) {
	t.Helper()
	require.NoError(t, ConfigureSessions(DefaultMaxSessions))
	SetSessionHooks(SessionHooks{})
	SetRegistry(nil)
	t.Cleanup(func() {
		require.NoError(t, ConfigureSessions(DefaultMaxSessions))
		SetSessionHooks(SessionHooks{})
		SetRegistry(nil)
	})
}

func openSession(t *testing.T, width, height int) string {
	t.Helper()
	resp := SessionOpenCommand(SessionOpenRequest{Width: width, Height: height})
	require.Equal(t, "ok", resp.Status, resp.Error)
	return resp.Data.(SessionInfo).SessionID
}

func mustFind(t *testing.T, id string) *Session {
	t.Helper()
	s, err := FindSession(id)
	require.NoError(t, err)
	return s
}

func TestResponses(t *testing.T) {
	ok := NewSuccessResponse(map[string]int{"n": 1})
	assert.Equal(t, "ok", ok.Status)
	assert.Empty(t, ok.Error)

	data, err := json.Marshal(NewErrorResponse(assert.AnError))
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"error","error":"`+assert.AnError.Error()+`"}`, string(data))
}

func TestSessionOpen(t *testing.T) {
	resetSessions(t)

	tests := []struct {
		name    string
		req     SessionOpenRequest
		wantErr bool
	}{
		{"portrait", SessionOpenRequest{Width: 1080, Height: 1920}, false},
		{"zero width", SessionOpenRequest{Width: 0, Height: 100}, true},
		{"negative height", SessionOpenRequest{Width: 100, Height: -5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := SessionOpenCommand(tt.req)
			if tt.wantErr {
				assert.Equal(t, "error", resp.Status)
				return
			}
			require.Equal(t, "ok", resp.Status)
			info := resp.Data.(SessionInfo)
			assert.Len(t, info.SessionID, 36)
			assert.Equal(t, types.ScreenSize{Width: tt.req.Width, Height: tt.req.Height}, info.Screen)
			assert.Equal(t, devices.Stopped, info.Devices[devices.Camera])
		})
	}
}

func TestFindSessionOrAutoSelect(t *testing.T) {
	resetSessions(t)

	_, err := FindSessionOrAutoSelect("")
	assert.ErrorContains(t, err, "no open sessions")

	first := openSession(t, 100, 200)
	s, err := FindSessionOrAutoSelect("")
	require.NoError(t, err)
	assert.Equal(t, first, s.ID)

	second := openSession(t, 100, 200)
	_, err = FindSessionOrAutoSelect("")
	assert.ErrorContains(t, err, "multiple sessions found (2)")
	assert.ErrorContains(t, err, first)
	assert.ErrorContains(t, err, second)

	s, err = FindSessionOrAutoSelect(second)
	require.NoError(t, err)
	assert.Equal(t, second, s.ID)

	_, err = FindSessionOrAutoSelect("missing")
	assert.ErrorContains(t, err, "session not found")
}

func TestSessionLifecycleHooksAndRegistry(t *testing.T) {
	resetSessions(t)

	registry := devices.NewRegistry()
	SetRegistry(registry)

	var opened, closed []string
	SetSessionHooks(SessionHooks{
		Options: func(id string) []shell.Option {
			return []shell.Option{shell.WithService(devices.RotationSensor, devices.ServiceFuncs{})}
		},
		Opened: func(s *Session) { opened = append(opened, s.ID) },
		Closed: func(s *Session) { closed = append(closed, s.ID) },
	})

	id := openSession(t, 640, 480)
	assert.Equal(t, []string{id}, opened)
	assert.Equal(t, 1, registry.Len())

	s := mustFind(t, id)
	require.NoError(t, s.Shell.RotationStart())
	assert.Equal(t, devices.Starting, s.Shell.Coordinator().State(devices.RotationSensor))

	resp := SessionCloseCommand(SessionRequest{SessionID: id})
	require.Equal(t, "ok", resp.Status, resp.Error)
	assert.Equal(t, []string{id}, closed)
	assert.Equal(t, 0, registry.Len())

	_, err := FindSession(id)
	assert.Error(t, err)

	resp = SessionCloseCommand(SessionRequest{SessionID: id})
	assert.Equal(t, "error", resp.Status)
}

func TestSessionEvictionClosesOldest(t *testing.T) {
	resetSessions(t)
	require.NoError(t, ConfigureSessions(2))

	var closed []string
	SetSessionHooks(SessionHooks{Closed: func(s *Session) { closed = append(closed, s.ID) }})

	first := openSession(t, 10, 10)
	second := openSession(t, 10, 10)
	third := openSession(t, 10, 10)

	assert.Equal(t, []string{first}, closed)
	_, err := FindSession(first)
	assert.Error(t, err)
	mustFind(t, second)
	mustFind(t, third)
}

func TestConfigureSessionsRejectsNonPositive(t *testing.T) {
	resetSessions(t)
	assert.Error(t, ConfigureSessions(0))
}

func TestSessionListAndState(t *testing.T) {
	resetSessions(t)
	id := openSession(t, 1920, 1080)

	resp := SessionListCommand()
	require.Equal(t, "ok", resp.Status)
	list := resp.Data.([]SessionInfo)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].SessionID)

	resp = SessionStateCommand(SessionRequest{})
	require.Equal(t, "ok", resp.Status)
	state := resp.Data.(shell.State)
	assert.Equal(t, types.ScreenSize{Width: 1920, Height: 1080}, state.Screen)
	assert.Equal(t, 0, state.Touch.PointersDown)
}

func TestCloseAllSessions(t *testing.T) {
	resetSessions(t)
	openSession(t, 10, 10)
	openSession(t, 10, 10)

	require.NoError(t, CloseAllSessions())
	resp := SessionListCommand()
	assert.Empty(t, resp.Data.([]SessionInfo))
}

func int64Ptr(v int64) *int64 { return &v }

func TestTouchCommand(t *testing.T) {
	resetSessions(t)
	openSession(t, 1080, 1920)

	resp := TouchCommand(TouchRequest{Phase: "down", Pointers: []types.Point{{X: 10, Y: 10}}, Timestamp: int64Ptr(0)})
	require.Equal(t, "ok", resp.Status, resp.Error)
	assert.Equal(t, TouchResponse{Handled: true, Commands: []types.GestureCommand{types.MouseDown(1, 10, 10)}}, resp.Data)

	resp = TouchCommand(TouchRequest{Phase: "down", Pointers: []types.Point{{X: 10, Y: 10}}, Timestamp: int64Ptr(100)})
	require.Equal(t, "ok", resp.Status)
	assert.Equal(t, []types.GestureCommand{types.DoubleClick(1, 10, 10)}, resp.Data.(TouchResponse).Commands)

	resp = TouchCommand(TouchRequest{Phase: "move"})
	require.Equal(t, "ok", resp.Status)
	assert.Equal(t, TouchResponse{Handled: false, Commands: []types.GestureCommand{}}, resp.Data)

	resp = TouchCommand(TouchRequest{Phase: "hover", Pointers: []types.Point{{X: 1, Y: 1}}})
	assert.Equal(t, "error", resp.Status)
}

func TestTouchCommandStampsMissingTimestamp(t *testing.T) {
	resetSessions(t)
	id := openSession(t, 1080, 1920)

	resp := TouchCommand(TouchRequest{SessionID: id, Phase: "down", Pointers: []types.Point{{X: 1, Y: 1}}})
	require.Equal(t, "ok", resp.Status)
	touch := mustFind(t, id).Shell.State().Touch
	assert.True(t, touch.Touched())
}

func TestScreenSizeCommand(t *testing.T) {
	resetSessions(t)
	openSession(t, 1080, 1920)

	resp := ScreenSizeCommand(ScreenSizeRequest{Width: 1920, Height: 1080})
	require.Equal(t, "ok", resp.Status)
	assert.Equal(t, types.ScreenSize{Width: 1920, Height: 1080}, resp.Data)

	resp = ScreenSizeCommand(ScreenSizeRequest{Width: 0, Height: 1080})
	assert.Equal(t, "error", resp.Status)
}

func TestRotationCommand(t *testing.T) {
	resetSessions(t)
	SetSessionHooks(SessionHooks{Options: func(string) []shell.Option {
		return []shell.Option{shell.WithService(devices.RotationSensor, devices.ServiceFuncs{})}
	}})
	id := openSession(t, 1080, 1920)
	identity := []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}

	resp := RotationCommand(RotationRequest{Matrix: identity})
	require.Equal(t, "ok", resp.Status, resp.Error)
	assert.False(t, resp.Data.(RotationResponse).Forwarded)

	s := mustFind(t, id)
	require.NoError(t, s.Shell.RotationStart())
	s.Shell.DeviceStarted(devices.RotationSensor, nil)

	resp = RotationCommand(RotationRequest{Vector: []float64{0, 0, 0}})
	require.Equal(t, "ok", resp.Status, resp.Error)
	assert.True(t, resp.Data.(RotationResponse).Forwarded)

	assert.Equal(t, "error", RotationCommand(RotationRequest{}).Status)
	assert.Equal(t, "error", RotationCommand(RotationRequest{Vector: []float64{0, 0, 0}, Matrix: identity}).Status)
	assert.Equal(t, "error", RotationCommand(RotationRequest{Matrix: []float64{1}}).Status)
}

func TestLocationCommand(t *testing.T) {
	resetSessions(t)
	openSession(t, 1080, 1920)
	accuracy := 3.0

	resp := LocationCommand(LocationRequest{Latitude: 1, Accuracy: &accuracy})
	require.Equal(t, "ok", resp.Status)
	assert.Equal(t, false, resp.Data.(map[string]interface{})["forwarded"])
}

func TestLifecycleCommands(t *testing.T) {
	resetSessions(t)
	SetSessionHooks(SessionHooks{Options: func(string) []shell.Option {
		var opts []shell.Option
		for _, kind := range devices.AllDevices {
			opts = append(opts, shell.WithService(kind, devices.ServiceFuncs{}))
		}
		return opts
	}})
	openSession(t, 1080, 1920)

	resp := CameraStartCommand(CameraStartRequest{})
	require.Equal(t, "ok", resp.Status)
	assert.Equal(t, LifecycleResponse{
		Device:   devices.Camera,
		State:    devices.Stopped,
		Accepted: false,
		Reason:   devices.ErrPermissionDenied.Error(),
	}, resp.Data)

	resp = PermissionResultCommand(PermissionResultRequest{Permission: "camera", Granted: true})
	require.Equal(t, "ok", resp.Status)
	assert.Equal(t, true, resp.Data.(map[devices.Permission]bool)[devices.PermissionCamera])

	videoType := int(devices.VideoTypeSecondary)
	resp = CameraStartCommand(CameraStartRequest{VideoType: &videoType})
	require.Equal(t, "ok", resp.Status)
	assert.Equal(t, LifecycleResponse{Device: devices.Camera, State: devices.Starting, Accepted: true}, resp.Data)

	resp = DeviceStopCommand(devices.Camera, SessionRequest{})
	assert.False(t, resp.Data.(LifecycleResponse).Accepted, "dropped while starting")

	resp = DeviceStartedCommand(DeviceCompletionRequest{Device: "camera"})
	require.Equal(t, "ok", resp.Status)
	assert.Equal(t, devices.Running, resp.Data.(LifecycleResponse).State)

	resp = DeviceStartCommand(devices.RotationSensor, SessionRequest{})
	assert.True(t, resp.Data.(LifecycleResponse).Accepted)
	resp = DeviceStartedCommand(DeviceCompletionRequest{Device: "rotation", Error: "no sensor"})
	assert.Equal(t, devices.Stopped, resp.Data.(LifecycleResponse).State)

	resp = DeviceStopCommand(devices.Camera, SessionRequest{})
	assert.Equal(t, devices.Stopping, resp.Data.(LifecycleResponse).State)
	resp = DeviceStoppedCommand(DeviceCompletionRequest{Device: "camera"})
	assert.Equal(t, devices.Stopped, resp.Data.(LifecycleResponse).State)

	assert.Equal(t, "error", DeviceStartCommand(devices.Camera, SessionRequest{}).Status)
	assert.Equal(t, "error", DeviceStartedCommand(DeviceCompletionRequest{Device: "compass"}).Status)
	assert.Equal(t, "error", PermissionResultCommand(PermissionResultRequest{Permission: "microphone"}).Status)
}

func TestCameraStartUsesDefaults(t *testing.T) {
	resetSessions(t)
	SetCameraDefaults(CameraDefaults{VideoType: int(devices.VideoTypeSecondary), VideoSizeIndex: -2})
	t.Cleanup(func() { SetCameraDefaults(CameraDefaults{VideoType: int(devices.VideoTypeMain)}) })
	SetSessionHooks(SessionHooks{Options: func(string) []shell.Option {
		return []shell.Option{shell.WithService(devices.Camera, devices.ServiceFuncs{})}
	}})
	id := openSession(t, 10, 10)
	PermissionResultCommand(PermissionResultRequest{Permission: "camera", Granted: true})

	resp := CameraStartCommand(CameraStartRequest{})
	require.True(t, resp.Data.(LifecycleResponse).Accepted)
	assert.Equal(t, devices.CameraConfig{Facing: devices.FacingFront, ResolutionIndex: -2}, mustFind(t, id).Shell.State().Devices.Camera)
}

func TestPermissionRequestAndPause(t *testing.T) {
	resetSessions(t)
	id := openSession(t, 10, 10)

	resp := PermissionRequestCommand(PermissionRequestRequest{Open: true})
	require.Equal(t, "ok", resp.Status)

	resp = PauseCommand(SessionRequest{})
	assert.Equal(t, false, resp.Data.(map[string]interface{})["paused"])

	PermissionRequestCommand(PermissionRequestRequest{Open: false})
	resp = PauseCommand(SessionRequest{})
	assert.Equal(t, true, resp.Data.(map[string]interface{})["paused"])

	cmds, _ := mustFind(t, id).Shell.Queue().Drain()
	assert.Equal(t, []types.Command{types.CloseCommand{}}, cmds)
}

func TestOrientationMapCommand(t *testing.T) {
	tests := []struct {
		name    string
		req     OrientationMapRequest
		wantErr bool
	}{
		{"matrix portrait", OrientationMapRequest{Matrix: []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}, Width: 1080, Height: 1920}, false},
		{"vector landscape", OrientationMapRequest{Vector: []float64{0, 0, 0}, Width: 1920, Height: 1080}, false},
		{"both", OrientationMapRequest{Vector: []float64{0, 0, 0}, Matrix: []float64{1}, Width: 1, Height: 1}, true},
		{"neither", OrientationMapRequest{Width: 1, Height: 1}, true},
		{"bad size", OrientationMapRequest{Vector: []float64{0, 0, 0}}, true},
		{"bad matrix", OrientationMapRequest{Matrix: []float64{1, 2, 3}, Width: 1, Height: 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := OrientationMapCommand(tt.req)
			if tt.wantErr {
				assert.Equal(t, "error", resp.Status)
				return
			}
			require.Equal(t, "ok", resp.Status, resp.Error)
			assert.Equal(t, tt.req.Width < tt.req.Height, resp.Data.(OrientationMapResponse).Portrait)
		})
	}
}

func TestReplayCommand(t *testing.T) {
	req := ReplayRequest{
		Width:  1080,
		Height: 1920,
		Events: []types.PointerEvent{
			{Phase: types.PhaseDown, Pointers: []types.Point{{X: 10, Y: 10}}, TimestampMs: 0},
			{Phase: types.PhaseUp, Pointers: []types.Point{{X: 10, Y: 10}}, TimestampMs: 100},
			{Phase: types.PhaseDown, TimestampMs: 200},
		},
	}

	resp := ReplayCommand(context.Background(), req)
	require.Equal(t, "ok", resp.Status, resp.Error)

	out := resp.Data.(ReplayResponse)
	assert.Equal(t, []types.Command{types.MouseDown(1, 10, 10), types.MouseUp(1, 10, 10)}, out.Commands)
	assert.Equal(t, 1, out.Unhandled)
	assert.GreaterOrEqual(t, out.Frames, 1)

	assert.Equal(t, "error", ReplayCommand(context.Background(), ReplayRequest{}).Status)
}
