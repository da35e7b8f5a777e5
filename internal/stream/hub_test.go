package stream

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sentra-vms/sentra/internal/cameras"
	"github.com/sentra-vms/sentra/internal/shared"
)

func testHub(t *testing.T) *Hub {
	t.Helper()
	return NewHub(slog.Default())
}

func testSession() shared.Session {
	return shared.Session{UserID: 1, Username: "operator", Role: shared.RoleSecurityStaff}
}

func drain(t *testing.T, v *Viewer) [][]byte {
	t.Helper()
	var out [][]byte
	for {
		select {
		case payload := <-v.Events():
			out = append(out, payload)
		default:
			return out
		}
	}
}

func decodeEvent(t *testing.T, payload []byte) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(payload, &m))
	return m
}

func TestFramesOnlyReachOpenViewers(t *testing.T) {
	hub := testHub(t)
	v := hub.Register(testSession())
	defer hub.Unregister(v)

	hub.PublishFrame(1, []byte("jpeg-1"))
	require.Empty(t, drain(t, v), "closed view must not receive frames")

	v.RequestOpen(1)
	hub.PublishFrame(1, []byte("jpeg-2"))
	require.Empty(t, drain(t, v), "opening view must not receive frames")

	hub.NotifyStatus(1, cameras.StatusOpen)
	events := drain(t, v)
	require.Len(t, events, 1)
	require.Equal(t, EventStatusChanged, decodeEvent(t, events[0])["type"])

	hub.PublishFrame(1, []byte("jpeg-3"))
	events = drain(t, v)
	require.Len(t, events, 1)
	evt := decodeEvent(t, events[0])
	require.Equal(t, EventVideoFrame, evt["type"])
	require.Equal(t, float64(1), evt["camera_id"])
	frame, err := base64.StdEncoding.DecodeString(evt["frame"].(string))
	require.NoError(t, err)
	require.Equal(t, []byte("jpeg-3"), frame)
}

func TestFrameIsolationByCamera(t *testing.T) {
	hub := testHub(t)
	v := hub.Register(testSession())
	defer hub.Unregister(v)

	v.RequestOpen(1)
	hub.NotifyStatus(1, cameras.StatusOpen)
	drain(t, v)

	hub.PublishFrame(2, []byte("other-camera"))
	require.Empty(t, drain(t, v), "frames keyed to another camera must not leak")

	hub.PublishFrame(1, []byte("mine"))
	events := drain(t, v)
	require.Len(t, events, 1)
	require.Equal(t, float64(1), decodeEvent(t, events[0])["camera_id"])
}

func TestStatusBroadcastReachesAllViewers(t *testing.T) {
	hub := testHub(t)
	a := hub.Register(testSession())
	b := hub.Register(testSession())
	defer hub.Unregister(a)
	defer hub.Unregister(b)

	a.RequestOpen(7)
	hub.NotifyStatus(7, cameras.StatusOpen)

	require.Equal(t, StateOpen, a.State(7))
	require.Equal(t, StateOpen, b.State(7), "broadcast settles state for every viewer")
	require.Len(t, drain(t, a), 1)
	require.Len(t, drain(t, b), 1)
}

func TestCloseDiscardsRetainedFrame(t *testing.T) {
	hub := testHub(t)
	hub.NotifyStatus(3, cameras.StatusOpen)
	hub.PublishFrame(3, []byte("jpeg"))

	_, _, ok := hub.LastFrame(3)
	require.True(t, ok)

	hub.NotifyStatus(3, cameras.StatusClosed)
	_, _, ok = hub.LastFrame(3)
	require.False(t, ok, "closing must drop the retained frame")
}

func TestLastWriteWins(t *testing.T) {
	hub := testHub(t)
	hub.NotifyStatus(4, cameras.StatusOpen)
	hub.PublishFrame(4, []byte("first"))
	hub.PublishFrame(4, []byte("second"))

	frame, _, ok := hub.LastFrame(4)
	require.True(t, ok)
	require.Equal(t, []byte("second"), frame, "only the newest frame is retained")
}

func TestSlowViewerDropsFrames(t *testing.T) {
	hub := testHub(t)
	v := hub.Register(testSession())
	defer hub.Unregister(v)

	v.RequestOpen(5)
	hub.NotifyStatus(5, cameras.StatusOpen)
	drain(t, v)

	for i := 0; i < viewerSendBuffer*2; i++ {
		hub.PublishFrame(5, []byte("jpeg"))
	}
	delivered, dropped := hub.Stats()
	require.Equal(t, uint64(viewerSendBuffer), delivered)
	require.Equal(t, uint64(viewerSendBuffer), dropped, "a full queue drops, never blocks")
}

func TestReconnectStartsFresh(t *testing.T) {
	hub := testHub(t)
	v := hub.Register(testSession())
	v.RequestOpen(1)
	hub.NotifyStatus(1, cameras.StatusOpen)
	require.Equal(t, StateOpen, v.State(1))
	hub.Unregister(v)

	again := hub.Register(testSession())
	defer hub.Unregister(again)
	require.Equal(t, StateClosed, again.State(1), "a new connection carries no prior view state")
}

func TestDetachCameraClosesEverything(t *testing.T) {
	hub := testHub(t)
	v := hub.Register(testSession())
	defer hub.Unregister(v)
	v.RequestOpen(9)
	hub.NotifyStatus(9, cameras.StatusOpen)
	drain(t, v)

	frames, cancel := hub.Tap(9)
	defer cancel()

	hub.DetachCamera(9)

	require.Equal(t, StateClosed, v.State(9))
	_, open := <-frames
	require.False(t, open, "taps close when the camera is removed")
	_, _, ok := hub.LastFrame(9)
	require.False(t, ok)
}

func TestTapReceivesRawFrames(t *testing.T) {
	hub := testHub(t)
	frames, cancel := hub.Tap(2)
	defer cancel()

	hub.PublishFrame(2, []byte("raw"))
	require.Equal(t, []byte("raw"), <-frames)
}

func TestMarkActiveStartsClockOnce(t *testing.T) {
	hub := testHub(t)
	hub.MarkActive(6)
	first, ok := hub.LastFrameAt(6)
	require.True(t, ok)

	hub.MarkActive(6)
	second, _ := hub.LastFrameAt(6)
	require.Equal(t, first, second)
}
