package stream

import (
	"encoding/base64"
	"encoding/json"
	"time"
)

// Event names carried in the "type" field of every socket message.
const (
	EventVideoFrame    = "video_frame"
	EventStatusChanged = "camera_status_changed"
	EventSnapshot      = "snapshot"
	EventPong          = "pong"
	EventError         = "error"
)

type videoFrameEvent struct {
	Type     string `json:"type"`
	CameraID int64  `json:"camera_id"`
	Frame    string `json:"frame"`
}

type statusChangedEvent struct {
	Type     string `json:"type"`
	CameraID int64  `json:"camera_id"`
	Status   string `json:"status"`
}

type snapshotCamera struct {
	CameraID int64  `json:"camera_id"`
	Name     string `json:"name"`
	Status   string `json:"status"`
}

type snapshotEvent struct {
	Type    string           `json:"type"`
	Cameras []snapshotCamera `json:"cameras"`
}

type pongEvent struct {
	Type string `json:"type"`
	Time int64  `json:"time"`
}

type errorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func encodeFrameEvent(cameraID int64, frame []byte) []byte {
	payload, _ := json.Marshal(videoFrameEvent{
		Type:     EventVideoFrame,
		CameraID: cameraID,
		Frame:    base64.StdEncoding.EncodeToString(frame),
	})
	return payload
}

func encodeStatusEvent(cameraID int64, status string) []byte {
	payload, _ := json.Marshal(statusChangedEvent{
		Type:     EventStatusChanged,
		CameraID: cameraID,
		Status:   status,
	})
	return payload
}

func encodePongEvent() []byte {
	payload, _ := json.Marshal(pongEvent{Type: EventPong, Time: time.Now().Unix()})
	return payload
}

func encodeErrorEvent(message string) []byte {
	payload, _ := json.Marshal(errorEvent{Type: EventError, Message: message})
	return payload
}

// command is a client request read from the socket.
type command struct {
	Action   string `json:"action"`
	CameraID int64  `json:"camera_id"`
}
