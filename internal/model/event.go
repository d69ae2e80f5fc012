package model

// Event stream event names. Payload shapes are documented next to each
// payload type below.
const (
	EventLogHistory    = "log_history"
	EventLogMessage    = "log_message"
	EventStatusUpdate  = "status_update"
	EventCaptureStart  = "capture_started"
	EventCaptureResult = "capture_result"
)

// Event is one message on the broadcast stream. Over the websocket it is
// encoded as {"event": Name, "data": Data}.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}

// LogHistoryPayload is sent once per new subscription, before any live event.
type LogHistoryPayload struct {
	Logs []LogEntry `json:"logs"`
}

// SystemStatus reports availability of the capture and inference backends.
type SystemStatus struct {
	CameraConnected bool `json:"camera_connected"`
	ModelLoaded     bool `json:"model_loaded"`
}

// CaptureStartedPayload marks the pipeline entering the capture stage.
type CaptureStartedPayload struct {
	Device        string `json:"device"`
	CorrelationID string `json:"correlation_id"`
}

// CaptureResultPayload is the terminal event for one capture request.
type CaptureResultPayload struct {
	Success        bool    `json:"success"`
	Device         string  `json:"device"`
	CorrelationID  string  `json:"correlation_id"`
	OriginalImage  string  `json:"original_image,omitempty"`
	ProcessedImage string  `json:"processed_image,omitempty"`
	Result         Verdict `json:"result,omitempty"`
	Confidence     float64 `json:"confidence,omitempty"`
	Threshold      float64 `json:"threshold,omitempty"`
	Error          string  `json:"error,omitempty"`
}
