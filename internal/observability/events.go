package observability

// EventEnvelope is the shape of relay lifecycle events on the bus.
type EventEnvelope struct {
	EventType string      `json:"event_type"`
	EventName string      `json:"event_name"`
	Payload   interface{} `json:"payload"`
}

// WSLifecyclePayload describes one websocket connect, disconnect or error.
type WSLifecyclePayload struct {
	ConnID     string `json:"conn_id"`
	UserID     int    `json:"user_id"`
	DeviceID   string `json:"device_id,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
	IP         string `json:"ip,omitempty"`
	DurationMS int64  `json:"duration_ms"`
	Reason     string `json:"reason,omitempty"`
}
