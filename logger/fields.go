package logger

// Fields is a set of structured log fields.
type Fields map[string]interface{}

// Tracing fields.
const (
	FieldRequestID = "request_id"
	FieldComponent = "component"
	FieldSource    = "source"
)

// Metric fields.
const (
	FieldDurationMs = "duration_ms"
	FieldCount      = "count"
	FieldSize       = "size"
	FieldStatus     = "status"
	FieldStart      = "start"
	FieldDirection  = "direction"
)
