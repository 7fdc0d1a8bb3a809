package logger

// Standard field names for structured logging.
const (
	FieldRunID      = "run_id"
	FieldComponent  = "component"
	FieldFrame      = "frame"
	FieldTotal      = "total_frames"
	FieldCount      = "count"
	FieldState      = "state"
	FieldFile       = "file"
	FieldError      = "error"
	FieldErrorClass = "error_class"
	FieldJoint      = "joint"
	FieldMode       = "mode"
	FieldDuration   = "duration_ms"
	FieldWidth      = "width"
	FieldHeight     = "height"
	FieldFPS        = "fps"
	FieldCodec      = "codec"
)
