package logging

// Standardized structured logging keys.
const (
	FieldComponent = "component"
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to try next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact    = "impact"
	FieldJobID     = "job_id"
	FieldItemIndex = "item_index"
	FieldOperation = "operation"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
)
