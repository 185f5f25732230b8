package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldUserID        = "user_id"
	FieldDetector      = "detector"
	FieldWindowDays    = "window_days"
	FieldReferenceDate = "reference_date"
	FieldRecordCount   = "record_count"
	FieldIsComplete    = "is_complete"
	FieldFallbacks     = "fallbacks_applied"
	FieldDuration      = "duration_ms"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldQueue         = "queue"
	FieldExchange      = "exchange"
	FieldFile          = "file"
	FieldRowsImported  = "rows_imported"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentSignals = "signals"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentIngest  = "ingest"
)

// Operations defines standard operation names
const (
	OpWindow    = "window"
	OpDetect    = "detect"
	OpSummarize = "summarize"
	OpImport    = "import"
	OpPublish   = "publish"
	OpConsume   = "consume"
	OpValidate  = "validate"
	OpStartup   = "startup"
	OpShutdown  = "shutdown"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithUser adds the user field
func (f LogFields) WithUser(userID string) LogFields {
	f[FieldUserID] = userID
	return f
}

// WithDetector adds detector and window fields
func (f LogFields) WithDetector(detector string, windowDays int) LogFields {
	f[FieldDetector] = detector
	f[FieldWindowDays] = windowDays
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
