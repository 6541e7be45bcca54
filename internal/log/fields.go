package log

import "github.com/shopspring/decimal"

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldSuccess     = "success"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldStoreID     = "store_id"
	FieldEmployeeID  = "employee_id"
	FieldRegisterID  = "register_id"
	FieldMovementID  = "movement_id"
	FieldMovementTyp = "movement_type"
	FieldReferenceID = "reference_id"
	FieldAmount      = "amount"
	FieldExpected    = "expected_amount"
	FieldDifference  = "difference"
	FieldVariance    = "variance_level"
	FieldKey         = "key"
	FieldBatchSize   = "batch_size"
	FieldBackend     = "backend"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentLedger   = "ledger"
	ComponentRegister = "register"
	ComponentPOS      = "pos"
	ComponentStorage  = "storage"
	ComponentAMQP     = "amqp"
	ComponentWorker   = "worker"
	ComponentSheets   = "sheets"
	ComponentBackend  = "backend"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpUpdate   = "update"
	OpAppend   = "append"
	OpOpen     = "open"
	OpClose    = "close"
	OpFlush    = "flush"
	OpLoad     = "load"
	OpPublish  = "publish"
	OpExport   = "export"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

func (f LogFields) WithStore(storeID string) LogFields {
	f[FieldStoreID] = storeID
	return f
}

// WithMovement adds the identifying fields of a ledger entry.
func (f LogFields) WithMovement(id, movementType, referenceID string, amount decimal.Decimal) LogFields {
	f[FieldMovementID] = id
	f[FieldMovementTyp] = movementType
	f[FieldReferenceID] = referenceID
	f[FieldAmount] = amount.String()
	return f
}

// WithReconciliation adds the figures computed when a register closes.
func (f LogFields) WithReconciliation(registerID string, expected, difference decimal.Decimal, level string) LogFields {
	f[FieldRegisterID] = registerID
	f[FieldExpected] = expected.String()
	f[FieldDifference] = difference.String()
	f[FieldVariance] = level
	return f
}

func (f LogFields) WithHTTPRequest(method, path string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64, success bool) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = success
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		if k == FieldComponent {
			continue
		}
		slice = append(slice, k, v)
	}
	return slice
}
