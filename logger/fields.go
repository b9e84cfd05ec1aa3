package logger

import "time"

// Standard field key constants for structured logging.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldOperation  = "operation"
	FieldError      = "error"
	FieldDuration   = "duration_ms"
	FieldKeyName    = "key_name"
	FieldCandidates = "candidates"
	FieldOutcome    = "outcome"
	FieldTransport  = "transport"
	FieldCredential = "credential"
	FieldSocketID   = "socket_id"
	FieldPath       = "path"
)

// Fields builds a map[string]interface{} from alternating key-value pairs.
//
//	logger.Info("done", logger.Fields("op", "verify", "key_name", "adminToken"))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// ErrorFields creates fields for an operation that failed.
func ErrorFields(op string, err error) map[string]interface{} {
	return map[string]interface{}{
		FieldOperation: op,
		FieldError:     err.Error(),
	}
}

// DurationFields creates fields for a timed operation.
func DurationFields(op string, d time.Duration) map[string]interface{} {
	return map[string]interface{}{
		FieldOperation: op,
		FieldDuration:  d.Milliseconds(),
	}
}

// MaskCredential returns a log-safe hint of a credential: its first four
// characters followed by "***". Short or empty credentials are fully masked.
func MaskCredential(s string) string {
	const visible = 4
	if len(s) <= visible*2 {
		return "***"
	}
	return s[:visible] + "***"
}
