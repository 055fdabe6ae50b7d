package logger

import "time"

// Keys shared by the engine's log lines, so a container run can be
// filtered with one query across packages.
const (
	FieldComponent = "component"
	FieldContainer = "container"
	FieldOperator  = "operator"
	FieldLevel     = "level_index"
	FieldRunID     = "run_id"
	FieldStatus    = "status"
	FieldWorkers   = "workers"
	FieldOperation = "operation"
	FieldError     = "error"
	FieldDuration  = "duration_ms"
)

// Fields pairs up alternating keys and values. Non-string keys and a
// trailing odd value are dropped.
//
//	log.Info("level done", logger.Fields(logger.FieldLevel, 2, logger.FieldWorkers, 4))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i+1 < len(kvs); i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// Merge combines field maps into a new one. Later maps win on key clashes.
func Merge(maps ...map[string]interface{}) map[string]interface{} {
	n := 0
	for _, m := range maps {
		n += len(m)
	}
	out := make(map[string]interface{}, n)
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

// DurationFields tags a timed operation with its duration in milliseconds.
func DurationFields(op string, d time.Duration) map[string]interface{} {
	return map[string]interface{}{FieldOperation: op, FieldDuration: d.Milliseconds()}
}

// MergeWithError sets the error field on fields, allocating when nil.
// A nil err leaves fields untouched.
func MergeWithError(fields map[string]interface{}, err error) map[string]interface{} {
	if fields == nil {
		fields = make(map[string]interface{}, 1)
	}
	if err != nil {
		fields[FieldError] = err.Error()
	}
	return fields
}
