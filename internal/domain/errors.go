package domain

import (
	"sort"
	"strings"
)

// Field names used as keys in ValidationError.
const (
	FieldName      = "name"
	FieldMobile    = "mobile"
	FieldEmail     = "email"
	FieldLatitude  = "latitude"
	FieldLongitude = "longitude"
	FieldImage     = "image"
)

// ValidationError carries field-scoped, user-facing messages. A step with a
// validation error does not advance.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

// Add records msg for field, keeping the first message per field.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// Err returns e when it holds at least one message, otherwise nil.
func (e *ValidationError) Err() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
