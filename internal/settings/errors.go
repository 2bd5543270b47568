package settings

import (
	"fmt"
	"strings"
)

// ValidationError rejects user input before any state changes.
type ValidationError struct {
	Field   string
	Message string
	// Invalid lists the offending entries, when there are several.
	Invalid []string
}

func (e *ValidationError) Error() string {
	if len(e.Invalid) > 0 {
		return fmt.Sprintf("%s: %s: %s", e.Field, e.Message, strings.Join(e.Invalid, ", "))
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
