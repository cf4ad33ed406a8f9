package storage

import (
	"errors"
	"fmt"
)

var ErrItemNotFound = errors.New("item not found in storage")
var ErrStoreNotConfigured = errors.New("supabase URL or key not configured")

// ExternalStoreError is returned when the REST store answers with a non-2xx status.
type ExternalStoreError struct {
	Method string
	Table  string
	Status int
	Body   string
}

func (e *ExternalStoreError) Error() string {
	return fmt.Sprintf("supabase %s %s failed: %d %s", e.Method, e.Table, e.Status, e.Body)
}
