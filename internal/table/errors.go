package table

import (
	"errors"
	"fmt"
)

// ErrDestroyed is returned by operations on a table after Destroy.
var ErrDestroyed = errors.New("table has been destroyed")

// ConfigError reports missing or contradictory construction configuration.
// These fail fast: a table with a bad mount point or no columns is a
// programming mistake, not a runtime condition.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("table config: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("table config: %s", e.Message)
}

// CapacityError reports an addRow beyond maxRows.
type CapacityError struct {
	TableID string
	Max     int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("table %s: row limit reached (%d)", e.TableID, e.Max)
}

// IsCapacityError reports whether err is a CapacityError.
// Uses errors.As to handle wrapped errors.
func IsCapacityError(err error) bool {
	var ce *CapacityError
	return errors.As(err, &ce)
}
