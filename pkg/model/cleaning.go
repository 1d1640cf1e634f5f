// pkg/model/cleaning.go
package model

import (
	"time"
)

// Cleaning operation kinds recorded in the audit trail
const (
	OpTypeValidationFailed = "type_validation_failed"
	OpDeduplication        = "deduplication"
	OpSentinelCleared      = "sentinel_cleared"
	OpManualCorrection     = "manual_correction"
)

// CleaningOperation represents a single data cleaning operation
type CleaningOperation struct {
	RunID             string      // Pipeline run that performed the operation
	SourceName        string      // Source file the row came from
	ColumnName        string      // Column that was cleaned ("*" for whole-row operations)
	OriginalValue     interface{} // Original value (may be nil)
	NewValue          string      // New value after cleaning ("" means null)
	RowIdentifier     string      // Planet name that identifies the row
	RowIndex          int         // Zero-based data row index in the source
	CleaningOperation string      // Type of cleaning performed (e.g., "sentinel_cleared")
	CleaningReason    string      // Reason for cleaning (e.g., "non_positive_value")
	CleanedAt         time.Time   // When the cleaning occurred
}

// CleaningContext contains information needed for cleaning a value
type CleaningContext struct {
	RunID         string
	SourceName    string
	RowIdentifier string
	RowIndex      int
}

// Operation builds a CleaningOperation for the row described by the context
func (c CleaningContext) Operation(column string, original interface{}, newValue, op, reason string) CleaningOperation {
	return CleaningOperation{
		RunID:             c.RunID,
		SourceName:        c.SourceName,
		ColumnName:        column,
		OriginalValue:     original,
		NewValue:          newValue,
		RowIdentifier:     c.RowIdentifier,
		RowIndex:          c.RowIndex,
		CleaningOperation: op,
		CleaningReason:    reason,
		CleanedAt:         time.Now().UTC(),
	}
}
