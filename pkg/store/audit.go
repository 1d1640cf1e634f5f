package store

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/exo-habitability/pkg/model"
)

// AuditRecord is one row of the cleaned_on_ingress table
type AuditRecord struct {
	ID                int64     `db:"id"`
	RunID             string    `db:"run_id"`
	SourceName        string    `db:"source_name"`
	ColumnName        string    `db:"column_name"`
	OriginalValue     *string   `db:"original_value"`
	NewValue          string    `db:"new_value"`
	RowIdentifier     string    `db:"row_identifier"`
	RowIndex          int       `db:"row_index"`
	CleaningOperation string    `db:"cleaning_operation"`
	CleaningReason    string    `db:"cleaning_reason"`
	CleanedAt         time.Time `db:"cleaned_at"`
}

// RecordCleaningOperations batch inserts cleaning operations into the tracking table
func (s *Store) RecordCleaningOperations(ctx context.Context, operations []model.CleaningOperation) (err error) {
	if len(operations) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// Begin transaction
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.Error("Failed to rollback transaction",
					zap.Error(rbErr),
					zap.NamedError("cause", err))
			}
		}
	}()

	stmt, err := tx.PrepareNamedContext(ctx, `
		INSERT INTO cleaned_on_ingress
		(run_id, source_name, column_name, original_value, new_value,
		 row_identifier, row_index, cleaning_operation, cleaning_reason, cleaned_at)
		VALUES (:run_id, :source_name, :column_name, :original_value, :new_value,
		 :row_identifier, :row_index, :cleaning_operation, :cleaning_reason, :cleaned_at)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, op := range operations {
		record := AuditRecord{
			RunID:             op.RunID,
			SourceName:        op.SourceName,
			ColumnName:        op.ColumnName,
			OriginalValue:     toNullableString(op.OriginalValue),
			NewValue:          op.NewValue,
			RowIdentifier:     op.RowIdentifier,
			RowIndex:          op.RowIndex,
			CleaningOperation: op.CleaningOperation,
			CleaningReason:    op.CleaningReason,
			CleanedAt:         op.CleanedAt,
		}
		if record.CleanedAt.IsZero() {
			record.CleanedAt = time.Now().UTC()
		}
		if _, err = stmt.ExecContext(ctx, record); err != nil {
			return fmt.Errorf("failed to insert cleaning operation: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("Recorded cleaning operations", zap.Int("count", len(operations)))
	return nil
}

// CleaningOperations returns the audit trail of one run in insertion order
func (s *Store) CleaningOperations(ctx context.Context, runID string) ([]AuditRecord, error) {
	var records []AuditRecord
	err := s.db.SelectContext(ctx, &records,
		`SELECT * FROM cleaned_on_ingress WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cleaning operations: %w", err)
	}
	return records, nil
}

// toNullableString safely converts an interface to a nullable string
func toNullableString(v interface{}) *string {
	if v == nil {
		return nil
	}
	var s string
	switch val := v.(type) {
	case string:
		s = val
	case []byte:
		s = string(val)
	default:
		s = fmt.Sprintf("%v", val)
	}
	return &s
}
