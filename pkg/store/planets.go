package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/exo-habitability/pkg/model"
)

// ImportRaw replaces the raw master data with the rows of one run
func (s *Store) ImportRaw(ctx context.Context, runID string, planets []model.Planet) (err error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	cols := model.PlanetTable.ObservationalColumns()

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

	if _, err = tx.ExecContext(ctx, `DELETE FROM raw_planets`); err != nil {
		return fmt.Errorf("failed to clear raw planets: %w", err)
	}

	names := []string{"run_id", "row_index"}
	for _, col := range cols {
		names = append(names, col.Name)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")

	stmt, err := tx.PreparexContext(ctx, fmt.Sprintf(
		"INSERT INTO raw_planets (%s) VALUES (%s)",
		strings.Join(names, ", "), placeholders,
	))
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	args := make([]interface{}, len(names))
	for i := range planets {
		p := &planets[i]
		args[0], args[1] = runID, i
		for j, col := range cols {
			args[j+2] = columnArg(p, col)
		}
		if _, err = stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert raw planet row %d: %w", i, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("Imported raw planets", zap.String("run_id", runID), zap.Int("rows", len(planets)))
	return nil
}

// LoadRaw reads back the raw master data in row order
func (s *Store) LoadRaw(ctx context.Context) ([]model.Planet, error) {
	cols := model.PlanetTable.ObservationalColumns()
	names := make([]string, len(cols))
	for i, col := range cols {
		names[i] = col.Name
	}

	rows, err := s.db.QueryxContext(ctx, fmt.Sprintf(
		"SELECT %s FROM raw_planets ORDER BY row_index", strings.Join(names, ", ")))
	if err != nil {
		return nil, fmt.Errorf("failed to query raw planets: %w", err)
	}
	defer rows.Close()

	var planets []model.Planet
	for rows.Next() {
		var p model.Planet
		dest := make([]interface{}, len(cols))
		for i, col := range cols {
			switch col.Kind {
			case model.KindText:
				dest[i] = col.Text(&p)
			case model.KindFloat:
				dest[i] = col.Value(&p)
			}
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan raw planet: %w", err)
		}
		planets = append(planets, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read raw planets: %w", err)
	}
	return planets, nil
}

func columnArg(p *model.Planet, col model.Column) interface{} {
	switch col.Kind {
	case model.KindText:
		return *col.Text(p)
	case model.KindFloat:
		if v := *col.Value(p); v != nil {
			return *v
		}
	}
	return nil
}
