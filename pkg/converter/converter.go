// pkg/converter/converter.go
package converter

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/David-Botos/exo-habitability/pkg/model"
)

// ErrMissingColumn is returned when a required header is absent
var ErrMissingColumn = errors.New("required column missing")

// requiredColumns must be present in every source header
var requiredColumns = []string{model.ColName, model.ColHostStar}

// RowConverter turns raw spreadsheet rows into typed planet records
type RowConverter struct {
	logger *zap.Logger
	// Configuration options
	config ConverterConfig
}

// ConverterConfig provides configuration options for row conversion
type ConverterConfig struct {
	// Whether to treat empty cells as NULL
	EmptyStringAsNull bool
	// Cell values that mean "not observed" (case-insensitive)
	NullTokens []string
}

// DefaultConfig returns the default configuration
func DefaultConfig() ConverterConfig {
	return ConverterConfig{
		EmptyStringAsNull: true,
		NullTokens:        []string{"null", "nil", "nan", "na", "n/a", "none", "--"},
	}
}

// NewRowConverter creates a new RowConverter with default configuration
func NewRowConverter(logger *zap.Logger) *RowConverter {
	return NewRowConverterWithConfig(logger, DefaultConfig())
}

// NewRowConverterWithConfig creates a RowConverter with custom configuration
func NewRowConverterWithConfig(logger *zap.Logger, config ConverterConfig) *RowConverter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RowConverter{
		logger: logger,
		config: config,
	}
}

// Convert maps a header and its data rows onto planet records. A missing
// required header is a structural error; unparseable cells become nulls and
// are reported as cleaning operations.
func (c *RowConverter) Convert(
	header []string,
	rows [][]string,
	cctx model.CleaningContext,
) ([]model.Planet, []model.CleaningOperation, error) {
	bindings, unknown := bindHeaders(header)

	for _, required := range requiredColumns {
		if !hasColumn(bindings, required) {
			return nil, nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	if len(unknown) > 0 {
		c.logger.Debug("Ignoring unmapped source columns",
			zap.Int("count", len(unknown)),
			zap.Strings("columns", unknown))
	}

	planets := make([]model.Planet, 0, len(rows))
	var operations []model.CleaningOperation

	for i, row := range rows {
		rowCtx := cctx
		rowCtx.RowIndex = i

		planet, ops := c.convertRow(row, bindings, rowCtx)
		planets = append(planets, planet)
		operations = append(operations, ops...)
	}

	return planets, operations, nil
}

// convertRow applies every binding to one row
func (c *RowConverter) convertRow(
	row []string,
	bindings []binding,
	cctx model.CleaningContext,
) (model.Planet, []model.CleaningOperation) {
	var planet model.Planet
	var operations []model.CleaningOperation

	// Name first so operations carry the row identifier
	for _, b := range bindings {
		if b.alias.Column == model.ColName && b.index < len(row) && planet.Name == "" {
			planet.Name = c.parseText(row[b.index])
		}
	}
	cctx.RowIdentifier = planet.Name

	for _, b := range bindings {
		if b.index >= len(row) {
			continue
		}
		cell := row[b.index]

		switch b.column.Kind {
		case model.KindText:
			target := b.column.Text(&planet)
			if *target == "" {
				*target = c.parseText(cell)
			}

		case model.KindFloat:
			target := b.column.Value(&planet)
			if *target != nil {
				continue
			}
			value, err := c.parseFloat(cell)
			if err != nil {
				operations = append(operations, cctx.Operation(
					b.alias.Column, cell, "",
					model.OpTypeValidationFailed,
					fmt.Sprintf("cannot_convert_to_float: %s", b.header),
				))
				continue
			}
			if value != nil && b.alias.Scale != 1 {
				value = model.Float(*value * b.alias.Scale)
			}
			*target = value
		}
	}

	return planet, operations
}
