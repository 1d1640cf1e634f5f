// pkg/converter/values.go
package converter

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrNotNumeric is returned for cells that are neither null nor a finite number
var ErrNotNumeric = errors.New("value is not a finite number")

// isNull determines if a cell should be treated as a missing observation
func (c *RowConverter) isNull(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return c.config.EmptyStringAsNull
	}
	for _, token := range c.config.NullTokens {
		if strings.EqualFold(value, token) {
			return true
		}
	}
	return false
}

// parseFloat converts a cell to a float, returning nil for null cells
func (c *RowConverter) parseFloat(value string) (*float64, error) {
	if c.isNull(value) {
		return nil, nil
	}

	cleaned := strings.TrimSpace(value)
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil, fmt.Errorf("cannot convert '%s' to float: %w", value, ErrNotNumeric)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("cannot convert '%s' to float: %w", value, ErrNotNumeric)
	}
	return &f, nil
}

// parseText normalises a text cell, returning "" for null cells
func (c *RowConverter) parseText(value string) string {
	if c.isNull(value) {
		return ""
	}
	return strings.TrimSpace(value)
}

// FormatFloat renders a float with the shortest representation that parses
// back to the same value
func FormatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}
