package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/David-Botos/exo-habitability/pkg/model"
)

// ErrorCategory defines categories of errors during a run
type ErrorCategory int

const (
	// ErrorCategoryNone marks the absence of an error
	ErrorCategoryNone ErrorCategory = iota
	// ErrorCategoryRowLevel covers missing or unparseable observations.
	// The value becomes null and the run continues.
	ErrorCategoryRowLevel
	// ErrorCategoryNumericDomain covers zero and negative sentinels that
	// would otherwise reach a logarithm or square root
	ErrorCategoryNumericDomain
	// ErrorCategoryStructural covers missing or malformed sources,
	// unreadable caches and unwritable outputs. The run aborts.
	ErrorCategoryStructural
)

// String returns a string representation of the error category
func (ec ErrorCategory) String() string {
	switch ec {
	case ErrorCategoryNone:
		return "None"
	case ErrorCategoryRowLevel:
		return "RowLevel"
	case ErrorCategoryNumericDomain:
		return "NumericDomain"
	case ErrorCategoryStructural:
		return "Structural"
	default:
		return fmt.Sprintf("Unknown(%d)", ec)
	}
}

var (
	// ErrSourceNotFound is returned when the input file does not exist
	ErrSourceNotFound = errors.New("source file not found")
	// ErrMalformedSource is returned when the input cannot be parsed or lacks required headers
	ErrMalformedSource = errors.New("malformed source file")
	// ErrCacheUnreadable is returned when a cache file exists but cannot be decoded
	ErrCacheUnreadable = errors.New("cache file unreadable")
	// ErrCacheUnwritable is returned when the normalized table cannot be persisted
	ErrCacheUnwritable = errors.New("cache file unwritable")
	// ErrOutputUnwritable is returned when a chart cannot be written
	ErrOutputUnwritable = errors.New("output unwritable")
)

// PipelineError is a fatal error tied to a path
type PipelineError struct {
	Category ErrorCategory
	Path     string
	Err      error
}

// Error implements error
func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s error at %s: %v", strings.ToLower(e.Category.String()), e.Path, e.Err)
}

// Unwrap exposes the wrapped error to errors.Is and errors.As
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// structural wraps cause under a sentinel so both can be matched with errors.Is
func structural(path string, sentinel, cause error) *PipelineError {
	err := sentinel
	if cause != nil {
		err = fmt.Errorf("%w: %w", sentinel, cause)
	}
	return &PipelineError{Category: ErrorCategoryStructural, Path: path, Err: err}
}

// CategoryOf returns the category of err, RowLevel for uncategorised errors
func CategoryOf(err error) ErrorCategory {
	if err == nil {
		return ErrorCategoryNone
	}
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Category
	}
	return ErrorCategoryRowLevel
}

// IsFatal reports whether err must abort the run
func IsFatal(err error) bool {
	return CategoryOf(err) == ErrorCategoryStructural
}

// CategorizeOperation maps a cleaning operation onto the error taxonomy.
// Operations that are not issues in the data return ErrorCategoryNone.
func CategorizeOperation(op model.CleaningOperation) ErrorCategory {
	switch op.CleaningOperation {
	case model.OpTypeValidationFailed:
		return ErrorCategoryRowLevel
	case model.OpSentinelCleared:
		return ErrorCategoryNumericDomain
	default:
		return ErrorCategoryNone
	}
}

// ErrorHandler tallies the recoverable issues of a run and keeps a few
// samples of each for the end-of-run log. Issues are never logged per row.
type ErrorHandler struct {
	logger       *zap.Logger
	errorCounts  map[ErrorCategory]int
	sampleErrors map[ErrorCategory][]model.CleaningOperation
	maxSamples   int
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *zap.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger:       logger,
		errorCounts:  make(map[ErrorCategory]int),
		sampleErrors: make(map[ErrorCategory][]model.CleaningOperation),
		maxSamples:   5, // Store up to 5 sample errors per category
	}
}

// RecordOperations tallies every issue among ops
func (eh *ErrorHandler) RecordOperations(ops []model.CleaningOperation) {
	for _, op := range ops {
		category := CategorizeOperation(op)
		if category == ErrorCategoryNone {
			continue
		}

		eh.errorCounts[category]++

		samples := eh.sampleErrors[category]
		if len(samples) < eh.maxSamples {
			eh.sampleErrors[category] = append(samples, op)
		}
	}
}

// Count returns the number of issues recorded for category
func (eh *ErrorHandler) Count(category ErrorCategory) int {
	return eh.errorCounts[category]
}

// GetErrorSummary returns a copy of the per-category counts
func (eh *ErrorHandler) GetErrorSummary() map[ErrorCategory]int {
	summary := make(map[ErrorCategory]int, len(eh.errorCounts))
	for category, count := range eh.errorCounts {
		summary[category] = count
	}
	return summary
}

// GetErrorSamples returns a copy of the retained samples
func (eh *ErrorHandler) GetErrorSamples() map[ErrorCategory][]model.CleaningOperation {
	samples := make(map[ErrorCategory][]model.CleaningOperation, len(eh.sampleErrors))
	for category, records := range eh.sampleErrors {
		categorySamples := make([]model.CleaningOperation, len(records))
		copy(categorySamples, records)
		samples[category] = categorySamples
	}
	return samples
}

// LogSummary writes one line per category with its sample rows
func (eh *ErrorHandler) LogSummary() {
	if eh.logger == nil {
		return
	}
	for _, category := range []ErrorCategory{ErrorCategoryRowLevel, ErrorCategoryNumericDomain} {
		count := eh.errorCounts[category]
		if count == 0 {
			continue
		}
		var rows []string
		for _, op := range eh.sampleErrors[category] {
			rows = append(rows, fmt.Sprintf("%s[%s]", op.RowIdentifier, op.ColumnName))
		}
		eh.logger.Info("Recoverable data issues",
			zap.String("category", category.String()),
			zap.Int("count", count),
			zap.Strings("samples", rows))
	}
}
