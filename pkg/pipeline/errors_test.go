package pipeline

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"github.com/David-Botos/exo-habitability/pkg/model"
)

func TestPipelineErrorWrapsSentinelAndCause(t *testing.T) {
	cause := errors.New("permission denied")
	err := structural("/data/in.csv", ErrMalformedSource, cause)

	assert.True(t, errors.Is(err, ErrMalformedSource))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "structural error at /data/in.csv: malformed source file: permission denied", err.Error())

	wrapped := fmt.Errorf("run failed: %w", err)
	var pe *PipelineError
	assert.True(t, errors.As(wrapped, &pe))
	assert.Equal(t, "/data/in.csv", pe.Path)
	assert.True(t, IsFatal(wrapped))
}

func TestCategoryOf(t *testing.T) {
	assert.Equal(t, ErrorCategoryNone, CategoryOf(nil))
	assert.Equal(t, ErrorCategoryRowLevel, CategoryOf(errors.New("bad cell")))
	assert.Equal(t, ErrorCategoryStructural, CategoryOf(structural("x", ErrCacheUnreadable, nil)))
	assert.False(t, IsFatal(errors.New("bad cell")))
	assert.Equal(t, "NumericDomain", ErrorCategoryNumericDomain.String())
	assert.Equal(t, "Unknown(42)", ErrorCategory(42).String())
}

func TestErrorHandlerTalliesOperations(t *testing.T) {
	eh := NewErrorHandler(zaptest.NewLogger(t))

	var ops []model.CleaningOperation
	for i := 0; i < 7; i++ {
		ops = append(ops, model.CleaningOperation{CleaningOperation: model.OpTypeValidationFailed, RowIdentifier: fmt.Sprintf("p%d", i)})
	}
	ops = append(ops,
		model.CleaningOperation{CleaningOperation: model.OpSentinelCleared},
		model.CleaningOperation{CleaningOperation: model.OpDeduplication},
		model.CleaningOperation{CleaningOperation: model.OpManualCorrection},
	)
	eh.RecordOperations(ops)

	assert.Equal(t, 7, eh.Count(ErrorCategoryRowLevel))
	assert.Equal(t, 1, eh.Count(ErrorCategoryNumericDomain))
	assert.Equal(t, map[ErrorCategory]int{ErrorCategoryRowLevel: 7, ErrorCategoryNumericDomain: 1}, eh.GetErrorSummary())

	samples := eh.GetErrorSamples()
	assert.Len(t, samples[ErrorCategoryRowLevel], 5)
	assert.Equal(t, "p0", samples[ErrorCategoryRowLevel][0].RowIdentifier)

	eh.LogSummary()
}
