package transfer

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgconn"
	"go.uber.org/zap"

	"github.com/David-Botos/customer-ingress/pkg/converter"
)

// ErrorCategory defines categories of errors during a load
type ErrorCategory int

const (
	// Error categories with increasing severity
	ErrorCategoryNone ErrorCategory = iota
	ErrorCategoryDataConversion
	ErrorCategoryValidation
	ErrorCategoryTableLevel
	ErrorCategoryConnectionLevel
	ErrorCategorySystemLevel
)

// String returns a string representation of the error category
func (ec ErrorCategory) String() string {
	switch ec {
	case ErrorCategoryNone:
		return "None"
	case ErrorCategoryDataConversion:
		return "DataConversion"
	case ErrorCategoryValidation:
		return "Validation"
	case ErrorCategoryTableLevel:
		return "TableLevel"
	case ErrorCategoryConnectionLevel:
		return "ConnectionLevel"
	case ErrorCategorySystemLevel:
		return "SystemLevel"
	default:
		return fmt.Sprintf("ErrorCategory(%d)", int(ec))
	}
}

// SinkConnectionError reports a sink that could not be reached or refused the credentials
type SinkConnectionError struct {
	Driver string
	Err    error
}

func (e *SinkConnectionError) Error() string {
	return fmt.Sprintf("sink connection failed (%s): %v", e.Driver, e.Err)
}

func (e *SinkConnectionError) Unwrap() error {
	return e.Err
}

// SinkWriteError reports a failure while writing the table. Unless Committed is set
// the previous table is left intact.
type SinkWriteError struct {
	Table     string
	Committed bool // The replacement was committed before the failure
	Err       error
}

func (e *SinkWriteError) Error() string {
	if e.Committed {
		return fmt.Sprintf("table %s was committed and replaced, but verification failed: %v", e.Table, e.Err)
	}
	return fmt.Sprintf("writing table %s failed, previous table kept: %v", e.Table, e.Err)
}

func (e *SinkWriteError) Unwrap() error {
	return e.Err
}

// ErrorRecord contains detailed information about a load error
type ErrorRecord struct {
	Category  ErrorCategory
	TableName string
	Phase     string // e.g. "connect", "insert", "swap"
	Error     error
	Message   string // Derived from Error
	Timestamp time.Time
}

// NewErrorRecord creates a new error record with current timestamp
func NewErrorRecord(err error, category ErrorCategory) ErrorRecord {
	record := ErrorRecord{
		Category:  category,
		Error:     err,
		Timestamp: time.Now(),
	}

	if err != nil {
		record.Message = err.Error()
	}

	return record
}

// WithTable adds table and phase information to the error record
func (r ErrorRecord) WithTable(table, phase string) ErrorRecord {
	r.TableName = table
	r.Phase = phase
	return r
}

// String returns a formatted error message
func (r ErrorRecord) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] ", r.Category))

	if r.TableName != "" {
		sb.WriteString(fmt.Sprintf("Table: %s ", r.TableName))
	}
	if r.Phase != "" {
		sb.WriteString(fmt.Sprintf("Phase: %s ", r.Phase))
	}
	if r.Message != "" {
		sb.WriteString(fmt.Sprintf("Error: %s", r.Message))
	}

	return sb.String()
}

// ErrorHandler classifies and records load errors
type ErrorHandler struct {
	logger      *zap.Logger
	mu          sync.Mutex
	errorCounts map[ErrorCategory]int
	records     []ErrorRecord
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *zap.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger:      logger,
		errorCounts: make(map[ErrorCategory]int),
	}
}

// CategorizeError determines the category of an error
func (eh *ErrorHandler) CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ErrorCategoryNone
	}

	var (
		category ErrorCategory
		pgErr    *pgconn.PgError
		netErr   net.Error
	)

	switch {
	// SQLSTATE class 08 is connection exception, 28 is invalid authorization
	case errors.As(err, &pgErr):
		category = categorizeSQLState(pgErr.Code)

	// Checked before net.Error, which DeadlineExceeded also satisfies
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		category = ErrorCategorySystemLevel

	case errors.Is(err, driver.ErrBadConn),
		errors.As(err, &netErr):
		category = ErrorCategoryConnectionLevel

	case errors.Is(err, converter.ErrUnsupportedValue):
		category = ErrorCategoryDataConversion

	// Any other database failure is attributed to the table being written
	default:
		category = ErrorCategoryTableLevel
	}

	// Log the categorization for debugging
	if eh.logger != nil {
		eh.logger.Debug("Categorized error",
			zap.String("error", err.Error()),
			zap.String("category", category.String()))
	}

	return category
}

func categorizeSQLState(code string) ErrorCategory {
	if len(code) < 2 {
		return ErrorCategoryTableLevel
	}

	switch code[:2] {
	case "08", "28":
		return ErrorCategoryConnectionLevel
	case "22":
		return ErrorCategoryDataConversion
	case "23":
		return ErrorCategoryValidation
	case "53", "57", "58":
		return ErrorCategorySystemLevel
	default:
		return ErrorCategoryTableLevel
	}
}

// RecordError stores an error record and updates the counts
func (eh *ErrorHandler) RecordError(record ErrorRecord) {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	eh.errorCounts[record.Category]++
	eh.records = append(eh.records, record)

	if eh.logger != nil {
		eh.logger.Error("Load error",
			zap.String("category", record.Category.String()),
			zap.String("table", record.TableName),
			zap.String("phase", record.Phase),
			zap.String("error", record.Message))
	}
}

// GetErrorSummary returns a copy of the error counts by category
func (eh *ErrorHandler) GetErrorSummary() map[ErrorCategory]int {
	eh.mu.Lock()
	defer eh.mu.Unlock()

	summary := make(map[ErrorCategory]int, len(eh.errorCounts))
	for category, count := range eh.errorCounts {
		summary[category] = count
	}
	return summary
}

// WrapError creates a new error with additional context
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
