package error

import (
	"fmt"
	"runtime"
	"strings"
)

// ErrorCategory classifies errors by their nature and appropriate handling strategy.
type ErrorCategory int

const (
	// ErrCategoryUser represents errors caused by an invalid catalog definition.
	// Examples: an index without columns, two primary keys, evicting a view.
	// These errors abort the catalog apply for the affected table and are never retried.
	ErrCategoryUser ErrorCategory = iota

	// ErrCategorySystem represents misuse of engine objects by their owners.
	// Examples: releasing a table handle twice, attaching a directory to a torn down table.
	ErrCategorySystem

	// ErrCategoryData represents errors related to evicted tuple bookkeeping.
	// Examples: a directory lookup for an entry that was never inserted.
	ErrCategoryData
)

func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryUser:
		return "user"
	case ErrCategorySystem:
		return "system"
	case ErrCategoryData:
		return "data"
	default:
		return "unknown"
	}
}

// Error codes produced by the table compiler and the eviction directory.
const (
	CodeMalformedSchema       = "MALFORMED_SCHEMA"
	CodeMalformedIndex        = "MALFORMED_INDEX"
	CodeMalformedConstraint   = "MALFORMED_CONSTRAINT"
	CodeDuplicatePrimaryKey   = "DUPLICATE_PRIMARY_KEY"
	CodeUnsupportedConstraint = "UNSUPPORTED_CONSTRAINT_TYPE"
	CodeInvalidAntiCacheUsage = "INVALID_ANTICACHE_USAGE"
	CodeInvalidDefinition     = "INVALID_DEFINITION"
	CodeTableReleased         = "TABLE_RELEASED"
	CodeEntryNotFound         = "DIRECTORY_ENTRY_NOT_FOUND"
	CodeDuplicateLocator      = "DUPLICATE_LOCATOR"
	CodeInvalidEntry          = "INVALID_DIRECTORY_ENTRY"
)

// Sentinels for errors.Is. Any DBError with the same code matches.
var (
	ErrMalformedSchema       = &DBError{Code: CodeMalformedSchema}
	ErrMalformedIndex        = &DBError{Code: CodeMalformedIndex}
	ErrMalformedConstraint   = &DBError{Code: CodeMalformedConstraint}
	ErrDuplicatePrimaryKey   = &DBError{Code: CodeDuplicatePrimaryKey}
	ErrUnsupportedConstraint = &DBError{Code: CodeUnsupportedConstraint}
	ErrInvalidAntiCacheUsage = &DBError{Code: CodeInvalidAntiCacheUsage}
	ErrInvalidDefinition     = &DBError{Code: CodeInvalidDefinition}
	ErrTableReleased         = &DBError{Code: CodeTableReleased}
	ErrEntryNotFound         = &DBError{Code: CodeEntryNotFound}
	ErrDuplicateLocator      = &DBError{Code: CodeDuplicateLocator}
	ErrInvalidEntry          = &DBError{Code: CodeInvalidEntry}
)

// DBError represents a structured database error with rich context information.
type DBError struct {
	// Code is a unique identifier for this error type (e.g., "MALFORMED_INDEX").
	Code string

	// Category classifies the error for appropriate handling strategy.
	Category ErrorCategory

	// Message is a human-readable description of what went wrong.
	Message string

	// Detail provides additional context about the specific error instance.
	Detail string

	// Hint suggests how the user might fix or work around this error.
	Hint string

	// Operation identifies the operation that was being performed when the error occurred.
	// Examples: "CompileColumns", "BuildIndexes", "ResolveConstraints".
	Operation string

	// Component identifies the system component where the error originated.
	// Examples: "SchemaCompiler", "IndexBuilder", "TableDelegate".
	Component string

	// Table names the catalog table being compiled, if any.
	Table string

	// Cause is the underlying error that triggered this database error.
	Cause error

	// Stack contains the call stack where this error was created.
	Stack []uintptr
}

// New creates a new DBError with the specified code, category, and message.
func New(category ErrorCategory, code, message string) *DBError {
	return &DBError{
		Code:     code,
		Category: category,
		Message:  message,
		Stack:    captureStack(),
	}
}

// Newf is New with a formatted message.
func Newf(category ErrorCategory, code, format string, args ...any) *DBError {
	return &DBError{
		Code:     code,
		Category: category,
		Message:  fmt.Sprintf(format, args...),
		Stack:    captureStack(),
	}
}

// Wrap wraps an existing error with database-specific context information.
// If the error is already a DBError, it enriches the existing error with
// operation and component context (only if not already set).
func Wrap(err error, code, operation, component string) *DBError {
	if err == nil {
		return nil
	}

	if dbErr, ok := err.(*DBError); ok {
		if dbErr.Operation == "" {
			dbErr.Operation = operation
		}
		if dbErr.Component == "" {
			dbErr.Component = component
		}
		return dbErr
	}

	return &DBError{
		Code:      code,
		Category:  ErrCategorySystem,
		Message:   err.Error(),
		Operation: operation,
		Component: component,
		Cause:     err,
		Stack:     captureStack(),
	}
}

// WithTable records the catalog table the error belongs to.
func (e *DBError) WithTable(table string) *DBError {
	e.Table = table
	return e
}

// WithDetail attaches instance-specific detail.
func (e *DBError) WithDetail(format string, args ...any) *DBError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// WithHint attaches a remediation hint.
func (e *DBError) WithHint(hint string) *DBError {
	e.Hint = hint
	return e
}

// At sets the operation and component that produced the error.
func (e *DBError) At(operation, component string) *DBError {
	e.Operation = operation
	e.Component = component
	return e
}

// captureStack skips captureStack, the constructor and runtime.Callers itself.
func captureStack() []uintptr {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	return pcs[0:n]
}

// Error implements the standard Go error interface
//
// The format follows the pattern:
// [ERROR_CODE] Message: Detail (operation: Operation, component: Component) caused by: underlying error
func (e *DBError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Detail != "" {
		b.WriteString(fmt.Sprintf(": %s", e.Detail))
	}

	if e.Operation != "" {
		b.WriteString(fmt.Sprintf(" (operation: %s", e.Operation))
		if e.Component != "" {
			b.WriteString(fmt.Sprintf(", component: %s", e.Component))
		}
		b.WriteString(")")
	}

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(" caused by: %v", e.Cause))
	}

	return b.String()
}

// Unwrap returns the underlying cause error, enabling error chain traversal
// with Go's standard error handling functions like errors.Is and errors.As.
func (e *DBError) Unwrap() error {
	return e.Cause
}

// Is matches any DBError carrying the same code, so callers can test
// errors.Is(err, ErrMalformedIndex) without caring about message text.
func (e *DBError) Is(target error) bool {
	t, ok := target.(*DBError)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// FormatStack returns a human-readable stack trace for debugging purposes.
func (e *DBError) FormatStack() string {
	if len(e.Stack) == 0 {
		return ""
	}

	var b strings.Builder
	frames := runtime.CallersFrames(e.Stack)

	b.WriteString("Stack trace:\n")
	for {
		f, more := frames.Next()
		b.WriteString(fmt.Sprintf("  %s\n    %s:%d\n",
			f.Function, f.File, f.Line))
		if !more {
			break
		}
	}

	return b.String()
}

// CodeOf returns the code of the first DBError in err's chain, or "".
func CodeOf(err error) string {
	for err != nil {
		if dbErr, ok := err.(*DBError); ok {
			return dbErr.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}
