// Package errors provides the error taxonomy of the analysis pipeline and its
// mapping onto BPMN errors for the job workers.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed      ErrorCode = "ARTICLE_VALIDATION_FAILED"
	ErrCodeInputParsingFailed    ErrorCode = "INPUT_PARSING_FAILED"
	ErrCodeInferenceUnavailable  ErrorCode = "INFERENCE_UNAVAILABLE"
	ErrCodeInferenceDeclined     ErrorCode = "INFERENCE_DECLINED"
	ErrCodeInferenceParseFailed  ErrorCode = "INFERENCE_PARSE_FAILED"
	ErrCodeSearchUnavailable     ErrorCode = "SEARCH_UNAVAILABLE"
	ErrCodeStorageFailed         ErrorCode = "STORAGE_FAILED"
	ErrCodeArticleTimeout        ErrorCode = "ARTICLE_TIMEOUT"
	ErrCodeClusteringFailed      ErrorCode = "CLUSTERING_FAILED"
	ErrCodeInternal              ErrorCode = "INTERNAL_ERROR"
	ErrCodeNotificationFailed    ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeArticleSelectionError ErrorCode = "ARTICLE_SELECTION_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// Is matches another *StandardError by code, so sentinel-style comparisons
// work: errors.Is(err, &StandardError{Code: ErrCodeStorageFailed}).
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithMetadata attaches a key to the error's metadata and returns the error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message string, cause error, retryable bool) *StandardError {
	e := &StandardError{
		Code:      code,
		Message:   message,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
	if cause != nil {
		e.Details = cause.Error()
	}
	return e
}

func NewValidationError(field, details string) *StandardError {
	e := newError(ErrCodeValidationFailed, "Article validation failed", nil, false)
	e.Details = details
	return e.WithMetadata("field", field)
}

func NewInputParsingError(err error) *StandardError {
	return newError(ErrCodeInputParsingFailed, "Failed to parse job variables", err, false)
}

func NewInferenceUnavailableError(task string, err error) *StandardError {
	return newError(ErrCodeInferenceUnavailable, "Inference service unavailable", err, true).
		WithMetadata("task", task)
}

func NewInferenceDeclinedError(task, reason string) *StandardError {
	e := newError(ErrCodeInferenceDeclined, "Model declined to answer", nil, false)
	e.Details = reason
	return e.WithMetadata("task", task)
}

// NewInferenceParseError records the raw excerpt so the response can be
// reviewed offline for prompt or schema drift.
func NewInferenceParseError(task string, err error, raw string) *StandardError {
	return newError(ErrCodeInferenceParseFailed, "Inference output did not match schema", err, false).
		WithMetadata("task", task).
		WithMetadata("rawExcerpt", Excerpt(raw, 512))
}

func NewSearchUnavailableError(backend string, err error) *StandardError {
	return newError(ErrCodeSearchUnavailable, "Search service unavailable", err, true).
		WithMetadata("backend", backend)
}

func NewStorageError(operation string, err error) *StandardError {
	return newError(ErrCodeStorageFailed, fmt.Sprintf("Storage operation %q failed", operation), err, true)
}

func NewArticleTimeoutError(url string, err error) *StandardError {
	return newError(ErrCodeArticleTimeout, "Article analysis exceeded its time budget", err, true).
		WithMetadata("url", url)
}

func NewClusteringFailedError(err error, stderr string) *StandardError {
	return newError(ErrCodeClusteringFailed, "Clustering job failed", err, true).
		WithMetadata("stderr", Excerpt(stderr, 512))
}

func NewArticleSelectionError(err error) *StandardError {
	return newError(ErrCodeArticleSelectionError, "Failed to select articles for analysis", err, true)
}

func NewNotificationFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationFailed, "Batch report delivery failed", err, true).
		WithMetadata("channel", channel)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err, false)
}

// CodeOf returns the code of the first StandardError in err's chain, or
// ErrCodeInternal when there is none.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ErrCodeInternal
}

// HasCode reports whether err's chain contains a StandardError with code.
func HasCode(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}
	return stderrors.Is(err, &StandardError{Code: code})
}

func IsRetryable(err error) bool {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Retryable
	}
	return false
}

// Excerpt trims s to at most n bytes without splitting a rune.
func Excerpt(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// BPMNError represents an error that can be thrown to the workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeInferenceUnavailable,
		ErrCodeStorageFailed,
		ErrCodeArticleSelectionError,
		ErrCodeNotificationFailed:
		return 3

	case ErrCodeArticleTimeout,
		ErrCodeSearchUnavailable,
		ErrCodeClusteringFailed:
		return 2

	default:
		return 0
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "PARSING"):
		return "VALIDATION"
	case strings.Contains(codeStr, "INFERENCE"):
		return "INFERENCE"
	case strings.Contains(codeStr, "SEARCH"):
		return "SEARCH"
	case strings.Contains(codeStr, "STORAGE") || strings.Contains(codeStr, "SELECTION") || strings.Contains(codeStr, "NOT_FOUND"):
		return "STORAGE"
	case strings.Contains(codeStr, "TIMEOUT"):
		return "TIMEOUT"
	case strings.Contains(codeStr, "CLUSTERING"):
		return "CLUSTERING"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	default:
		return "OTHER"
	}
}
