package errors

import (
	"errors"
	"fmt"
)

// Standard application errors
var (
	ErrEmptyInput       = errors.New("input is empty or contains only whitespace")
	ErrInvalidJSON      = errors.New("invalid JSON format")
	ErrFileNotFound     = errors.New("file not found")
	ErrFileEmpty        = errors.New("file is empty")
	ErrNoInput          = errors.New("no input provided: please specify a file or pipe data to stdin")
	ErrInvalidFilePath  = errors.New("invalid file path")
	ErrMissingChecksum  = errors.New("savegame does not end with a checksum")
	ErrChecksumMismatch = errors.New("savegame checksum does not match its content")
	ErrUnknownGame      = errors.New("unknown game type")
	ErrInvalidConfig    = errors.New("invalid configuration")
)

// ErrorType categorizes errors
type ErrorType string

const (
	ErrorTypeInput    ErrorType = "input"
	ErrorTypeParsing  ErrorType = "parsing"
	ErrorTypeFormat   ErrorType = "format"
	ErrorTypeDecode   ErrorType = "decode"
	ErrorTypeEncode   ErrorType = "encode"
	ErrorTypeChecksum ErrorType = "checksum"
	ErrorTypeConfig   ErrorType = "config"
	ErrorTypeOutput   ErrorType = "output"
	ErrorTypeUnknown  ErrorType = "unknown"
)

// AppError is an application-specific error with context
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for comparison
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// NewInputError creates a new error related to input processing
func NewInputError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInput,
		Message: message,
		Err:     err,
	}
}

// NewParsingError creates a new error related to reading an edited JSON document
func NewParsingError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeParsing,
		Message: message,
		Err:     err,
	}
}

// NewFormatError creates a new error for a savegame whose checksum suffix is missing or malformed
func NewFormatError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeFormat,
		Message: message,
		Err:     err,
	}
}

// NewDecodeError creates a new error for a malformed serialized body
func NewDecodeError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeDecode,
		Message: message,
		Err:     err,
	}
}

// NewEncodeError creates a new error for a document that cannot be serialized
func NewEncodeError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeEncode,
		Message: message,
		Err:     err,
	}
}

// NewConfigError creates a new error related to configuration loading
func NewConfigError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeConfig,
		Message: message,
		Err:     err,
	}
}

// NewOutputError creates a new error related to output processing
func NewOutputError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeOutput,
		Message: message,
		Err:     err,
	}
}

// ChecksumMismatchError reports a stored checksum that differs from the
// one computed over the savegame body.
type ChecksumMismatchError struct {
	Stored   string
	Computed string
}

// Error implements error interface
func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("%s: stored %s, computed %s", ErrChecksumMismatch, e.Stored, e.Computed)
}

// Is matches ErrChecksumMismatch and checksum-typed AppErrors
func (e *ChecksumMismatchError) Is(target error) bool {
	if target == ErrChecksumMismatch {
		return true
	}
	t, ok := target.(*AppError)
	return ok && t.Type == ErrorTypeChecksum
}

// UserFriendlyError returns a user-friendly error message
func UserFriendlyError(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		switch appErr.Type {
		case ErrorTypeInput:
			return fmt.Sprintf("Input error: %s", appErr.Message)
		case ErrorTypeParsing:
			return fmt.Sprintf("JSON parsing error: %s", appErr.Message)
		case ErrorTypeFormat:
			return fmt.Sprintf("Savegame format error: %s", appErr.Message)
		case ErrorTypeDecode:
			if appErr.Err != nil {
				return fmt.Sprintf("Savegame decoding error: %s (%v)", appErr.Message, appErr.Err)
			}
			return fmt.Sprintf("Savegame decoding error: %s", appErr.Message)
		case ErrorTypeEncode:
			if appErr.Err != nil {
				return fmt.Sprintf("Savegame encoding error: %s (%v)", appErr.Message, appErr.Err)
			}
			return fmt.Sprintf("Savegame encoding error: %s", appErr.Message)
		case ErrorTypeChecksum:
			return fmt.Sprintf("Checksum error: %s", appErr.Message)
		case ErrorTypeConfig:
			return fmt.Sprintf("Configuration error: %s", appErr.Message)
		case ErrorTypeOutput:
			return fmt.Sprintf("Output error: %s", appErr.Message)
		default:
			return fmt.Sprintf("Error: %s", appErr.Message)
		}
	}

	var mismatch *ChecksumMismatchError
	if errors.As(err, &mismatch) {
		return fmt.Sprintf("Error: The savegame checksum does not match (stored %s, computed %s).", mismatch.Stored, mismatch.Computed)
	}

	// Handle standard errors
	if errors.Is(err, ErrEmptyInput) {
		return "Error: The input is empty. Please provide a savegame or a JSON document."
	}
	if errors.Is(err, ErrInvalidJSON) {
		return "Error: The input contains invalid JSON. Please check your JSON syntax."
	}
	if errors.Is(err, ErrMissingChecksum) {
		return "Error: The file does not look like a savegame. No checksum was found at its end."
	}
	if errors.Is(err, ErrUnknownGame) {
		return "Error: Unknown game. Run 'evosave games' to list the supported games."
	}
	if errors.Is(err, ErrFileNotFound) {
		return "Error: The specified file could not be found. Please check the file path."
	}
	if errors.Is(err, ErrFileEmpty) {
		return "Error: The specified file is empty."
	}
	if errors.Is(err, ErrNoInput) {
		return "Error: No input provided. Please specify a file or pipe data to stdin."
	}
	if errors.Is(err, ErrInvalidFilePath) {
		return "Error: Invalid file path. Please provide a valid file path."
	}

	// Generic error message for unknown errors
	return fmt.Sprintf("Error: %v", err)
}
