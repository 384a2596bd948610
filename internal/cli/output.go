package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/roach88/slipstream/internal/settings"
	"github.com/roach88/slipstream/internal/store"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Operation failed (no such layout, store unavailable)
	ExitCommandError = 2 // Command error (bad flags, invalid settings JSON, bad config)
)

// Error codes reported in JSON output.
const (
	CodeInvalidInput = "E001"
	CodeNotFound     = "E002"
	CodeUnavailable  = "E003"
	CodeTestFailed   = "E004"
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// storeExitError maps a store error to an exit code: bad input is a command
// error, everything else a failure.
func storeExitError(message string, err error) *ExitError {
	if store.IsValidation(err) {
		return WrapExitError(ExitCommandError, message, err)
	}
	return WrapExitError(ExitFailure, message, err)
}

// errorCode returns the JSON error code for err.
func errorCode(err error) string {
	switch {
	case store.IsValidation(err):
		return CodeInvalidInput
	case store.IsNotFound(err):
		return CodeNotFound
	default:
		return CodeUnavailable
	}
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // CodeInvalidInput, CodeNotFound, ...
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Record outputs a layout record. Text output is one field per line with
// the settings as canonical JSON.
func (f *OutputFormatter) Record(rec store.Record) error {
	if f.Format == "json" {
		return f.Success(rec)
	}

	doc, err := settings.MarshalCanonical(rec.Settings)
	if err != nil {
		return err
	}
	fmt.Fprintf(f.Writer, "id:          %s\n", rec.ID)
	fmt.Fprintf(f.Writer, "user_id:     %s\n", rec.UserID)
	fmt.Fprintf(f.Writer, "context_key: %s\n", rec.ContextKey)
	fmt.Fprintf(f.Writer, "created_at:  %s\n", rec.CreatedAt.Format(time.RFC3339Nano))
	fmt.Fprintf(f.Writer, "updated_at:  %s\n", rec.UpdatedAt.Format(time.RFC3339Nano))
	fmt.Fprintf(f.Writer, "settings:    %s\n", doc)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Failure outputs an error together with the payload that explains it,
// such as a test summary. Text output prints only the error line.
func (f *OutputFormatter) Failure(code, message string, data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Data:   data,
			Error: &CLIError{
				Code:    code,
				Message: message,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	return nil
}

// VerboseLog outputs a message only if verbose mode is enabled.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
