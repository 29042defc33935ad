// Package cli implements the command-line interface.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

var (
	// Global JSON output flag
	jsonOutput bool

	// stdout and stdin are swapped by tests.
	stdout io.Writer = os.Stdout
	stdin  io.Reader = os.Stdin

	// reportedFailure is set once an error has been written as JSON so the
	// process still exits non-zero.
	reportedFailure bool
)

// Response is the standard JSON envelope for all CLI output.
type Response struct {
	OK       bool        `json:"ok"`
	Data     interface{} `json:"data,omitempty"`
	Error    *ErrorInfo  `json:"error,omitempty"`
	Warnings []Warning   `json:"warnings,omitempty"`
	Meta     *Meta       `json:"meta,omitempty"`
}

// ErrorInfo contains structured error information.
type ErrorInfo struct {
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	Suggestion string      `json:"suggestion,omitempty"`
}

// Warning represents a non-fatal warning.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Ref     string `json:"ref,omitempty"`
}

// Meta contains metadata about the response.
type Meta struct {
	Count      int   `json:"count,omitempty"`
	DurationMS int64 `json:"duration_ms,omitempty"`
}

// outputJSON outputs the response as JSON to stdout.
func outputJSON(resp Response) {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(resp)
}

// outputSuccess outputs a successful JSON response.
func outputSuccess(data interface{}, meta *Meta) {
	outputJSON(Response{OK: true, Data: data, Meta: meta})
}

// outputSuccessWithWarnings outputs a successful JSON response with warnings.
func outputSuccessWithWarnings(data interface{}, warnings []Warning, meta *Meta) {
	outputJSON(Response{OK: true, Data: data, Warnings: warnings, Meta: meta})
}

// outputError outputs an error JSON response.
func outputError(code, message string, details interface{}, suggestion string) {
	reportedFailure = true
	outputJSON(Response{
		OK: false,
		Error: &ErrorInfo{
			Code:       code,
			Message:    message,
			Details:    details,
			Suggestion: suggestion,
		},
	})
}

// isJSONOutput returns true if JSON output is enabled.
func isJSONOutput() bool {
	return jsonOutput
}

// handleError reports err in the active output mode. In JSON mode the error
// is written as an envelope and nil is returned so Cobra stays quiet.
func handleError(err error) error {
	if err == nil {
		return nil
	}
	info := describeError(err)
	if jsonOutput {
		outputError(info.Code, info.Message, info.Details, info.Suggestion)
		return nil
	}
	if info.Suggestion != "" {
		return fmt.Errorf("%s\n\n%s", info.Message, info.Suggestion)
	}
	return err
}

// handleErrorMsg reports a message with a code in the active output mode.
func handleErrorMsg(code, message, suggestion string) error {
	return handleError(&cliError{Code: code, Message: message, Suggestion: suggestion})
}

// handleErrorWithDetails reports an error with structured details.
func handleErrorWithDetails(code, message, suggestion string, details interface{}) error {
	return handleError(&cliError{Code: code, Message: message, Suggestion: suggestion, Details: details})
}

func outf(format string, args ...interface{}) {
	fmt.Fprintf(stdout, format, args...)
}

func outln(args ...interface{}) {
	fmt.Fprintln(stdout, args...)
}
