package advisor

import "fmt"

// Failure kinds surfaced to API clients and telemetry.
const (
	KindMissingInput      = "missing_input"
	KindMalformedResponse = "malformed_response"
	KindMissingField      = "missing_field"
	KindTransportFailure  = "transport_failure"
)

// excerptLimit bounds how much raw completion text rides along in diagnostics.
const excerptLimit = 500

// MalformedResponseError reports completion text that could not be used: no
// JSON object, invalid JSON, an empty portfolio, or a degenerate allocation
// total. The excerpts carry bounded slices of the offending text so the
// failure can be diagnosed without logging whole completions.
type MalformedResponseError struct {
	Reason    string
	Raw       string
	Extracted string
}

func (e *MalformedResponseError) Error() string {
	msg := e.Reason
	if e.Raw != "" {
		msg += fmt.Sprintf("\nRaw response (first %d chars): %.500s", excerptLimit, e.Raw)
	}
	if e.Extracted != "" {
		msg += fmt.Sprintf("\nExtracted JSON (first %d chars): %.500s", excerptLimit, e.Extracted)
	}
	return msg
}

// MissingFieldError reports a required key absent from an otherwise
// well-formed reply. Index is the offending portfolio entry, or -1 for a
// top-level key.
type MissingFieldError struct {
	Field string
	Index int
}

func (e *MissingFieldError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("response is missing required field %q", e.Field)
	}
	return fmt.Sprintf("portfolio entry %d is missing required field %q", e.Index, e.Field)
}

// TransportError reports a provider call that failed after the retry policy
// ran its course. Timeout marks deadline expiry so the handler can answer
// 504 instead of 502.
type TransportError struct {
	Provider string
	Attempts int
	Timeout  bool
	Err      error
}

func (e *TransportError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s call timed out after %d attempt(s): %v", e.Provider, e.Attempts, e.Err)
	}
	return fmt.Sprintf("%s call failed after %d attempt(s): %v", e.Provider, e.Attempts, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
