// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"errors"
	"fmt"

	"github.com/rocknruds/powerflow-agents/internal/validate"
)

// ParseError reports a model response that is not well-formed JSON. Together
// with validate.SchemaError it forms the malformed-output failure class that
// the controller retries exactly once with the strict instruction.
type ParseError struct {
	Reason string
	Raw    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing model response: %s", e.Reason)
}

// TransportError reports a model API fault: network failure, auth rejection,
// or rate limiting. It is a different failure class from malformed output
// and propagates immediately without consuming the structural retry.
type TransportError struct {
	Status int
	Body   string
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("model API returned %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("calling model API: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ExtractionFailed reports that both attempts produced malformed or
// non-conforming output. LastRaw preserves the second attempt's raw response
// for diagnostics; the discarded first attempt is not retained.
type ExtractionFailed struct {
	Attempts int
	LastRaw  string
	Err      error
}

func (e *ExtractionFailed) Error() string {
	return fmt.Sprintf("model returned malformed output on %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExtractionFailed) Unwrap() error { return e.Err }

// ShouldRetry reports whether err is a malformed-output failure that the
// strict instruction variant can plausibly address. Transport faults and
// everything else return false.
func ShouldRetry(err error) bool {
	var pe *ParseError
	var se *validate.SchemaError
	return errors.As(err, &pe) || errors.As(err, &se)
}
