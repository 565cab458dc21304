// Package extract drives the model call for one input text and applies the
// structural retry policy over the schema validator.
package extract

import (
	"context"
	"fmt"
	"io"

	"github.com/rocknruds/powerflow-agents/internal/validate"
	"github.com/rocknruds/powerflow-agents/pkg/types"
)

// Controller runs the two-attempt extraction state machine: Attempt1 with
// the standard instruction, then on a parse or schema failure a single
// Attempt2 with the strict instruction. There is no backoff and no further
// retry — this is a correctness retry for malformed output, not a
// transient-fault retry.
type Controller struct {
	backend ModelBackend

	// Status receives progress lines. Defaults to io.Discard.
	Status io.Writer
}

// NewController returns a Controller using the given model backend.
func NewController(backend ModelBackend) *Controller {
	return &Controller{backend: backend, Status: io.Discard}
}

// Extract sends cleanText to the model and validates the response into a
// typed record pair. On a ParseError or SchemaError it retries exactly once
// with the strict instruction variant; a second such failure yields
// ExtractionFailed carrying the last raw response. Transport faults
// propagate immediately without consuming the retry. The returned warnings
// record any enum values that were corrected to their field defaults.
func (c *Controller) Extract(ctx context.Context, cleanText string) (*types.ExtractionResult, []types.Warning, error) {
	raw, err := c.backend.Complete(ctx, Instruction(VariantStandard, extractionInstruction), cleanText)
	if err != nil {
		return nil, nil, err
	}

	result, warnings, err := parseAndValidate(raw)
	if err == nil {
		return result, warnings, nil
	}
	if !ShouldRetry(err) {
		return nil, nil, err
	}

	fmt.Fprintf(c.Status, "model returned malformed output (%v); retrying with strict instruction\n", err)

	raw, err2 := c.backend.Complete(ctx, Instruction(VariantStrict, extractionInstruction), cleanText)
	if err2 != nil {
		return nil, nil, err2
	}

	result, warnings, err = parseAndValidate(raw)
	if err != nil {
		return nil, nil, &ExtractionFailed{Attempts: 2, LastRaw: raw, Err: err}
	}
	return result, warnings, nil
}

// parseAndValidate runs one attempt's response through the JSON parser and
// the schema validator. Each attempt's validation is independent; an enum
// correction on the first attempt leaves no trace in the second.
func parseAndValidate(raw string) (*types.ExtractionResult, []types.Warning, error) {
	data, err := ParseObject(raw)
	if err != nil {
		return nil, nil, err
	}
	return validate.Validate(data)
}
