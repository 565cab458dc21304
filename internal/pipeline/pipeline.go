// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline composes fetch, extraction, confirmation, and the linked
// write into the end-to-end ingest run. One run is a single logical thread:
// fully ordered, no fan-out, one input text producing exactly one source
// record and one event record.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rocknruds/powerflow-agents/internal/notion"
	"github.com/rocknruds/powerflow-agents/pkg/types"
)

// State names the externally observable stages of an ingest run.
type State string

const (
	StateInput     State = "Input"
	StateFetched   State = "Fetched"
	StateExtracted State = "Extracted"
	StateConfirmed State = "Confirmed"
	StateWritten   State = "Written"
	StateReported  State = "Reported"

	// StateAborted is reachable from Fetched, Extracted, or Confirmed on
	// user decline or upstream failure.
	StateAborted State = "Aborted"
)

// Fetcher obtains clean article text from a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Extractor turns clean text into a validated record pair.
type Extractor interface {
	Extract(ctx context.Context, cleanText string) (*types.ExtractionResult, []types.Warning, error)
}

// Writer persists the record pair in dependency order.
type Writer interface {
	WriteLinked(ctx context.Context, result *types.ExtractionResult) (notion.WriteReceipt, error)
}

// Confirmer presents the extracted records and their warnings and asks the
// caller for explicit affirmative confirmation. Returning false aborts the
// run with nothing written.
type Confirmer interface {
	Confirm(result *types.ExtractionResult, warnings []types.Warning) (bool, error)
}

// Input identifies what to ingest: a URL to fetch, or raw pasted text.
type Input struct {
	URL  string
	Text string
}

// Outcome reports a run's terminal state and whatever identifiers exist
// when it ended, so partial writes are never silently lost.
type Outcome struct {
	State    State
	Result   *types.ExtractionResult
	Warnings []types.Warning
	Receipt  notion.WriteReceipt
}

// Pipeline wires the collaborators for one ingest run. All fields except
// Status are required.
type Pipeline struct {
	Fetcher   Fetcher
	Extractor Extractor
	Writer    Writer
	Confirmer Confirmer

	// Status receives progress lines. Defaults to io.Discard.
	Status io.Writer
}

// Run drives one ingest to completion:
// Input -> Fetched -> Extracted -> Confirmed -> Written -> Reported.
// A decline at confirmation ends the run in Aborted with a nil error and no
// store call issued; any failure ends it in Aborted with the error and the
// Outcome still carrying identifiers already created.
func (p *Pipeline) Run(ctx context.Context, in Input) (Outcome, error) {
	out := Outcome{State: StateInput}

	text := in.Text
	if in.URL != "" {
		fmt.Fprintf(p.status(), "fetching %s\n", in.URL)
		fetched, err := p.Fetcher.Fetch(ctx, in.URL)
		if err != nil {
			out.State = StateAborted
			return out, err
		}
		text = fetched
		fmt.Fprintf(p.status(), "fetched %d chars of article text\n", len(text))
	}
	if strings.TrimSpace(text) == "" {
		out.State = StateAborted
		return out, fmt.Errorf("no text to process")
	}
	out.State = StateFetched

	result, warnings, err := p.Extractor.Extract(ctx, text)
	if err != nil {
		out.State = StateAborted
		return out, err
	}
	if in.URL != "" && result.Source.URL == "" {
		result.Source.URL = in.URL
	}
	out.Result = result
	out.Warnings = warnings
	out.State = StateExtracted

	ok, err := p.Confirmer.Confirm(result, warnings)
	if err != nil {
		out.State = StateAborted
		return out, err
	}
	if !ok {
		out.State = StateAborted
		fmt.Fprintln(p.status(), "aborted; nothing was written")
		return out, nil
	}
	out.State = StateConfirmed

	receipt, err := p.Writer.WriteLinked(ctx, result)
	out.Receipt = receipt
	if err != nil {
		out.State = StateAborted
		return out, err
	}
	out.State = StateWritten

	fmt.Fprintf(p.status(), "source created: %s\n", receipt.SourceURL)
	fmt.Fprintf(p.status(), "event created:  %s\n", receipt.EventURL)
	out.State = StateReported
	return out, nil
}

func (p *Pipeline) status() io.Writer {
	if p.Status == nil {
		return io.Discard
	}
	return p.Status
}
