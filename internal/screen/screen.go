// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package screen assesses a document's relevance to the intelligence
// mission before ingestion. It is stateless and writes nothing to the
// store: the output is a scored verdict for the analyst to act on.
package screen

import (
	"context"
	"fmt"
	"io"

	"github.com/rocknruds/powerflow-agents/internal/extract"
	"github.com/rocknruds/powerflow-agents/internal/validate"
	"github.com/rocknruds/powerflow-agents/pkg/types"
)

// Verdict grades a document's relevance.
type Verdict string

const (
	StrongMatch   Verdict = "StrongMatch"
	ModerateMatch Verdict = "ModerateMatch"
	WeakMatch     Verdict = "WeakMatch"
	NotRelevant   Verdict = "NotRelevant"
)

var validVerdicts = map[string]bool{
	string(StrongMatch):   true,
	string(ModerateMatch): true,
	string(WeakMatch):     true,
	string(NotRelevant):   true,
}

// Result is a structured relevance assessment of one document.
type Result struct {
	// Score is the relevance score, 0-100.
	Score int `json:"score" yaml:"score"`

	// Verdict is the graded relevance band.
	Verdict Verdict `json:"verdict" yaml:"verdict"`

	// Reasoning explains the score in 2-3 sentences.
	Reasoning string `json:"reasoning" yaml:"reasoning"`

	// KeySignals lists specific relevant content found in the document.
	KeySignals []string `json:"key_signals" yaml:"key_signals"`
}

// screenInstruction is the system prompt for the screening task.
const screenInstruction = `You are a senior analyst for PowerFlow, a geopolitical intelligence system that tracks the gap between declared sovereignty and exercised authority.

Screen the provided document for relevance to the PowerFlow intelligence mission. Evaluate whether it contains actionable intelligence: new geopolitical events, actor movements, sovereignty gap signals, conflict updates, structural authority shifts, or regional developments of geopolitical significance.

Respond ONLY with a valid JSON object using this exact structure:
{
  "score": <integer 0-100>,
  "verdict": "StrongMatch | ModerateMatch | WeakMatch | NotRelevant",
  "reasoning": "<2-3 sentence explanation of the score>",
  "key_signals": [<list of 3-5 short strings describing specific relevant content found>]
}

Score below 30 if the document is primarily about sport, entertainment, consumer business, or other topics with no structural power dimension.`

// Screener drives the screening model call with the same single structural
// retry as the extraction controller.
type Screener struct {
	backend extract.ModelBackend

	// Status receives progress lines. Defaults to io.Discard.
	Status io.Writer
}

// NewScreener returns a Screener using the given model backend.
func NewScreener(backend extract.ModelBackend) *Screener {
	return &Screener{backend: backend, Status: io.Discard}
}

// Screen sends the document text to the model and validates the assessment.
// A parse or schema failure is retried once with the strict instruction;
// transport faults propagate immediately.
func (s *Screener) Screen(ctx context.Context, text string) (*Result, []types.Warning, error) {
	raw, err := s.backend.Complete(ctx, extract.Instruction(extract.VariantStandard, screenInstruction), text)
	if err != nil {
		return nil, nil, err
	}

	result, warnings, err := parseAssessment(raw)
	if err == nil {
		return result, warnings, nil
	}
	if !extract.ShouldRetry(err) {
		return nil, nil, err
	}

	fmt.Fprintf(s.Status, "model returned malformed assessment (%v); retrying with strict instruction\n", err)

	raw, err2 := s.backend.Complete(ctx, extract.Instruction(extract.VariantStrict, screenInstruction), text)
	if err2 != nil {
		return nil, nil, err2
	}

	result, warnings, err = parseAssessment(raw)
	if err != nil {
		return nil, nil, &extract.ExtractionFailed{Attempts: 2, LastRaw: raw, Err: err}
	}
	return result, warnings, nil
}

// parseAssessment converts one attempt's raw response into a typed Result.
// An out-of-set verdict is corrected to NotRelevant with a warning; a
// missing or out-of-range score is a schema failure.
func parseAssessment(raw string) (*Result, []types.Warning, error) {
	data, err := extract.ParseObject(raw)
	if err != nil {
		return nil, nil, err
	}

	score, ok := data["score"].(float64)
	if !ok {
		return nil, nil, &validate.SchemaError{Field: "score", Reason: "missing or not a number"}
	}
	if score < 0 || score > 100 {
		return nil, nil, &validate.SchemaError{Field: "score", Reason: fmt.Sprintf("out of range: %v", score)}
	}

	var warnings []types.Warning
	verdict, _ := data["verdict"].(string)
	if !validVerdicts[verdict] {
		warnings = append(warnings, types.Warning{
			Field:     "verdict",
			Rejected:  verdict,
			Corrected: string(NotRelevant),
		})
		verdict = string(NotRelevant)
	}

	reasoning, _ := data["reasoning"].(string)

	var signals []string
	if rawSignals, ok := data["key_signals"].([]any); ok {
		for _, s := range rawSignals {
			if str, ok := s.(string); ok && str != "" {
				signals = append(signals, str)
			}
		}
	}

	return &Result{
		Score:      int(score),
		Verdict:    Verdict(verdict),
		Reasoning:  reasoning,
		KeySignals: signals,
	}, warnings, nil
}
