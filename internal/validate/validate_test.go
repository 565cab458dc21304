// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package validate

import (
	"errors"
	"testing"

	"github.com/rocknruds/powerflow-agents/pkg/types"
)

// goodInput returns a fully conformant model output map. Tests mutate it.
func goodInput() map[string]any {
	return map[string]any{
		"source": map[string]any{
			"title":               "Russia Suspends New START Participation",
			"author_organization": "Reuters",
			"publication_date":    "2023-02-21",
			"source_type":         "News",
			"reliability":         "High",
			"summary":             "Russia announced suspension of the treaty. Inspections halt.",
		},
		"event": map[string]any{
			"event_name":             "Russia Suspends New START Treaty Participation",
			"date":                   "2023-02-21",
			"event_type":             "AllianceOrTreatyShift",
			"description":            "Moscow halts its participation in the last bilateral arms-control treaty.",
			"sovereignty_gap_impact": "Widens",
		},
	}
}

func TestValidateConformantInput(t *testing.T) {
	result, warnings, err := Validate(goodInput())
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("got %d warnings, want 0: %v", len(warnings), warnings)
	}
	if result.Source.SourceType != types.SourceNews {
		t.Errorf("SourceType = %q, want %q", result.Source.SourceType, types.SourceNews)
	}
	if result.Source.Reliability != types.ReliabilityHigh {
		t.Errorf("Reliability = %q, want %q", result.Source.Reliability, types.ReliabilityHigh)
	}
	if result.Event.EventType != types.EventAllianceOrTreatyShift {
		t.Errorf("EventType = %q, want %q", result.Event.EventType, types.EventAllianceOrTreatyShift)
	}
	if result.Event.GapImpact != types.GapWidens {
		t.Errorf("GapImpact = %q, want %q", result.Event.GapImpact, types.GapWidens)
	}
}

func TestValidateRequiredFields(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(m map[string]any)
		wantField string
	}{
		{
			name:      "missing title",
			mutate:    func(m map[string]any) { delete(m["source"].(map[string]any), "title") },
			wantField: "source.title",
		},
		{
			name:      "empty title",
			mutate:    func(m map[string]any) { m["source"].(map[string]any)["title"] = "   " },
			wantField: "source.title",
		},
		{
			name:      "missing event name",
			mutate:    func(m map[string]any) { delete(m["event"].(map[string]any), "event_name") },
			wantField: "event.event_name",
		},
		{
			name:      "missing publication date",
			mutate:    func(m map[string]any) { delete(m["source"].(map[string]any), "publication_date") },
			wantField: "source.publication_date",
		},
		{
			name:      "missing event date",
			mutate:    func(m map[string]any) { delete(m["event"].(map[string]any), "date") },
			wantField: "event.date",
		},
		{
			name:      "unparseable publication date",
			mutate:    func(m map[string]any) { m["source"].(map[string]any)["publication_date"] = "February 21, 2023" },
			wantField: "source.publication_date",
		},
		{
			name:      "unparseable event date",
			mutate:    func(m map[string]any) { m["event"].(map[string]any)["date"] = "2023-13-45" },
			wantField: "event.date",
		},
		{
			name:      "title of wrong type",
			mutate:    func(m map[string]any) { m["source"].(map[string]any)["title"] = 42.0 },
			wantField: "source.title",
		},
		{
			name:      "source object missing entirely",
			mutate:    func(m map[string]any) { delete(m, "source") },
			wantField: "source.title",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := goodInput()
			tt.mutate(input)

			_, _, err := Validate(input)
			var schemaErr *SchemaError
			if !errors.As(err, &schemaErr) {
				t.Fatalf("Validate() error = %v, want SchemaError", err)
			}
			if schemaErr.Field != tt.wantField {
				t.Errorf("SchemaError.Field = %q, want %q", schemaErr.Field, tt.wantField)
			}
		})
	}
}

func TestValidateEnumCorrection(t *testing.T) {
	tests := []struct {
		name          string
		object        string
		key           string
		value         string
		wantCorrected string
	}{
		{"unknown source type", "source", "source_type", "Blog", "Other"},
		{"unknown reliability", "source", "reliability", "Very High", "Medium"},
		{"unknown event type", "event", "event_type", "Protest", "Other"},
		{"unknown gap impact", "event", "sovereignty_gap_impact", "Unknown", "Indirect"},
		{"empty enum value", "source", "source_type", "", "Other"},
		{"spaced original spelling", "source", "source_type", "Think tank", "Other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := goodInput()
			input[tt.object].(map[string]any)[tt.key] = tt.value

			result, warnings, err := Validate(input)
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if len(warnings) != 1 {
				t.Fatalf("got %d warnings, want 1: %v", len(warnings), warnings)
			}
			w := warnings[0]
			if w.Field != tt.key {
				t.Errorf("Warning.Field = %q, want %q", w.Field, tt.key)
			}
			if w.Rejected != tt.value {
				t.Errorf("Warning.Rejected = %q, want %q", w.Rejected, tt.value)
			}
			if w.Corrected != tt.wantCorrected {
				t.Errorf("Warning.Corrected = %q, want %q", w.Corrected, tt.wantCorrected)
			}

			// The corrected value must be in the declared set.
			assertEnumsValid(t, result)
		})
	}
}

func TestValidateNoRawEnumSurvives(t *testing.T) {
	// Every enum field out-of-set at once: the result must still hold only
	// declared values, with one warning per field.
	input := goodInput()
	input["source"].(map[string]any)["source_type"] = "Substack"
	input["source"].(map[string]any)["reliability"] = "Dubious"
	input["event"].(map[string]any)["event_type"] = "Rumor"
	input["event"].(map[string]any)["sovereignty_gap_impact"] = "Massive"

	result, warnings, err := Validate(input)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if len(warnings) != 4 {
		t.Errorf("got %d warnings, want 4: %v", len(warnings), warnings)
	}
	assertEnumsValid(t, result)
}

func assertEnumsValid(t *testing.T, result *types.ExtractionResult) {
	t.Helper()
	if !validSourceTypes[string(result.Source.SourceType)] {
		t.Errorf("SourceType %q not in declared set", result.Source.SourceType)
	}
	if !validReliabilities[string(result.Source.Reliability)] {
		t.Errorf("Reliability %q not in declared set", result.Source.Reliability)
	}
	if !validEventTypes[string(result.Event.EventType)] {
		t.Errorf("EventType %q not in declared set", result.Event.EventType)
	}
	if !validGapImpacts[string(result.Event.GapImpact)] {
		t.Errorf("GapImpact %q not in declared set", result.Event.GapImpact)
	}
}
