// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package validate enforces the allowed-value and shape contract on model
// output before anything is written. It is the boundary where the model's
// loosely-typed JSON becomes fully-typed records: every enum field in its
// output is guaranteed to hold an allowed value.
package validate

import (
	"fmt"
	"strings"
	"time"

	"github.com/rocknruds/powerflow-agents/pkg/types"
)

// SchemaError reports model output that parsed as JSON but does not conform
// to the record contract: a required field is missing or empty, or a date is
// not a valid ISO-8601 calendar date. It is the failure class that triggers
// the extraction controller's single structural retry.
type SchemaError struct {
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema: %s: %s", e.Field, e.Reason)
}

// Allowed values per enum field. An out-of-set value is never an error: it
// is corrected to the field default and recorded as a warning.
var (
	validSourceTypes = map[string]bool{
		string(types.SourceAcademic):      true,
		string(types.SourceGovernment):    true,
		string(types.SourceNews):          true,
		string(types.SourceThinkTank):     true,
		string(types.SourceOSINT):         true,
		string(types.SourceLegalDocument): true,
		string(types.SourceOther):         true,
	}

	validReliabilities = map[string]bool{
		string(types.ReliabilityHigh):   true,
		string(types.ReliabilityMedium): true,
		string(types.ReliabilityLow):    true,
	}

	validEventTypes = map[string]bool{
		string(types.EventLegalChange):                true,
		string(types.EventMilitaryOrCoerciveAction):   true,
		string(types.EventSanctionsOrEconomicMeasure): true,
		string(types.EventInstitutionalReform):        true,
		string(types.EventAllianceOrTreatyShift):      true,
		string(types.EventInformationCyber):           true,
		string(types.EventOther):                      true,
	}

	validGapImpacts = map[string]bool{
		string(types.GapWidens):        true,
		string(types.GapNarrows):       true,
		string(types.GapNoClearEffect): true,
		string(types.GapIndirect):      true,
	}
)

// Validate converts the parsed model output into a fully-typed
// ExtractionResult. Missing or empty required fields (title, event name,
// both dates) and unparseable dates fail with SchemaError. Enum fields
// holding out-of-set values are corrected to the field default — Other
// where the set carries it, Medium for reliability, Indirect for the
// sovereignty-gap impact — with one warning per correction. Validate is a
// pure transformation over its input.
func Validate(raw map[string]any) (*types.ExtractionResult, []types.Warning, error) {
	source := subObject(raw, "source")
	event := subObject(raw, "event")

	title := strings.TrimSpace(stringField(source, "title"))
	if title == "" {
		return nil, nil, &SchemaError{Field: "source.title", Reason: "missing or empty"}
	}

	eventName := strings.TrimSpace(stringField(event, "event_name"))
	if eventName == "" {
		return nil, nil, &SchemaError{Field: "event.event_name", Reason: "missing or empty"}
	}

	pubDate, err := dateField(source, "publication_date", "source.publication_date")
	if err != nil {
		return nil, nil, err
	}
	eventDate, err := dateField(event, "date", "event.date")
	if err != nil {
		return nil, nil, err
	}

	var warnings []types.Warning

	result := &types.ExtractionResult{
		Source: types.SourceRecord{
			Title: title,
			URL:   strings.TrimSpace(stringField(source, "url")),
			SourceType: types.SourceType(coerce(
				stringField(source, "source_type"), "source_type",
				string(types.SourceOther), validSourceTypes, &warnings)),
			Reliability: types.Reliability(coerce(
				stringField(source, "reliability"), "reliability",
				string(types.ReliabilityMedium), validReliabilities, &warnings)),
			AuthorOrganization: strings.TrimSpace(stringField(source, "author_organization")),
			PublicationDate:    pubDate,
			Summary:            strings.TrimSpace(stringField(source, "summary")),
		},
		Event: types.EventRecord{
			EventName: eventName,
			Date:      eventDate,
			EventType: types.EventType(coerce(
				stringField(event, "event_type"), "event_type",
				string(types.EventOther), validEventTypes, &warnings)),
			Description: strings.TrimSpace(stringField(event, "description")),
			GapImpact: types.GapImpact(coerce(
				stringField(event, "sovereignty_gap_impact"), "sovereignty_gap_impact",
				string(types.GapIndirect), validGapImpacts, &warnings)),
		},
	}

	return result, warnings, nil
}

// coerce returns value if it is in the allowed set, otherwise appends a
// warning and returns the field default.
func coerce(value, field, def string, valid map[string]bool, warnings *[]types.Warning) string {
	v := strings.TrimSpace(value)
	if valid[v] {
		return v
	}
	*warnings = append(*warnings, types.Warning{Field: field, Rejected: value, Corrected: def})
	return def
}

// subObject returns the named child as a map, or an empty map when absent
// or of the wrong shape. Required-field checks then fail on the empty map.
func subObject(raw map[string]any, key string) map[string]any {
	if m, ok := raw[key].(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// stringField returns the named value when it is a string, else "".
func stringField(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

// dateField reads a required ISO-8601 calendar date (YYYY-MM-DD).
func dateField(m map[string]any, key, label string) (string, error) {
	raw := strings.TrimSpace(stringField(m, key))
	if raw == "" {
		return "", &SchemaError{Field: label, Reason: "missing or empty"}
	}
	if _, err := time.Parse("2006-01-02", raw); err != nil {
		return "", &SchemaError{Field: label, Reason: fmt.Sprintf("not an ISO-8601 date: %q", raw)}
	}
	return raw, nil
}
