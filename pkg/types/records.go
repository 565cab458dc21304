// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// SourceType classifies the organization that published an ingested document.
type SourceType string

const (
	SourceAcademic      SourceType = "Academic"
	SourceGovernment    SourceType = "Government"
	SourceNews          SourceType = "News"
	SourceThinkTank     SourceType = "ThinkTank"
	SourceOSINT         SourceType = "OSINT"
	SourceLegalDocument SourceType = "LegalDocument"
	SourceOther         SourceType = "Other"
)

// Reliability grades how much weight a source's reporting carries.
// High = established outlet or primary source, Medium = secondary
// reporting, Low = unverified or opinion.
type Reliability string

const (
	ReliabilityHigh   Reliability = "High"
	ReliabilityMedium Reliability = "Medium"
	ReliabilityLow    Reliability = "Low"
)

// EventType categorizes a geopolitical structural-change event.
type EventType string

const (
	EventLegalChange                EventType = "LegalChange"
	EventMilitaryOrCoerciveAction   EventType = "MilitaryOrCoerciveAction"
	EventSanctionsOrEconomicMeasure EventType = "SanctionsOrEconomicMeasure"
	EventInstitutionalReform        EventType = "InstitutionalReform"
	EventAllianceOrTreatyShift      EventType = "AllianceOrTreatyShift"
	EventInformationCyber           EventType = "InformationCyber"
	EventOther                      EventType = "Other"
)

// GapImpact describes how an event moves the sovereignty gap — the distance
// between an actor's claimed authority and the authority it actually
// exercises. Widens = the actor loses effective control, Narrows = the actor
// consolidates control, Indirect = real but mediated through other actors.
type GapImpact string

const (
	GapWidens        GapImpact = "Widens"
	GapNarrows       GapImpact = "Narrows"
	GapNoClearEffect GapImpact = "NoClearEffect"
	GapIndirect      GapImpact = "Indirect"
)

// SourceRecord is bibliographic metadata about one ingested document.
type SourceRecord struct {
	// Title is the document's title. Required, non-empty.
	Title string `json:"title" yaml:"title"`

	// URL is the document's location, when the text was fetched from one.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// SourceType classifies the publishing organization.
	SourceType SourceType `json:"source_type" yaml:"source_type"`

	// Reliability grades the source.
	Reliability Reliability `json:"reliability" yaml:"reliability"`

	// AuthorOrganization names the author or publishing organization.
	AuthorOrganization string `json:"author_organization" yaml:"author_organization"`

	// PublicationDate is an ISO-8601 calendar date (may be inferred by the
	// model from the article when not stated outright).
	PublicationDate string `json:"publication_date" yaml:"publication_date"`

	// Summary is a short prose summary, 2-3 sentences by convention.
	Summary string `json:"summary" yaml:"summary"`
}

// EventRecord is one extracted geopolitical structural-change event.
type EventRecord struct {
	// EventName is a concise, descriptive name. Required, non-empty.
	EventName string `json:"event_name" yaml:"event_name"`

	// Date is the event's ISO-8601 calendar date.
	Date string `json:"date" yaml:"date"`

	// EventType categorizes the event.
	EventType EventType `json:"event_type" yaml:"event_type"`

	// Description focuses on structural power implications, not just what
	// happened.
	Description string `json:"description" yaml:"description"`

	// GapImpact is the event's impact on the sovereignty gap.
	GapImpact GapImpact `json:"sovereignty_gap_impact" yaml:"sovereignty_gap_impact"`
}

// ExtractionResult pairs the source and event records extracted from a
// single input text. It lives only in memory between the model response and
// the store write; the event's Key Sources relation is populated at write
// time from the source record's freshly created identifier.
type ExtractionResult struct {
	Source SourceRecord `json:"source" yaml:"source"`
	Event  EventRecord  `json:"event" yaml:"event"`
}

// Warning records an enum value the model produced that is not in the
// field's allowed set. The value is corrected to the field default and the
// run proceeds; warnings are reported to the caller before confirmation.
type Warning struct {
	// Field is the model-output key whose value was rejected (e.g. "source_type").
	Field string `json:"field" yaml:"field"`

	// Rejected is the out-of-set value the model produced.
	Rejected string `json:"rejected" yaml:"rejected"`

	// Corrected is the in-set value substituted for it.
	Corrected string `json:"corrected" yaml:"corrected"`
}
