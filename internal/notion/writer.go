// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package notion

import (
	"context"
	"fmt"

	"github.com/rocknruds/powerflow-agents/pkg/types"
)

// WriteStage identifies which of the two ordered store writes failed.
type WriteStage string

const (
	StageSource WriteStage = "source"
	StageEvent  WriteStage = "event"
)

// WriteFailed reports an irrecoverable store error. When the event stage
// fails, the source record has already been persisted and stays in place:
// there is no compensating delete, a deliberate simplicity tradeoff.
// OrphanedSourceID carries its identifier so the caller can reconcile
// manually.
type WriteFailed struct {
	Stage            WriteStage
	OrphanedSourceID string
	Err              error
}

func (e *WriteFailed) Error() string {
	if e.OrphanedSourceID != "" {
		return fmt.Sprintf("writing %s record: %v (source %s was already created)", e.Stage, e.Err, e.OrphanedSourceID)
	}
	return fmt.Sprintf("writing %s record: %v", e.Stage, e.Err)
}

func (e *WriteFailed) Unwrap() error { return e.Err }

// WriteReceipt holds the identifiers and locator URLs of the persisted
// record pair. On an event-stage failure only the source fields are set.
type WriteReceipt struct {
	SourceID  string
	SourceURL string
	EventID   string
	EventURL  string
}

// WriteLinked creates the source record, then the event record referencing
// it via the Key Sources relation. The two steps are strictly ordered and
// not parallelizable: the relation requires an existing target, so no event
// call is issued until the source identifier is known. Re-running on the
// same input creates new records; there is no dedup key.
func (c *Client) WriteLinked(ctx context.Context, result *types.ExtractionResult) (WriteReceipt, error) {
	sourceID, sourceURL, err := c.createPage(ctx, c.cfg.SourcesDatabaseID, sourceProperties(result.Source))
	if err != nil {
		return WriteReceipt{}, &WriteFailed{Stage: StageSource, Err: err}
	}

	eventID, eventURL, err := c.createPage(ctx, c.cfg.EventsDatabaseID, eventProperties(result.Event, sourceID))
	if err != nil {
		return WriteReceipt{SourceID: sourceID, SourceURL: sourceURL},
			&WriteFailed{Stage: StageEvent, OrphanedSourceID: sourceID, Err: err}
	}

	return WriteReceipt{
		SourceID:  sourceID,
		SourceURL: sourceURL,
		EventID:   eventID,
		EventURL:  eventURL,
	}, nil
}

// sourceProperties maps a SourceRecord onto the Sources collection layout.
func sourceProperties(s types.SourceRecord) map[string]any {
	props := map[string]any{
		"Title":                 titleProp(s.Title),
		"Source Type":           selectProp(string(s.SourceType)),
		"Reliability":           selectProp(string(s.Reliability)),
		"Author / Organization": richTextProp(s.AuthorOrganization),
		"Publication Date":      dateProp(s.PublicationDate),
		"Summary":               richTextProp(s.Summary),
	}
	if s.URL != "" {
		props["URL"] = urlProp(s.URL)
	}
	return props
}

// eventProperties maps an EventRecord onto the Events collection layout,
// with Key Sources referencing the just-created source page.
func eventProperties(e types.EventRecord, sourceID string) map[string]any {
	return map[string]any{
		"Event Name":                titleProp(e.EventName),
		"Date":                      dateProp(e.Date),
		"Event Type":                selectProp(string(e.EventType)),
		"Description":               richTextProp(e.Description),
		"Impact on Sovereignty Gap": selectProp(string(e.GapImpact)),
		"Key Sources":               relationProp(sourceID),
	}
}
