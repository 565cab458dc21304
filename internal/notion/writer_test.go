// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package notion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rocknruds/powerflow-agents/pkg/types"
)

// capturedPage is a decoded page-create request for assertions.
type capturedPage struct {
	Parent struct {
		DatabaseID string `json:"database_id"`
	} `json:"parent"`
	Properties map[string]any `json:"properties"`
}

func testResult() *types.ExtractionResult {
	return &types.ExtractionResult{
		Source: types.SourceRecord{
			Title:              "Wagner Group Assumes Security Control in Bamako",
			URL:                "https://example.com/article",
			SourceType:         types.SourceNews,
			Reliability:        types.ReliabilityMedium,
			AuthorOrganization: "AFP",
			PublicationDate:    "2024-03-14",
			Summary:            "Wagner personnel now run checkpoints in the capital.",
		},
		Event: types.EventRecord{
			EventName:   "Wagner Assumes Bamako Security Control",
			Date:        "2024-03-12",
			EventType:   types.EventMilitaryOrCoerciveAction,
			Description: "A non-state force now exercises security authority in the capital.",
			GapImpact:   types.GapWidens,
		},
	}
}

func newTestClient() *Client {
	return NewClient(types.NotionConfig{
		APIKey:            "secret",
		SourcesDatabaseID: "sources-db",
		EventsDatabaseID:  "events-db",
	})
}

// withServer points the package at an httptest server for one test.
func withServer(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	prev := notionAPIURL
	notionAPIURL = server.URL
	t.Cleanup(func() { notionAPIURL = prev })
}

func TestWriteLinkedOrdersSourceBeforeEvent(t *testing.T) {
	var pages []capturedPage
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Notion-Version"); got != notionVersion {
			t.Errorf("Notion-Version = %q, want %q", got, notionVersion)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		var page capturedPage
		if err := json.NewDecoder(r.Body).Decode(&page); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		pages = append(pages, page)
		id := fmt.Sprintf("page-%d", len(pages))
		fmt.Fprintf(w, `{"id": %q, "url": "https://notion.so/%s"}`, id, id)
	})

	client := newTestClient()
	receipt, err := client.WriteLinked(context.Background(), testResult())
	if err != nil {
		t.Fatalf("WriteLinked() error = %v", err)
	}

	if len(pages) != 2 {
		t.Fatalf("got %d page creates, want 2", len(pages))
	}
	if pages[0].Parent.DatabaseID != "sources-db" {
		t.Errorf("first create targeted %q, want the sources database", pages[0].Parent.DatabaseID)
	}
	if pages[1].Parent.DatabaseID != "events-db" {
		t.Errorf("second create targeted %q, want the events database", pages[1].Parent.DatabaseID)
	}

	if receipt.SourceID != "page-1" || receipt.EventID != "page-2" {
		t.Errorf("receipt = %+v", receipt)
	}
	if receipt.SourceURL == "" || receipt.EventURL == "" {
		t.Errorf("receipt missing locator URLs: %+v", receipt)
	}

	// The event's relation must reference the source page just created.
	relation := pages[1].Properties["Key Sources"].(map[string]any)["relation"].([]any)
	if len(relation) != 1 {
		t.Fatalf("Key Sources relation has %d entries, want 1", len(relation))
	}
	if id := relation[0].(map[string]any)["id"]; id != "page-1" {
		t.Errorf("Key Sources references %v, want page-1", id)
	}
}

func TestWriteLinkedSourceFailureStopsRun(t *testing.T) {
	calls := 0
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"message": "Title is not a property"}`)
	})

	client := newTestClient()
	receipt, err := client.WriteLinked(context.Background(), testResult())

	var failed *WriteFailed
	if !errors.As(err, &failed) {
		t.Fatalf("WriteLinked() error = %v, want WriteFailed", err)
	}
	if failed.Stage != StageSource {
		t.Errorf("Stage = %q, want source", failed.Stage)
	}
	if failed.OrphanedSourceID != "" {
		t.Errorf("OrphanedSourceID = %q, want empty on source-stage failure", failed.OrphanedSourceID)
	}
	if calls != 1 {
		t.Errorf("got %d API calls, want 1: event create must not be attempted", calls)
	}
	if receipt != (WriteReceipt{}) {
		t.Errorf("receipt = %+v, want zero value", receipt)
	}
}

func TestWriteLinkedEventFailureReportsOrphan(t *testing.T) {
	calls := 0
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			fmt.Fprint(w, `{"id": "src-1", "url": "https://notion.so/src1"}`)
			return
		}
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"message": "rate limited"}`)
	})

	client := newTestClient()
	receipt, err := client.WriteLinked(context.Background(), testResult())

	var failed *WriteFailed
	if !errors.As(err, &failed) {
		t.Fatalf("WriteLinked() error = %v, want WriteFailed", err)
	}
	if failed.Stage != StageEvent {
		t.Errorf("Stage = %q, want event", failed.Stage)
	}
	if failed.OrphanedSourceID != "src-1" {
		t.Errorf("OrphanedSourceID = %q, want src-1", failed.OrphanedSourceID)
	}
	// The orphaned source stays in place; its identifiers survive in the
	// receipt for manual reconciliation.
	if receipt.SourceID != "src-1" || receipt.SourceURL != "https://notion.so/src1" {
		t.Errorf("receipt = %+v, want source fields preserved", receipt)
	}
	if receipt.EventID != "" || receipt.EventURL != "" {
		t.Errorf("receipt = %+v, want empty event fields", receipt)
	}
	if calls != 2 {
		t.Errorf("got %d API calls, want 2: the store is never retried", calls)
	}
}

func TestWriteLinkedStoreErrorSurfacesStatus(t *testing.T) {
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message": "API token is invalid"}`)
	})

	client := newTestClient()
	_, err := client.WriteLinked(context.Background(), testResult())

	var storeErr *StoreError
	if !errors.As(err, &storeErr) {
		t.Fatalf("WriteLinked() error = %v, want a wrapped StoreError", err)
	}
	if storeErr.Status != http.StatusUnauthorized {
		t.Errorf("Status = %d, want 401", storeErr.Status)
	}
	if !strings.Contains(storeErr.Body, "API token is invalid") {
		t.Errorf("Body = %q, want the response body verbatim", storeErr.Body)
	}
}

func TestSourcePropertiesLayout(t *testing.T) {
	props := sourceProperties(testResult().Source)

	for _, name := range []string{"Title", "URL", "Source Type", "Reliability", "Author / Organization", "Publication Date", "Summary"} {
		if _, ok := props[name]; !ok {
			t.Errorf("source properties missing %q", name)
		}
	}
	if sel := props["Source Type"].(map[string]any)["select"].(map[string]any)["name"]; sel != "News" {
		t.Errorf("Source Type select = %v, want News", sel)
	}

	// URL is omitted when the record has none: Notion rejects empty url values.
	noURL := testResult().Source
	noURL.URL = ""
	if _, ok := sourceProperties(noURL)["URL"]; ok {
		t.Error("URL property present for a record without a URL")
	}
}

func TestRichTextChunking(t *testing.T) {
	tests := []struct {
		name   string
		length int
		chunks int
	}{
		{"empty", 0, 1},
		{"short", 100, 1},
		{"exactly one chunk", maxTextChunk, 1},
		{"one over", maxTextChunk + 1, 2},
		{"three chunks", 2*maxTextChunk + 50, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := strings.Repeat("x", tt.length)
			blocks := richTextProp(text)["rich_text"].([]map[string]any)
			if len(blocks) != tt.chunks {
				t.Fatalf("got %d blocks, want %d", len(blocks), tt.chunks)
			}
			var total int
			for _, b := range blocks {
				content := b["text"].(map[string]any)["content"].(string)
				if len(content) > maxTextChunk {
					t.Errorf("block of %d chars exceeds the per-block limit", len(content))
				}
				total += len(content)
			}
			if total != tt.length {
				t.Errorf("blocks carry %d chars, want %d", total, tt.length)
			}
		})
	}
}
