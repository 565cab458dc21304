// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package notion persists source and event records through the Notion API.
// It owns the exact persisted layout: the Sources and Events collection
// property names and the enum value spellings round-trip unchanged from the
// validated records.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rocknruds/powerflow-agents/pkg/types"
)

// notionAPIURL is the Notion page-create endpoint. Package-level var for
// test substitution.
var notionAPIURL = "https://api.notion.com/v1/pages"

// notionVersion is the required Notion-Version header.
const notionVersion = "2022-06-28"

const defaultTimeout = 30 * time.Second

// StoreError reports a failed Notion API call. It is fatal to the run and
// never retried; rate-limit faults surface verbatim.
type StoreError struct {
	Status int
	Body   string
	Err    error
}

func (e *StoreError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("Notion API returned %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("calling Notion API: %v", e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Client writes records to the Notion workspace store.
type Client struct {
	cfg        types.NotionConfig
	httpClient *http.Client
}

// NewClient returns a Client using the given Notion settings.
func NewClient(cfg types.NotionConfig) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// pageResponse is the subset of the page-create response the writer needs.
type pageResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// createPage creates one page in the given database and returns its
// identifier and human-navigable locator URL.
func (c *Client) createPage(ctx context.Context, databaseID string, properties map[string]any) (id, pageURL string, err error) {
	body := map[string]any{
		"parent":     map[string]any{"database_id": databaseID},
		"properties": properties,
	}

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return "", "", fmt.Errorf("marshaling page request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, notionAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Notion-Version", notionVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "", &StoreError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", "", &StoreError{Status: resp.StatusCode, Body: string(respBody)}
	}

	var page pageResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return "", "", &StoreError{Err: fmt.Errorf("decoding page response: %w", err)}
	}

	if page.URL == "" {
		page.URL = "https://notion.so/" + strings.ReplaceAll(page.ID, "-", "")
	}
	return page.ID, page.URL, nil
}
