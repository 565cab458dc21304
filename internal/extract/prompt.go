// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rocknruds/powerflow-agents/pkg/types"
)

// InstructionVariant selects which of the two fixed extraction instructions
// is sent to the model. The variants form a closed set so the retry contract
// stays auditable: Standard on the first attempt, Strict on the single
// structural retry.
type InstructionVariant int

const (
	// VariantStandard is the normal extraction instruction.
	VariantStandard InstructionVariant = iota

	// VariantStrict carries the same semantic contract but emphasizes
	// strict-JSON-only output, to reduce the chance of a repeated parse or
	// schema failure.
	VariantStrict
)

func (v InstructionVariant) String() string {
	if v == VariantStrict {
		return "strict"
	}
	return "standard"
}

// extractionInstruction is the system prompt for the extraction task. The
// JSON schema it dictates is what validate.Validate expects back.
const extractionInstruction = `You are a geopolitical intelligence analyst working within the PowerFlow system. PowerFlow tracks the sovereignty gap: the distance between the authority actors formally claim and the authority they actually exercise. Your job is to extract structured intelligence that helps track how that gap moves.

Extract structured intelligence from the provided article or text. Return ONLY a valid JSON object with no additional text, commentary, or markdown.

Extraction rules:
- Be precise and analytical, not journalistic
- Event names should be concise and descriptive (e.g. "Russia Suspends New START Treaty Participation" not "Russia and US nuclear treaty")
- Descriptions should focus on structural power implications, not just what happened
- sovereignty_gap_impact: "Widens" = an actor loses effective control or influence, "Narrows" = an actor consolidates control or gains influence, "Indirect" = the impact is real but mediated through other actors
- If the event date is unclear, use the article publication date
- reliability: "High" = established outlet or primary source, "Medium" = secondary reporting, "Low" = unverified or opinion
- source_type: classify based on the publishing organization
- Enum values must be spelled exactly as listed below

Return this exact JSON structure:
{
  "source": {
    "title": "string",
    "author_organization": "string",
    "publication_date": "YYYY-MM-DD",
    "source_type": "Academic | Government | News | ThinkTank | OSINT | LegalDocument | Other",
    "reliability": "High | Medium | Low",
    "summary": "string (2-3 sentences)"
  },
  "event": {
    "event_name": "string",
    "date": "YYYY-MM-DD",
    "event_type": "LegalChange | MilitaryOrCoerciveAction | SanctionsOrEconomicMeasure | InstitutionalReform | AllianceOrTreatyShift | InformationCyber | Other",
    "description": "string (3-5 sentences, analytically focused on power implications)",
    "sovereignty_gap_impact": "Widens | Narrows | NoClearEffect | Indirect"
  }
}`

// strictSuffix is appended to an instruction for the Strict variant.
const strictSuffix = "\n\nCRITICAL: Return ONLY the JSON object. No markdown fences, no commentary, no explanation. The response must start with { and end with }."

// Instruction returns the base instruction, hardened for the Strict variant.
func Instruction(v InstructionVariant, base string) string {
	if v == VariantStrict {
		return base + strictSuffix
	}
	return base
}

// ModelBackend abstracts the LLM API so tests can supply a mock. The
// instruction is the system prompt for the call; text is the article body.
// Implementations return the model's raw text response and report transport
// faults as TransportError.
type ModelBackend interface {
	Complete(ctx context.Context, instruction, text string) (string, error)
}

// claudeAPIURL is the Anthropic Messages API endpoint. Package-level var for
// test substitution.
var claudeAPIURL = "https://api.anthropic.com/v1/messages"

// anthropicVersion is the required Anthropic API version header.
const anthropicVersion = "2023-06-01"

const defaultMaxTokens = 1024

// ClaudeBackend calls the Anthropic Messages API.
type ClaudeBackend struct {
	Config types.ModelConfig
	Client *http.Client
}

// claudeRequest is the request body for the Messages API.
type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	System    string          `json:"system,omitempty"`
	Messages  []claudeMessage `json:"messages"`
}

// claudeMessage is a single message in the conversation.
type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// claudeResponse is the response body from the Messages API.
type claudeResponse struct {
	Content []claudeContent `json:"content"`
}

// claudeContent is a content block in the response.
type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Complete sends one blocking Messages API call and returns the model's raw
// text response. Any transport-level failure, non-200 status, or empty
// response surfaces as TransportError.
func (c *ClaudeBackend) Complete(ctx context.Context, instruction, text string) (string, error) {
	maxTokens := c.Config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	reqBody := claudeRequest{
		Model:     c.Config.Model,
		MaxTokens: maxTokens,
		System:    instruction,
		Messages: []claudeMessage{
			{Role: "user", Content: text},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, claudeAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.Config.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &TransportError{Status: resp.StatusCode, Body: string(body)}
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return "", &TransportError{Err: fmt.Errorf("decoding response: %w", err)}
	}

	for _, block := range cResp.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}

	return "", &TransportError{Err: fmt.Errorf("no text content in model response")}
}
