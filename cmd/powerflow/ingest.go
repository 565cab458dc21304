// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/rocknruds/powerflow-agents/internal/extract"
	"github.com/rocknruds/powerflow-agents/internal/ledger"
	"github.com/rocknruds/powerflow-agents/internal/notion"
	"github.com/rocknruds/powerflow-agents/internal/pipeline"
	"github.com/rocknruds/powerflow-agents/internal/scrape"
	"github.com/rocknruds/powerflow-agents/internal/secrets"
	"github.com/rocknruds/powerflow-agents/pkg/types"
)

const (
	defaultModel        = "claude-haiku-4-5-20251001"
	defaultModelTimeout = 120 * time.Second
	defaultLedgerDir    = "data"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Extract a geopolitical event from an article and write it to Notion",
	Long: `Ingest runs the full pipeline on one article: fetch clean text from a URL
(or take pasted text), extract a source and event record pair with Claude,
validate it, and — after confirmation — create the two linked records in
the Notion Sources and Events databases.

With neither --url nor --text, the article text is read from stdin.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().String("url", "", "URL of the article to ingest")
	ingestCmd.Flags().String("text", "", "raw article text to ingest")
	ingestCmd.Flags().String("model", "", "model identifier for extraction")
	ingestCmd.Flags().Int("max-tokens", 0, "model response token cap (default 1024)")
	ingestCmd.Flags().String("sources-db", "", "Notion Sources database ID")
	ingestCmd.Flags().String("events-db", "", "Notion Events database ID")
	ingestCmd.Flags().Duration("timeout", 0, "article fetch timeout (default 15s)")
	ingestCmd.Flags().Bool("yes", false, "write without interactive confirmation")
	ingestCmd.Flags().String("save", "", "write the validated extraction to a YAML file before confirmation")
	ingestCmd.Flags().String("ledger-dir", defaultLedgerDir, "directory for the local run ledger")
	ingestCmd.MarkFlagsMutuallyExclusive("url", "text")

	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	url, _ := cmd.Flags().GetString("url")
	text, _ := cmd.Flags().GetString("text")

	if url == "" && text == "" {
		fmt.Fprintln(os.Stderr, "Reading article text from stdin (end with EOF)...")
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		text = string(data)
	}

	anthropicKey := secrets.Resolve(loadedSecrets, secrets.KeyAnthropic, viper.GetString("anthropic_api_key"))
	if anthropicKey == "" {
		return fmt.Errorf("no Anthropic API key: set .secrets/%s, POWERFLOW_ANTHROPIC_API_KEY, or anthropic_api_key in the config file", secrets.KeyAnthropic)
	}
	notionKey := secrets.Resolve(loadedSecrets, secrets.KeyNotion, viper.GetString("notion_api_key"))
	if notionKey == "" {
		return fmt.Errorf("no Notion API key: set .secrets/%s, POWERFLOW_NOTION_API_KEY, or notion_api_key in the config file", secrets.KeyNotion)
	}

	notionCfg := types.NotionConfig{
		APIKey:            notionKey,
		SourcesDatabaseID: stringSetting(cmd, "sources-db", "sources_database_id"),
		EventsDatabaseID:  stringSetting(cmd, "events-db", "events_database_id"),
	}
	if notionCfg.SourcesDatabaseID == "" || notionCfg.EventsDatabaseID == "" {
		return fmt.Errorf("both Sources and Events database IDs are required (--sources-db/--events-db or config file)")
	}

	controller := extract.NewController(&extract.ClaudeBackend{
		Config: modelConfig(cmd, anthropicKey),
		Client: &http.Client{Timeout: defaultModelTimeout},
	})
	controller.Status = os.Stderr

	timeout, _ := cmd.Flags().GetDuration("timeout")
	fetcher := scrape.NewFetcher(types.ScrapeConfig{
		HTTPConfig: types.HTTPConfig{Timeout: timeout},
	})

	assumeYes, _ := cmd.Flags().GetBool("yes")
	savePath, _ := cmd.Flags().GetString("save")

	p := &pipeline.Pipeline{
		Fetcher:   fetcher,
		Extractor: controller,
		Writer:    notion.NewClient(notionCfg),
		Confirmer: &stdinConfirmer{
			in:        os.Stdin,
			out:       os.Stderr,
			assumeYes: assumeYes,
			savePath:  savePath,
		},
		Status: os.Stderr,
	}

	outcome, err := p.Run(context.Background(), pipeline.Input{URL: url, Text: text})
	if err != nil {
		reportFailure(os.Stderr, err)
		return err
	}
	if outcome.State != pipeline.StateReported {
		return nil
	}

	recordRun(cmd, outcome, url)

	fmt.Printf("Source: %s\n", outcome.Receipt.SourceURL)
	fmt.Printf("Event:  %s\n", outcome.Receipt.EventURL)
	return nil
}

// modelConfig assembles the model settings from flags with config-file fallbacks.
func modelConfig(cmd *cobra.Command, apiKey string) types.ModelConfig {
	model := stringSetting(cmd, "model", "model")
	if model == "" {
		model = defaultModel
	}
	maxTokens, _ := cmd.Flags().GetInt("max-tokens")
	if maxTokens == 0 {
		maxTokens = viper.GetInt("max_tokens")
	}
	return types.ModelConfig{Model: model, APIKey: apiKey, MaxTokens: maxTokens}
}

// stringSetting reads a flag, falling back to the viper key when unset.
func stringSetting(cmd *cobra.Command, flag, viperKey string) string {
	if v, _ := cmd.Flags().GetString(flag); v != "" {
		return v
	}
	return viper.GetString(viperKey)
}

// reportFailure prints actionable diagnostics for the known failure classes.
func reportFailure(w io.Writer, err error) {
	var fetchErr *scrape.FetchError
	if errors.As(err, &fetchErr) {
		fmt.Fprintln(w, "Tip: paywalled or JS-rendered pages cannot be scraped. Use --text to paste the article content instead.")
		return
	}

	var extractionErr *extract.ExtractionFailed
	if errors.As(err, &extractionErr) {
		fmt.Fprintf(w, "Last raw model response:\n%s\n", extractionErr.LastRaw)
		return
	}

	var writeErr *notion.WriteFailed
	if errors.As(err, &writeErr) && writeErr.OrphanedSourceID != "" {
		fmt.Fprintf(w, "The source record %s was already created; reconcile it manually.\n", writeErr.OrphanedSourceID)
	}
}

// recordRun appends the completed run to the local ledger. Ledger failures
// are reported but do not change the run outcome: the Notion records exist.
func recordRun(cmd *cobra.Command, outcome pipeline.Outcome, url string) {
	ledgerDir, _ := cmd.Flags().GetString("ledger-dir")
	store, err := ledger.NewStore(types.LedgerConfig{Dir: ledgerDir})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not open run ledger: %v\n", err)
		return
	}
	defer store.Close()

	_, err = store.Record(context.Background(), ledger.Run{
		InputURL:  url,
		SourceID:  outcome.Receipt.SourceID,
		SourceURL: outcome.Receipt.SourceURL,
		EventID:   outcome.Receipt.EventID,
		EventURL:  outcome.Receipt.EventURL,
		Warnings:  len(outcome.Warnings),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not record run in ledger: %v\n", err)
	}
}

// stdinConfirmer renders the extracted records and asks for an explicit
// yes before anything is written. With assumeYes it renders and proceeds.
type stdinConfirmer struct {
	in        io.Reader
	out       io.Writer
	assumeYes bool
	savePath  string
}

func (c *stdinConfirmer) Confirm(result *types.ExtractionResult, warnings []types.Warning) (bool, error) {
	printExtraction(c.out, result, warnings)

	if c.savePath != "" {
		if err := saveResult(c.savePath, result); err != nil {
			return false, err
		}
		fmt.Fprintf(c.out, "Saved extraction to %s\n", c.savePath)
	}

	if c.assumeYes {
		return true, nil
	}

	fmt.Fprint(c.out, "\nWrite these records to Notion? [y/N]: ")
	reader := bufio.NewReader(c.in)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("reading confirmation: %w", err)
	}
	return strings.EqualFold(strings.TrimSpace(line), "y"), nil
}

// printExtraction renders the record pair and any enum-correction warnings.
func printExtraction(w io.Writer, result *types.ExtractionResult, warnings []types.Warning) {
	fmt.Fprintln(w, "\nSource")
	fmt.Fprintf(w, "  %-22s %s\n", "Title", result.Source.Title)
	if result.Source.URL != "" {
		fmt.Fprintf(w, "  %-22s %s\n", "URL", result.Source.URL)
	}
	fmt.Fprintf(w, "  %-22s %s\n", "Author / Organization", result.Source.AuthorOrganization)
	fmt.Fprintf(w, "  %-22s %s\n", "Publication Date", result.Source.PublicationDate)
	fmt.Fprintf(w, "  %-22s %s\n", "Source Type", result.Source.SourceType)
	fmt.Fprintf(w, "  %-22s %s\n", "Reliability", result.Source.Reliability)
	fmt.Fprintf(w, "  %-22s %s\n", "Summary", result.Source.Summary)

	fmt.Fprintln(w, "\nEvent")
	fmt.Fprintf(w, "  %-22s %s\n", "Event Name", result.Event.EventName)
	fmt.Fprintf(w, "  %-22s %s\n", "Date", result.Event.Date)
	fmt.Fprintf(w, "  %-22s %s\n", "Event Type", result.Event.EventType)
	fmt.Fprintf(w, "  %-22s %s\n", "Description", result.Event.Description)
	fmt.Fprintf(w, "  %-22s %s\n", "Sovereignty Gap", result.Event.GapImpact)

	for _, warning := range warnings {
		fmt.Fprintf(w, "\nwarning: %q is not a valid value for %s; defaulting to %q\n",
			warning.Rejected, warning.Field, warning.Corrected)
	}
}

// saveResult writes the validated extraction as YAML.
func saveResult(path string, result *types.ExtractionResult) error {
	data, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshaling extraction: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
