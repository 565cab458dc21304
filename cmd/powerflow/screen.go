// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rocknruds/powerflow-agents/internal/extract"
	"github.com/rocknruds/powerflow-agents/internal/scrape"
	"github.com/rocknruds/powerflow-agents/internal/screen"
	"github.com/rocknruds/powerflow-agents/internal/secrets"
	"github.com/rocknruds/powerflow-agents/pkg/types"
)

var screenCmd = &cobra.Command{
	Use:   "screen [file]",
	Short: "Score a document's relevance before ingesting it",
	Long: `Screen sends a document through the relevance assessment and prints the
score, verdict, and key signals. Nothing is written to Notion; use it to
triage material before a full ingest.

The document comes from --url, a file argument, or stdin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScreen,
}

func init() {
	screenCmd.Flags().String("url", "", "URL of the document to screen")
	screenCmd.Flags().String("model", "", "model identifier for screening")

	rootCmd.AddCommand(screenCmd)
}

func runScreen(cmd *cobra.Command, args []string) error {
	text, err := screenInput(cmd, args)
	if err != nil {
		return err
	}

	anthropicKey := secrets.Resolve(loadedSecrets, secrets.KeyAnthropic, viper.GetString("anthropic_api_key"))
	if anthropicKey == "" {
		return fmt.Errorf("no Anthropic API key: set .secrets/%s, POWERFLOW_ANTHROPIC_API_KEY, or anthropic_api_key in the config file", secrets.KeyAnthropic)
	}

	screener := screen.NewScreener(&extract.ClaudeBackend{
		Config: modelConfig(cmd, anthropicKey),
		Client: &http.Client{Timeout: defaultModelTimeout},
	})
	screener.Status = os.Stderr

	result, warnings, err := screener.Screen(context.Background(), text)
	if err != nil {
		reportFailure(os.Stderr, err)
		return err
	}

	fmt.Printf("Score:   %d\n", result.Score)
	fmt.Printf("Verdict: %s\n", result.Verdict)
	fmt.Printf("Reason:  %s\n", result.Reasoning)
	for _, signal := range result.KeySignals {
		fmt.Printf("  - %s\n", signal)
	}
	for _, warning := range warnings {
		fmt.Fprintf(os.Stderr, "warning: %q is not a valid value for %s; defaulting to %q\n",
			warning.Rejected, warning.Field, warning.Corrected)
	}
	return nil
}

// screenInput reads the document text from --url, the file argument, or stdin.
func screenInput(cmd *cobra.Command, args []string) (string, error) {
	if url, _ := cmd.Flags().GetString("url"); url != "" {
		fetcher := scrape.NewFetcher(types.ScrapeConfig{})
		return fetcher.Fetch(context.Background(), url)
	}
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", args[0], err)
		}
		return string(data), nil
	}
	fmt.Fprintln(os.Stderr, "Reading document text from stdin (end with EOF)...")
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}
