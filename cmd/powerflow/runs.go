// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rocknruds/powerflow-agents/internal/ledger"
	"github.com/rocknruds/powerflow-agents/pkg/types"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent ingest runs from the local ledger",
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().Int("limit", 0, "maximum number of runs to list (default 20)")
	runsCmd.Flags().String("ledger-dir", defaultLedgerDir, "directory for the local run ledger")

	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	ledgerDir, _ := cmd.Flags().GetString("ledger-dir")
	limit, _ := cmd.Flags().GetInt("limit")

	store, err := ledger.NewStore(types.LedgerConfig{Dir: ledgerDir})
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Recent(context.Background(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tINPUT\tSOURCE\tEVENT\tWARNINGS")
	for _, run := range runs {
		input := run.InputURL
		if input == "" {
			input = "(pasted text)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
			run.CreatedAt.Format("2006-01-02 15:04"), input, run.SourceURL, run.EventURL, run.Warnings)
	}
	return w.Flush()
}
