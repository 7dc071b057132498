package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"exifpipe/internal/journal"
)

func newJournalCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Show recent metadata round trips",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openJournal()
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, entries)
			}
			printJournalEntries(cmd, entries)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of entries to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the entries as JSON")
	return cmd
}

func printJournalEntries(cmd *cobra.Command, entries []journal.Entry) {
	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No journal entries")
		return
	}

	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		status := "ok"
		if entry.Error != "" {
			status = entry.Error
		}
		rows = append(rows, []string{
			entry.CreatedAt.Local().Format(time.DateTime),
			entry.Target,
			entry.Mode,
			entry.Transport,
			fmt.Sprintf("%d", entry.Operations),
			entry.Duration.Round(time.Millisecond).String(),
			status,
		})
	}

	if !stdoutIsTerminal() {
		for _, row := range rows {
			fmt.Fprintln(out, strings.Join(row, "\t"))
		}
		return
	}
	fmt.Fprintln(out, renderTable(
		[]string{"When", "Target", "Mode", "Transport", "Ops", "Duration", "Status"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
	))
}
