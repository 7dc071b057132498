package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"exifpipe/internal/services/exiftool"
)

// historyNow is swapped in tests to pin the entry timestamp.
var historyNow = time.Now

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and extend XMP-xmpMM:History",
	}

	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryAddCommand(ctx))

	return historyCmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list <file>",
		Short: "List history entries in append order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withEngine(func(engine *exiftool.Engine) error {
				session := engine.NewSession(args[0])
				parsed, err := session.Read(cmd.Context(), exiftool.HistoryTag{})
				if err != nil {
					return err
				}
				entries, _ := parsed.([]map[string]string)

				if asJSON {
					return writeJSON(cmd, entries)
				}
				printHistoryEntries(cmd, entries)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the history as JSON")
	return cmd
}

func printHistoryEntries(cmd *cobra.Command, entries []map[string]string) {
	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No history entries")
		return
	}

	rows := make([][]string, 0, len(entries))
	for i, entry := range entries {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			entry[exiftool.FieldAction],
			entry[exiftool.FieldWhen],
			entry[exiftool.FieldSoftwareAgent],
			entry[exiftool.FieldInstanceID],
		})
	}

	if !stdoutIsTerminal() {
		for _, row := range rows {
			fmt.Fprintln(out, strings.Join(row, "\t"))
		}
		return
	}
	fmt.Fprintln(out, renderTable(
		[]string{"#", "Action", "When", "Agent", "Instance ID"},
		rows,
		[]columnAlignment{alignRight},
	))
}

func newHistoryAddCommand(ctx *commandContext) *cobra.Command {
	var action string
	var agent string
	var instanceID string
	var changed string
	var parameters string

	cmd := &cobra.Command{
		Use:   "add <file>",
		Short: "Append a history entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(action) == "" {
				return fmt.Errorf("--action is required")
			}
			if strings.TrimSpace(instanceID) == "" {
				instanceID = "xmp.iid:" + uuid.NewString()
			}

			tag := exiftool.HistoryTag{
				Action:        action,
				When:          historyNow(),
				SoftwareAgent: agent,
				InstanceID:    instanceID,
				Changed:       changed,
				Parameters:    parameters,
			}

			return ctx.withEngine(func(engine *exiftool.Engine) error {
				session := engine.NewSession(args[0])
				if err := session.Write(cmd.Context(), tag); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Appended %s entry to %s\n", action, args[0])
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&action, "action", "", "History action, e.g. saved or edited")
	cmd.Flags().StringVar(&agent, "agent", "exifpipe", "Software agent recorded on the entry")
	cmd.Flags().StringVar(&instanceID, "instance-id", "", "Instance ID (defaults to a generated xmp.iid UUID)")
	cmd.Flags().StringVar(&changed, "changed", "", "Portion of the resource that changed")
	cmd.Flags().StringVar(&parameters, "parameters", "", "Free-form action parameters")
	return cmd
}
