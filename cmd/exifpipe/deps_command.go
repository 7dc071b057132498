package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"exifpipe/internal/deps"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check external tool availability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			status := deps.CheckExifTool(cfg.ExifTool.Binary)
			printDepStatuses(cmd, []deps.Status{status})
			if !status.Available {
				return fmt.Errorf("required dependency %s is unavailable", status.Name)
			}
			return nil
		},
	}
}

func printDepStatuses(cmd *cobra.Command, statuses []deps.Status) {
	out := cmd.OutOrStdout()
	rows := make([][]string, 0, len(statuses))
	for _, status := range statuses {
		state := "missing"
		if status.Available {
			state = "ok"
		}
		rows = append(rows, []string{status.Name, status.Command, state, status.Detail})
	}

	if !stdoutIsTerminal() {
		for _, row := range rows {
			fmt.Fprintln(out, strings.Join(row, "\t"))
		}
		return
	}
	fmt.Fprintln(out, renderTable([]string{"Dependency", "Command", "State", "Detail"}, rows, nil))
}
