package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"exifpipe/internal/services/exiftool"
)

func newReadCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "read <file> <tag>...",
		Short: "Read tag values from a file",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			tags := args[1:]

			return ctx.withEngine(func(engine *exiftool.Engine) error {
				session := engine.NewSession(path)
				if err := session.Begin(); err != nil {
					return err
				}
				for _, name := range tags {
					if _, err := session.Read(cmd.Context(), exiftool.KeyValueTag{Name: name}); err != nil {
						return err
					}
				}
				result, err := session.End(cmd.Context())
				if err != nil {
					return err
				}

				if asJSON {
					return writeJSON(cmd, result)
				}
				printTagValues(cmd, result)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the result as JSON")
	return cmd
}

func printTagValues(cmd *cobra.Command, result map[string]any) {
	names := make([]string, 0, len(result))
	for name := range result {
		names = append(names, name)
	}
	sort.Strings(names)

	out := cmd.OutOrStdout()
	if !stdoutIsTerminal() {
		for _, name := range names {
			fmt.Fprintf(out, "%s\t%s\n", name, formatResultValue(result[name]))
		}
		return
	}

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		rows = append(rows, []string{name, formatResultValue(result[name])})
	}
	fmt.Fprintln(out, renderTable([]string{"Tag", "Value"}, rows, nil))
}

// formatResultValue flattens a decoded JSON value for terminal display.
// Absent tags render as an empty string, list values join with "; ".
func formatResultValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, formatResultValue(item))
		}
		return strings.Join(parts, "; ")
	default:
		return fmt.Sprint(val)
	}
}
