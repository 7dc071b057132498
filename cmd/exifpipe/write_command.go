package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"exifpipe/internal/services/exiftool"
)

func newWriteCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "write <file> <tag=value>...",
		Short: "Write tag values to a file",
		Long: `Write tag values to a file.

Each assignment takes the form Group:Tag=value. Repeating a tag name
appends to list-valued tags instead of overwriting. All assignments flush
as a single round trip.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			tags, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}

			return ctx.withEngine(func(engine *exiftool.Engine) error {
				session := engine.NewSession(path)
				if err := session.Begin(); err != nil {
					return err
				}
				for _, tag := range tags {
					if err := session.Write(cmd.Context(), tag); err != nil {
						return err
					}
				}
				if _, err := session.End(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d assignment(s) to %s\n", len(tags), path)
				return nil
			})
		},
	}

	return cmd
}

func parseAssignments(args []string) ([]exiftool.Tag, error) {
	tags := make([]exiftool.Tag, 0, len(args))
	for _, arg := range args {
		name, value, found := strings.Cut(arg, "=")
		name = strings.TrimSpace(name)
		if !found || name == "" {
			return nil, fmt.Errorf("invalid assignment %q: expected tag=value", arg)
		}
		tags = append(tags, exiftool.KeyValueTag{Name: name, Value: value})
	}
	return tags, nil
}
