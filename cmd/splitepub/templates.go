package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yuanying/splitepub/internal/render"
)

func newTemplatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "templates [dir]",
		Short: "Write the built-in templates to a directory for editing",
		Long: `Writes the built-in package templates into dir (default "templates").
Existing files are left alone, so local edits survive.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := defaultTemplatesDir
			if len(args) == 1 {
				dir = args[0]
			}
			written, err := render.Export(dir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, p := range written {
				fmt.Fprintln(out, p)
			}
			if len(written) == 0 {
				fmt.Fprintf(out, "%s already holds every template\n", dir)
			}
			return nil
		},
	}
}
