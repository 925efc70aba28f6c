package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/yuanying/splitepub/internal/catalog"
	"github.com/yuanying/splitepub/internal/splitter"
)

func newBooksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "books",
		Short: "List the books defined in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if sample, _ := cmd.Flags().GetBool("sample"); sample {
				fmt.Fprint(out, catalog.Sample())
				return nil
			}
			path, _ := cmd.Flags().GetString("catalog")
			c, err := catalog.Load(path)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s by %s (%s)\n", c.Series, c.Author, c.Language)
			fmt.Fprintln(out, booksTable(c))
			return nil
		},
	}
	cmd.Flags().StringP("catalog", "c", defaultCatalogPath, "Book catalog (TOML)")
	cmd.Flags().Bool("sample", false, "Print an example catalog instead")
	return cmd
}

func booksTable(c *catalog.Catalog) string {
	rows := make([][]string, 0, len(c.Books))
	for _, b := range c.Books {
		files := b.ChapterFiles()
		first, last := "", ""
		if len(files) > 0 {
			first, last = files[0], files[len(files)-1]
		}
		cover := b.Cover
		if cover == "" {
			cover = fmt.Sprintf("%d.jpg", b.Number)
		}
		rows = append(rows, []string{
			strconv.Itoa(b.Number),
			b.Title,
			strconv.Itoa(len(files)),
			first,
			last,
			cover,
			splitter.OutputName(c.Series, b),
		})
	}
	return renderTable(
		[]string{"Book", "Title", "Chapters", "First", "Last", "Cover", "Output"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight},
	)
}
