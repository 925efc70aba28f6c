package main

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yuanying/splitepub/internal/epub"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file.epub>",
		Short: "Validate an EPUB container and show its metadata, navigation and entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			r, err := epub.Open(args[0])
			if err != nil {
				fmt.Fprintln(out, renderStatusLine("container", err.Error(), false, colorize))
				return fmt.Errorf("inspect %s: %w", args[0], err)
			}
			defer r.Close()

			fmt.Fprintln(out, renderStatusLine("container", r.OPFPath(), true, colorize))
			if err := describePackage(out, r, colorize); err != nil {
				return fmt.Errorf("inspect %s: %w", args[0], err)
			}
			fmt.Fprintln(out, entriesTable(r.Entries()))
			return nil
		},
	}
}

// describePackage prints the package metadata, the spine and, when the
// package names one, the NCX navigation map.
func describePackage(out io.Writer, r *epub.EPUBReader, colorize bool) error {
	data, err := r.ReadFile(r.OPFPath())
	if err != nil {
		fmt.Fprintln(out, renderStatusLine("package", err.Error(), false, colorize))
		return err
	}
	opf, err := epub.ParseOPF(data, path.Dir(r.OPFPath()))
	if err != nil {
		fmt.Fprintln(out, renderStatusLine("package", err.Error(), false, colorize))
		return err
	}

	missing := missingEntries(r.Entries(), opf.Hrefs())
	if len(missing) > 0 {
		fmt.Fprintln(out, renderStatusLine("manifest", "missing "+strings.Join(missing, ", "), false, colorize))
	} else {
		fmt.Fprintln(out, renderStatusLine("manifest", fmt.Sprintf("%d items", len(opf.ManifestOrder)), true, colorize))
	}
	fmt.Fprintln(out, metadataTable(opf))

	resolved := len(opf.SpineHrefs())
	spineOK := resolved == len(opf.Spine)
	fmt.Fprintln(out, renderStatusLine("spine", fmt.Sprintf("%d of %d itemrefs resolved", resolved, len(opf.Spine)), spineOK, colorize))
	fmt.Fprintln(out, spineTable(opf))

	if opf.NCXPath == "" {
		return nil
	}
	ncxData, err := r.ReadFile(opf.NCXPath)
	if err != nil {
		fmt.Fprintln(out, renderStatusLine("ncx", err.Error(), false, colorize))
		return err
	}
	ncx, err := epub.ParseNCX(ncxData, path.Dir(opf.NCXPath))
	if err != nil {
		fmt.Fprintln(out, renderStatusLine("ncx", err.Error(), false, colorize))
		return err
	}

	summary := fmt.Sprintf("%q uid=%s depth=%d", ncx.DocTitle, ncx.UID, ncx.Depth)
	uidMatches := ncx.UID == opf.Metadata.Identifier
	if !uidMatches {
		summary += " (package identifier is " + opf.Metadata.Identifier + ")"
	}
	fmt.Fprintln(out, renderStatusLine("ncx", summary, uidMatches, colorize))
	fmt.Fprintln(out, navigationTable(ncx))
	return nil
}

func metadataTable(opf *epub.OPF) string {
	md := opf.Metadata
	cover := md.CoverID
	if item, ok := opf.Manifest[md.CoverID]; ok {
		cover += " (" + item.Href + ")"
	}
	rows := [][]string{
		{"Title", md.Title},
		{"Creators", strings.Join(md.Creators, ", ")},
		{"Language", md.Language},
		{"Identifier", md.Identifier},
		{"Publisher", md.Publisher},
		{"Cover", cover},
	}
	return renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignLeft})
}

func spineTable(opf *epub.OPF) string {
	rows := make([][]string, 0, len(opf.Spine))
	for i, s := range opf.Spine {
		doc := "(unknown id " + s.IDRef + ")"
		if item, ok := opf.Manifest[s.IDRef]; ok {
			doc = item.Href
		}
		linear := "yes"
		if !s.Linear {
			linear = "no"
		}
		rows = append(rows, []string{strconv.Itoa(i + 1), doc, linear})
	}
	return renderTable(
		[]string{"Spine", "Document", "Linear"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft},
	)
}

func navigationTable(ncx *epub.NCX) string {
	points := ncx.Flatten()
	rows := make([][]string, 0, len(points))
	for _, np := range points {
		target := np.ContentPath
		if np.Fragment != "" {
			target += "#" + np.Fragment
		}
		rows = append(rows, []string{strconv.Itoa(np.PlayOrder), np.Label, target})
	}
	return renderTable(
		[]string{"Order", "Label", "Target"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft},
	)
}

// missingEntries returns the hrefs with no matching archive entry.
func missingEntries(files []*zip.File, hrefs []string) []string {
	present := make(map[string]bool, len(files))
	for _, f := range files {
		present[f.Name] = true
	}
	var missing []string
	for _, h := range hrefs {
		if !present[h] {
			missing = append(missing, h)
		}
	}
	return missing
}

func entriesTable(files []*zip.File) string {
	rows := make([][]string, 0, len(files))
	for _, f := range files {
		rows = append(rows, []string{
			f.Name,
			methodName(f.Method),
			strconv.FormatUint(f.UncompressedSize64, 10),
			strconv.FormatUint(f.CompressedSize64, 10),
		})
	}
	return renderTable(
		[]string{"Entry", "Method", "Size", "Compressed"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
	)
}

func methodName(m uint16) string {
	switch m {
	case zip.Store:
		return "stored"
	case zip.Deflate:
		return "deflated"
	}
	return "method " + strconv.Itoa(int(m))
}
