package cli

import (
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

// column is a table column header and the alignment of its cells.
type column struct {
	name  string
	align tw.Align
}

// Columns shared by the plan and status tables. Versions are right-aligned so
// that versions of different lengths line up.
var (
	colVersion = column{name: "Version", align: tw.AlignRight}
	colName    = column{name: "Name", align: tw.AlignLeft}
)

// renderTable writes rows under the given columns to w, without borders or
// separator lines. Long cells are truncated rather than wrapped, so that each
// row stays on a single line.
func renderTable(w io.Writer, cols []column, rows [][]string) error {
	header := make([]string, len(cols))
	aligns := make([]tw.Align, len(cols))
	for i, col := range cols {
		header[i] = col.name
		aligns[i] = col.align
	}

	blueprint := renderer.NewBlueprint(tw.Rendition{
		Borders: tw.BorderNone,
		Symbols: tw.NewSymbols(tw.StyleASCII),
		Settings: tw.Settings{
			Lines: tw.Lines{
				ShowHeaderLine: tw.Off,
				ShowFooterLine: tw.Off,
				ShowTop:        tw.Off,
				ShowBottom:     tw.Off,
			},
			Separators: tw.Separators{
				ShowHeader:     tw.Off,
				ShowFooter:     tw.Off,
				BetweenRows:    tw.Off,
				BetweenColumns: tw.Off,
			},
		},
	})

	table := tablewriter.NewTable(w,
		tablewriter.WithRenderer(blueprint),
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{
				Alignment: tw.CellAlignment{PerColumn: aligns},
			},
			Row: tw.CellConfig{
				Formatting:   tw.CellFormatting{AutoWrap: tw.WrapTruncate},
				Alignment:    tw.CellAlignment{PerColumn: aligns},
				ColMaxWidths: tw.CellWidth{Global: 64},
			},
		}),
	)

	table.Header(header)
	if err := table.Bulk(rows); err != nil {
		return err //nolint:wrapcheck // This is wrapped by the caller.
	}

	return table.Render() //nolint:wrapcheck // This is wrapped by the caller.
}
