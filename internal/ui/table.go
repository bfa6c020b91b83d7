package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"cbridge/internal/layout"
)

const padLabel = "(padding)"

type row struct {
	cells [5]string
	pad   bool
}

var tableHeader = [5]string{"FIELD", "TYPE", "OFFSET", "SIZE", "ALIGN"}

// numeric columns are right-aligned
var numericCol = [5]bool{false, false, true, true, true}

// LayoutTable renders every layout with its field offsets, sizes and
// alignments, including implicit padding. With styled false the output
// is plain text.
func LayoutTable(target string, layouts []layout.NamedLayout, styled bool) string {
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	head := lipgloss.NewStyle().Bold(true)
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	render := func(s lipgloss.Style, v string) string {
		if !styled {
			return v
		}
		return s.Render(v)
	}

	if len(layouts) == 0 {
		return render(dim, "no exported layouts") + "\n"
	}

	var b strings.Builder
	for i, nl := range layouts {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s  %s\n",
			render(title, nl.Struct.Name),
			render(dim, fmt.Sprintf("size %d, align %d, %s", nl.Layout.Size, nl.Layout.Align, target)))

		rows := layoutRows(nl)
		widths := columnWidths(rows)
		writeRow(&b, tableHeader, widths, func(v string) string { return render(head, v) })
		for _, r := range rows {
			style := func(v string) string { return v }
			if r.pad {
				style = func(v string) string { return render(dim, v) }
			}
			writeRow(&b, r.cells, widths, style)
		}
	}
	return b.String()
}

func layoutRows(nl layout.NamedLayout) []row {
	fields := nl.Struct.Fields
	tl := nl.Layout
	rows := make([]row, 0, len(fields)+2)
	end := 0
	for i, f := range fields {
		if i >= len(tl.FieldOffsets) {
			break
		}
		off := tl.FieldOffsets[i]
		if off > end {
			rows = append(rows, padRow(end, off-end))
		}
		rows = append(rows, row{cells: [5]string{
			f.Name,
			f.Type.String(),
			strconv.Itoa(off),
			strconv.Itoa(tl.FieldSizes[i]),
			strconv.Itoa(tl.FieldAligns[i]),
		}})
		end = off + tl.FieldSizes[i]
	}
	if tl.Size > end {
		rows = append(rows, padRow(end, tl.Size-end))
	}
	return rows
}

func padRow(off, size int) row {
	return row{cells: [5]string{padLabel, "", strconv.Itoa(off), strconv.Itoa(size), ""}, pad: true}
}

func columnWidths(rows []row) [5]int {
	var w [5]int
	for c, h := range tableHeader {
		w[c] = runewidth.StringWidth(h)
	}
	for _, r := range rows {
		for c, v := range r.cells {
			w[c] = max(w[c], runewidth.StringWidth(v))
		}
	}
	return w
}

// writeRow pads before styling so escape codes never count toward width.
func writeRow(b *strings.Builder, cells [5]string, widths [5]int, style func(string) string) {
	parts := make([]string, len(cells))
	for c, v := range cells {
		if numericCol[c] {
			parts[c] = runewidth.FillLeft(v, widths[c])
		} else {
			parts[c] = runewidth.FillRight(v, widths[c])
		}
	}
	line := strings.TrimRight(strings.Join(parts[:], "  "), " ")
	b.WriteString("  ")
	b.WriteString(style(line))
	b.WriteByte('\n')
}
