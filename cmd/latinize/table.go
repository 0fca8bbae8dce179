package main

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

type tableSpec struct {
	headers []string
	aligns  []columnAlignment
	rows    [][]string
	// numbered prepends a 1-based row number column.
	numbered bool
	footer   string
}

func renderTable(layout tableSpec) string {
	headers := layout.headers
	aligns := layout.aligns
	if layout.numbered {
		headers = append([]string{"#"}, headers...)
		aligns = append([]columnAlignment{alignRight}, aligns...)
	}
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(toRow(headers, columns))
	for i, row := range layout.rows {
		if layout.numbered {
			row = append([]string{strconv.Itoa(i + 1)}, row...)
		}
		tw.AppendRow(toRow(row, columns))
	}
	if layout.footer != "" {
		footer := make(table.Row, columns)
		footer[0] = layout.footer
		tw.AppendFooter(footer, table.RowConfig{AutoMerge: true})
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

func toRow(values []string, columns int) table.Row {
	row := make(table.Row, columns)
	for i := range row {
		if i < len(values) {
			row[i] = values[i]
		} else {
			row[i] = ""
		}
	}
	return row
}
