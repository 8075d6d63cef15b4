// Package sheet parses delimited text (CSV and TSV) into a grid of cells.
// Both dialects are lenient: every input yields a table.
package sheet

import (
	"io"
	"strings"

	"pimparse/internal/parser"
)

// Table is a ragged grid of cell values. Columns is the width of the widest
// row.
type Table struct {
	Rows    [][]string `json:"rows" yaml:"rows"`
	Columns int        `json:"columns" yaml:"columns"`
}

// Cell returns the value at row, col, or "" outside a short row.
func (t *Table) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][col]
}

// grid accumulates cells while a dialect scans its input.
type grid struct {
	rows  [][]string
	row   []string
	field strings.Builder
}

func (g *grid) endField() {
	g.row = append(g.row, g.field.String())
	g.field.Reset()
}

func (g *grid) endRow() {
	g.endField()
	g.rows = append(g.rows, g.row)
	g.row = nil
}

// table flushes a last row that had no terminator.
func (g *grid) table() *Table {
	if g.field.Len() > 0 || len(g.row) > 0 {
		g.endRow()
	}
	t := &Table{Rows: g.rows}
	if t.Rows == nil {
		t.Rows = [][]string{}
	}
	for _, r := range t.Rows {
		t.Columns = max(t.Columns, len(r))
	}
	return t
}

// CSVParser reads comma-separated values. Double quotes group text that
// may contain commas and newlines; "" inside quotes is a literal quote.
// Rows end at LF or CRLF outside quotes.
type CSVParser struct{}

var _ parser.Parser[*Table] = CSVParser{}

func (CSVParser) Parse(text string) (*Table, error) {
	var g grid
	inQuotes := false

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '"':
			if inQuotes && i+1 < len(text) && text[i+1] == '"' {
				g.field.WriteByte('"')
				i++
				continue
			}
			inQuotes = !inQuotes
		case c == ',' && !inQuotes:
			g.endField()
		case c == '\n' && !inQuotes:
			g.endRow()
		case c == '\r' && !inQuotes && i+1 < len(text) && text[i+1] == '\n':
			g.endRow()
			i++
		default:
			g.field.WriteByte(c)
		}
	}
	return g.table(), nil
}

func (p CSVParser) ParseReader(r io.Reader) (*Table, error) {
	text, err := parser.ReadText(r)
	if err != nil {
		return nil, err
	}
	return p.Parse(text)
}

// TSVParser reads tab-separated values. A backslash escapes \n, \t, \r and
// \; any other backslash is kept literally. Rows end at LF, CR, CRLF or LFCR.
type TSVParser struct{}

var _ parser.Parser[*Table] = TSVParser{}

func (TSVParser) Parse(text string) (*Table, error) {
	var g grid

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch c {
		case '\\':
			if i+1 >= len(text) {
				g.field.WriteByte(c)
				continue
			}
			switch text[i+1] {
			case 'n':
				g.field.WriteByte('\n')
			case 't':
				g.field.WriteByte('\t')
			case 'r':
				g.field.WriteByte('\r')
			case '\\':
				g.field.WriteByte('\\')
			default:
				g.field.WriteByte(c)
				continue
			}
			i++
		case '\t':
			g.endField()
		case '\n':
			g.endRow()
			if i+1 < len(text) && text[i+1] == '\r' {
				i++
			}
		case '\r':
			g.endRow()
			if i+1 < len(text) && text[i+1] == '\n' {
				i++
			}
		default:
			g.field.WriteByte(c)
		}
	}
	return g.table(), nil
}

func (p TSVParser) ParseReader(r io.Reader) (*Table, error) {
	text, err := parser.ReadText(r)
	if err != nil {
		return nil, err
	}
	return p.Parse(text)
}
