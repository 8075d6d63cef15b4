package sheet

import (
	"reflect"
	"strings"
	"testing"
)

func TestCSVParse(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    [][]string
		columns int
	}{
		{"empty", "", [][]string{}, 0},
		{"simple", "a,b\nc,d\n", [][]string{{"a", "b"}, {"c", "d"}}, 2},
		{"no trailing newline", "a,b\nc", [][]string{{"a", "b"}, {"c"}}, 2},
		{"crlf", "a,b\r\nc,d\r\n", [][]string{{"a", "b"}, {"c", "d"}}, 2},
		{"quoted comma", `"x, y",z` + "\n", [][]string{{"x, y", "z"}}, 2},
		{"escaped quote", `"say ""hi""",2` + "\n", [][]string{{`say "hi"`, "2"}}, 2},
		{"quoted newline", "\"line1\nline2\",b\n", [][]string{{"line1\nline2", "b"}}, 2},
		{"empty fields", ",,\n", [][]string{{"", "", ""}}, 3},
		{"ragged", "a\nb,c,d\n", [][]string{{"a"}, {"b", "c", "d"}}, 3},
		{"utf8", "café,naïve\n", [][]string{{"café", "naïve"}}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CSVParser{}.Parse(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got.Rows, tt.want) || got.Columns != tt.columns {
				t.Fatalf("got %q (%d cols), want %q (%d cols)", got.Rows, got.Columns, tt.want, tt.columns)
			}
		})
	}
}

func TestTSVParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want [][]string
	}{
		{"simple", "a\tb\nc\td\n", [][]string{{"a", "b"}, {"c", "d"}}},
		{"escapes", `a\tb` + "\t" + `c\nd` + "\t" + `e\\f` + "\n", [][]string{{"a\tb", "c\nd", `e\f`}}},
		{"unknown escape kept", `a\qb` + "\n", [][]string{{`a\qb`}}},
		{"trailing backslash", `a\`, [][]string{{`a\`}}},
		{"cr rows", "a\rb\r", [][]string{{"a"}, {"b"}}},
		{"crlf rows", "a\r\nb\r\n", [][]string{{"a"}, {"b"}}},
		{"lfcr rows", "a\n\rb\n\r", [][]string{{"a"}, {"b"}}},
		{"quotes are literal", "\"a\tb\"\n", [][]string{{`"a`, `b"`}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TSVParser{}.Parse(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got.Rows, tt.want) {
				t.Fatalf("got %q, want %q", got.Rows, tt.want)
			}
		})
	}
}

func TestParseReaderStripsBOM(t *testing.T) {
	got, err := CSVParser{}.ParseReader(strings.NewReader("\ufeffh1,h2\n1,2\n"))
	if err != nil {
		t.Fatal(err)
	}
	if got.Cell(0, 0) != "h1" || got.Cell(1, 1) != "2" || got.Cell(5, 5) != "" {
		t.Fatalf("rows = %q", got.Rows)
	}
}
