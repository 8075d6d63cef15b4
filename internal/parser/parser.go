// Package parser holds the contract shared by every document parser and the
// helpers the parsers and the application use to feed them.
package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Parser turns the text of one document into T. Implementations keep no
// state between calls and either return a fully built T or an error.
type Parser[T any] interface {
	Parse(text string) (T, error)
	ParseReader(r io.Reader) (T, error)
}

// ReadText reads r fully and decodes it to a UTF-8 string. A UTF-16 BOM
// switches decoding; a UTF-8 BOM is dropped.
func ReadText(r io.Reader) (string, error) {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	b, err := io.ReadAll(transform.NewReader(r, dec))
	if err != nil {
		return "", fmt.Errorf("read text: %w", err)
	}
	return string(b), nil
}

// Kind names a document format.
type Kind string

const (
	ICS Kind = "ics"
	VCF Kind = "vcf"
	CSV Kind = "csv"
	TSV Kind = "tsv"
)

// Kinds lists every supported format.
var Kinds = []Kind{ICS, VCF, CSV, TSV}

// ParseKind accepts a format name or a common alias, ignoring case.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "ics", "ical", "icalendar", "ifb":
		return ICS, nil
	case "vcf", "vcard":
		return VCF, nil
	case "csv":
		return CSV, nil
	case "tsv", "tab":
		return TSV, nil
	}
	return "", fmt.Errorf("unknown document kind %q", s)
}

// KindFromPath infers the format from a file extension.
func KindFromPath(path string) (Kind, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", fmt.Errorf("cannot infer document kind of %q", path)
	}
	return ParseKind(ext)
}
