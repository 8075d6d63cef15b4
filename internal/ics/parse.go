package ics

import (
	"io"
	"strings"
	"time"

	"pimparse/internal/contentline"
	appLog "pimparse/internal/log"
	"pimparse/internal/parser"
	"pimparse/internal/perr"
)

// Option configures a Parser.
type Option func(*Parser)

// WithFloatingLocation sets the location floating date-times are anchored
// to. The default is time.Local at parse time.
func WithFloatingLocation(loc *time.Location) Option {
	return func(p *Parser) { p.floating = loc }
}

// Parser parses iCalendar documents. It holds only configuration and is safe
// for concurrent use.
type Parser struct {
	floating *time.Location
}

var _ parser.Parser[*Calendar] = (*Parser)(nil)

func NewParser(opts ...Option) *Parser {
	p := &Parser{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse parses a complete VCALENDAR document.
//
//   - Folded lines are joined before tokenizing.
//   - Components the model does not know are skipped, their contents unchecked
//     beyond BEGIN/END balance and content-line syntax.
//   - Any structural or validation problem aborts the whole parse.
func (p *Parser) Parse(text string) (*Calendar, error) {
	cur := &cursor{lines: contentline.Unfold(text)}

	first, ok := cur.next()
	if !ok || !strings.EqualFold(first, "BEGIN:VCALENDAR") {
		return nil, perr.Structural("expected BEGIN:VCALENDAR", map[string]any{"logical_line": 1})
	}

	comp, err := assemble(cur, "VCALENDAR", newCoercer(p.floating))
	if err != nil {
		return nil, err
	}
	if n := cur.remaining(); n > 0 {
		appLog.Debug("ics: ignoring content after END:VCALENDAR", "lines", n)
	}
	return comp.calendar, nil
}

// ParseReader decodes r as text and parses it.
func (p *Parser) ParseReader(r io.Reader) (*Calendar, error) {
	text, err := parser.ReadText(r)
	if err != nil {
		return nil, err
	}
	return p.Parse(text)
}

// Parse parses text with a default Parser.
func Parse(text string) (*Calendar, error) {
	return NewParser().Parse(text)
}
