// Package vcard parses vCard documents into flat contact records and writes
// them back out.
package vcard

import (
	"errors"
	"io"
	"strings"

	"pimparse/internal/contentline"
	appLog "pimparse/internal/log"
	"pimparse/internal/parser"
	"pimparse/internal/perr"
)

// Parser parses documents holding any number of vCards.
type Parser struct{}

var _ parser.Parser[[]Card] = Parser{}

func NewParser() Parser { return Parser{} }

// Parse returns the cards of text in source order. Lines outside
// BEGIN:VCARD / END:VCARD are skipped.
func (Parser) Parse(text string) ([]Card, error) {
	lines := contentline.Unfold(text)
	cards := make([]Card, 0)
	stray := 0

	for i := 0; i < len(lines); i++ {
		if !strings.EqualFold(lines[i], "BEGIN:VCARD") {
			stray++
			continue
		}
		card, next, err := assemble(lines, i+1)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
		i = next
	}

	if stray > 0 {
		appLog.Debug("vcard: ignored lines outside cards", "lines", stray)
	}
	return cards, nil
}

// ParseReader decodes r as text and parses it.
func (p Parser) ParseReader(r io.Reader) ([]Card, error) {
	text, err := parser.ReadText(r)
	if err != nil {
		return nil, err
	}
	return p.Parse(text)
}

// Parse parses text with the default Parser.
func Parse(text string) ([]Card, error) {
	return Parser{}.Parse(text)
}

// assemble gathers the properties of one card starting at lines[pos] and
// returns the card with the index of its END:VCARD line.
func assemble(lines []string, pos int) (Card, int, error) {
	var props contentline.Properties
	for i := pos; i < len(lines); i++ {
		if strings.EqualFold(lines[i], "END:VCARD") {
			card, err := build(props)
			return card, i, err
		}
		p, err := contentline.Parse(lines[i])
		if err != nil {
			var pe *perr.Error
			if errors.As(err, &pe) {
				pe.Args["logical_line"] = i + 1
			}
			return Card{}, 0, err
		}
		props = append(props, p)
	}
	return Card{}, 0, perr.Structural("missing END:VCARD", map[string]any{"component": "VCARD"})
}

// build matches properties by base name, so grouped lines such as
// "item1.EMAIL" count as EMAIL.
func build(props contentline.Properties) (Card, error) {
	first := func(name string) (string, bool) {
		p, ok := props.FirstBy(contentline.ByBaseName, name)
		return p.Value, ok
	}
	text := func(name string) string {
		v, _ := first(name)
		return v
	}

	version, ok := first("VERSION")
	if !ok {
		return Card{}, perr.Missing("VERSION", "VCARD")
	}

	card := Card{
		Version:       version,
		FormattedName: text("FN"),
		Profile:       text("PROFILE"),
		UID:           text("UID"),
		Source:        text("SOURCE"),
	}
	if n, ok := first("N"); ok {
		card.Name = parseName(n)
	}
	if k, ok := first("KIND"); ok {
		kind, err := parseKind(k)
		if err != nil {
			return Card{}, err
		}
		card.Kind = kind
	}
	for _, lf := range listFields {
		*lf.get(&card) = props.ValuesBy(contentline.ByBaseName, lf.name)
	}
	return card, nil
}

func parseName(v string) *Name {
	parts := strings.Split(v, ";")
	at := func(i int) string {
		if i < len(parts) {
			return parts[i]
		}
		return ""
	}
	return &Name{
		Family:     at(0),
		Given:      at(1),
		Additional: at(2),
		Prefixes:   at(3),
		Suffixes:   at(4),
	}
}

func parseKind(v string) (Kind, error) {
	for _, k := range []Kind{KindIndividual, KindGroup, KindOrg, KindLocation} {
		if strings.EqualFold(v, string(k)) {
			return k, nil
		}
	}
	return "", perr.Validation("unknown KIND value", map[string]any{
		"field": "KIND",
		"value": v,
	})
}
