package vcard

import (
	"io"
	"strings"

	govcard "github.com/emersion/go-vcard"

	"pimparse/internal/perr"
)

// The encoder escapes backslash, newline and comma itself, so parsed
// values are unescaped first to avoid doubling.
var valueUnescaper = strings.NewReplacer(
	`\\`, `\`,
	`\n`, "\n",
	`\N`, "\n",
	`\,`, `,`,
)

// Encode writes cards to w as vCard text, one BEGIN/END block each.
func Encode(w io.Writer, cards []Card) error {
	enc := govcard.NewEncoder(w)
	for i := range cards {
		if cards[i].Version == "" {
			return perr.Missing("VERSION", "VCARD")
		}
		if err := enc.Encode(toGoVCard(&cards[i])); err != nil {
			return err
		}
	}
	return nil
}

func toGoVCard(c *Card) govcard.Card {
	out := make(govcard.Card)
	set := func(name, v string) {
		if v != "" {
			out.Add(name, &govcard.Field{Value: valueUnescaper.Replace(v)})
		}
	}

	out.SetValue(govcard.FieldVersion, c.Version)
	set(govcard.FieldFormattedName, c.FormattedName)
	if c.Name != nil {
		out.Add(govcard.FieldName, &govcard.Field{Value: strings.Join([]string{
			valueUnescaper.Replace(c.Name.Family),
			valueUnescaper.Replace(c.Name.Given),
			valueUnescaper.Replace(c.Name.Additional),
			valueUnescaper.Replace(c.Name.Prefixes),
			valueUnescaper.Replace(c.Name.Suffixes),
		}, ";")})
	}
	set("PROFILE", c.Profile)
	set(govcard.FieldKind, string(c.Kind))
	set(govcard.FieldUID, c.UID)
	set(govcard.FieldSource, c.Source)

	for _, lf := range listFields {
		for _, v := range *lf.get(c) {
			out.Add(lf.name, &govcard.Field{Value: valueUnescaper.Replace(v)})
		}
	}
	return out
}
