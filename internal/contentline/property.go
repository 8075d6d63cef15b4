package contentline

import (
	"strings"

	"pimparse/internal/perr"
)

// Property is one tokenized content line. Name and parameter keys are
// upper-cased; parameter values and Value are kept verbatim.
type Property struct {
	Name   string
	Params map[string]string
	Value  string
}

// Parse tokenizes a logical line.
//
// The line is split on its first ':' into name/params and value. The left
// part is split on ';': the first segment is the name, the rest are
// KEY=VALUE parameters split on their first '='. A duplicated parameter key
// keeps its last value.
func Parse(line string) (Property, error) {
	head, value, ok := strings.Cut(line, ":")
	if !ok {
		return Property{}, perr.Structural("malformed content line: missing ':'", map[string]any{
			"content": line,
		})
	}

	segments := strings.Split(head, ";")
	p := Property{
		Name:   strings.ToUpper(segments[0]),
		Params: make(map[string]string, len(segments)-1),
		Value:  value,
	}
	if p.Name == "" {
		return Property{}, perr.Structural("malformed content line: empty property name", map[string]any{
			"content": line,
		})
	}

	for _, seg := range segments[1:] {
		k, v, ok := strings.Cut(seg, "=")
		if !ok {
			return Property{}, perr.Structural("malformed parameter: missing '='", map[string]any{
				"content":   line,
				"parameter": seg,
			})
		}
		p.Params[strings.ToUpper(k)] = v
	}

	return p, nil
}

// Param returns the value of a parameter by case-insensitive key.
func (p Property) Param(key string) (string, bool) {
	v, ok := p.Params[strings.ToUpper(key)]
	return v, ok
}

// HasParamValue reports whether parameter key equals want, ignoring case.
func (p Property) HasParamValue(key, want string) bool {
	v, ok := p.Param(key)
	return ok && strings.EqualFold(v, want)
}

// Group returns the vCard group prefix of the name ("ITEM1" for
// "ITEM1.EMAIL"), or "".
func (p Property) Group() string {
	if i := strings.LastIndexByte(p.Name, '.'); i >= 0 {
		return p.Name[:i]
	}
	return ""
}

// BaseName returns the name without any group prefix.
func (p Property) BaseName() string {
	if i := strings.LastIndexByte(p.Name, '.'); i >= 0 {
		return p.Name[i+1:]
	}
	return p.Name
}

// WithValue returns a copy of p carrying a different value. Params are
// shared; they are never mutated after Parse.
func (p Property) WithValue(v string) Property {
	p.Value = v
	return p
}
