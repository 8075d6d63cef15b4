package contentline

import "strings"

// Properties is an ordered list of the properties of one component.
type Properties []Property

// NameFunc extracts the name a lookup matches against.
type NameFunc func(Property) string

// ByName matches the full (upper-cased) property name.
func ByName(p Property) string { return p.Name }

// ByBaseName matches the name after any vCard group prefix.
func ByBaseName(p Property) string { return p.BaseName() }

// First returns the first property whose name equals one of names.
func (ps Properties) First(names ...string) (Property, bool) {
	return ps.FirstBy(ByName, names...)
}

// FirstBy is First with a custom name extractor.
func (ps Properties) FirstBy(fn NameFunc, names ...string) (Property, bool) {
	for _, p := range ps {
		n := fn(p)
		for _, want := range names {
			if strings.EqualFold(n, want) {
				return p, true
			}
		}
	}
	return Property{}, false
}

// FirstPrefix returns the first property whose name starts with prefix.
func (ps Properties) FirstPrefix(prefix string) (Property, bool) {
	prefix = strings.ToUpper(prefix)
	for _, p := range ps {
		if strings.HasPrefix(p.Name, prefix) {
			return p, true
		}
	}
	return Property{}, false
}

// All returns every property named name, in source order.
func (ps Properties) All(name string) Properties {
	return ps.AllBy(ByName, name)
}

// AllBy is All with a custom name extractor.
func (ps Properties) AllBy(fn NameFunc, name string) Properties {
	var out Properties
	for _, p := range ps {
		if strings.EqualFold(fn(p), name) {
			out = append(out, p)
		}
	}
	return out
}

// Values returns the verbatim values of every property named name.
func (ps Properties) Values(name string) []string {
	return ps.ValuesBy(ByName, name)
}

// ValuesBy is Values with a custom name extractor.
func (ps Properties) ValuesBy(fn NameFunc, name string) []string {
	var out []string
	for _, p := range ps.AllBy(fn, name) {
		out = append(out, p.Value)
	}
	return out
}

// Value returns the value of the first property named one of names.
func (ps Properties) Value(names ...string) (string, bool) {
	p, ok := ps.First(names...)
	return p.Value, ok
}
