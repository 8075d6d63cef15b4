package vcard

// Kind is the KIND of object a card describes.
type Kind string

const (
	KindIndividual Kind = "individual"
	KindGroup      Kind = "group"
	KindOrg        Kind = "org"
	KindLocation   Kind = "location"
)

// Name holds the five components of the N property. Missing trailing
// components are empty.
type Name struct {
	Family     string `json:"family,omitempty" yaml:"family,omitempty"`
	Given      string `json:"given,omitempty" yaml:"given,omitempty"`
	Additional string `json:"additional,omitempty" yaml:"additional,omitempty"`
	Prefixes   string `json:"prefixes,omitempty" yaml:"prefixes,omitempty"`
	Suffixes   string `json:"suffixes,omitempty" yaml:"suffixes,omitempty"`
}

// Card is one parsed vCard. List fields collect every matching line in
// source order, values verbatim.
type Card struct {
	Version       string `json:"version" yaml:"version"`
	FormattedName string `json:"fn,omitempty" yaml:"fn,omitempty"`
	Name          *Name  `json:"n,omitempty" yaml:"n,omitempty"`
	Profile       string `json:"profile,omitempty" yaml:"profile,omitempty"`
	Kind          Kind   `json:"kind,omitempty" yaml:"kind,omitempty"`
	UID           string `json:"uid,omitempty" yaml:"uid,omitempty"`
	Source        string `json:"source,omitempty" yaml:"source,omitempty"`

	Notes         []string `json:"notes,omitempty" yaml:"notes,omitempty"`
	Emails        []string `json:"emails,omitempty" yaml:"emails,omitempty"`
	Telephones    []string `json:"telephones,omitempty" yaml:"telephones,omitempty"`
	Addresses     []string `json:"addresses,omitempty" yaml:"addresses,omitempty"`
	Titles        []string `json:"titles,omitempty" yaml:"titles,omitempty"`
	Roles         []string `json:"roles,omitempty" yaml:"roles,omitempty"`
	Organizations []string `json:"organizations,omitempty" yaml:"organizations,omitempty"`
	URLs          []string `json:"urls,omitempty" yaml:"urls,omitempty"`
	Photos        []string `json:"photos,omitempty" yaml:"photos,omitempty"`
	Birthdays     []string `json:"birthdays,omitempty" yaml:"birthdays,omitempty"`
	Anniversaries []string `json:"anniversaries,omitempty" yaml:"anniversaries,omitempty"`
	Revisions     []string `json:"revisions,omitempty" yaml:"revisions,omitempty"`
}

// listFields maps each list-valued property to its slot on a Card. Encode
// walks the same table.
var listFields = []struct {
	name string
	get  func(*Card) *[]string
}{
	{"NOTE", func(c *Card) *[]string { return &c.Notes }},
	{"EMAIL", func(c *Card) *[]string { return &c.Emails }},
	{"TEL", func(c *Card) *[]string { return &c.Telephones }},
	{"ADR", func(c *Card) *[]string { return &c.Addresses }},
	{"TITLE", func(c *Card) *[]string { return &c.Titles }},
	{"ROLE", func(c *Card) *[]string { return &c.Roles }},
	{"ORG", func(c *Card) *[]string { return &c.Organizations }},
	{"URL", func(c *Card) *[]string { return &c.URLs }},
	{"PHOTO", func(c *Card) *[]string { return &c.Photos }},
	{"BDAY", func(c *Card) *[]string { return &c.Birthdays }},
	{"ANNIVERSARY", func(c *Card) *[]string { return &c.Anniversaries }},
	{"REV", func(c *Card) *[]string { return &c.Revisions }},
}
