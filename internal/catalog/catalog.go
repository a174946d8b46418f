// Package catalog holds the static lookup tables used during conversion:
// the satellite groups to fetch with their descriptive labels, and the
// nicknames of well-known satellites.
package catalog

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed default.toml
var defaultTOML []byte

// Group is a named satellite category.
type Group struct {
	Key   string
	Label string
	// URL overrides the URL built from the fetch prefix when set.
	URL string
}

// Catalog is an immutable set of group and nickname tables.
type Catalog struct {
	groups    map[string]Group
	nicknames map[string]string
}

type groupTOML struct {
	Label string `toml:"label"`
	URL   string `toml:"url"`
}

type fileTOML struct {
	Groups    map[string]groupTOML `toml:"groups"`
	Nicknames map[string]string    `toml:"nicknames"`
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(defaultTOML)
	if err != nil {
		panic(fmt.Sprintf("catalog: invalid embedded default: %v", err))
	}
	return c
}

// Parse decodes a catalog from TOML.
func Parse(data []byte) (*Catalog, error) {
	var f fileTOML
	if _, err := toml.Decode(string(data), &f); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	return fromTOML(f)
}

// Load reads the TOML file at path. Sections present in the file replace
// the corresponding built-in table; absent sections keep the defaults.
func Load(path string) (*Catalog, error) {
	var f fileTOML
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, fmt.Errorf("loading catalog %s: %w", path, err)
	}

	c, err := fromTOML(f)
	if err != nil {
		return nil, fmt.Errorf("loading catalog %s: %w", path, err)
	}
	def := Default()
	if !md.IsDefined("groups") {
		c.groups = def.groups
	}
	if !md.IsDefined("nicknames") {
		c.nicknames = def.nicknames
	}
	return c, nil
}

// fromTOML rejects line breaks in keys and values: labels and names are
// written as single lines of the category and record files.
func fromTOML(f fileTOML) (*Catalog, error) {
	c := &Catalog{
		groups:    make(map[string]Group, len(f.Groups)),
		nicknames: make(map[string]string, len(f.Nicknames)),
	}
	for key, g := range f.Groups {
		switch {
		case hasLineBreak(key):
			return nil, fmt.Errorf("group %q: key contains a line break", key)
		case hasLineBreak(g.Label):
			return nil, fmt.Errorf("group %q: label contains a line break", key)
		case hasLineBreak(g.URL):
			return nil, fmt.Errorf("group %q: url contains a line break", key)
		}
		c.groups[key] = Group{Key: key, Label: g.Label, URL: g.URL}
	}
	for num, nick := range f.Nicknames {
		if hasLineBreak(num) || hasLineBreak(nick) {
			return nil, fmt.Errorf("nickname %q: contains a line break", num)
		}
		c.nicknames[num] = nick
	}
	return c, nil
}

func hasLineBreak(s string) bool {
	return strings.ContainsAny(s, "\r\n")
}

// Groups returns every group sorted by key.
func (c *Catalog) Groups() []Group {
	groups := make([]Group, 0, len(c.groups))
	for _, g := range c.groups {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Key < groups[j].Key
	})
	return groups
}

// Group looks up a group by key.
func (c *Catalog) Group(key string) (Group, bool) {
	g, ok := c.groups[key]
	return g, ok
}

// Resolve returns the nickname for a catalog number, or name when the
// satellite has none.
func (c *Catalog) Resolve(catnum, name string) string {
	if nick, ok := c.nicknames[catnum]; ok {
		return nick
	}
	return name
}

// Nicknames returns the number of known nicknames.
func (c *Catalog) Nicknames() int {
	return len(c.nicknames)
}
