// Package symbols reads the catalog of symbols available as icon content.
//
// A catalog is a TOML file mapping each symbol name to the year it was
// released, with an optional table describing each release:
//
//	[releases."2019"]
//	ios = "13.0"
//	macos = "11.0"
//
//	[symbols]
//	"star.fill" = "2019"
//	"0.circle" = "2019"
//
// Symbol images live in a directory next to the catalog as <name>.png.
package symbols

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"

	kerrors "github.com/skillbreak/kiticon/pkg/errors"
)

// Release names the platform versions that shipped in one release year.
type Release struct {
	IOS     string `toml:"ios"`
	MacOS   string `toml:"macos"`
	TVOS    string `toml:"tvos"`
	WatchOS string `toml:"watchos"`
}

func (r Release) String() string {
	return fmt.Sprintf("iOS %s, tvOS %s, watchOS %s, macOS %s", r.IOS, r.TVOS, r.WatchOS, r.MacOS)
}

// Symbol is one catalog entry.
type Symbol struct {
	Name    string
	Year    string
	Release Release
}

func (s Symbol) String() string { return fmt.Sprintf("[%s] @ %s", s.Name, s.Year) }

// Group holds the symbols of one release year, sorted by name.
type Group struct {
	Year    string
	Symbols []Symbol
}

// Catalog is a parsed symbol catalog.
type Catalog struct {
	symbols map[string]Symbol
	dir     string
}

type catalogFile struct {
	Releases map[string]Release `toml:"releases"`
	Symbols  map[string]string  `toml:"symbols"`
}

// Load reads the catalog at path. Images are looked up in dir, or in the
// catalog's own directory when dir is empty.
func Load(path, dir string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, kerrors.Wrap(kerrors.ErrCodeFileNotFound, err, "symbol catalog %s not found", path)
		}
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	if dir == "" {
		dir = filepath.Dir(path)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, err
	}
	c.dir = dir
	return c, nil
}

// Parse decodes catalog TOML. Names are validated; a symbol whose year has
// no release table gets a zero Release.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if _, err := toml.Decode(string(data), &f); err != nil {
		return nil, kerrors.Wrap(kerrors.ErrCodeInvalidFormat, err, "parse symbol catalog")
	}
	c := &Catalog{symbols: make(map[string]Symbol, len(f.Symbols))}
	for name, year := range f.Symbols {
		if err := kerrors.ValidateSymbolName(name); err != nil {
			return nil, err
		}
		c.symbols[name] = Symbol{Name: name, Year: year, Release: f.Releases[year]}
	}
	return c, nil
}

// Len returns the number of symbols.
func (c *Catalog) Len() int { return len(c.symbols) }

// Lookup returns the symbol called name.
func (c *Catalog) Lookup(name string) (Symbol, error) {
	if err := kerrors.ValidateSymbolName(name); err != nil {
		return Symbol{}, err
	}
	s, ok := c.symbols[name]
	if !ok {
		return Symbol{}, kerrors.New(kerrors.ErrCodeNotFound, "unknown symbol %q", name)
	}
	return s, nil
}

// ImagePath returns the image file of the symbol called name.
func (c *Catalog) ImagePath(name string) (string, error) {
	if _, err := c.Lookup(name); err != nil {
		return "", err
	}
	return filepath.Join(c.dir, name+".png"), nil
}

// GroupByYear returns the catalog grouped by release year, years ascending
// and names ascending within each year.
func (c *Catalog) GroupByYear() []Group {
	all := make([]Symbol, 0, len(c.symbols))
	for _, s := range c.symbols {
		all = append(all, s)
	}
	return GroupByYear(all)
}

// GroupByYear groups symbols by year. Years sort ascending and names sort
// ascending within each year.
func GroupByYear(symbols []Symbol) []Group {
	byYear := make(map[string][]Symbol)
	for _, s := range symbols {
		byYear[s.Year] = append(byYear[s.Year], s)
	}
	groups := make([]Group, 0, len(byYear))
	for year, list := range byYear {
		sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
		groups = append(groups, Group{Year: year, Symbols: list})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Year < groups[j].Year })
	return groups
}

// Names flattens groups into symbol names in group order.
func Names(groups []Group) []string {
	var out []string
	for _, g := range groups {
		for _, s := range g.Symbols {
			out = append(out, s.Name)
		}
	}
	return out
}
