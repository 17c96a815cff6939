// Package itemdb holds the static item definitions of the game, loaded from YAML.
package itemdb

import (
	"io"
	"os"

	"github.com/argus-labs/roseshard/pkg/component"
	"github.com/argus-labs/roseshard/pkg/script"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when an item is not in the catalog.
var ErrNotFound = eris.New("item not found in catalog")

// Entry is the YAML form of an item definition.
type Entry struct {
	Category  string `yaml:"category"`
	ID        uint16 `yaml:"id"`
	Name      string `yaml:"name"`
	Stackable bool   `yaml:"stackable"`
	OnEquip   string `yaml:"on_equip"`
	OnUnequip string `yaml:"on_unequip"`
}

type file struct {
	Items []Entry `yaml:"items"`
}

// Definition is a loaded catalog item.
type Definition struct {
	Category  component.Category
	ID        uint16
	Name      string
	Stackable bool

	// Program is nil for items without hooks. The catalog keeps the only strong reference; item
	// entities reference it weakly through component.ScriptHook.
	Program *script.Program
}

type key struct {
	category component.Category
	id       uint16
}

// Catalog indexes definitions by category and id.
type Catalog struct {
	items map[key]*Definition
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{items: make(map[key]*Definition)}
}

// Load reads a catalog from YAML.
func Load(r io.Reader) (*Catalog, error) {
	var f file
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !eris.Is(err, io.EOF) {
		return nil, eris.Wrap(err, "failed to decode item catalog")
	}

	c := New()
	for _, entry := range f.Items {
		if err := c.Register(entry); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// LoadFile reads a catalog from the YAML file at path.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to open item catalog %s", path)
	}
	defer f.Close()
	return Load(f)
}

// Register validates entry, compiles its hooks and adds it to the catalog.
func (c *Catalog) Register(entry Entry) error {
	category, ok := component.ParseCategory(entry.Category)
	if !ok || category == component.CategoryNone {
		return eris.Errorf("item %q: unknown category %q", entry.Name, entry.Category)
	}
	k := key{category: category, id: entry.ID}
	if _, exists := c.items[k]; exists {
		return eris.Errorf("item %q: duplicate %s %d", entry.Name, category, entry.ID)
	}

	def := &Definition{
		Category:  category,
		ID:        entry.ID,
		Name:      entry.Name,
		Stackable: entry.Stackable,
	}
	if entry.OnEquip != "" || entry.OnUnequip != "" {
		program, err := script.Compile(entry.Name, entry.OnEquip, entry.OnUnequip)
		if err != nil {
			return err
		}
		def.Program = program
	}
	c.items[k] = def
	return nil
}

// Lookup returns the definition of an item.
func (c *Catalog) Lookup(category component.Category, id uint16) (*Definition, bool) {
	def, ok := c.items[key{category: category, id: id}]
	return def, ok
}

// Len returns the number of definitions.
func (c *Catalog) Len() int {
	return len(c.items)
}
