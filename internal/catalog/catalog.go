// Package catalog holds the resident card catalog a match hydrates its decks
// from. Catalogs are loaded from YAML or TOML files, or from the cards table.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/thraizz/gridduel-server/internal/game"
	"github.com/thraizz/gridduel-server/internal/game/card"
)

// ErrUnknownCard is returned for base card ids the catalog does not hold.
var ErrUnknownCard = game.ErrUnknownCard

// ErrUnsupportedFormat is returned by LoadFile for unknown file extensions.
var ErrUnsupportedFormat = errors.New("unsupported catalog format")

// AbilitySet reports which ability ids are known. abilities.Registry
// satisfies it.
type AbilitySet interface {
	Has(id card.AbilityID) bool
}

// Catalog is an immutable-after-load set of card definitions keyed by id.
type Catalog struct {
	cards map[string]card.Definition
	order []string
}

var _ game.CardLookup = (*Catalog)(nil)

// file is the on-disk layout shared by the YAML and TOML formats.
type file struct {
	Cards []card.Definition `yaml:"cards" toml:"cards"`
}

// New builds a catalog from definitions, rejecting invalid or duplicate ones.
func New(defs ...card.Definition) (*Catalog, error) {
	c := &Catalog{cards: make(map[string]card.Definition, len(defs))}
	for _, def := range defs {
		if err := c.add(def); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) add(def card.Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	if _, dup := c.cards[def.ID]; dup {
		return fmt.Errorf("duplicate card %q", def.ID)
	}
	c.cards[def.ID] = def
	c.order = append(c.order, def.ID)
	return nil
}

// LoadFile reads a catalog from a .yaml, .yml or .toml file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(strings.TrimPrefix(filepath.Ext(path), "."), data)
}

// Parse decodes catalog data in the given format ("yaml", "yml" or "toml").
func Parse(format string, data []byte) (*Catalog, error) {
	var f file
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("decode yaml catalog: %w", err)
		}
	case "toml":
		if err := toml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("decode toml catalog: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return New(f.Cards...)
}

// Lookup implements game.CardLookup.
func (c *Catalog) Lookup(baseCardID string) (card.Definition, bool) {
	def, ok := c.cards[baseCardID]
	return def, ok
}

// Get is Lookup with an ErrUnknownCard error for missing ids.
func (c *Catalog) Get(baseCardID string) (card.Definition, error) {
	def, ok := c.cards[baseCardID]
	if !ok {
		return card.Definition{}, fmt.Errorf("%w: %s", ErrUnknownCard, baseCardID)
	}
	return def, nil
}

// All returns the definitions in load order.
func (c *Catalog) All() []card.Definition {
	out := make([]card.Definition, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.cards[id])
	}
	return out
}

// Len returns the number of cards.
func (c *Catalog) Len() int {
	return len(c.cards)
}

// Validate checks every ability reference against the known abilities so
// that an unknown id fails at load time instead of mid-match.
func (c *Catalog) Validate(known AbilitySet) error {
	var errs []error
	for _, id := range c.order {
		def := c.cards[id]
		if def.Ability != nil && !known.Has(def.Ability.ID) {
			errs = append(errs, fmt.Errorf("card %q: unknown ability %q", id, def.Ability.ID))
		}
	}
	return errors.Join(errs...)
}

// IDs returns the sorted card ids.
func (c *Catalog) IDs() []string {
	ids := slices.Clone(c.order)
	slices.Sort(ids)
	return ids
}
