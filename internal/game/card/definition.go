package card

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/thraizz/gridduel-server/internal/game/power"
)

// Definition is the static, catalog-side description of a card.
type Definition struct {
	ID        string       `json:"id" yaml:"id" toml:"id"`
	Name      string       `json:"name" yaml:"name" toml:"name"`
	BasePower power.Vector `json:"basePower" yaml:"power" toml:"power"`
	Rarity    Rarity       `json:"rarity" yaml:"rarity" toml:"rarity"`
	Tags      []string     `json:"tags,omitempty" yaml:"tags,omitempty" toml:"tags,omitempty"`
	Ability   *AbilityRef  `json:"specialAbility,omitempty" yaml:"ability,omitempty" toml:"ability,omitempty"`
}

// Validate checks the definition for missing or malformed fields.
func (d Definition) Validate() error {
	var errs []error
	if strings.TrimSpace(d.ID) == "" {
		errs = append(errs, errors.New("missing id"))
	}
	if strings.TrimSpace(d.Name) == "" {
		errs = append(errs, errors.New("missing name"))
	}
	for _, side := range power.Sides {
		if d.BasePower.Get(side) < 0 {
			errs = append(errs, fmt.Errorf("negative %s power", side))
		}
	}
	if d.Ability != nil && d.Ability.ID == "" {
		errs = append(errs, errors.New("ability without id"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("card %q: %w", d.ID, errors.Join(errs...))
	}
	return nil
}

// Instantiate creates a fresh in-match instance of the definition.
func (d Definition) Instantiate(instanceID, owner string, level int, enhancements power.Vector) *Instance {
	c := &Instance{
		InstanceID:    instanceID,
		BaseCardID:    d.ID,
		Name:          d.Name,
		Owner:         owner,
		OriginalOwner: owner,
		BasePower:     d.BasePower,
		Rarity:        d.Rarity,
		Tags:          slices.Clone(d.Tags),
		Level:         max(level, 1),
		Enhancements:  enhancements,
	}
	if d.Ability != nil {
		ref := *d.Ability
		c.Ability = &ref
	}
	c.Recompute()
	return c
}
