package card

import (
	"slices"

	"github.com/thraizz/gridduel-server/internal/game/effects"
	"github.com/thraizz/gridduel-server/internal/game/power"
)

// Rarity of the base card.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// AbilityID is the stable dispatch key of a special ability. Display names
// live in the ability catalog and never take part in dispatch.
type AbilityID string

// AbilityParams tunes a generic ability for one card.
type AbilityParams struct {
	Amount   int    `json:"amount,omitempty" yaml:"amount,omitempty" toml:"amount,omitempty"`
	Duration int    `json:"duration,omitempty" yaml:"duration,omitempty" toml:"duration,omitempty"`
	CardRef  string `json:"cardRef,omitempty" yaml:"card_ref,omitempty" toml:"card_ref,omitempty"`
}

// AmountOr returns Amount, or def when unset.
func (p AbilityParams) AmountOr(def int) int {
	if p.Amount == 0 {
		return def
	}
	return p.Amount
}

// DurationOr returns Duration, or def when unset.
func (p AbilityParams) DurationOr(def int) int {
	if p.Duration <= 0 {
		return def
	}
	return p.Duration
}

// AbilityRef attaches a catalog ability to a card.
type AbilityRef struct {
	ID     AbilityID     `json:"id" yaml:"id" toml:"id"`
	Params AbilityParams `json:"params" yaml:"params" toml:"params"`
}

// Instance is the live, in-match state of one card.
type Instance struct {
	InstanceID    string       `json:"instanceId"`
	BaseCardID    string       `json:"baseCardId"`
	Name          string       `json:"name"`
	Owner         string       `json:"owner"`
	OriginalOwner string       `json:"originalOwner"`
	BasePower     power.Vector `json:"basePower"`
	Rarity        Rarity       `json:"rarity"`
	Tags          []string     `json:"tags,omitempty"`
	Ability       *AbilityRef  `json:"specialAbility,omitempty"`

	Level        int          `json:"level"`
	Enhancements power.Vector `json:"powerEnhancements"`

	CurrentPower power.Vector  `json:"currentPower"`
	Effects      effects.Stack `json:"temporaryEffects"`
	Defeats      []string      `json:"defeats,omitempty"`
	LockedTurns  int           `json:"lockedTurns"`
}

// Recompute derives CurrentPower from base, enhancements and effects.
func (c *Instance) Recompute() {
	c.CurrentPower = c.BasePower.Add(c.Enhancements).Add(c.Effects.Sum())
}

// Effective is the floored power used for display and combat.
func (c *Instance) Effective() power.Vector {
	return c.CurrentPower.Floor()
}

// Rating is the card's score-eligible power: its strongest side before
// flooring. A uniform +n buff raises it by exactly n.
func (c *Instance) Rating() int {
	return c.CurrentPower.Peak()
}

// ApplyEffect coalesces the effect into the stack and returns the change in
// current power.
func (c *Instance) ApplyEffect(effect effects.Effect) power.Vector {
	before := c.CurrentPower
	c.Effects.CreateOrUpdate(effect)
	c.Recompute()
	return c.CurrentPower.Sub(before)
}

// StackEffect adds the effect without coalescing.
func (c *Instance) StackEffect(effect effects.Effect) power.Vector {
	before := c.CurrentPower
	c.Effects.Push(effect)
	c.Recompute()
	return c.CurrentPower.Sub(before)
}

// RemoveEffects drops every effect whose name starts with prefix.
func (c *Instance) RemoveEffects(prefix string) power.Vector {
	before := c.CurrentPower
	if len(c.Effects.RemovePrefix(prefix)) == 0 {
		return power.Vector{}
	}
	c.Recompute()
	return c.CurrentPower.Sub(before)
}

// Tick advances the effect countdowns scoped to playerID. It returns the
// expired effects and the resulting power change.
func (c *Instance) Tick(playerID string) ([]effects.Effect, power.Vector) {
	before := c.CurrentPower
	expired := c.Effects.Tick(playerID)
	if len(expired) == 0 {
		return nil, power.Vector{}
	}
	c.Recompute()
	return expired, c.CurrentPower.Sub(before)
}

// AbilityID returns the card's ability id or "" when it has none.
func (c *Instance) AbilityID() AbilityID {
	if c == nil || c.Ability == nil {
		return ""
	}
	return c.Ability.ID
}

// Params returns the card's ability parameters.
func (c *Instance) Params() AbilityParams {
	if c == nil || c.Ability == nil {
		return AbilityParams{}
	}
	return c.Ability.Params
}

// HasTag reports whether the base card carries tag.
func (c *Instance) HasTag(tag string) bool {
	return slices.Contains(c.Tags, tag)
}

// Locked reports whether the card is immune to flips.
func (c *Instance) Locked() bool {
	return c.LockedTurns > 0
}

// Clone returns a deep copy.
func (c *Instance) Clone() *Instance {
	if c == nil {
		return nil
	}
	out := *c
	out.Tags = slices.Clone(c.Tags)
	out.Defeats = slices.Clone(c.Defeats)
	out.Effects = c.Effects.Clone()
	if c.Ability != nil {
		ref := *c.Ability
		out.Ability = &ref
	}
	return &out
}
