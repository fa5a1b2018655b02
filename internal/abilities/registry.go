// Package abilities holds the built-in special abilities and the registry the
// engine resolves them from.
//
// Abilities are keyed by a stable id. Display names and descriptions are
// presentation only and never take part in dispatch.
package abilities

import (
	"fmt"

	"github.com/thraizz/gridduel-server/internal/game"
	"github.com/thraizz/gridduel-server/internal/game/card"
	"github.com/thraizz/gridduel-server/internal/game/rules"
)

// Registry holds all registered abilities indexed by their id.
type Registry struct {
	abilities map[card.AbilityID]*game.Ability
	order     []card.AbilityID // registration order for deterministic All()
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		abilities: make(map[card.AbilityID]*game.Ability),
	}
}

// NewDefaultRegistry returns a registry with every built-in ability.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterAll(r)
	return r
}

// Register adds an ability. Registering an id twice replaces the first
// definition but keeps its position in the order.
func (r *Registry) Register(a *game.Ability) error {
	if a == nil || a.ID == "" {
		return fmt.Errorf("ability without id")
	}
	if a.Handler == nil && a.Resolver == nil {
		return fmt.Errorf("ability %s has neither handler nor resolver", a.ID)
	}
	for _, m := range a.Triggers {
		if !m.Valid() {
			return fmt.Errorf("ability %s: unknown trigger moment %q", a.ID, m)
		}
	}
	if len(a.Triggers) > 0 && a.Handler == nil {
		return fmt.Errorf("ability %s declares triggers without a handler", a.ID)
	}
	if _, exists := r.abilities[a.ID]; !exists {
		r.order = append(r.order, a.ID)
	}
	r.abilities[a.ID] = a
	return nil
}

// MustRegister is Register for static tables; it panics on a malformed
// ability.
func (r *Registry) MustRegister(a *game.Ability) {
	if err := r.Register(a); err != nil {
		panic(err)
	}
}

// Ability returns the ability for id. It satisfies game.AbilityProvider.
func (r *Registry) Ability(id card.AbilityID) (*game.Ability, bool) {
	a, ok := r.abilities[id]
	return a, ok
}

// Has reports whether id is registered.
func (r *Registry) Has(id card.AbilityID) bool {
	_, ok := r.abilities[id]
	return ok
}

// All returns every ability in registration order.
func (r *Registry) All() []*game.Ability {
	out := make([]*game.Ability, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.abilities[id])
	}
	return out
}

// On returns the abilities that react to moment m, in registration order.
func (r *Registry) On(m rules.Moment) []*game.Ability {
	var out []*game.Ability
	for _, a := range r.All() {
		if a.FiresOn(m) {
			out = append(out, a)
		}
	}
	return out
}

// Len returns the number of registered abilities.
func (r *Registry) Len() int {
	return len(r.order)
}

// RegisterAll registers every built-in ability. Adding an ability only
// requires listing it here.
func RegisterAll(r *Registry) {
	for _, a := range []*game.Ability{
		Foresight(),
		StormBreaker(),
		TidalSweep(),
		SoulLock(),
		TrickstersGambit(),
		TitanShell(),
		OceansShield(),
		LastStand(),
		Berserker(),
		Vengeance(),
		BloodFeud(),
		Homecoming(),
		RavenScout(),
		CurseWeaver(),
		Sanctuary(),
		LavaBurst(),
		WatchfulSentinel(),
		RallyingBanner(),
		HiddenReserve(),
		Grudge(),
		TideCaller(),
		FrostAura(),
		ThunderEcho(),
		Warding(),
		GaleStep(),
		Banish(),
	} {
		r.MustRegister(a)
	}
}
