// Package reaction defines the catalog of biochemical reactions a player can run.
// This package is PURE and must NOT import any infrastructure packages.
package reaction

import (
	"errors"
	"fmt"
)

// ErrUnknownReaction is returned when a caller names a reaction that does not exist.
var ErrUnknownReaction = errors.New("unknown reaction")

// Kind identifies a reaction on the wire and in the event log.
type Kind string

const (
	Glycolysis     Kind = "Glycolysis"
	LactateRoute   Kind = "LactateRoute"
	Glycogenolysis Kind = "Glycogenolysis"
	PDH            Kind = "PDH"
	TCA            Kind = "TCA"
	ETC            Kind = "ETC"
	OxygenRescue   Kind = "OxygenRescue"
	AttemptEscape  Kind = "AttemptEscape"
)

// All lists every reaction in catalog order.
var All = []Kind{
	Glycolysis,
	LactateRoute,
	Glycogenolysis,
	PDH,
	TCA,
	ETC,
	OxygenRescue,
	AttemptEscape,
}

// Definition provides the player-facing label of a reaction.
type Definition struct {
	Name    string `json:"name"`
	Summary string `json:"summary"`
}

// Registry contains every known reaction and its labels.
var Registry = map[Kind]Definition{
	Glycolysis: {
		Name:    "Run Glycolysis",
		Summary: "-1 glucose → +2 ATP, +NADH (uses NAD⁺)",
	},
	LactateRoute: {
		Name:    "Lactate Route",
		Summary: "Regenerate NAD⁺ (+lactate)",
	},
	Glycogenolysis: {
		Name:    "Glycogenolysis",
		Summary: "-1 glycogen → +1 glucose",
	},
	PDH: {
		Name:    "Run PDH",
		Summary: "Make acetyl-CoA (+NADH)",
	},
	TCA: {
		Name:    "Run TCA Lap",
		Summary: "Use acetyl-CoA → NADH/FADH₂/ATP",
	},
	ETC: {
		Name:    "Run ETC",
		Summary: "Use NADH/FADH₂ → ATP (needs O₂, not cyanide)",
	},
	OxygenRescue: {
		Name:    "Oxygen Rescue",
		Summary: "Resolve hypoxia (if cyanide, still blocked)",
	},
	AttemptEscape: {
		Name:    "Attempt Escape",
		Summary: "Requires ATP ≥ 32 + stability",
	},
}

// Get returns the definition for a reaction kind.
func Get(k Kind) (Definition, bool) {
	def, ok := Registry[k]
	return def, ok
}

// ParseKind validates a wire name.
func ParseKind(name string) (Kind, error) {
	k := Kind(name)
	if _, ok := Registry[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownReaction, name)
	}
	return k, nil
}
