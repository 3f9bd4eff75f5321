// Package room describes the four compartments of the cell map: what each one
// offers and whether the player can walk into it.
// This package is PURE and must NOT import any infrastructure packages.
package room

import (
	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/domain/cell"
	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/domain/reaction"
)

// Definition holds the static description of a room.
type Definition struct {
	Name     string
	Subtitle string
	Hint     string
	Offers   []reaction.Kind
}

// Registry contains every room of the map.
var Registry = map[cell.Room]Definition{
	cell.RoomCytosol: {
		Name:     "Cytosol",
		Subtitle: "Glycolysis + Glycogen",
		Hint:     "Make ATP fast; manage NAD⁺. Unlock the mitochondrial door.",
		Offers:   []reaction.Kind{reaction.Glycolysis, reaction.LactateRoute, reaction.Glycogenolysis},
	},
	cell.RoomMatrix: {
		Name:     "Mito Matrix",
		Subtitle: "PDH + TCA",
		Hint:     "Convert pyruvate to acetyl-CoA (PDH), then run TCA to charge NADH/FADH₂.",
		Offers:   []reaction.Kind{reaction.PDH, reaction.TCA, reaction.LactateRoute},
	},
	cell.RoomInnerMembrane: {
		Name:     "Inner Membrane",
		Subtitle: "ETC / OxPhos",
		Hint:     "Use NADH/FADH₂ + O₂ to generate lots of ATP. Beware hypoxia/cyanide.",
		Offers:   []reaction.Kind{reaction.ETC, reaction.OxygenRescue, reaction.LactateRoute},
	},
	cell.RoomNucleus: {
		Name:     "Nucleus Exit",
		Subtitle: "Final Lock",
		Hint:     "Escape requires ATP + stable metabolism (no collapse).",
		Offers:   []reaction.Kind{reaction.AttemptEscape},
	},
}

// Get returns the definition of a room.
func Get(r cell.Room) (Definition, bool) {
	def, ok := Registry[r]
	return def, ok
}

// Locked reports whether the player is currently barred from entering r.
// The nucleus can always be visited; escaping from it is gated separately.
func Locked(r cell.Room, locks cell.Locks) bool {
	switch r {
	case cell.RoomMatrix, cell.RoomInnerMembrane:
		return !locks.MitoDoor
	default:
		return false
	}
}

// StatusText is the short badge shown on each room card.
func StatusText(r cell.Room, locks cell.Locks) string {
	switch r {
	case cell.RoomCytosol:
		if locks.MitoDoor {
			return "Door open"
		}
		return "Door locked"
	case cell.RoomMatrix:
		if locks.PDHGate {
			return "PDH ready"
		}
		return "PDH gated"
	case cell.RoomInnerMembrane:
		if locks.ETCOnline {
			return "ETC online"
		}
		return "ETC stalled"
	case cell.RoomNucleus:
		if locks.NucleusExit {
			return "Exit ready"
		}
		return "Exit locked"
	default:
		return "—"
	}
}

// Offered returns the reactions the room puts in front of the player.
// A finished run offers nothing.
func Offered(s cell.State) []reaction.Kind {
	if s.Terminal() {
		return nil
	}
	def, ok := Registry[s.ActiveRoom]
	if !ok {
		return nil
	}
	out := make([]reaction.Kind, len(def.Offers))
	copy(out, def.Offers)
	return out
}
