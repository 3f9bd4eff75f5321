package engine

import (
	"fmt"

	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/domain/cell"
)

// Condition is one card of the event deck: a physiological perturbation applied
// right after the regulation pass.
type Condition struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`

	apply func(cell.State) cell.State
}

// Apply returns the state with the condition applied.
func (c Condition) Apply(s cell.State) cell.State {
	return c.apply(s)
}

// LogLine is the journal entry for a drawn condition.
func (c Condition) LogLine() string {
	return fmt.Sprintf("🃏 Event: %s — %s", c.Title, c.Description)
}

// Deck is the fixed table of conditions. Order matters for pickers.
var Deck = []Condition{
	{
		ID:          "fed",
		Title:       "Fed state",
		Description: "High insulin: glycolysis and glycogen synthesis favored. O₂ normal.",
		apply: func(s cell.State) cell.State {
			s.Flags.Fasting = false
			s.Flags.Exercise = false
			s.Flags.Hypoxia = false
			s.O2 = 1
			return s
		},
	},
	{
		ID:          "fasting",
		Title:       "Fasting (24h)",
		Description: "Low insulin, high glucagon: glycogen use favored.",
		apply: func(s cell.State) cell.State {
			s.Flags.Fasting = true
			s.Flags.Exercise = false
			s.Glucose = cell.Clamp(s.Glucose-1, 0, cell.ResourceCap)
			return s
		},
	},
	{
		ID:          "exercise",
		Title:       "Exercise burst",
		Description: "↑AMP and ↑Ca²⁺: PFK-1 + isocitrate DH activation. You gain +1 action this turn.",
		apply: func(s cell.State) cell.State {
			s.Flags.Exercise = true
			s.ActionsLeft = min(s.ActionsLeft+1, cell.MaxActions)
			return s
		},
	},
	{
		ID:          "hypoxia",
		Title:       "Hypoxia",
		Description: "O₂ limited → ETC stalls, NADH accumulates, NAD⁺ becomes precious.",
		apply: func(s cell.State) cell.State {
			s.Flags.Hypoxia = true
			s.O2 = 0
			return s
		},
	},
	{
		ID:          "cyanide",
		Title:       "Cyanide exposure",
		Description: "Complex IV inhibited → ETC offline even if O₂ present.",
		apply: func(s cell.State) cell.State {
			s.Flags.Cyanide = true
			return s
		},
	},
	{
		ID:          "thiamine",
		Title:       "Thiamine deficiency risk",
		Description: "PDH becomes unreliable. PDH gate may lock unless you compensate (via lactate route).",
		apply: func(s cell.State) cell.State {
			s.Flags.ThiamineLow = true
			return s
		},
	},
}

// ConditionByID looks a card up by id.
func ConditionByID(id string) (Condition, bool) {
	for _, c := range Deck {
		if c.ID == id {
			return c, true
		}
	}
	return Condition{}, false
}

// DeckIndex returns the position of a card, or -1. Handy for scripting pickers.
func DeckIndex(id string) int {
	for i, c := range Deck {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// Draw picks one card uniformly.
func Draw(p Picker) Condition {
	return Deck[p.Pick(len(Deck))]
}
