package engine

import (
	"fmt"

	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/domain/cell"
	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/domain/reaction"
)

// Outcome is the result of one reaction request.
type Outcome struct {
	State cell.State
	Line  string // journal entry; empty when nothing was spent
	Spent bool   // an action token was consumed
	// Applied is true when the reaction changed resources or status, false for
	// a precondition no-op.
	Applied bool
}

type reactionFunc func(s cell.State) (cell.State, string, bool)

var reactions = map[reaction.Kind]reactionFunc{
	reaction.Glycolysis:     glycolysis,
	reaction.LactateRoute:   lactateRoute,
	reaction.Glycogenolysis: glycogenolysis,
	reaction.PDH:            pdh,
	reaction.TCA:            tca,
	reaction.ETC:            etc,
	reaction.OxygenRescue:   oxygenRescue,
	reaction.AttemptEscape:  attemptEscape,
}

// ApplyReaction runs kind against s. Without an action token, or once the run is
// over, the request is skipped silently. Otherwise one token is consumed whether
// or not the reaction's precondition holds.
func ApplyReaction(kind reaction.Kind, s cell.State) (Outcome, error) {
	fn, ok := reactions[kind]
	if !ok {
		return Outcome{State: s}, fmt.Errorf("apply reaction: %w: %q", reaction.ErrUnknownReaction, kind)
	}

	if s.ActionsLeft <= 0 || s.Terminal() {
		return Outcome{State: s}, nil
	}

	s.ActionsLeft--
	next, line, applied := fn(s)
	return Outcome{
		State:   next.Normalize(),
		Line:    line,
		Spent:   true,
		Applied: applied,
	}, nil
}

func glycolysis(s cell.State) (cell.State, string, bool) {
	if s.Glucose <= 0 {
		return s, "No glucose available for glycolysis.", false
	}
	if s.NAD <= 0 {
		return s, "Glycolysis stalled: NAD⁺ is depleted. Consider lactate route to regenerate NAD⁺.", false
	}

	s.Glucose--
	s.ATP += 2
	used := min(2, s.NAD)
	s.NAD -= used
	s.NADH += used
	return s, fmt.Sprintf("Ran glycolysis: -1 glucose, +2 ATP, +%d NADH (consumed NAD⁺).", used), true
}

func lactateRoute(s cell.State) (cell.State, string, bool) {
	if s.NADH <= 0 {
		return s, "No NADH to reoxidize via lactate.", false
	}

	k := min(2, s.NADH)
	s.NADH -= k
	s.NAD += k
	s.Lactate += k
	return s, fmt.Sprintf("Converted pyruvate → lactate: regenerated %d NAD⁺ (+%d lactate).", k, k), true
}

func glycogenolysis(s cell.State) (cell.State, string, bool) {
	if s.Glycogen <= 0 {
		return s, "No glycogen left to break down.", false
	}

	s.Glycogen--
	s.Glucose++
	return s, "Glycogenolysis: -1 glycogen, +1 glucose.", true
}

func pdh(s cell.State) (cell.State, string, bool) {
	if !s.Locks.MitoDoor {
		return s, "PDH not accessible: mitochondrial door is locked.", false
	}
	if !s.Locks.PDHGate {
		return s, "PDH gate is closed (high NADH / low NAD⁺ / thiamine risk). Consider ETC or lactate route.", false
	}
	if s.NAD <= 0 {
		return s, "PDH requires NAD⁺; you have none.", false
	}

	s.NAD--
	s.NADH++
	s.AcetylCoA++
	return s, "PDH: pyruvate → acetyl-CoA (+1 acetyl-CoA, +1 NADH, -1 NAD⁺).", true
}

func tca(s cell.State) (cell.State, string, bool) {
	if !s.Locks.TCAOnline {
		return s, "TCA not ready: need acetyl-CoA and an open PDH gate.", false
	}
	if s.NAD < 2 {
		return s, "TCA slowed: insufficient NAD⁺ to run key dehydrogenases.", false
	}

	s.AcetylCoA--
	s.NAD -= 2
	s.NADH += 2
	s.FADH2++
	s.ATP++

	line := "TCA lap: -1 acetyl-CoA, +1 ATP, +2 NADH, +1 FADH₂ (consumed NAD⁺)."
	if s.Flags.Exercise {
		s.ATP++
		line = "TCA lap: -1 acetyl-CoA, +1 ATP, +2 NADH, +1 FADH₂ (consumed NAD⁺). Exercise activation: +1 extra ATP."
	}
	return s, line, true
}

func etc(s cell.State) (cell.State, string, bool) {
	if !s.Locks.ETCOnline {
		switch {
		case s.Flags.Cyanide:
			return s, "ETC offline: cyanide inhibits Complex IV.", false
		case s.O2 == 0:
			return s, "ETC offline: no oxygen (hypoxia).", false
		default:
			return s, "ETC not accessible yet (unlock mitochondrial access first).", false
		}
	}

	n := min(3, s.NADH)
	f := min(2, s.FADH2)
	if n+f == 0 {
		return s, "No NADH/FADH₂ available to feed ETC.", false
	}

	gain := n*2 + f
	s.NADH -= n
	s.FADH2 -= f
	s.ATP += gain
	s.NAD += n
	s.O2 = 1
	return s, fmt.Sprintf("ETC ran: used %d NADH & %d FADH₂ → +%d ATP, regenerated NAD⁺.", n, f, gain), true
}

func oxygenRescue(s cell.State) (cell.State, string, bool) {
	s.O2 = 1
	if s.Flags.Cyanide {
		return s, "Oxygen restored, but cyanide still blocks Complex IV. Avoid relying on the ETC.", true
	}

	s.Flags.Hypoxia = false
	return s, "Oxygenation improved: hypoxia resolved (ETC can resume if not otherwise blocked).", true
}

func attemptEscape(s cell.State) (cell.State, string, bool) {
	if s.ActiveRoom != cell.RoomNucleus {
		return s, "You can only attempt escape from the Nucleus Exit room.", false
	}
	if !s.Locks.NucleusExit {
		return s, "Exit lock holds: need ATP ≥ 32 and metabolic stability (NAD⁺ present, lactate not severe).", false
	}

	s.Status = cell.StatusEscaped
	return s, "✅ Escape successful! Energy balance restored and exit unlocked.", true
}
