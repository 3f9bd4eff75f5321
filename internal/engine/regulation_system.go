package engine

import (
	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/domain/cell"
	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/domain/rules"
)

// Journal lines emitted by the regulation pass.
const (
	LineFastingAdaptation = "Fasting adaptation: liver glycogen supports glucose (+1 glucose, -1 glycogen)."
	LineMitoDoorUnlocked  = "🔓 Mitochondrial access unlocked (you've generated reducing equivalents / entry substrate)."
	LineTimeout           = "⏳ Time ran out: the cell decompensated before you could escape."
)

// Regulate runs the end-of-turn pass. The order of the steps is part of the
// rules: later steps read what earlier steps wrote, except ETC blockage, which
// is fixed from the snapshot the pass started with.
func Regulate(s cell.State) (cell.State, []string) {
	var lines []string
	etcBlocked := rules.ETCBlocked(s)

	// 1. Redox pressure
	if etcBlocked {
		if s.NADH >= rules.RedoxJamNADH {
			s.NAD = max(s.NAD-1, 0)
		}
	} else if s.Locks.ETCOnline && s.NADH > 0 {
		regen := min(1, s.NADH)
		s.NADH -= regen
		s.NAD += regen
	}

	// 2. Fasting adaptation
	if s.Flags.Fasting && s.Glycogen > 0 && s.Glucose < rules.FastingGlucoseLow {
		s.Glycogen--
		s.Glucose++
		lines = append(lines, LineFastingAdaptation)
	}

	// 3. Locks
	wasOpen := s.Locks.MitoDoor
	s.Locks = rules.ComputeLocks(s, etcBlocked)
	if !wasOpen && s.Locks.MitoDoor {
		lines = append(lines, LineMitoDoorUnlocked)
	}

	// 4. Failure flags, clock
	s = rules.AccumulateFailure(s)
	s.Turn++
	s.ActionsLeft = cell.ActionsPerTurn

	// 5. Turn limit
	if s.Turn > s.MaxTurns && s.Status != cell.StatusEscaped {
		s.Status = cell.StatusFailed
		lines = append(lines, LineTimeout)
	}

	// 6. Automatic escape when standing at a ready exit
	if s.Status != cell.StatusFailed && rules.Derive(s).WinReady && s.ActiveRoom == cell.RoomNucleus {
		s.Status = cell.StatusEscaped
	}

	return s.Normalize(), lines
}
