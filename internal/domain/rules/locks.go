package rules

import "github.com/MRamiBalles/EscapeMitochondrion/server/internal/domain/cell"

// ComputeLocks derives every lock from s. etcBlocked must be the value observed
// when the regulation pass began, not after its resource drift.
// The mitochondrial door is sticky: once open it stays open for the run.
func ComputeLocks(s cell.State, etcBlocked bool) cell.Locks {
	var l cell.Locks

	l.MitoDoor = s.Locks.MitoDoor || s.NADH >= MitoDoorNADH || s.AcetylCoA > 0

	nadhCeiling := PDHGateMaxNADH
	if s.Flags.ThiamineLow {
		nadhCeiling = PDHGateMaxNADHLowB
	}
	l.PDHGate = l.MitoDoor && s.NADH <= nadhCeiling && s.NAD >= PDHGateMinNAD

	l.TCAOnline = l.PDHGate && s.AcetylCoA > 0
	l.ETCOnline = l.MitoDoor && !etcBlocked
	l.NucleusExit = s.ATP >= EscapeATP && s.Lactate < AcidosisLactate && s.NAD > 0

	return l
}
