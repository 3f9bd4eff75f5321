// Package rules contains the pure calculation logic for game mechanics.
// This package is PURE and must NOT import any infrastructure packages.
package rules

import "github.com/MRamiBalles/EscapeMitochondrion/server/internal/domain/cell"

// Thresholds shared by the derived conditions and the lock computation.
const (
	EscapeATP          = 32
	AcidosisLactate    = 8
	PDHBlockedNADH     = 6
	RedoxJamNADH       = 8
	FastingGlucoseLow  = 3
	MitoDoorNADH       = 2
	PDHGateMinNAD      = 2
	PDHGateMaxNADH     = 6
	PDHGateMaxNADHLowB = 4 // stricter ceiling while thiamine is low
)

// Fail reason messages, in evaluation order.
const (
	ReasonNADCrisis = "NAD⁺ depletion halted glycolysis and many dehydrogenases."
	ReasonATPDebt   = "ATP debt: energy collapse."
	ReasonAcidosis  = "Severe lactic acidosis."
	ReasonNoFuel    = "No fuel left (glucose + glycogen exhausted)."
)

// Derived holds gate conditions computed from a snapshot. It is never stored on
// the state; callers recompute it whenever they need it.
type Derived struct {
	ETCBlocked   bool     `json:"etc_blocked"`
	PDHBlocked   bool     `json:"pdh_blocked"`
	NADCrisis    bool     `json:"nad_crisis"`
	AcidosisRisk bool     `json:"acidosis_risk"`
	WinReady     bool     `json:"win_ready"`
	FailReasons  []string `json:"fail_reasons"`
}

// ETCBlocked reports whether oxidative phosphorylation cannot run.
func ETCBlocked(s cell.State) bool {
	return s.Flags.Hypoxia || s.Flags.Cyanide || s.O2 == 0
}

// Derive evaluates every gate condition for s.
func Derive(s cell.State) Derived {
	d := Derived{
		ETCBlocked:   ETCBlocked(s),
		PDHBlocked:   s.Flags.ThiamineLow && s.NADH > PDHBlockedNADH,
		NADCrisis:    s.NAD <= 0,
		AcidosisRisk: s.Lactate >= AcidosisLactate,
		FailReasons:  make([]string, 0, 4),
	}

	d.WinReady = s.ATP >= EscapeATP &&
		s.FailureFlags < MaxSeverity &&
		s.Locks.NucleusExit

	if d.NADCrisis {
		d.FailReasons = append(d.FailReasons, ReasonNADCrisis)
	}
	if s.ATP < 0 {
		d.FailReasons = append(d.FailReasons, ReasonATPDebt)
	}
	if d.AcidosisRisk {
		d.FailReasons = append(d.FailReasons, ReasonAcidosis)
	}
	if s.Glucose == 0 && s.Glycogen == 0 {
		d.FailReasons = append(d.FailReasons, ReasonNoFuel)
	}

	return d
}
