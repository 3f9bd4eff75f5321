package rules

import "github.com/MRamiBalles/EscapeMitochondrion/server/internal/domain/cell"

// Severity levels. The counter holds the worst level ever reached, not the
// number of problems, so only an ATP debt can fail a run on its own.
const (
	SeverityNone     = 0
	SeverityNADLow   = 1
	SeverityAcidosis = 2
	SeverityATPDebt  = 3

	MaxSeverity = SeverityATPDebt
)

// Severity returns the highest severity level currently satisfied by s.
func Severity(s cell.State) int {
	level := SeverityNone
	if s.NAD <= 0 {
		level = max(level, SeverityNADLow)
	}
	if s.Lactate >= AcidosisLactate {
		level = max(level, SeverityAcidosis)
	}
	if s.ATP < 0 {
		level = max(level, SeverityATPDebt)
	}
	return level
}

// AccumulateFailure folds the current severity into the run's failure counter and
// fails the run once the counter reaches MaxSeverity.
func AccumulateFailure(s cell.State) cell.State {
	s.FailureFlags = max(s.FailureFlags, Severity(s))
	if s.FailureFlags >= MaxSeverity {
		s.FailureFlags = MaxSeverity
		s.Status = cell.StatusFailed
	}
	return s
}
