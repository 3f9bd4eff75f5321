// Package cell defines the state snapshot of the simulated cell.
// This package is PURE and must NOT import any infrastructure packages.
package cell

import "fmt"

// Starting values for a fresh run.
const (
	MaxTurns       = 12
	ActionsPerTurn = 2
	MaxActions     = 3

	// ResourceCap is the upper bound for every pooled resource.
	ResourceCap = 99
)

// Status is the lifecycle of a run. InProgress -> {Escaped, Failed}, never back.
type Status int

const (
	StatusInProgress Status = iota
	StatusEscaped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusInProgress:
		return "IN_PROGRESS"
	case StatusEscaped:
		return "ESCAPED"
	case StatusFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// MarshalText lets Status render as its name in JSON.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	for _, candidate := range []Status{StatusInProgress, StatusEscaped, StatusFailed} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", text)
}

// Locks are derived by the end-of-turn regulation pass. Reactions never set them.
type Locks struct {
	MitoDoor    bool `json:"mito_door"`    // Cytosol -> mitochondria access, sticky
	PDHGate     bool `json:"pdh_gate"`     // PDH usable
	TCAOnline   bool `json:"tca_online"`   // TCA lap usable
	ETCOnline   bool `json:"etc_online"`   // oxidative phosphorylation usable
	NucleusExit bool `json:"nucleus_exit"` // final lock
}

// Flags are physiological conditions set by drawn events.
type Flags struct {
	Hypoxia     bool `json:"hypoxia"`
	Fasting     bool `json:"fasting"`
	Exercise    bool `json:"exercise"`
	Cyanide     bool `json:"cyanide"`
	ThiamineLow bool `json:"thiamine_low"`
}

// State is a full snapshot of a run. It holds no pointers, maps or slices,
// so plain assignment produces an independent copy.
type State struct {
	Turn         int    `json:"turn"`
	MaxTurns     int    `json:"max_turns"`
	ActionsLeft  int    `json:"actions_left"`
	Status       Status `json:"status"`
	FailureFlags int    `json:"failure_flags"` // severity level 0-3, not a count

	// Resource pool
	ATP       int `json:"atp"` // may dip below zero before the fail check
	NAD       int `json:"nad"`
	NADH      int `json:"nadh"`
	FADH2     int `json:"fadh2"`
	O2        int `json:"o2"` // 1 = present, 0 = absent
	Lactate   int `json:"lactate"`
	Glucose   int `json:"glucose"`
	Glycogen  int `json:"glycogen"`
	AcetylCoA int `json:"acetyl_coa"`

	Locks      Locks `json:"locks"`
	Flags      Flags `json:"flags"`
	ActiveRoom Room  `json:"active_room"`
}

// Start returns the fixed opening snapshot.
func Start() State {
	return State{
		Turn:        1,
		MaxTurns:    MaxTurns,
		ActionsLeft: ActionsPerTurn,
		Status:      StatusInProgress,

		ATP:      2,
		NAD:      10,
		O2:       1,
		Glucose:  6,
		Glycogen: 6,

		ActiveRoom: RoomCytosol,
	}
}

// Terminal reports whether the run has ended.
func (s State) Terminal() bool {
	return s.Status != StatusInProgress
}

// Normalize clamps every resource into its legal range. ATP keeps its sign so a
// debt survives until the failure check sees it.
func (s State) Normalize() State {
	if s.ATP > ResourceCap {
		s.ATP = ResourceCap
	}
	s.NAD = Clamp(s.NAD, 0, ResourceCap)
	s.NADH = Clamp(s.NADH, 0, ResourceCap)
	s.FADH2 = Clamp(s.FADH2, 0, ResourceCap)
	s.O2 = Clamp(s.O2, 0, 1)
	s.Lactate = Clamp(s.Lactate, 0, ResourceCap)
	s.Glucose = Clamp(s.Glucose, 0, ResourceCap)
	s.Glycogen = Clamp(s.Glycogen, 0, ResourceCap)
	s.AcetylCoA = Clamp(s.AcetylCoA, 0, ResourceCap)
	s.ActionsLeft = Clamp(s.ActionsLeft, 0, MaxActions)
	return s
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
