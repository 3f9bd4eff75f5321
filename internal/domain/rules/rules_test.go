package rules

import (
	"reflect"
	"testing"

	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/domain/cell"
)

func TestDeriveFromStart(t *testing.T) {
	d := Derive(cell.Start())

	if d.ETCBlocked || d.PDHBlocked || d.NADCrisis || d.AcidosisRisk || d.WinReady {
		t.Errorf("fresh run should have no active conditions, got %+v", d)
	}
	if len(d.FailReasons) != 0 {
		t.Errorf("expected no fail reasons, got %v", d.FailReasons)
	}
}

func TestDeriveETCBlocked(t *testing.T) {
	tests := []struct {
		name  string
		apply func(*cell.State)
	}{
		{"hypoxia", func(s *cell.State) { s.Flags.Hypoxia = true }},
		{"cyanide", func(s *cell.State) { s.Flags.Cyanide = true }},
		{"no oxygen", func(s *cell.State) { s.O2 = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := cell.Start()
			tt.apply(&s)
			if !Derive(s).ETCBlocked {
				t.Errorf("expected ETC blocked")
			}
		})
	}
}

func TestDerivePDHBlockedNeedsBothConditions(t *testing.T) {
	s := cell.Start()
	s.NADH = 7
	if Derive(s).PDHBlocked {
		t.Errorf("high NADH alone must not block PDH")
	}

	s.Flags.ThiamineLow = true
	if !Derive(s).PDHBlocked {
		t.Errorf("thiamine low with NADH 7 should block PDH")
	}

	s.NADH = 6
	if Derive(s).PDHBlocked {
		t.Errorf("NADH 6 is at the limit and must not block")
	}
}

func TestFailReasonsOrder(t *testing.T) {
	s := cell.Start()
	s.NAD = 0
	s.ATP = -1
	s.Lactate = 9
	s.Glucose = 0
	s.Glycogen = 0

	want := []string{ReasonNADCrisis, ReasonATPDebt, ReasonAcidosis, ReasonNoFuel}
	if got := Derive(s).FailReasons; !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestWinReady(t *testing.T) {
	s := cell.Start()
	s.ATP = 32
	if Derive(s).WinReady {
		t.Errorf("win requires the nucleus exit lock")
	}

	s.Locks.NucleusExit = true
	if !Derive(s).WinReady {
		t.Errorf("expected win ready")
	}

	s.FailureFlags = 3
	if Derive(s).WinReady {
		t.Errorf("a failed counter must never be win ready")
	}
}

func TestSeverityIsMaxNotSum(t *testing.T) {
	s := cell.Start()
	s.NAD = 0
	s.Lactate = 8

	if got := Severity(s); got != SeverityAcidosis {
		t.Errorf("NAD crisis + acidosis should be level 2, got %d", got)
	}

	out := AccumulateFailure(s)
	if out.Status != cell.StatusInProgress {
		t.Errorf("level 2 must not fail the run")
	}

	s.ATP = -1
	out = AccumulateFailure(s)
	if out.FailureFlags != 3 || out.Status != cell.StatusFailed {
		t.Errorf("ATP debt should fail the run, got flags=%d status=%v", out.FailureFlags, out.Status)
	}
}

func TestAccumulateFailureNeverDecreases(t *testing.T) {
	s := cell.Start()
	s.FailureFlags = 2

	out := AccumulateFailure(s)
	if out.FailureFlags != 2 {
		t.Errorf("counter dropped from 2 to %d after recovery", out.FailureFlags)
	}
}

func TestComputeLocksMitoDoorSticky(t *testing.T) {
	s := cell.Start()
	if ComputeLocks(s, false).MitoDoor {
		t.Fatalf("door should start closed")
	}

	s.NADH = 2
	s.Locks = ComputeLocks(s, false)
	if !s.Locks.MitoDoor {
		t.Fatalf("NADH 2 should open the door")
	}

	s.NADH = 0
	if !ComputeLocks(s, false).MitoDoor {
		t.Errorf("door must stay open once opened")
	}
}

func TestComputeLocksPDHGate(t *testing.T) {
	s := cell.Start()
	s.Locks.MitoDoor = true
	s.NADH = 5
	s.NAD = 2

	if !ComputeLocks(s, false).PDHGate {
		t.Errorf("expected gate open with NADH 5 and NAD 2")
	}

	s.Flags.ThiamineLow = true
	if ComputeLocks(s, false).PDHGate {
		t.Errorf("thiamine low lowers the NADH ceiling to 4")
	}

	s.Flags.ThiamineLow = false
	s.NAD = 1
	if ComputeLocks(s, false).PDHGate {
		t.Errorf("gate needs NAD >= 2")
	}
}

func TestComputeLocksDownstream(t *testing.T) {
	s := cell.Start()
	s.Locks.MitoDoor = true
	s.AcetylCoA = 1
	s.ATP = 40

	l := ComputeLocks(s, false)
	if !l.TCAOnline || !l.ETCOnline || !l.NucleusExit {
		t.Errorf("expected TCA, ETC and exit open, got %+v", l)
	}

	l = ComputeLocks(s, true)
	if l.ETCOnline {
		t.Errorf("blocked ETC must stay offline")
	}

	s.Lactate = 8
	if ComputeLocks(s, false).NucleusExit {
		t.Errorf("acidosis keeps the exit shut")
	}
}
