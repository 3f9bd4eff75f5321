package engine

import (
	"errors"
	"strings"
	"testing"

	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/domain/cell"
	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/domain/reaction"
)

func mustApply(t *testing.T, kind reaction.Kind, s cell.State) Outcome {
	t.Helper()
	out, err := ApplyReaction(kind, s)
	if err != nil {
		t.Fatalf("ApplyReaction(%s) failed: %v", kind, err)
	}
	return out
}

func TestGlycolysisTwiceFromStart(t *testing.T) {
	s := cell.Start()
	s = mustApply(t, reaction.Glycolysis, s).State
	s = mustApply(t, reaction.Glycolysis, s).State

	if s.Glucose != 4 || s.ATP != 6 || s.NAD != 6 || s.NADH != 4 {
		t.Errorf("Expected Glucose=4 ATP=6 NAD=6 NADH=4, got Glucose=%d ATP=%d NAD=%d NADH=%d",
			s.Glucose, s.ATP, s.NAD, s.NADH)
	}
	if s.ActionsLeft != 0 {
		t.Errorf("Expected both actions spent, got %d left", s.ActionsLeft)
	}
}

func TestLactateRouteRegeneratesNAD(t *testing.T) {
	s := cell.Start()
	s.NADH = 9
	s.NAD = 1

	out := mustApply(t, reaction.LactateRoute, s)

	if out.State.NADH != 7 || out.State.NAD != 3 || out.State.Lactate != 2 {
		t.Errorf("Expected NADH=7 NAD=3 Lactate=2, got NADH=%d NAD=%d Lactate=%d",
			out.State.NADH, out.State.NAD, out.State.Lactate)
	}
}

func TestETCUnderCyanide(t *testing.T) {
	// Setup
	cyanide, _ := ConditionByID("cyanide")
	s := cyanide.Apply(cell.Start())

	// Act
	out := mustApply(t, reaction.ETC, s)

	// Assert
	if out.Applied {
		t.Errorf("Expected ETC to be blocked")
	}
	if !strings.Contains(out.Line, "Complex IV") {
		t.Errorf("Expected log to mention Complex IV, got %q", out.Line)
	}
	want := s
	want.ActionsLeft--
	if out.State != want {
		t.Errorf("Expected only the action to be spent\nwant %+v\ngot  %+v", want, out.State)
	}

	rescued := mustApply(t, reaction.OxygenRescue, out.State)
	if rescued.State.Locks.ETCOnline {
		t.Errorf("Expected ETC to stay offline after oxygen rescue under cyanide")
	}
	if !rescued.State.Flags.Cyanide {
		t.Errorf("Expected cyanide to persist")
	}
	regulated, _ := Regulate(rescued.State)
	if regulated.Locks.ETCOnline {
		t.Errorf("Expected ETC to stay offline through regulation under cyanide")
	}
}

func TestEveryReactionSpendsExactlyOneAction(t *testing.T) {
	for _, kind := range reaction.All {
		s := cell.Start()
		out := mustApply(t, kind, s)
		if !out.Spent {
			t.Errorf("%s: expected an action to be spent", kind)
		}
		if out.State.ActionsLeft != s.ActionsLeft-1 {
			t.Errorf("%s: expected %d actions left, got %d", kind, s.ActionsLeft-1, out.State.ActionsLeft)
		}
		if out.Line == "" {
			t.Errorf("%s: expected a journal line", kind)
		}
	}
}

func TestNoActionsLeftIsNoOp(t *testing.T) {
	s := cell.Start()
	s.ActionsLeft = 0

	for _, kind := range reaction.All {
		out := mustApply(t, kind, s)
		if out.Spent || out.Line != "" {
			t.Errorf("%s: expected silent no-op, got spent=%v line=%q", kind, out.Spent, out.Line)
		}
		if out.State != s {
			t.Errorf("%s: expected state unchanged", kind)
		}
	}
}

func TestTerminalRunIgnoresReactions(t *testing.T) {
	for _, status := range []cell.Status{cell.StatusEscaped, cell.StatusFailed} {
		s := cell.Start()
		s.Status = status

		out := mustApply(t, reaction.Glycolysis, s)
		if out.Spent || out.State != s {
			t.Errorf("%s: expected reaction to be ignored", status)
		}
	}
}

func TestUnknownReaction(t *testing.T) {
	_, err := ApplyReaction(reaction.Kind("Photosynthesis"), cell.Start())
	if !errors.Is(err, reaction.ErrUnknownReaction) {
		t.Errorf("Expected ErrUnknownReaction, got %v", err)
	}
}

func TestBlockedPreconditions(t *testing.T) {
	tests := []struct {
		name string
		kind reaction.Kind
		prep func(*cell.State)
	}{
		{"glycolysis without glucose", reaction.Glycolysis, func(s *cell.State) { s.Glucose = 0 }},
		{"glycolysis without NAD", reaction.Glycolysis, func(s *cell.State) { s.NAD = 0 }},
		{"lactate without NADH", reaction.LactateRoute, func(s *cell.State) { s.NADH = 0 }},
		{"glycogenolysis without glycogen", reaction.Glycogenolysis, func(s *cell.State) { s.Glycogen = 0 }},
		{"PDH behind locked door", reaction.PDH, func(s *cell.State) {}},
		{"TCA offline", reaction.TCA, func(s *cell.State) {}},
		{"ETC before door", reaction.ETC, func(s *cell.State) {}},
		{"escape outside nucleus", reaction.AttemptEscape, func(s *cell.State) {}},
		{"escape with exit locked", reaction.AttemptEscape, func(s *cell.State) { s.ActiveRoom = cell.RoomNucleus }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := cell.Start()
			tt.prep(&s)

			out := mustApply(t, tt.kind, s)
			if out.Applied {
				t.Errorf("Expected precondition to block %s", tt.kind)
			}
			want := s
			want.ActionsLeft--
			if out.State != want {
				t.Errorf("Expected only the action to be spent\nwant %+v\ngot  %+v", want, out.State)
			}
		})
	}
}

func TestMitochondrialChain(t *testing.T) {
	s := cell.Start()
	s.ActionsLeft = cell.MaxActions
	s.Locks.MitoDoor = true
	s.Locks.PDHGate = true
	s.NAD = 6
	s.NADH = 2

	s = mustApply(t, reaction.PDH, s).State
	if s.AcetylCoA != 1 || s.NAD != 5 || s.NADH != 3 {
		t.Fatalf("PDH: expected AcetylCoA=1 NAD=5 NADH=3, got %+v", s)
	}

	s.Locks.TCAOnline = true
	s.Flags.Exercise = true
	out := mustApply(t, reaction.TCA, s)
	s = out.State
	if s.AcetylCoA != 0 || s.NAD != 3 || s.NADH != 5 || s.FADH2 != 1 || s.ATP != 4 {
		t.Fatalf("TCA with exercise: unexpected state %+v", s)
	}
	if !strings.Contains(out.Line, "Exercise activation") {
		t.Errorf("Expected exercise note in %q", out.Line)
	}

	s.Locks.ETCOnline = true
	s = mustApply(t, reaction.ETC, s).State
	// 3 NADH and 1 FADH2 burned: 3*2 + 1
	if s.ATP != 11 || s.NADH != 2 || s.FADH2 != 0 || s.NAD != 6 {
		t.Errorf("ETC: unexpected state %+v", s)
	}
}

func TestAttemptEscape(t *testing.T) {
	s := cell.Start()
	s.ATP = 32
	s.ActiveRoom = cell.RoomNucleus
	s.Locks.NucleusExit = true

	out := mustApply(t, reaction.AttemptEscape, s)
	if out.State.Status != cell.StatusEscaped {
		t.Errorf("Expected escape, got %s", out.State.Status)
	}
}

func TestOxygenRescueClearsHypoxia(t *testing.T) {
	s := cell.Start()
	s.Flags.Hypoxia = true
	s.O2 = 0

	out := mustApply(t, reaction.OxygenRescue, s)
	if out.State.Flags.Hypoxia || out.State.O2 != 1 {
		t.Errorf("Expected hypoxia cleared and O2 restored, got %+v", out.State)
	}
}
