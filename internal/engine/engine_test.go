package engine

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/domain/cell"
	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/domain/reaction"
	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/domain/rules"
	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/events"
	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/platform/logger"
	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/platform/metrics"
)

// newTestEngine returns an engine that always draws the given card.
func newTestEngine(t *testing.T, card string) (*Engine, *events.EventLog, *metrics.Collector) {
	t.Helper()
	idx := DeckIndex(card)
	if idx < 0 {
		t.Fatalf("unknown card %q", card)
	}
	el := events.NewEventLog(nil)
	m := metrics.New()
	return NewEngine(NewSequencePicker(idx), el, m, logger.Discard()), el, m
}

type failingPersister struct{}

func (failingPersister) Append(events.GameEvent) error {
	return errors.New("disk full")
}

func TestNewEngineStartsFreshRun(t *testing.T) {
	e, el, _ := newTestEngine(t, "fed")

	if e.State() != cell.Start() {
		t.Errorf("Expected opening snapshot, got %+v", e.State())
	}
	v := e.View()
	if len(v.Log) != 1 || v.Log[0] != WelcomeLine {
		t.Errorf("Expected only the welcome line, got %v", v.Log)
	}
	if v.RunID == "" {
		t.Errorf("Expected a run id")
	}
	if got := el.GetByType(events.EventTypeRunStarted); len(got) != 1 {
		t.Errorf("Expected one RUN_STARTED event, got %d", len(got))
	}
}

func TestAdvanceTurnDrawsOneEvent(t *testing.T) {
	e, el, m := newTestEngine(t, "hypoxia")

	v := e.AdvanceTurn()

	if v.State.Turn != 2 {
		t.Errorf("Expected turn 2, got %d", v.State.Turn)
	}
	if v.LastEvent == nil || v.LastEvent.ID != "hypoxia" {
		t.Fatalf("Expected hypoxia card, got %+v", v.LastEvent)
	}
	if !v.State.Flags.Hypoxia || v.State.O2 != 0 {
		t.Errorf("Expected card applied to the regulated state, got %+v", v.State)
	}
	if !strings.HasPrefix(v.Log[0], "🃏 Event: Hypoxia") {
		t.Errorf("Expected event line on top, got %q", v.Log[0])
	}
	if !strings.HasPrefix(v.Log[1], "Turn 2/12 begins") {
		t.Errorf("Expected status line below the event, got %q", v.Log[1])
	}
	if got := el.GetByType(events.EventTypeConditionDrawn); len(got) != 1 {
		t.Errorf("Expected one CONDITION_DRAWN event, got %d", len(got))
	}
	if got := m.Snapshot()[`mito_conditions_drawn_total{condition="hypoxia"}`]; got != 1 {
		t.Errorf("Expected condition counter 1, got %v", got)
	}
}

func TestRepeatedBlockedReactionOnlySpendsActions(t *testing.T) {
	// Setup
	e, el, m := newTestEngine(t, "fed")
	start := e.State()

	// Act
	first, err := e.PerformReaction(reaction.PDH)
	if err != nil {
		t.Fatalf("PerformReaction failed: %v", err)
	}
	second, err := e.PerformReaction(reaction.PDH)
	if err != nil {
		t.Fatalf("PerformReaction failed: %v", err)
	}

	// Assert
	a, b := first.State, second.State
	if a.ActionsLeft != start.ActionsLeft-1 || b.ActionsLeft != start.ActionsLeft-2 {
		t.Errorf("Expected actions %d then %d, got %d then %d",
			start.ActionsLeft-1, start.ActionsLeft-2, a.ActionsLeft, b.ActionsLeft)
	}
	a.ActionsLeft, b.ActionsLeft, start.ActionsLeft = 0, 0, 0
	if a != b || b != start {
		t.Errorf("Expected identical resources apart from actions\nstart  %+v\nfirst  %+v\nsecond %+v", start, a, b)
	}

	if len(second.Log) != 3 {
		t.Fatalf("Expected welcome plus two journal entries, got %v", second.Log)
	}
	if second.Log[0] != second.Log[1] || !strings.Contains(second.Log[0], "mitochondrial door is locked") {
		t.Errorf("Expected the same blocked line twice, got %q and %q", second.Log[0], second.Log[1])
	}
	if got := len(el.GetByType(events.EventTypeReactionPerformed)); got != 2 {
		t.Errorf("Expected 2 REACTION_PERFORMED events, got %d", got)
	}
	if got := m.Snapshot()[`mito_reactions_total{outcome="blocked",reaction="PDH"}`]; got != 2 {
		t.Errorf("Expected 2 blocked PDH reactions counted, got %v", got)
	}
}

func TestAdvanceTurnEscape(t *testing.T) {
	e, el, _ := newTestEngine(t, "fed")
	e.state.ATP = 32
	e.state.Lactate = 0
	e.state.NAD = 5
	e.state.ActiveRoom = cell.RoomNucleus

	v := e.AdvanceTurn()

	if !v.State.Locks.NucleusExit {
		t.Errorf("Expected nucleus exit unlocked")
	}
	if v.State.Status != cell.StatusEscaped {
		t.Fatalf("Expected ESCAPED, got %s", v.State.Status)
	}
	if v.Log[1] != LineEscaped {
		t.Errorf("Expected escape line, got %q", v.Log[1])
	}
	if v.CanEndTurn || len(v.Actions) != 0 {
		t.Errorf("Expected a finished run to offer nothing")
	}
	ended := el.GetByType(events.EventTypeRunEnded)
	if len(ended) != 1 {
		t.Fatalf("Expected one RUN_ENDED event, got %d", len(ended))
	}
	if p := ended[0].Payload.(events.RunEndedPayload); p.Status != "ESCAPED" {
		t.Errorf("Expected ESCAPED payload, got %+v", p)
	}
}

func TestAdvanceTurnCollapse(t *testing.T) {
	e, _, m := newTestEngine(t, "fed")

	e.state.NAD = 0
	v := e.AdvanceTurn()
	if v.State.FailureFlags != 1 || v.State.Status != cell.StatusInProgress {
		t.Fatalf("Expected flags 1 in progress, got flags %d status %s", v.State.FailureFlags, v.State.Status)
	}
	if !strings.Contains(v.Log[1], "Warning: "+rules.ReasonNADCrisis) {
		t.Errorf("Expected NAD warning, got %q", v.Log[1])
	}

	e.state.ATP = -1
	v = e.AdvanceTurn()
	if v.State.Status != cell.StatusFailed || v.State.FailureFlags != rules.MaxSeverity {
		t.Fatalf("Expected FAILED with flags 3, got flags %d status %s", v.State.FailureFlags, v.State.Status)
	}
	if !strings.Contains(v.Log[1], rules.ReasonATPDebt) {
		t.Errorf("Expected collapse line naming ATP debt, got %q", v.Log[1])
	}
	if got := m.Snapshot()[`mito_runs_ended_total{status="FAILED"}`]; got != 1 {
		t.Errorf("Expected one failed run counted, got %v", got)
	}
}

func TestTerminalRunIgnoresIntents(t *testing.T) {
	e, el, _ := newTestEngine(t, "fed")
	e.state.Status = cell.StatusFailed
	before := e.View()
	n := el.Len()

	e.AdvanceTurn()
	if _, err := e.PerformReaction(reaction.Glycolysis); err != nil {
		t.Fatalf("PerformReaction failed: %v", err)
	}

	after := e.View()
	if after.State != before.State {
		t.Errorf("Expected state untouched on a finished run")
	}
	if len(after.Log) != len(before.Log) {
		t.Errorf("Expected no journal entries, got %v", after.Log)
	}
	if el.Len() != n {
		t.Errorf("Expected no ledger entries, got %d new", el.Len()-n)
	}
}

func TestTimeoutAfterLastTurn(t *testing.T) {
	e, _, _ := newTestEngine(t, "fed")

	for i := 0; i < cell.MaxTurns; i++ {
		e.AdvanceTurn()
	}

	v := e.View()
	if v.State.Status != cell.StatusFailed {
		t.Fatalf("Expected FAILED after %d turns, got %s", cell.MaxTurns, v.State.Status)
	}
	if v.Log[1] != LineTimeout {
		t.Errorf("Expected timeout line under the event, got %q", v.Log[1])
	}
}

func TestSelectRoom(t *testing.T) {
	e, el, _ := newTestEngine(t, "fed")

	v, err := e.SelectRoom(cell.RoomMatrix)
	if err != nil {
		t.Fatalf("SelectRoom failed: %v", err)
	}
	if v.State.ActiveRoom != cell.RoomCytosol {
		t.Errorf("Expected matrix refused behind the locked door")
	}
	if v.Log[0] != LineRoomRefused {
		t.Errorf("Expected refusal line, got %q", v.Log[0])
	}

	v, _ = e.SelectRoom(cell.RoomNucleus)
	if v.State.ActiveRoom != cell.RoomNucleus {
		t.Errorf("Expected nucleus to be always reachable")
	}
	if v.Log[0] != "Moved to: Nucleus Exit." {
		t.Errorf("Unexpected move line %q", v.Log[0])
	}

	e.state.Locks.MitoDoor = true
	v, _ = e.SelectRoom(cell.RoomInnerMembrane)
	if v.State.ActiveRoom != cell.RoomInnerMembrane {
		t.Errorf("Expected inner membrane open once the door is")
	}
	if len(v.Actions) == 0 || v.Actions[0].Reaction != reaction.ETC {
		t.Errorf("Expected ETC offered first, got %+v", v.Actions)
	}

	if got := len(el.GetByType(events.EventTypeRoomRefused)); got != 1 {
		t.Errorf("Expected one ROOM_REFUSED event, got %d", got)
	}
	if got := len(el.GetByType(events.EventTypeRoomSelected)); got != 2 {
		t.Errorf("Expected two ROOM_SELECTED events, got %d", got)
	}
}

func TestContractViolations(t *testing.T) {
	e, _, _ := newTestEngine(t, "fed")
	before := e.State()

	if _, err := e.SelectRoom(cell.Room(42)); !errors.Is(err, cell.ErrUnknownRoom) {
		t.Errorf("Expected ErrUnknownRoom, got %v", err)
	}
	if _, err := e.PerformReaction(reaction.Kind("Fermentation")); !errors.Is(err, reaction.ErrUnknownReaction) {
		t.Errorf("Expected ErrUnknownReaction, got %v", err)
	}
	if e.State() != before {
		t.Errorf("Expected state untouched by rejected intents")
	}
}

func TestReactionsAreNotRoomGated(t *testing.T) {
	e, _, _ := newTestEngine(t, "fed")

	// ETC is offered in the inner membrane only, but the engine still runs it.
	v, err := e.PerformReaction(reaction.ETC)
	if err != nil {
		t.Fatalf("PerformReaction failed: %v", err)
	}
	if v.State.ActionsLeft != cell.ActionsPerTurn-1 {
		t.Errorf("Expected one action spent, got %d left", v.State.ActionsLeft)
	}
}

func TestResetRestoresOpeningSnapshot(t *testing.T) {
	e, el, m := newTestEngine(t, "exercise")
	firstRun := e.RunID()

	e.PerformReaction(reaction.Glycolysis)
	e.AdvanceTurn()
	e.PerformReaction(reaction.LactateRoute)
	e.SelectRoom(cell.RoomNucleus)
	e.state.Status = cell.StatusFailed

	v := e.Reset()

	if v.State != cell.Start() {
		t.Errorf("Expected opening snapshot after reset\nwant %+v\ngot  %+v", cell.Start(), v.State)
	}
	if len(v.Log) != 1 || v.Log[0] != WelcomeLine {
		t.Errorf("Expected journal reset to the welcome line, got %v", v.Log)
	}
	if v.LastEvent != nil {
		t.Errorf("Expected no event after reset")
	}
	if v.RunID == firstRun {
		t.Errorf("Expected a new run id")
	}
	if got := len(el.GetByRun(firstRun)); got == 0 {
		t.Errorf("Expected the first run to keep its history")
	}
	if got := m.Snapshot()["mito_resets_total"]; got != 1 {
		t.Errorf("Expected one reset counted, got %v", got)
	}
}

func TestJournalCapped(t *testing.T) {
	e, _, _ := newTestEngine(t, "fed")

	for i := 0; i < JournalCap+20; i++ {
		e.SelectRoom(cell.RoomCytosol)
	}

	v := e.View()
	if len(v.Log) != JournalCap {
		t.Errorf("Expected %d entries, got %d", JournalCap, len(v.Log))
	}
	if v.Log[len(v.Log)-1] == WelcomeLine {
		t.Errorf("Expected the welcome line to have been dropped")
	}
}

func TestLedgerFailureDoesNotStopPlay(t *testing.T) {
	el := events.NewEventLog(failingPersister{})
	m := metrics.New()
	e := NewEngine(NewSequencePicker(0), el, m, logger.Discard())

	v, err := e.PerformReaction(reaction.Glycolysis)
	if err != nil {
		t.Fatalf("Expected gameplay to ignore ledger failures, got %v", err)
	}
	if v.State.ATP != 4 {
		t.Errorf("Expected glycolysis applied, got ATP %d", v.State.ATP)
	}
	if got := m.Snapshot()["mito_ledger_write_errors_total"]; got < 2 {
		t.Errorf("Expected ledger errors counted, got %v", got)
	}
	if el.Len() != 2 {
		t.Errorf("Expected events kept in memory, got %d", el.Len())
	}
}

// TestRandomPlayInvariants drives seeded random intents and checks the
// properties that must hold for any sequence.
func TestRandomPlayInvariants(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		e := NewEngine(NewRandPicker(seed), nil, nil, nil)
		intents := rand.New(rand.NewSource(seed * 7))

		for step := 0; step < 200; step++ {
			prev := e.State()

			switch intents.Intn(4) {
			case 0, 1:
				kind := reaction.All[intents.Intn(len(reaction.All))]
				v, err := e.PerformReaction(kind)
				if err != nil {
					t.Fatalf("seed %d: %v", seed, err)
				}
				spent := prev.ActionsLeft - v.State.ActionsLeft
				if prev.Terminal() || prev.ActionsLeft == 0 {
					if v.State != prev {
						t.Fatalf("seed %d: no-op reaction changed state", seed)
					}
				} else if spent != 1 {
					t.Fatalf("seed %d: %s spent %d actions", seed, kind, spent)
				}
			case 2:
				e.AdvanceTurn()
			case 3:
				e.SelectRoom(cell.Rooms[intents.Intn(len(cell.Rooms))])
			}

			next := e.State()
			if prev.Locks.MitoDoor && !next.Locks.MitoDoor {
				t.Fatalf("seed %d: mitochondrial door closed again", seed)
			}
			if prev.Terminal() && next.Status != prev.Status {
				t.Fatalf("seed %d: status left %s", seed, prev.Status)
			}
			if next.FailureFlags < prev.FailureFlags {
				t.Fatalf("seed %d: failure flags decreased", seed)
			}
			if next.ActionsLeft < 0 || next.ActionsLeft > cell.MaxActions {
				t.Fatalf("seed %d: actions out of range: %d", seed, next.ActionsLeft)
			}
		}
	}
}
