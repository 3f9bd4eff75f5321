package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/domain/cell"
	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/domain/reaction"
	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/domain/room"
	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/domain/rules"
	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/events"
	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/platform/logger"
	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/platform/metrics"
)

// Journal lines emitted by the turn controller.
const (
	LineRoomRefused = "This compartment is currently inaccessible (unlock requirements not met)."
	LineEscaped     = "✅ The nuclear exit opens: you escaped with the cell stabilized."
)

// Engine is the turn controller. It owns the only mutable copy of the run and
// hands out View snapshots after every intent.
//
// Engine is not safe for concurrent use; transports serialize access.
type Engine struct {
	eventLog *events.EventLog
	logger   *logger.Logger
	metrics  *metrics.Collector
	picker   Picker

	runID     string
	state     cell.State
	journal   *Journal
	lastEvent *Condition
}

// NewEngine starts a fresh run. A nil picker falls back to a time-seeded RandPicker;
// a nil metrics collector disables instrumentation.
func NewEngine(picker Picker, eventLog *events.EventLog, m *metrics.Collector, log *logger.Logger) *Engine {
	if picker == nil {
		picker = NewRandPicker(0)
	}
	if eventLog == nil {
		eventLog = events.NewEventLog(nil)
	}
	if log == nil {
		log = logger.Discard()
	}

	e := &Engine{
		eventLog: eventLog,
		logger:   log,
		metrics:  m,
		picker:   picker,
	}
	e.start()
	return e
}

func (e *Engine) start() {
	e.runID = uuid.NewString()
	e.state = cell.Start()
	e.journal = NewJournal()
	e.lastEvent = nil

	var seed int64
	if rp, ok := e.picker.(*RandPicker); ok {
		seed = rp.Seed()
	}
	e.record(events.EventTypeRunStarted, events.RunStartedPayload{Seed: seed})
	e.logger.Info(fmt.Sprintf("Run %s started (seed %d)", e.runID, seed))
}

// RunID identifies the current run.
func (e *Engine) RunID() string {
	return e.runID
}

// State returns the current snapshot.
func (e *Engine) State() cell.State {
	return e.state
}

// View returns the current outbound snapshot.
func (e *Engine) View() View {
	return buildView(e.runID, e.state, e.journal.Entries(), e.lastEvent)
}

// PerformReaction spends one action on kind. Requests without an action token,
// or against a finished run, leave the run untouched.
func (e *Engine) PerformReaction(kind reaction.Kind) (View, error) {
	out, err := ApplyReaction(kind, e.state)
	if err != nil {
		e.logger.Warn(fmt.Sprintf("Run %s: %v", e.runID, err))
		return e.View(), err
	}

	if !out.Spent {
		e.metrics.RecordReaction(string(kind), metrics.OutcomeSkipped)
		return e.View(), nil
	}

	prev := e.state
	e.state = out.State
	e.journal.Push(out.Line)

	outcome := metrics.OutcomeApplied
	if !out.Applied {
		outcome = metrics.OutcomeBlocked
	}
	e.metrics.RecordReaction(string(kind), outcome)
	e.record(events.EventTypeReactionPerformed, events.ReactionPayload{
		Reaction: string(kind),
		Applied:  out.Applied,
		Line:     out.Line,
		ATP:      e.state.ATP,
	})
	e.logger.Event(string(events.EventTypeReactionPerformed), e.runID, fmt.Sprintf("%s (%s)", kind, outcome))

	e.checkRunEnded(prev)
	return e.View(), nil
}

// AdvanceTurn runs the regulation pass, then draws and applies exactly one event.
// Nothing happens once the run is over.
func (e *Engine) AdvanceTurn() View {
	if e.state.Terminal() {
		return e.View()
	}
	started := time.Now()
	prev := e.state

	next, lines := Regulate(e.state)
	for _, line := range lines {
		e.journal.Push(line)
	}
	if line := statusLine(next); line != "" {
		e.journal.Push(line)
	}
	e.record(events.EventTypeTurnAdvanced, events.TurnPayload{
		Turn:         next.Turn,
		Status:       next.Status.String(),
		FailureFlags: next.FailureFlags,
		ATP:          next.ATP,
	})

	cond := Draw(e.picker)
	next = cond.Apply(next).Normalize()
	e.journal.Push(cond.LogLine())
	e.lastEvent = &cond
	e.state = next

	e.record(events.EventTypeConditionDrawn, events.ConditionPayload{ConditionID: cond.ID, Title: cond.Title})
	e.metrics.RecordCondition(cond.ID)
	e.metrics.RecordTurn(time.Since(started))
	e.logger.Event(string(events.EventTypeTurnAdvanced), e.runID,
		fmt.Sprintf("turn %d/%d, flags %d, event %s", next.Turn, next.MaxTurns, next.FailureFlags, cond.ID))

	e.checkRunEnded(prev)
	return e.View()
}

// SelectRoom moves the player. Mitochondrial rooms stay closed until the door opens.
func (e *Engine) SelectRoom(r cell.Room) (View, error) {
	def, ok := room.Get(r)
	if !ok {
		err := fmt.Errorf("select room: %w: %d", cell.ErrUnknownRoom, int(r))
		e.logger.Warn(fmt.Sprintf("Run %s: %v", e.runID, err))
		return e.View(), err
	}

	if room.Locked(r, e.state.Locks) {
		e.journal.Push(LineRoomRefused)
		e.metrics.RecordRoomMove(r.String(), false)
		e.record(events.EventTypeRoomRefused, events.RoomPayload{Room: r.String()})
		return e.View(), nil
	}

	e.state.ActiveRoom = r
	e.journal.Push(fmt.Sprintf("Moved to: %s.", def.Name))
	e.metrics.RecordRoomMove(r.String(), true)
	e.record(events.EventTypeRoomSelected, events.RoomPayload{Room: r.String()})
	return e.View(), nil
}

// Reset abandons the current run and starts a new one from the opening snapshot.
func (e *Engine) Reset() View {
	e.record(events.EventTypeRunReset, events.RunEndedPayload{
		Status: e.state.Status.String(),
		Turn:   e.state.Turn,
		ATP:    e.state.ATP,
	})
	e.metrics.RecordReset()
	e.logger.Info(fmt.Sprintf("Run %s reset at turn %d (%s)", e.runID, e.state.Turn, e.state.Status))
	e.start()
	return e.View()
}

// statusLine summarizes a regulation pass for the journal.
func statusLine(s cell.State) string {
	switch s.Status {
	case cell.StatusEscaped:
		return LineEscaped
	case cell.StatusFailed:
		if s.FailureFlags < rules.MaxSeverity {
			// timed out; the regulation pass already said so
			return ""
		}
		reasons := rules.Derive(s).FailReasons
		return "💥 Metabolic collapse: " + strings.Join(reasons, " ")
	default:
		line := fmt.Sprintf("Turn %d/%d begins (flags %d/%d).", s.Turn, s.MaxTurns, s.FailureFlags, rules.MaxSeverity)
		if reasons := rules.Derive(s).FailReasons; len(reasons) > 0 {
			line += " Warning: " + strings.Join(reasons, " ")
		}
		return line
	}
}

func (e *Engine) checkRunEnded(prev cell.State) {
	if prev.Terminal() || !e.state.Terminal() {
		return
	}
	e.record(events.EventTypeRunEnded, events.RunEndedPayload{
		Status: e.state.Status.String(),
		Turn:   e.state.Turn,
		ATP:    e.state.ATP,
	})
	e.metrics.RecordRunEnded(e.state.Status.String())
	e.logger.Info(fmt.Sprintf("Run %s ended: %s at turn %d with %d ATP", e.runID, e.state.Status, e.state.Turn, e.state.ATP))
}

// record appends to the event log. Ledger trouble is logged and counted, never
// surfaced into gameplay.
func (e *Engine) record(t events.EventType, payload any) {
	err := e.eventLog.Append(events.GameEvent{
		Type:    t,
		RunID:   e.runID,
		Turn:    e.state.Turn,
		Payload: payload,
	})
	if err != nil {
		e.logger.Warn(fmt.Sprintf("Run %s: event ledger write failed: %v", e.runID, err))
		e.metrics.RecordLedgerError()
	}
}
