// Package test holds scripted playthroughs that drive a full server session
// from the first turn to a terminal status.
package test

import (
	"fmt"
	"strings"

	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/domain/cell"
	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/domain/reaction"
	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/engine"
	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/events"
	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/network"
	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/platform/logger"
	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/platform/metrics"
)

// maxIntents stops a strategy that never ends its turns.
const maxIntents = 500

// Strategy chooses the next intent from the current view.
type Strategy func(v engine.View) network.Intent

// Scenario is one scripted playthrough.
type Scenario struct {
	Name        string
	Description string
	Deck        []string // card ids drawn in order, cycling; empty draws at random
	Strategy    Strategy
	Expect      *cell.Status // nil accepts any terminal status
}

// Result captures the outcome of a playthrough.
type Result struct {
	Scenario     string
	Status       cell.Status
	Turn         int
	ATP          int
	FailureFlags int
	Intents      int
	Events       int
	Log          []string
	Passed       bool
	Reason       string
}

// Runner plays scenarios against fresh sessions.
type Runner struct {
	Seed    int64
	Logger  *logger.Logger
	Metrics *metrics.Collector
}

// Run plays sc to the end.
func (r *Runner) Run(sc Scenario) (Result, error) {
	var picker engine.Picker
	if len(sc.Deck) > 0 {
		idx := make([]int, 0, len(sc.Deck))
		for _, id := range sc.Deck {
			i := engine.DeckIndex(id)
			if i < 0 {
				return Result{}, fmt.Errorf("scenario %s: unknown card %q", sc.Name, id)
			}
			idx = append(idx, i)
		}
		picker = engine.NewSequencePicker(idx...)
	} else {
		picker = engine.NewRandPicker(r.Seed)
	}

	log := r.Logger
	if log == nil {
		log = logger.Discard()
	}
	el := events.NewEventLog(nil)
	session := network.NewSession(engine.NewEngine(picker, el, r.Metrics, log))

	res := Result{Scenario: sc.Name}
	v := session.View()
	for !v.State.Terminal() {
		if res.Intents >= maxIntents {
			res.Reason = fmt.Sprintf("strategy did not finish within %d intents", maxIntents)
			break
		}
		var err error
		v, err = session.Apply(sc.Strategy(v))
		if err != nil {
			return res, fmt.Errorf("scenario %s: %w", sc.Name, err)
		}
		res.Intents++
	}

	res.Status = v.State.Status
	res.Turn = v.State.Turn
	res.ATP = v.State.ATP
	res.FailureFlags = v.State.FailureFlags
	res.Events = el.Len()
	res.Log = v.Log

	switch {
	case res.Reason != "":
	case sc.Expect != nil && res.Status != *sc.Expect:
		res.Reason = fmt.Sprintf("expected %s, got %s", *sc.Expect, res.Status)
	default:
		res.Passed = true
	}
	return res, nil
}

// Summary is a one-line description of a result.
func (res Result) Summary() string {
	verdict := "PASS"
	if !res.Passed {
		verdict = "FAIL (" + res.Reason + ")"
	}
	return fmt.Sprintf("%-16s %-11s turn %2d  ATP %3d  flags %d  intents %3d  %s",
		res.Scenario, res.Status, res.Turn, res.ATP, res.FailureFlags, res.Intents, verdict)
}

// Transcript returns the journal oldest first.
func (res Result) Transcript() string {
	lines := make([]string, len(res.Log))
	for i, line := range res.Log {
		lines[len(res.Log)-1-i] = line
	}
	return strings.Join(lines, "\n")
}

// Idle never acts.
func Idle(engine.View) network.Intent {
	return network.Intent{Type: network.IntentAdvanceTurn}
}

// Anaerobic only ever uses cytosolic reactions.
func Anaerobic(v engine.View) network.Intent {
	s := v.State
	switch {
	case s.ActionsLeft == 0:
		return network.Intent{Type: network.IntentAdvanceTurn}
	case s.NAD < 2 && s.NADH > 0:
		return react(reaction.LactateRoute)
	case s.Glucose > 0:
		return react(reaction.Glycolysis)
	case s.Glycogen > 0:
		return react(reaction.Glycogenolysis)
	default:
		return network.Intent{Type: network.IntentAdvanceTurn}
	}
}

// Aerobic feeds the mitochondria as soon as they open and walks to the exit
// once it unlocks.
func Aerobic(v engine.View) network.Intent {
	s := v.State
	switch {
	case s.Locks.NucleusExit && s.ActiveRoom == cell.RoomNucleus && s.ActionsLeft > 0:
		return react(reaction.AttemptEscape)
	case s.Locks.NucleusExit && s.ActiveRoom != cell.RoomNucleus:
		return network.Intent{Type: network.IntentSelectRoom, Room: cell.RoomNucleus.String()}
	case s.ActionsLeft == 0:
		return network.Intent{Type: network.IntentAdvanceTurn}
	case s.Flags.Hypoxia || s.O2 == 0:
		return react(reaction.OxygenRescue)
	case s.Locks.ETCOnline && s.NADH+s.FADH2 > 0:
		return react(reaction.ETC)
	case s.Locks.TCAOnline && s.NAD >= 2:
		return react(reaction.TCA)
	case s.Locks.PDHGate && s.NAD > 0:
		return react(reaction.PDH)
	case s.Glucose > 0 && s.NAD > 0:
		return react(reaction.Glycolysis)
	case s.Glycogen > 0:
		return react(reaction.Glycogenolysis)
	default:
		return network.Intent{Type: network.IntentAdvanceTurn}
	}
}

func expect(s cell.Status) *cell.Status {
	return &s
}

func react(k reaction.Kind) network.Intent {
	return network.Intent{Type: network.IntentReaction, Reaction: string(k)}
}

// Scenarios are the scripted playthroughs with a known ending.
var Scenarios = []Scenario{
	{
		Name:        "idle",
		Description: "Ends every turn without acting; the clock runs out.",
		Deck:        []string{"fed"},
		Strategy:    Idle,
		Expect:      expect(cell.StatusFailed),
	},
	{
		Name:        "anaerobic",
		Description: "Glycolysis and lactate only under hypoxia; never reaches the exit.",
		Deck:        []string{"hypoxia"},
		Strategy:    Anaerobic,
		Expect:      expect(cell.StatusFailed),
	},
	{
		Name:        "aerobic-escape",
		Description: "Opens the mitochondria and runs PDH, TCA and ETC until the exit unlocks.",
		Deck:        []string{"fed"},
		Strategy:    Aerobic,
		Expect:      expect(cell.StatusEscaped),
	},
}

// RandomScenario plays the aerobic strategy against a random deck.
func RandomScenario() Scenario {
	return Scenario{
		Name:        "random-deck",
		Description: "Aerobic strategy against a seeded random deck.",
		Strategy:    Aerobic,
	}
}
