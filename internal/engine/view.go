package engine

import (
	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/domain/cell"
	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/domain/reaction"
	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/domain/room"
	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/domain/rules"
)

// RoomView is one card of the cell map.
type RoomView struct {
	ID       cell.Room `json:"id"`
	Name     string    `json:"name"`
	Subtitle string    `json:"subtitle"`
	Hint     string    `json:"hint"`
	Locked   bool      `json:"locked"`
	Status   string    `json:"status"`
	Active   bool      `json:"active"`
}

// ActionView is one button offered in the active room.
type ActionView struct {
	Reaction reaction.Kind `json:"reaction"`
	Name     string        `json:"name"`
	Summary  string        `json:"summary"`
}

// View is the outbound snapshot handed to the presentation layer after every intent.
type View struct {
	RunID      string        `json:"run_id"`
	State      cell.State    `json:"state"`
	Derived    rules.Derived `json:"derived"`
	Log        []string      `json:"log"`
	Rooms      []RoomView    `json:"rooms"`
	Actions    []ActionView  `json:"actions"`
	CanEndTurn bool          `json:"can_end_turn"`
	LastEvent  *Condition    `json:"last_event,omitempty"`
}

func buildView(runID string, s cell.State, log []string, last *Condition) View {
	v := View{
		RunID:   runID,
		State:   s,
		Derived: rules.Derive(s),
		Log:     log,
		Rooms:   make([]RoomView, 0, len(cell.Rooms)),
	}

	for _, r := range cell.Rooms {
		def, _ := room.Get(r)
		v.Rooms = append(v.Rooms, RoomView{
			ID:       r,
			Name:     def.Name,
			Subtitle: def.Subtitle,
			Hint:     def.Hint,
			Locked:   room.Locked(r, s.Locks),
			Status:   room.StatusText(r, s.Locks),
			Active:   r == s.ActiveRoom,
		})
	}

	for _, k := range room.Offered(s) {
		def, _ := reaction.Get(k)
		v.Actions = append(v.Actions, ActionView{Reaction: k, Name: def.Name, Summary: def.Summary})
	}
	v.CanEndTurn = !s.Terminal()

	if last != nil {
		c := *last
		v.LastEvent = &c
	}
	return v
}
