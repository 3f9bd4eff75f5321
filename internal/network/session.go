package network

import (
	"errors"
	"fmt"
	"sync"

	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/domain/cell"
	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/domain/reaction"
	"github.com/MRamiBalles/EscapeMitochondrion/server/internal/engine"
)

// ErrUnknownIntent is returned for intent types the server does not handle.
var ErrUnknownIntent = errors.New("unknown intent")

// IntentType names an inbound player request.
type IntentType string

const (
	IntentReaction    IntentType = "REACTION"
	IntentAdvanceTurn IntentType = "ADVANCE_TURN"
	IntentSelectRoom  IntentType = "SELECT_ROOM"
	IntentReset       IntentType = "RESET"
	IntentState       IntentType = "STATE"
)

// Intent is the wire form of a player request, shared by websocket and HTTP.
type Intent struct {
	Type     IntentType `json:"type"`
	Reaction string     `json:"reaction,omitempty"`
	Room     string     `json:"room,omitempty"`
}

// Broadcaster receives every view produced by a state-changing intent.
type Broadcaster interface {
	BroadcastView(v engine.View)
}

// Session serializes access to the single engine behind the server.
type Session struct {
	mu          sync.Mutex
	eng         *engine.Engine
	broadcaster Broadcaster
}

// NewSession wraps an engine.
func NewSession(eng *engine.Engine) *Session {
	return &Session{eng: eng}
}

// SetBroadcaster registers where state changes are fanned out.
func (s *Session) SetBroadcaster(b Broadcaster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcaster = b
}

// View returns the current snapshot.
func (s *Session) View() engine.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eng.View()
}

// RunID returns the id of the run in progress.
func (s *Session) RunID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eng.RunID()
}

// Apply runs one intent. Read-only intents are not broadcast.
func (s *Session) Apply(in Intent) (engine.View, error) {
	s.mu.Lock()
	v, changed, err := s.apply(in)
	b := s.broadcaster
	s.mu.Unlock()

	if err != nil {
		return v, err
	}
	if changed && b != nil {
		b.BroadcastView(v)
	}
	return v, nil
}

func (s *Session) apply(in Intent) (engine.View, bool, error) {
	switch in.Type {
	case IntentReaction:
		kind, err := reaction.ParseKind(in.Reaction)
		if err != nil {
			return s.eng.View(), false, err
		}
		v, err := s.eng.PerformReaction(kind)
		return v, err == nil, err
	case IntentAdvanceTurn:
		return s.eng.AdvanceTurn(), true, nil
	case IntentSelectRoom:
		r, err := cell.ParseRoom(in.Room)
		if err != nil {
			return s.eng.View(), false, err
		}
		v, err := s.eng.SelectRoom(r)
		return v, err == nil, err
	case IntentReset:
		return s.eng.Reset(), true, nil
	case IntentState:
		return s.eng.View(), false, nil
	default:
		return s.eng.View(), false, fmt.Errorf("%w: %q", ErrUnknownIntent, in.Type)
	}
}

// IsClientError reports whether err was caused by a malformed request.
func IsClientError(err error) bool {
	return errors.Is(err, ErrUnknownIntent) ||
		errors.Is(err, reaction.ErrUnknownReaction) ||
		errors.Is(err, cell.ErrUnknownRoom)
}
