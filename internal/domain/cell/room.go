package cell

import (
	"errors"
	"fmt"
)

// ErrUnknownRoom is returned when a caller names a room that does not exist.
var ErrUnknownRoom = errors.New("unknown room")

// Room is one of the four compartments the player can stand in.
type Room int

const (
	RoomCytosol Room = iota
	RoomMatrix
	RoomInnerMembrane
	RoomNucleus
)

// Rooms lists every compartment in map order.
var Rooms = []Room{RoomCytosol, RoomMatrix, RoomInnerMembrane, RoomNucleus}

// String returns the stable wire id of the room.
func (r Room) String() string {
	switch r {
	case RoomCytosol:
		return "cytosol"
	case RoomMatrix:
		return "matrix"
	case RoomInnerMembrane:
		return "imm"
	case RoomNucleus:
		return "nucleus"
	default:
		return "unknown"
	}
}

func (r Room) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Room) UnmarshalText(text []byte) error {
	parsed, err := ParseRoom(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseRoom resolves a wire id into a Room.
func ParseRoom(id string) (Room, error) {
	for _, r := range Rooms {
		if r.String() == id {
			return r, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRoom, id)
}

// Valid reports whether r is one of the declared rooms.
func (r Room) Valid() bool {
	return r >= RoomCytosol && r <= RoomNucleus
}
