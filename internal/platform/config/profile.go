package config

import (
	"fmt"
	"runtime"
)

// Profile names a set of channel and pool sizes.
type Profile string

const (
	ProfileDefault Profile = "default"
	ProfileStress  Profile = "stress" // agitator runs
	ProfileLow     Profile = "low"    // laptops, CI
)

// Tuning holds channel buffer and pool sizes for the transport and ledger.
type Tuning struct {
	ClientSendBuffer int // per websocket client
	BroadcastBuffer  int // hub fan-out queue
	DBMaxOpenConns   int
}

// Validate rejects unknown profile names.
func (p Profile) Validate() error {
	switch p {
	case ProfileDefault, ProfileStress, ProfileLow:
		return nil
	default:
		return fmt.Errorf("unknown profile %q", string(p))
	}
}

// Tuning returns the preset for p. Unknown profiles get the default preset.
func (p Profile) Tuning() Tuning {
	numCPU := runtime.NumCPU()

	switch p {
	case ProfileStress:
		return Tuning{
			ClientSendBuffer: 512,
			BroadcastBuffer:  256,
			DBMaxOpenConns:   numCPU * 8,
		}
	case ProfileLow:
		return Tuning{
			ClientSendBuffer: 16,
			BroadcastBuffer:  8,
			DBMaxOpenConns:   2,
		}
	default:
		return Tuning{
			ClientSendBuffer: 256,
			BroadcastBuffer:  64,
			DBMaxOpenConns:   numCPU * 4,
		}
	}
}
