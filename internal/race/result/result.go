// Package result defines turn outcome categories and player lifecycle phases.
package result

// Category classifies the outcome of one turn for one player.
type Category int

const (
	Normal Category = iota
	Finished
	GoneOff
	Obstacled
	Collided
	NoPlay
	TimedOut
	Died
	Invalid
)

// String returns the display name used in match logs and summaries.
func (c Category) String() string {
	switch c {
	case Normal:
		return "normal"
	case Finished:
		return "finished"
	case GoneOff:
		return "goneoff"
	case Obstacled:
		return "obstacled"
	case Collided:
		return "collided"
	case NoPlay:
		return "noplay"
	case TimedOut:
		return "timedout"
	case Died:
		return "died"
	case Invalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Terminal reports whether the category ends the player's race.
func (c Category) Terminal() bool {
	switch c {
	case Normal, Obstacled, Collided:
		return false
	default:
		return true
	}
}

// Phase is the lifecycle phase of a player.
type Phase int

const (
	Racing Phase = iota
	AlreadyDisqualified
)

func (p Phase) String() string {
	if p == Racing {
		return "racing"
	}
	return "disqualified"
}
