package domain

// PhaseName identifies a round phase in match labels and client payloads.
type PhaseName string

const (
	// PhaseIdle is the waiting state: not enough participants to start a countdown.
	PhaseIdle PhaseName = "idle"
	// PhaseCountdown is the pre-match countdown.
	PhaseCountdown PhaseName = "countdown"
	// PhaseMatch is the active round.
	PhaseMatch PhaseName = "match"
	// PhaseEnded is the short results window after a round concludes.
	PhaseEnded PhaseName = "ended"
)

// Phase is the round lifecycle state of one arena.
// The set of variants is closed: Idle, Countdown, Match and Ended.
type Phase interface {
	Name() PhaseName
	phase()
}

// Idle waits for enough active participants.
type Idle struct{}

// Countdown counts TimeLeft down to zero, one unit per tick.
type Countdown struct {
	TimeLeft int
}

// Match is the running round. Participants is the active roster at the
// moment the round started and must be treated as read-only.
type Match struct {
	Participants []SessionID
	Elapsed      int
}

// Ended holds the results window before the arena returns to Idle.
type Ended struct {
	TimeLeft int
	Winner   SessionID
}

func (Idle) Name() PhaseName      { return PhaseIdle }
func (Countdown) Name() PhaseName { return PhaseCountdown }
func (Match) Name() PhaseName     { return PhaseMatch }
func (Ended) Name() PhaseName     { return PhaseEnded }

func (Idle) phase()      {}
func (Countdown) phase() {}
func (Match) phase()     {}
func (Ended) phase()     {}

// AcceptsActiveJoins reports whether a participant joining during this phase
// counts toward the round immediately. Joiners during a running or concluded
// round are queued as pending until the next lobby cycle.
func AcceptsActiveJoins(p Phase) bool {
	switch p.(type) {
	case Idle, Countdown:
		return true
	default:
		return false
	}
}

// RoundConfig is the immutable per-arena configuration the phase machine reads.
type RoundConfig struct {
	MinPlayers       int
	CountdownSeconds int
	EndSeconds       int
	MapName          string
}

// Point3D is a position inside an arena world.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// RoundResult is the outcome of a concluded round.
type RoundResult struct {
	Winner SessionID
	Losers []SessionID
}

// HasWinner reports whether the round ended with a survivor.
func (r RoundResult) HasWinner() bool {
	return r.Winner != ""
}
