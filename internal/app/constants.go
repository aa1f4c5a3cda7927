package app

// Message topics and keys looked up in the message catalog.
const (
	TopicCountdown        = "countdown"
	KeyCountdownStart     = "start"
	KeyCountdownDecrement = "decrement"
	KeyCountdownStop      = "stop"

	TopicStart       = "start"
	KeyStartTitle    = "title"
	KeyStartSubtitle = "subtitle"
	KeyStartMessage  = "message"

	TopicEnd       = "end"
	KeyEndWinner   = "winner"
	KeyEndNoWinner = "no_winner"
	KeyEndRestart  = "restart"

	// TopicScoreboard holds one line template per phase, keyed by domain.PhaseName.
	TopicScoreboard = "scoreboard"
)

// Placeholder names interpolated into messages and scoreboard lines.
const (
	VarMap          = "map"
	VarPlayersCount = "players_count"
	VarCountdown    = "countdown"
	VarElapsed      = "elapsed"
	VarWinner       = "winner"
)

// CountdownAnnounceThreshold is the highest remaining countdown value that gets a chat announcement.
const CountdownAnnounceThreshold = 5

// ReservationTicks is how many round ticks a reserved seat is held for a
// session that has not joined yet.
const ReservationTicks = 10
