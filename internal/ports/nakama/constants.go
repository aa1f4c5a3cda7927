package nakama

const (
	// RpcQuickMatch is the Nakama RPC id clients call to find or create an open arena.
	RpcQuickMatch = "quick_match"
	// RpcVoiceToken issues voice channel access tokens.
	RpcVoiceToken = "voice_token"
	// RpcPlayerStats returns the caller's win/loss record.
	RpcPlayerStats = "player_stats"

	// MatchNameTNTTag is the authoritative match handler name registered with Nakama.
	MatchNameTNTTag = "tnttag_match"

	// MatchParamMap selects the arena when creating a match.
	MatchParamMap = "map"
	// MatchParamReserve holds a seat for the user that requested the match.
	MatchParamReserve = "reserve"
)

// Match label keys, queried by quick_match.
const (
	LabelKeyGame    = "game"
	LabelKeyMap     = "map"
	LabelKeyPhase   = "phase"
	LabelKeyOpen    = "open"
	LabelKeyPlayers = "players"

	labelGameName = "tnttag"
)

// Server -> Client op codes. Payloads are JSON.
const (
	OpMessage      int64 = 101
	OpTitle        int64 = 102
	OpScoreboard   int64 = 103
	OpResetState   int64 = 104
	OpTeleport     int64 = 105
	OpPhaseChanged int64 = 106
	OpRoundEnded   int64 = 107
)
