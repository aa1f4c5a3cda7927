package nakama

import (
	"tnttag/internal/domain"
)

// Wire payloads for server -> client op codes.

type messageEvent struct {
	Topic string `json:"topic"`
	Key   string `json:"key"`
	Text  string `json:"text"`
}

type titleEvent struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
}

type scoreboardEvent struct {
	Lines []string `json:"lines"`
}

type phaseChangedEvent struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type roundEndedEvent struct {
	WinnerID   string   `json:"winner_id,omitempty"`
	WinnerName string   `json:"winner_name,omitempty"`
	LoserIDs   []string `json:"loser_ids"`
}

func newRoundEndedEvent(result domain.RoundResult, names matchHost) roundEndedEvent {
	ev := roundEndedEvent{LoserIDs: make([]string, 0, len(result.Losers))}
	if result.HasWinner() {
		ev.WinnerID = string(result.Winner)
		ev.WinnerName = names.DisplayName(result.Winner)
	}
	for _, id := range result.Losers {
		ev.LoserIDs = append(ev.LoserIDs, string(id))
	}
	return ev
}
