package ports

import (
	"context"
	"errors"

	"tnttag/internal/domain"
)

var (
	// ErrPlayerNotFound is returned when no statistics record exists for a user.
	ErrPlayerNotFound = errors.New("player stats not found")
	// ErrNameTaken is returned when a display name is already bound to another user.
	ErrNameTaken = errors.New("player name already taken")
)

// PlayerStats is the persisted win/loss record of one player.
type PlayerStats struct {
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	Wins      int64  `json:"wins"`
	WinStreak int64  `json:"win_streak"`
	Losses    int64  `json:"losses"`
}

// StatsPort defines the interface for persisting round outcomes.
type StatsPort interface {
	// EnsurePlayer creates the record for userID if missing and binds name to it.
	// Returns ErrNameTaken if another user already holds name.
	EnsurePlayer(ctx context.Context, userID, name string) error

	// RecordResult applies a concluded round: the winner gains a win and extends
	// the streak, every loser gains a loss and resets the streak.
	RecordResult(ctx context.Context, result domain.RoundResult) error

	// PlayerStats returns the record for userID or ErrPlayerNotFound.
	PlayerStats(ctx context.Context, userID string) (PlayerStats, error)
}
