package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"tnttag/internal/app"
	"tnttag/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

// VoiceTokenRequest is the payload of voice_token.
type VoiceTokenRequest struct {
	Action  string `json:"action"`
	MatchID string `json:"match_id"`
}

type voiceTokenResponse struct {
	Token   string `json:"token"`
	Channel string `json:"channel,omitempty"`
}

// rpcVoiceToken issues a voice access token for the caller. Join tokens
// target the voice channel of the given arena.
func (m *Module) rpcVoiceToken(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" {
		return "", runtime.NewError("authentication required", 16) // UNAUTHENTICATED
	}
	if !m.Voice.Configured() {
		return "", runtime.NewError("voice chat is not configured", 9) // FAILED_PRECONDITION
	}

	var req VoiceTokenRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return "", runtime.NewError("invalid payload", 3) // INVALID_ARGUMENT
	}
	if req.Action == "" {
		req.Action = app.VoiceTokenActionLogin
	}

	var channel string
	if req.Action == app.VoiceTokenActionJoin {
		channel = app.ChannelForMatch(strings.TrimSpace(req.MatchID))
		if channel == "" {
			return "", runtime.NewError("match_id required for join", 3)
		}
	}

	token, err := m.Voice.GenerateToken(userID, req.Action, channel)
	if err != nil {
		logger.Warn("RpcVoiceToken [User:%s]: %v", userID, err)
		return "", runtime.NewError(err.Error(), 3)
	}

	b, err := json.Marshal(voiceTokenResponse{Token: token, Channel: channel})
	if err != nil {
		return "", runtime.NewError("internal error", 13) // INTERNAL
	}
	return string(b), nil
}

// rpcPlayerStats returns the caller's win/loss record.
func (m *Module) rpcPlayerStats(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	if userID == "" {
		return "", runtime.NewError("authentication required", 16)
	}

	stats, err := m.Stats.PlayerStats(ctx, userID)
	if errors.Is(err, ports.ErrPlayerNotFound) {
		return "", runtime.NewError("player stats not found", 5) // NOT_FOUND
	}
	if err != nil {
		logger.Error("RpcPlayerStats [User:%s]: %v", userID, err)
		return "", runtime.NewError("stats lookup failed", 13)
	}

	b, err := json.Marshal(stats)
	if err != nil {
		return "", runtime.NewError("internal error", 13)
	}
	return string(b), nil
}
