package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/heroiclabs/nakama-common/runtime"
)

// QuickMatchRequest is the optional payload of quick_match.
type QuickMatchRequest struct {
	Map string `json:"map"`
}

// QuickMatchResponse is the payload returned to clients when requesting an open arena.
type QuickMatchResponse struct {
	MatchID string `json:"match_id"`
	Map     string `json:"map"`
	IsNew   bool   `json:"is_new"`
}

func (m *Module) rpcQuickMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)

	var req QuickMatchRequest
	if strings.TrimSpace(payload) != "" {
		if err := json.Unmarshal([]byte(payload), &req); err != nil {
			return "", runtime.NewError("invalid payload", 3) // INVALID_ARGUMENT
		}
	}
	req.Map = strings.TrimSpace(req.Map)
	if req.Map != "" && m.Arenas != nil && !m.Arenas.Has(req.Map) {
		return "", runtime.NewError("unknown map", 3)
	}
	arena := m.Arenas.Arena(req.Map)

	// Open arenas are idle or counting down, on the requested map.
	query := quickMatchQuery(arena.Name)
	limit := 10
	authoritative := true
	minSize := 0
	maxSize := 100

	matches, err := nk.MatchList(ctx, limit, authoritative, "", &minSize, &maxSize, query)
	if err != nil {
		logger.Error("RpcQuickMatch [User:%s]: Failed to list matches: %v", userID, err)
		return "", runtime.NewError("match lookup failed", 13) // INTERNAL
	}

	resp := QuickMatchResponse{Map: arena.Name}
	if len(matches) > 0 {
		resp.MatchID = matches[0].MatchId
		logger.Debug("RpcQuickMatch [User:%s]: Found arena %s on %q", userID, resp.MatchID, arena.Name)
	} else {
		params := map[string]interface{}{MatchParamMap: arena.Name}
		if userID != "" {
			params[MatchParamReserve] = userID
		}
		matchID, err := nk.MatchCreate(ctx, MatchNameTNTTag, params)
		if err != nil {
			logger.Error("RpcQuickMatch [User:%s]: Failed to create match: %v", userID, err)
			return "", runtime.NewError("match create failed", 13)
		}
		resp.MatchID = matchID
		resp.IsNew = true
		logger.Info("RpcQuickMatch [User:%s]: Created arena %s on %q", userID, matchID, arena.Name)
	}

	b, err := json.Marshal(resp)
	if err != nil {
		return "", runtime.NewError("internal error", 13)
	}
	return string(b), nil
}

func quickMatchQuery(mapName string) string {
	return fmt.Sprintf("+label.%s:%s +label.%s:T +label.%s:%s",
		LabelKeyGame, labelGameName,
		LabelKeyOpen,
		LabelKeyMap, strconv.Quote(mapName),
	)
}
