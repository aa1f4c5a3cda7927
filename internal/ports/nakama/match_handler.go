package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"path/filepath"
	"time"

	"tnttag/internal/app"
	"tnttag/internal/domain"
	"tnttag/internal/i18n"
	"tnttag/internal/world"

	"github.com/heroiclabs/nakama-common/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

const tracerName = "tnttag/internal/ports/nakama"

// MatchState holds the authoritative runtime state for one arena.
type MatchState struct {
	MatchID    string
	Tick       int64
	Arena      *world.Arena
	Controller *app.Controller
	Presences  map[string]runtime.Presence // user id -> presence
	Localizer  i18n.Localizer

	roundEvery   int64
	displayEvery int64
	label        string
}

// matchHost answers the controller's session and world lookups from match state.
type matchHost struct {
	state *MatchState
}

func (h matchHost) Connected(id domain.SessionID) bool {
	_, ok := h.state.Presences[string(id)]
	return ok
}

func (h matchHost) DisplayName(id domain.SessionID) string {
	if p, ok := h.state.Presences[string(id)]; ok && p.GetUsername() != "" {
		return p.GetUsername()
	}
	return string(id)
}

func (h matchHost) SafeSpawn() domain.Point3D {
	return h.state.Arena.SafeSpawn()
}

type matchHandler struct {
	module *Module
	tracer trace.Tracer
}

func newMatchHandler(m *Module) *matchHandler {
	return &matchHandler{module: m, tracer: otel.Tracer(tracerName)}
}

// MatchInit is called when the match is created. It starts cloning the arena
// world in the background; the arena counts as loading until the copy completes.
// A user id in the reserve param holds a seat for the match's creator.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	matchID, _ := ctx.Value(runtime.RUNTIME_CTX_MATCH_ID).(string)
	mapName, _ := params[MatchParamMap].(string)
	arenaCfg := mh.module.Arenas.Arena(mapName)
	settings := mh.module.Settings

	logger = logger.WithField("match_id", matchID)
	logger.Debug("MatchInit: Initializing arena %q.", arenaCfg.Name)

	arena := world.NewArena(filepath.Join(settings.WorldsDir, "instances"), arenaCfg.Name, arenaCfg.Spawn)
	var source string
	if arenaCfg.WorldSource != "" {
		source = filepath.Join(settings.WorldsDir, "templates", arenaCfg.WorldSource)
	}
	// The copy outlives MatchInit's context.
	readiness := arena.Prepare(context.Background(), mh.module.Cloner, source)

	state := &MatchState{
		MatchID:      matchID,
		Arena:        arena,
		Presences:    make(map[string]runtime.Presence),
		Localizer:    mh.module.Catalog.Localizer(settings.Locale),
		roundEvery:   settings.RoundTickEvery(),
		displayEvery: settings.DisplayTickEvery(),
	}
	state.Controller = app.NewController(arenaCfg.Round(), matchHost{state: state}, readiness, state.Localizer, logger)
	if reserve, _ := params[MatchParamReserve].(string); reserve != "" {
		state.Controller.Reserve(domain.SessionID(reserve))
		logger.Debug("MatchInit: Holding a seat for %s.", reserve)
	}

	label, err := buildLabel(state)
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}
	state.label = label

	return state, settings.TickRate, label
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}
	if matchState.Controller.DestructionRequested() {
		return state, false, "arena closing"
	}
	// The seat counts toward the roster until MatchJoin lands.
	matchState.Controller.Reserve(domain.SessionID(presence.GetUserId()))
	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		matchState.Presences[p.GetUserId()] = p
		if queued := matchState.Controller.Join(domain.SessionID(p.GetUserId())); queued {
			logger.Debug("MatchJoin: User %s queued until the next round.", p.GetUserId())
		} else {
			logger.Debug("MatchJoin: User %s joined the round.", p.GetUserId())
		}
	}

	mh.updateLabel(matchState, dispatcher, logger)
	mh.dispatchEvents(ctx, matchState, dispatcher, logger, matchState.Controller.RefreshDisplay())

	return matchState
}

// MatchLeave is called when one or more players leave the match. The arena
// itself is torn down by the round controller once it is empty.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		delete(matchState.Presences, p.GetUserId())
		if matchState.Controller.Leave(domain.SessionID(p.GetUserId())) {
			logger.Debug("MatchLeave: User %s left.", p.GetUserId())
		}
	}

	mh.updateLabel(matchState, dispatcher, logger)
	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}

	matchState.Tick = tick

	for _, msg := range messages {
		logger.Warn("MatchLoop: Unknown opcode received: %d", msg.GetOpCode())
	}

	if tick%matchState.roundEvery == 0 {
		mh.tickRound(ctx, matchState, dispatcher, logger)
		if matchState.Controller.DestructionRequested() {
			logger.Info("MatchLoop: Arena %q is empty, terminating.", matchState.Arena.Map)
			releaseArena(matchState, logger)
			return nil
		}
	}

	if tick%matchState.displayEvery == 0 {
		mh.dispatchEvents(ctx, matchState, dispatcher, logger, matchState.Controller.RefreshDisplay())
	}

	return matchState
}

func (mh *matchHandler) tickRound(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	start := time.Now()
	from := state.Controller.Phase().Name()

	events := state.Controller.Tick()
	mh.dispatchEvents(ctx, state, dispatcher, logger, events)

	to := state.Controller.Phase().Name()
	if from == to {
		return
	}
	_, span := mh.tracer.Start(ctx, "round.transition",
		trace.WithTimestamp(start),
		trace.WithAttributes(
			attribute.String("tnttag.match_id", state.MatchID),
			attribute.String("tnttag.map", state.Arena.Map),
			attribute.String("tnttag.phase.from", string(from)),
			attribute.String("tnttag.phase.to", string(to)),
			attribute.Int("tnttag.players.active", state.Controller.Roster().ActiveCount()),
		),
	)
	span.End()
}

func (mh *matchHandler) dispatchEvents(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, events []app.Event) {
	for _, ev := range events {
		mh.broadcastEvent(ctx, state, dispatcher, logger, ev)
	}
}

// broadcastEvent handles the conversion and dispatching of app events to Nakama.
func (mh *matchHandler) broadcastEvent(ctx context.Context, state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, ev app.Event) {
	var opCode int64
	var payload interface{}
	// Broadcasts reach active sessions unless stated otherwise.
	audience := state.Controller.Roster().Active()

	switch ev.Kind {
	case app.EventMessage:
		p := ev.Payload.(app.MessagePayload)
		opCode = OpMessage
		payload = messageEvent{
			Topic: p.Topic,
			Key:   p.Key,
			Text:  state.Localizer.Text(p.Topic, p.Key, p.Vars),
		}
	case app.EventTitle:
		p := ev.Payload.(app.TitlePayload)
		opCode = OpTitle
		payload = titleEvent{
			Title:    state.Localizer.Text(p.Topic, p.TitleKey, nil),
			Subtitle: state.Localizer.Text(p.Topic, p.SubtitleKey, nil),
		}
	case app.EventScoreboard:
		p := ev.Payload.(app.ScoreboardPayload)
		opCode = OpScoreboard
		payload = scoreboardEvent{Lines: p.Lines}
	case app.EventResetState:
		opCode = OpResetState
		payload = struct{}{}
	case app.EventTeleport:
		p := ev.Payload.(app.TeleportPayload)
		opCode = OpTeleport
		payload = p.To
	case app.EventPhaseChanged:
		p := ev.Payload.(app.PhaseChangedPayload)
		opCode = OpPhaseChanged
		payload = phaseChangedEvent{From: string(p.From), To: string(p.To)}
		audience = state.Controller.Roster().All()
		mh.updateLabel(state, dispatcher, logger)
	case app.EventRoundEnded:
		p := ev.Payload.(app.RoundEndedPayload)
		opCode = OpRoundEnded
		payload = newRoundEndedEvent(p.Result, matchHost{state: state})
		audience = state.Controller.Roster().All()
		if mh.module.Recorder != nil && !mh.module.Recorder.Submit(p.Result) {
			logger.Warn("RoundEnded: Result for match %s was not queued for recording.", state.MatchID)
		}
		logger.Info("RoundEnded: Winner=%q losers=%d", p.Result.Winner, len(p.Result.Losers))
	case app.EventDestructionRequested, app.EventPendingAdmitted:
		// Applied by the controller; nothing goes on the wire.
		return
	default:
		logger.Warn("Unknown event kind: %v", ev.Kind)
		return
	}

	bytes, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to marshal event %v: %v", ev.Kind, err)
		return
	}

	targets := ev.Recipients
	if len(targets) == 0 {
		targets = audience
	}
	var recipients []runtime.Presence
	for _, id := range targets {
		if p, ok := state.Presences[string(id)]; ok {
			recipients = append(recipients, p)
		}
	}
	// Never fall back to a match-wide broadcast when every intended recipient is gone.
	if len(recipients) == 0 {
		return
	}

	if err := dispatcher.BroadcastMessage(opCode, bytes, recipients, nil, true); err != nil {
		logger.Warn("Failed to send event %v: %v", ev.Kind, err)
	}
}

func (mh *matchHandler) updateLabel(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	label, err := buildLabel(state)
	if err != nil {
		logger.Error("UpdateLabel: Failed to marshal: %v", err)
		return
	}
	if label == state.label {
		return
	}
	if err := dispatcher.MatchLabelUpdate(label); err != nil {
		logger.Error("UpdateLabel: Failed to update: %v", err)
		return
	}
	state.label = label
}

// buildLabel renders the searchable match label. An arena is open while its
// round still accepts active joins.
func buildLabel(state *MatchState) (string, error) {
	c := state.Controller
	label, err := structpb.NewStruct(map[string]interface{}{
		LabelKeyGame:    labelGameName,
		LabelKeyMap:     state.Arena.Map,
		LabelKeyPhase:   string(c.Phase().Name()),
		LabelKeyOpen:    domain.AcceptsActiveJoins(c.Phase()) && !c.DestructionRequested(),
		LabelKeyPlayers: c.Roster().ActiveCount() + c.Roster().PendingCount(),
	})
	if err != nil {
		return "", err
	}
	labelBytes, err := (&protojson.MarshalOptions{EmitUnpopulated: true}).Marshal(label)
	if err != nil {
		return "", err
	}
	return string(labelBytes), nil
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	logger.Debug("MatchTerminate: Match terminated (grace=%ds)", graceSeconds)
	if matchState, ok := state.(*MatchState); ok {
		releaseArena(matchState, logger)
	}
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}

// releaseArena deletes the arena's cloned world.
func releaseArena(state *MatchState, logger runtime.Logger) {
	if state.Arena == nil {
		return
	}
	if err := state.Arena.Remove(); err != nil {
		logger.Warn("MatchTerminate: Failed to remove arena world %s: %v", state.Arena.Dir, err)
	}
}
