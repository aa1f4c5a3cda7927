package app

import "tnttag/internal/domain"

// EventKind identifies emitted round events for Nakama dispatch.
type EventKind string

const (
	EventMessage              EventKind = "message"
	EventTitle                EventKind = "title"
	EventScoreboard           EventKind = "scoreboard"
	EventResetState           EventKind = "reset_state"
	EventTeleport             EventKind = "teleport"
	EventPhaseChanged         EventKind = "phase_changed"
	EventRoundEnded           EventKind = "round_ended"
	EventDestructionRequested EventKind = "destruction_requested"
	EventPendingAdmitted      EventKind = "pending_admitted"
)

// Event is a round event with optional targeted recipients.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []domain.SessionID // empty means every active session
}

// Vars holds message placeholder values, keyed without braces.
type Vars map[string]any

type MessagePayload struct {
	Topic string
	Key   string
	Vars  Vars
}

type TitlePayload struct {
	Topic       string
	TitleKey    string
	SubtitleKey string
}

type ScoreboardPayload struct {
	Lines []string
}

type TeleportPayload struct {
	To domain.Point3D
}

type PhaseChangedPayload struct {
	From domain.PhaseName
	To   domain.PhaseName
}

type RoundEndedPayload struct {
	Result domain.RoundResult
}

func message(topic, key string, vars Vars) Event {
	return Event{
		Kind:    EventMessage,
		Payload: MessagePayload{Topic: topic, Key: key, Vars: vars},
	}
}

func direct(kind EventKind, id domain.SessionID, payload any) Event {
	return Event{Kind: kind, Payload: payload, Recipients: []domain.SessionID{id}}
}
