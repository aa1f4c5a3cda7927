package app

import "tnttag/internal/domain"

// RosterView is the read-only roster surface the phase machine samples once per tick.
type RosterView interface {
	Active() []domain.SessionID
	All() []domain.SessionID
	IsActive(id domain.SessionID) bool
	ActiveCount() int
	PendingCount() int
}

// Env exposes the collaborators the phase machine consults during a tick.
type Env interface {
	// Loading reports whether the arena world is still being prepared.
	Loading() bool
	// Connected reports whether the session can still receive per-session effects.
	Connected(id domain.SessionID) bool
	DisplayName(id domain.SessionID) string
	// SafeSpawn is queried once per Countdown to Match transition.
	SafeSpawn() domain.Point3D
}

// Tick advances the round by one step. It returns the next phase and the
// events to dispatch, in order. Rules are evaluated top to bottom per phase
// and the first matching rule wins.
func Tick(phase domain.Phase, cfg domain.RoundConfig, roster RosterView, env Env) (domain.Phase, []Event) {
	switch p := phase.(type) {
	case domain.Idle:
		return tickIdle(cfg, roster, env)
	case domain.Countdown:
		return tickCountdown(p, cfg, roster, env)
	case domain.Match:
		return tickMatch(p, cfg, roster, env)
	case domain.Ended:
		return tickEnded(p)
	default:
		return phase, nil
	}
}

func tickIdle(cfg domain.RoundConfig, roster RosterView, env Env) (domain.Phase, []Event) {
	if roster.ActiveCount() >= cfg.MinPlayers {
		return domain.Countdown{TimeLeft: cfg.CountdownSeconds}, []Event{
			message(TopicCountdown, KeyCountdownStart, nil),
		}
	}

	if !env.Loading() && roster.ActiveCount() < 1 && roster.PendingCount() < 1 {
		return domain.Idle{}, []Event{{Kind: EventDestructionRequested}}
	}

	return domain.Idle{}, nil
}

func tickCountdown(p domain.Countdown, cfg domain.RoundConfig, roster RosterView, env Env) (domain.Phase, []Event) {
	if p.TimeLeft > 0 {
		var events []Event
		if p.TimeLeft <= CountdownAnnounceThreshold {
			events = append(events, message(TopicCountdown, KeyCountdownDecrement, Vars{VarCountdown: p.TimeLeft}))
		}
		return domain.Countdown{TimeLeft: p.TimeLeft - 1}, events
	}

	active := roster.Active()
	if len(active) < cfg.MinPlayers {
		return domain.Idle{}, []Event{message(TopicCountdown, KeyCountdownStop, nil)}
	}

	// Players are reset and positioned before anything is announced.
	spawn := env.SafeSpawn()
	events := make([]Event, 0, 2*len(active)+2)
	for _, id := range active {
		if !env.Connected(id) {
			continue
		}
		events = append(events,
			direct(EventResetState, id, nil),
			direct(EventTeleport, id, TeleportPayload{To: spawn}),
		)
	}
	events = append(events,
		Event{Kind: EventTitle, Payload: TitlePayload{Topic: TopicStart, TitleKey: KeyStartTitle, SubtitleKey: KeyStartSubtitle}},
		message(TopicStart, KeyStartMessage, nil),
	)

	return domain.Match{Participants: active}, events
}

func tickMatch(p domain.Match, cfg domain.RoundConfig, roster RosterView, env Env) (domain.Phase, []Event) {
	survivors := make([]domain.SessionID, 0, len(p.Participants))
	for _, id := range p.Participants {
		if roster.IsActive(id) {
			survivors = append(survivors, id)
		}
	}
	if len(survivors) > 1 {
		return domain.Match{Participants: p.Participants, Elapsed: p.Elapsed + 1}, nil
	}

	result := domain.RoundResult{}
	if len(survivors) == 1 {
		result.Winner = survivors[0]
	}
	for _, id := range p.Participants {
		if id != result.Winner {
			result.Losers = append(result.Losers, id)
		}
	}

	events := []Event{{Kind: EventRoundEnded, Payload: RoundEndedPayload{Result: result}}}
	if result.HasWinner() {
		events = append(events, message(TopicEnd, KeyEndWinner, Vars{VarWinner: env.DisplayName(result.Winner)}))
	} else {
		events = append(events, message(TopicEnd, KeyEndNoWinner, nil))
	}

	return domain.Ended{TimeLeft: cfg.EndSeconds, Winner: result.Winner}, events
}

func tickEnded(p domain.Ended) (domain.Phase, []Event) {
	if p.TimeLeft > 0 {
		return domain.Ended{TimeLeft: p.TimeLeft - 1, Winner: p.Winner}, nil
	}
	return domain.Idle{}, []Event{
		{Kind: EventPendingAdmitted},
		message(TopicEnd, KeyEndRestart, nil),
	}
}
