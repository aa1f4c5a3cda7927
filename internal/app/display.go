package app

import "tnttag/internal/domain"

// Templates supplies scoreboard line templates and placeholder interpolation.
type Templates interface {
	Lines(topic, key string) []string
	Interpolate(line string, vars map[string]any) string
}

// Display renders the scoreboard for every connected session known to the
// roster, active and pending alike. It never changes round state, so calling
// it twice without a tick in between yields identical events.
func Display(phase domain.Phase, cfg domain.RoundConfig, roster RosterView, env Env, templates Templates) []Event {
	vars := Vars{
		VarMap:          cfg.MapName,
		VarPlayersCount: roster.ActiveCount(),
	}

	switch p := phase.(type) {
	case domain.Idle:
		vars[VarCountdown] = cfg.CountdownSeconds
	case domain.Countdown:
		// Skip the zero tick so the board does not flicker before the transition.
		if p.TimeLeft < 1 {
			return nil
		}
		vars[VarCountdown] = p.TimeLeft
	case domain.Match:
		vars[VarElapsed] = p.Elapsed
	case domain.Ended:
		vars[VarCountdown] = p.TimeLeft
		vars[VarWinner] = ""
		if p.Winner != "" {
			vars[VarWinner] = env.DisplayName(p.Winner)
		}
	default:
		return nil
	}

	template := templates.Lines(TopicScoreboard, string(phase.Name()))
	lines := make([]string, len(template))
	for i, line := range template {
		if line == "" {
			continue
		}
		lines[i] = templates.Interpolate(line, vars)
	}

	var events []Event
	for _, id := range roster.All() {
		if !env.Connected(id) {
			continue
		}
		events = append(events, direct(EventScoreboard, id, ScoreboardPayload{Lines: lines}))
	}
	return events
}
