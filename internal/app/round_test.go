package app

import (
	"reflect"
	"testing"

	"tnttag/internal/domain"
)

// fakeEnv records the collaborator lookups made by the phase machine.
type fakeEnv struct {
	loading      bool
	disconnected map[domain.SessionID]bool
	names        map[domain.SessionID]string
	spawn        domain.Point3D
	spawnCalls   int
}

func (f *fakeEnv) Loading() bool { return f.loading }

func (f *fakeEnv) Connected(id domain.SessionID) bool { return !f.disconnected[id] }

func (f *fakeEnv) DisplayName(id domain.SessionID) string {
	if name, ok := f.names[id]; ok {
		return name
	}
	return string(id)
}

func (f *fakeEnv) SafeSpawn() domain.Point3D {
	f.spawnCalls++
	return f.spawn
}

func newRoster(active []domain.SessionID, pending []domain.SessionID) *domain.Roster {
	r := domain.NewRoster()
	for _, id := range active {
		r.Join(id, false)
	}
	for _, id := range pending {
		r.Join(id, true)
	}
	return r
}

func testConfig() domain.RoundConfig {
	return domain.RoundConfig{MinPlayers: 2, CountdownSeconds: 10, EndSeconds: 3, MapName: "Lobby Park"}
}

func kinds(events []Event) []EventKind {
	out := make([]EventKind, len(events))
	for i, ev := range events {
		out[i] = ev.Kind
	}
	return out
}

func TestTickIdle(t *testing.T) {
	tests := []struct {
		name       string
		active     []domain.SessionID
		pending    []domain.SessionID
		loading    bool
		wantPhase  domain.Phase
		wantEvents []Event
	}{
		{
			name:       "enough players starts countdown",
			active:     []domain.SessionID{"a", "b"},
			wantPhase:  domain.Countdown{TimeLeft: 10},
			wantEvents: []Event{message(TopicCountdown, KeyCountdownStart, nil)},
		},
		{
			name:      "threshold wins over loading",
			active:    []domain.SessionID{"a", "b", "c"},
			loading:   true,
			wantPhase: domain.Countdown{TimeLeft: 10},
			wantEvents: []Event{
				message(TopicCountdown, KeyCountdownStart, nil),
			},
		},
		{
			name:       "empty arena requests destruction",
			wantPhase:  domain.Idle{},
			wantEvents: []Event{{Kind: EventDestructionRequested}},
		},
		{
			name:      "loading arena is kept",
			loading:   true,
			wantPhase: domain.Idle{},
		},
		{
			name:      "pending participant keeps arena",
			pending:   []domain.SessionID{"p"},
			wantPhase: domain.Idle{},
		},
		{
			name:      "below threshold waits",
			active:    []domain.SessionID{"a"},
			wantPhase: domain.Idle{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := &fakeEnv{loading: tt.loading}
			next, events := Tick(domain.Idle{}, testConfig(), newRoster(tt.active, tt.pending), env)
			if !reflect.DeepEqual(next, tt.wantPhase) {
				t.Fatalf("next = %#v, want %#v", next, tt.wantPhase)
			}
			if !reflect.DeepEqual(events, tt.wantEvents) {
				t.Fatalf("events = %#v, want %#v", events, tt.wantEvents)
			}
		})
	}
}

func TestTickCountdownDecrementsSilentlyAboveThreshold(t *testing.T) {
	for _, timeLeft := range []int{60, 10, 6} {
		next, events := Tick(domain.Countdown{TimeLeft: timeLeft}, testConfig(), newRoster([]domain.SessionID{"a", "b"}, nil), &fakeEnv{})
		if want := (domain.Countdown{TimeLeft: timeLeft - 1}); next != want {
			t.Fatalf("timeLeft=%d: next = %#v, want %#v", timeLeft, next, want)
		}
		if len(events) != 0 {
			t.Fatalf("timeLeft=%d: expected no events, got %v", timeLeft, kinds(events))
		}
	}
}

func TestTickCountdownAnnouncesLastSeconds(t *testing.T) {
	for timeLeft := 1; timeLeft <= CountdownAnnounceThreshold; timeLeft++ {
		next, events := Tick(domain.Countdown{TimeLeft: timeLeft}, testConfig(), newRoster(nil, nil), &fakeEnv{})
		if want := (domain.Countdown{TimeLeft: timeLeft - 1}); next != want {
			t.Fatalf("timeLeft=%d: next = %#v, want %#v", timeLeft, next, want)
		}
		want := []Event{message(TopicCountdown, KeyCountdownDecrement, Vars{VarCountdown: timeLeft})}
		if !reflect.DeepEqual(events, want) {
			t.Fatalf("timeLeft=%d: events = %#v, want %#v", timeLeft, events, want)
		}
	}
}

func TestTickCountdownExpiryBelowThresholdReverts(t *testing.T) {
	env := &fakeEnv{}
	next, events := Tick(domain.Countdown{TimeLeft: 0}, testConfig(), newRoster([]domain.SessionID{"a"}, []domain.SessionID{"p"}), env)

	if _, ok := next.(domain.Idle); !ok {
		t.Fatalf("next = %#v, want Idle", next)
	}
	if want := []Event{message(TopicCountdown, KeyCountdownStop, nil)}; !reflect.DeepEqual(events, want) {
		t.Fatalf("events = %#v, want %#v", events, want)
	}
	if env.spawnCalls != 0 {
		t.Fatalf("expected no spawn lookup, got %d", env.spawnCalls)
	}
}

func TestTickCountdownExpiryStartsMatch(t *testing.T) {
	spawn := domain.Point3D{X: 10, Y: 64, Z: -3}
	env := &fakeEnv{spawn: spawn}
	next, events := Tick(domain.Countdown{TimeLeft: 0}, testConfig(), newRoster([]domain.SessionID{"b", "a"}, nil), env)

	wantPhase := domain.Match{Participants: []domain.SessionID{"a", "b"}}
	if !reflect.DeepEqual(next, wantPhase) {
		t.Fatalf("next = %#v, want %#v", next, wantPhase)
	}

	want := []Event{
		{Kind: EventResetState, Recipients: []domain.SessionID{"a"}},
		{Kind: EventTeleport, Payload: TeleportPayload{To: spawn}, Recipients: []domain.SessionID{"a"}},
		{Kind: EventResetState, Recipients: []domain.SessionID{"b"}},
		{Kind: EventTeleport, Payload: TeleportPayload{To: spawn}, Recipients: []domain.SessionID{"b"}},
		{Kind: EventTitle, Payload: TitlePayload{Topic: TopicStart, TitleKey: KeyStartTitle, SubtitleKey: KeyStartSubtitle}},
		message(TopicStart, KeyStartMessage, nil),
	}
	if !reflect.DeepEqual(events, want) {
		t.Fatalf("events = %v, want %v", kinds(events), kinds(want))
	}
	if env.spawnCalls != 1 {
		t.Fatalf("expected exactly one spawn lookup, got %d", env.spawnCalls)
	}
}

func TestTickCountdownExpirySkipsDisconnectedSessions(t *testing.T) {
	env := &fakeEnv{disconnected: map[domain.SessionID]bool{"b": true}}
	next, events := Tick(domain.Countdown{TimeLeft: 0}, testConfig(), newRoster([]domain.SessionID{"a", "b", "c"}, nil), env)

	match, ok := next.(domain.Match)
	if !ok {
		t.Fatalf("next = %#v, want Match", next)
	}
	if len(match.Participants) != 3 {
		t.Fatalf("expected the whole roster snapshot in the match, got %v", match.Participants)
	}

	var touched []domain.SessionID
	for _, ev := range events {
		if ev.Kind == EventResetState {
			touched = append(touched, ev.Recipients[0])
		}
	}
	if want := []domain.SessionID{"a", "c"}; !reflect.DeepEqual(touched, want) {
		t.Fatalf("reset sessions = %v, want %v", touched, want)
	}
	if got := kinds(events[len(events)-2:]); !reflect.DeepEqual(got, []EventKind{EventTitle, EventMessage}) {
		t.Fatalf("expected title then message last, got %v", got)
	}
}

func TestTickMatch(t *testing.T) {
	participants := []domain.SessionID{"a", "b", "c"}
	env := &fakeEnv{names: map[domain.SessionID]string{"b": "SlyFox1234"}}

	t.Run("continues while two survive", func(t *testing.T) {
		next, events := Tick(domain.Match{Participants: participants, Elapsed: 4}, testConfig(), newRoster([]domain.SessionID{"a", "b"}, nil), env)
		if want := (domain.Match{Participants: participants, Elapsed: 5}); !reflect.DeepEqual(next, want) {
			t.Fatalf("next = %#v, want %#v", next, want)
		}
		if len(events) != 0 {
			t.Fatalf("expected no events, got %v", kinds(events))
		}
	})

	t.Run("late joiners do not count as survivors", func(t *testing.T) {
		next, _ := Tick(domain.Match{Participants: participants}, testConfig(), newRoster([]domain.SessionID{"b", "z"}, nil), env)
		if _, ok := next.(domain.Ended); !ok {
			t.Fatalf("next = %#v, want Ended", next)
		}
	})

	t.Run("last survivor wins", func(t *testing.T) {
		next, events := Tick(domain.Match{Participants: participants, Elapsed: 9}, testConfig(), newRoster([]domain.SessionID{"b"}, nil), env)
		if want := (domain.Ended{TimeLeft: 3, Winner: "b"}); next != want {
			t.Fatalf("next = %#v, want %#v", next, want)
		}
		want := []Event{
			{Kind: EventRoundEnded, Payload: RoundEndedPayload{Result: domain.RoundResult{Winner: "b", Losers: []domain.SessionID{"a", "c"}}}},
			message(TopicEnd, KeyEndWinner, Vars{VarWinner: "SlyFox1234"}),
		}
		if !reflect.DeepEqual(events, want) {
			t.Fatalf("events = %#v, want %#v", events, want)
		}
	})

	t.Run("everyone left", func(t *testing.T) {
		next, events := Tick(domain.Match{Participants: participants}, testConfig(), newRoster(nil, nil), env)
		if want := (domain.Ended{TimeLeft: 3}); next != want {
			t.Fatalf("next = %#v, want %#v", next, want)
		}
		want := []Event{
			{Kind: EventRoundEnded, Payload: RoundEndedPayload{Result: domain.RoundResult{Losers: participants}}},
			message(TopicEnd, KeyEndNoWinner, nil),
		}
		if !reflect.DeepEqual(events, want) {
			t.Fatalf("events = %#v, want %#v", events, want)
		}
	})
}

func TestTickEnded(t *testing.T) {
	next, events := Tick(domain.Ended{TimeLeft: 2, Winner: "a"}, testConfig(), newRoster(nil, nil), &fakeEnv{})
	if want := (domain.Ended{TimeLeft: 1, Winner: "a"}); next != want {
		t.Fatalf("next = %#v, want %#v", next, want)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events, got %v", kinds(events))
	}

	next, events = Tick(domain.Ended{TimeLeft: 0, Winner: "a"}, testConfig(), newRoster(nil, nil), &fakeEnv{})
	if _, ok := next.(domain.Idle); !ok {
		t.Fatalf("next = %#v, want Idle", next)
	}
	if got := kinds(events); !reflect.DeepEqual(got, []EventKind{EventPendingAdmitted, EventMessage}) {
		t.Fatalf("events = %v", got)
	}
}
