package app

import "tnttag/internal/domain"

// Logger is the logging surface used by the app layer. runtime.Logger satisfies it.
type Logger interface {
	Debug(format string, v ...interface{})
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Readiness is a one-shot completion signal for the arena world copy.
type Readiness interface {
	Ready() bool
	Err() error
}

// Host supplies the session and world lookups owned by the transport layer.
type Host interface {
	Connected(id domain.SessionID) bool
	DisplayName(id domain.SessionID) string
	SafeSpawn() domain.Point3D
}

// Controller owns one arena's roster and round phase and drives the phase
// machine. It is not safe for concurrent use: Tick, RefreshDisplay, Join and
// Leave must be called from a single loop.
type Controller struct {
	cfg       domain.RoundConfig
	roster    *domain.Roster
	phase     domain.Phase
	host      Host
	templates Templates
	logger    Logger

	readiness Readiness
	loading   bool

	destructionRequests int

	// reserved holds sessions queued ahead of their join, with the round ticks
	// left before the seat is released.
	reserved map[domain.SessionID]int
}

// NewController constructs an idle controller. readiness may be nil when the
// arena needs no preparation; otherwise the arena counts as loading until the
// signal completes.
func NewController(cfg domain.RoundConfig, host Host, readiness Readiness, templates Templates, logger Logger) *Controller {
	return &Controller{
		cfg:       cfg,
		roster:    domain.NewRoster(),
		phase:     domain.Idle{},
		host:      host,
		templates: templates,
		logger:    logger,
		readiness: readiness,
		loading:   readiness != nil,
		reserved:  make(map[domain.SessionID]int),
	}
}

// Tick advances the round by one step and returns the events to dispatch.
// Controller-level events (destruction requests, pending admission) are
// applied before returning and are still included in the result.
func (c *Controller) Tick() []Event {
	c.pollReadiness()
	c.expireReservations()

	prev := c.phase
	next, events := Tick(prev, c.cfg, c.roster, controllerEnv{c})
	for _, ev := range events {
		c.apply(ev)
	}

	c.setPhase(next)
	if prev.Name() != next.Name() {
		c.logger.Info("Round: %s -> %s (active=%d, pending=%d)", prev.Name(), next.Name(), c.roster.ActiveCount(), c.roster.PendingCount())
		events = append(events, Event{
			Kind:    EventPhaseChanged,
			Payload: PhaseChangedPayload{From: prev.Name(), To: next.Name()},
		})
	}
	return events
}

// RefreshDisplay returns the scoreboard events for the current phase.
func (c *Controller) RefreshDisplay() []Event {
	return Display(c.phase, c.cfg, c.roster, controllerEnv{c}, c.templates)
}

// Join adds a participant. Joiners during a running or concluded round are
// queued and only admitted at the next lobby cycle. It reports whether the
// session was queued.
func (c *Controller) Join(id domain.SessionID) bool {
	delete(c.reserved, id)
	queued := !domain.AcceptsActiveJoins(c.phase)
	c.roster.Join(id, queued)
	return queued
}

// Leave removes a participant from the roster.
func (c *Controller) Leave(id domain.SessionID) bool {
	delete(c.reserved, id)
	return c.roster.Leave(id)
}

// Reserve queues a session that is about to join, so the arena is not
// considered empty in the meantime. The seat is released if the session has
// not joined within ReservationTicks round ticks. Sessions already in the
// roster are left alone; it reports whether a seat was reserved.
func (c *Controller) Reserve(id domain.SessionID) bool {
	if id == "" || c.roster.Contains(id) {
		return false
	}
	c.roster.Join(id, true)
	c.reserved[id] = ReservationTicks
	return true
}

// Reserved reports whether the session holds a seat it has not joined yet.
func (c *Controller) Reserved(id domain.SessionID) bool {
	_, ok := c.reserved[id]
	return ok
}

func (c *Controller) expireReservations() {
	for id, left := range c.reserved {
		if left > 1 {
			c.reserved[id] = left - 1
			continue
		}
		delete(c.reserved, id)
		c.roster.Leave(id)
		c.logger.Debug("Round: reservation for %s expired in %q", id, c.cfg.MapName)
	}
}

func (c *Controller) Phase() domain.Phase        { return c.phase }
func (c *Controller) Config() domain.RoundConfig { return c.cfg }
func (c *Controller) Roster() *domain.Roster     { return c.roster }

// Loading reports whether the arena world is still being prepared.
func (c *Controller) Loading() bool { return c.loading }

// DestructionRequested reports whether the phase machine asked for this arena to be torn down.
func (c *Controller) DestructionRequested() bool { return c.destructionRequests > 0 }

// DestructionRequests counts destruction requests since construction.
func (c *Controller) DestructionRequests() int { return c.destructionRequests }

// setPhase replaces the current phase. Only Tick calls it, with the phase
// machine's own result.
func (c *Controller) setPhase(next domain.Phase) {
	c.phase = next
}

func (c *Controller) apply(ev Event) {
	switch ev.Kind {
	case EventDestructionRequested:
		c.destructionRequests++
		c.logger.Debug("Round: destruction requested for empty arena %q", c.cfg.MapName)
	case EventPendingAdmitted:
		// Reserved seats stay queued until their session actually joins.
		for id := range c.reserved {
			c.roster.Leave(id)
		}
		moved := c.roster.AdmitPending()
		for id := range c.reserved {
			c.roster.Join(id, true)
		}
		if moved > 0 {
			c.logger.Info("Round: admitted %d queued participants", moved)
		}
	}
}

func (c *Controller) pollReadiness() {
	if !c.loading || !c.readiness.Ready() {
		return
	}
	c.loading = false
	if err := c.readiness.Err(); err != nil {
		c.logger.Error("Round: arena preparation failed for %q: %v", c.cfg.MapName, err)
		return
	}
	c.logger.Info("Round: arena %q ready", c.cfg.MapName)
}

// controllerEnv adapts the controller to the phase machine's Env.
type controllerEnv struct {
	c *Controller
}

func (e controllerEnv) Loading() bool { return e.c.loading }

func (e controllerEnv) Connected(id domain.SessionID) bool {
	return e.c.host.Connected(id)
}

func (e controllerEnv) DisplayName(id domain.SessionID) string {
	return e.c.host.DisplayName(id)
}

func (e controllerEnv) SafeSpawn() domain.Point3D {
	return e.c.host.SafeSpawn()
}
