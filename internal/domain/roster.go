package domain

import "sort"

// SessionID identifies a connected participant (the Nakama user id).
type SessionID string

// Roster tracks the active participants of an arena and the pending queue of
// participants waiting for the next round. A session is never in both sets.
// Roster is not safe for concurrent use.
type Roster struct {
	active  map[SessionID]struct{}
	pending map[SessionID]struct{}
}

// NewRoster returns an empty roster.
func NewRoster() *Roster {
	return &Roster{
		active:  make(map[SessionID]struct{}),
		pending: make(map[SessionID]struct{}),
	}
}

// Join adds a session to the active set, or to the pending queue when asPending is set.
// Joining again moves the session between sets rather than duplicating it.
func (r *Roster) Join(id SessionID, asPending bool) {
	if id == "" {
		return
	}
	if asPending {
		delete(r.active, id)
		r.pending[id] = struct{}{}
		return
	}
	delete(r.pending, id)
	r.active[id] = struct{}{}
}

// Leave removes a session from both sets. It reports whether the session was known.
func (r *Roster) Leave(id SessionID) bool {
	_, inActive := r.active[id]
	_, inPending := r.pending[id]
	delete(r.active, id)
	delete(r.pending, id)
	return inActive || inPending
}

// AdmitPending moves every pending session into the active set and returns how many moved.
func (r *Roster) AdmitPending() int {
	moved := len(r.pending)
	for id := range r.pending {
		r.active[id] = struct{}{}
	}
	r.pending = make(map[SessionID]struct{})
	return moved
}

// IsActive reports whether the session counts toward phase thresholds.
func (r *Roster) IsActive(id SessionID) bool {
	_, ok := r.active[id]
	return ok
}

// IsPending reports whether the session is queued for a future round.
func (r *Roster) IsPending(id SessionID) bool {
	_, ok := r.pending[id]
	return ok
}

// Contains reports whether the session is known in either set.
func (r *Roster) Contains(id SessionID) bool {
	return r.IsActive(id) || r.IsPending(id)
}

// ActiveCount returns the number of active sessions.
func (r *Roster) ActiveCount() int { return len(r.active) }

// PendingCount returns the number of queued sessions.
func (r *Roster) PendingCount() int { return len(r.pending) }

// Active returns a sorted snapshot of the active set.
func (r *Roster) Active() []SessionID {
	return sortedIDs(r.active)
}

// Pending returns a sorted snapshot of the pending queue.
func (r *Roster) Pending() []SessionID {
	return sortedIDs(r.pending)
}

// All returns every known session, active first, each group sorted.
func (r *Roster) All() []SessionID {
	return append(r.Active(), r.Pending()...)
}

func sortedIDs(set map[SessionID]struct{}) []SessionID {
	ids := make([]SessionID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
