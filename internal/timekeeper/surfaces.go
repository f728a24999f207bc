package timekeeper

import (
	"sort"
	"time"
)

// surfaceRegistry tracks foreground clients by lease. It is only touched
// from the timekeeper loop.
type surfaceRegistry struct {
	lease time.Duration
	byID  map[string]*surface
}

type surface struct {
	id         string
	kind       string
	attachedAt time.Time
	expires    time.Time
	focus      bool
}

func newSurfaceRegistry(lease time.Duration) *surfaceRegistry {
	return &surfaceRegistry{lease: lease, byID: make(map[string]*surface)}
}

// attach registers or renews id and returns, clearing it, any pending focus
// request for that surface.
func (r *surfaceRegistry) attach(id, kind string, now time.Time) bool {
	s, ok := r.byID[id]
	if !ok {
		s = &surface{id: id, kind: kind, attachedAt: now}
		r.byID[id] = s
	}
	s.expires = now.Add(r.lease)
	focus := s.focus
	s.focus = false
	return focus
}

func (r *surfaceRegistry) detach(id string) {
	delete(r.byID, id)
}

func (r *surfaceRegistry) prune(now time.Time) {
	for id, s := range r.byID {
		if !now.Before(s.expires) {
			delete(r.byID, id)
		}
	}
}

// open returns the number of surfaces holding a live lease.
func (r *surfaceRegistry) open(now time.Time) int {
	r.prune(now)
	return len(r.byID)
}

// requestFocus flags the most recently attached surface of kind and reports
// whether there was one.
func (r *surfaceRegistry) requestFocus(kind string, now time.Time) bool {
	r.prune(now)
	var candidates []*surface
	for _, s := range r.byID {
		if s.kind == kind {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		return false
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].attachedAt.After(candidates[j].attachedAt)
	})
	candidates[0].focus = true
	return true
}
