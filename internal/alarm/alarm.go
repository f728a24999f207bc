// Package alarm implements named single-shot alarms armed with a delay in
// minutes. Creating an alarm under an existing name replaces it; a replaced
// or cleared alarm never fires.
package alarm

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/sadopc/daytick/internal/clock"
)

var (
	// ErrInvalidDelay is returned for a delay that is not a positive finite number.
	ErrInvalidDelay = errors.New("alarm delay must be a positive number of minutes")
	// ErrClosed is returned once the manager has been closed.
	ErrClosed = errors.New("alarm manager closed")
)

// Manager owns a set of named alarms.
type Manager struct {
	mu     sync.Mutex
	clock  clock.Clock
	onFire func(name string)
	armed  map[string]*entry
	gen    uint64
	closed bool
}

type entry struct {
	gen   uint64
	timer clock.Timer
	at    time.Time
}

// New returns a manager that calls onFire, on the clock's goroutine, when an
// alarm elapses.
func New(c clock.Clock, onFire func(name string)) *Manager {
	return &Manager{
		clock:  c,
		onFire: onFire,
		armed:  make(map[string]*entry),
	}
}

// Create arms name to fire after delayMinutes, replacing any alarm of the
// same name.
func (m *Manager) Create(name string, delayMinutes float64) error {
	if math.IsNaN(delayMinutes) || math.IsInf(delayMinutes, 0) || delayMinutes <= 0 {
		return fmt.Errorf("create alarm %q: %w", name, ErrInvalidDelay)
	}
	delay := time.Duration(delayMinutes * float64(time.Minute))

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("create alarm %q: %w", name, ErrClosed)
	}

	if old, ok := m.armed[name]; ok {
		old.timer.Stop()
	}
	m.gen++
	gen := m.gen
	e := &entry{gen: gen, at: m.clock.Now().Add(delay)}
	e.timer = m.clock.AfterFunc(delay, func() { m.fire(name, gen) })
	m.armed[name] = e
	return nil
}

// Clear disarms name and reports whether an alarm was armed.
func (m *Manager) Clear(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.armed[name]
	if !ok {
		return false
	}
	e.timer.Stop()
	delete(m.armed, name)
	return true
}

// Get returns when name is scheduled to fire.
func (m *Manager) Get(name string) (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.armed[name]
	if !ok {
		return time.Time{}, false
	}
	return e.at, true
}

// Close disarms every alarm. Later Create calls fail with ErrClosed.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, e := range m.armed {
		e.timer.Stop()
		delete(m.armed, name)
	}
	m.closed = true
}

func (m *Manager) fire(name string, gen uint64) {
	m.mu.Lock()
	e, ok := m.armed[name]
	// A timer that lost the race with Stop must not fire a newer alarm.
	if !ok || e.gen != gen {
		m.mu.Unlock()
		return
	}
	delete(m.armed, name)
	m.mu.Unlock()

	if m.onFire != nil {
		m.onFire(name)
	}
}
