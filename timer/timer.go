// SPDX-License-Identifier: Apache-2.0

// Package timer implements the eNodeB's tick-driven timer manager: a set of
// one-shot timers, each counting elapsed ticks toward an expiry, advanced by
// an externally delivered tick and firing a callback on expiry.
package timer

import (
	"errors"
	"sync"

	"github.com/openlte-go/fdd-enb/logger"
)

// InvalidTimerID is never returned by StartTimer and is safe to use as a
// caller-side sentinel for "no timer allocated".
const InvalidTimerID uint32 = 0xFFFFFFFF

// ErrTimerNotFound is returned by StopTimer/ResetTimer for an unknown or
// already-expired timer id.
var ErrTimerNotFound = errors.New("timer: timer not found")

// ErrBadAlloc is returned by StartTimer when no timer id is free.
var ErrBadAlloc = errors.New("timer: no free timer id")

type timer struct {
	id        uint32
	expiryMs  uint32
	elapsedMs uint32
	cb        func()
}

func (t *timer) increment(tickMs uint32) {
	t.elapsedMs += tickMs
}

func (t *timer) expired() bool {
	return t.elapsedMs >= t.expiryMs
}

func (t *timer) reset() {
	t.elapsedMs = 0
}

// Manager owns a table of running timers, advanced one tick at a time.
// A zero-value Manager is not usable; construct one with NewManager.
type Manager struct {
	mu     sync.Mutex
	table  map[uint32]*timer
	nextID uint32
	tickMs uint32
}

// NewManager returns a Manager that advances all timers by tickMs on each
// call to HandleTick.
func NewManager(tickMs uint32) *Manager {
	return &Manager{
		table:  make(map[uint32]*timer),
		nextID: 0,
		tickMs: tickMs,
	}
}

// StartTimer creates a new timer that fires cb once at least expiryMs of
// ticks have elapsed, and returns its id. The id is chosen by a linear
// probe from a persistent cursor, skipping InvalidTimerID, so ids are reused
// only once the cursor wraps back around to a free slot.
func (m *Manager) StartTimer(expiryMs uint32, cb func()) (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if uint64(len(m.table)) >= uint64(InvalidTimerID) {
		return InvalidTimerID, ErrBadAlloc
	}

	id := m.nextID
	for {
		if id == InvalidTimerID {
			id++
			continue
		}
		if _, exists := m.table[id]; !exists {
			break
		}
		id++
	}

	m.table[id] = &timer{id: id, expiryMs: expiryMs, cb: cb}
	m.nextID = id + 1
	return id, nil
}

// StopTimer cancels a running timer. It returns ErrTimerNotFound if id is
// not currently running.
func (m *Manager) StopTimer(id uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.table[id]; !ok {
		return ErrTimerNotFound
	}
	delete(m.table, id)
	return nil
}

// ResetTimer restarts the elapsed-tick count of a running timer without
// changing its expiry or callback. It returns ErrTimerNotFound if id is not
// currently running — in particular, a timer that has already expired and
// been removed from the table during the callback dispatch that is calling
// ResetTimer on it is reported as not found, making that call a documented
// no-op rather than a race.
func (m *Manager) ResetTimer(id uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.table[id]
	if !ok {
		return ErrTimerNotFound
	}
	t.reset()
	return nil
}

// HandleTick advances every running timer by one tick and fires the
// callback of each timer that has now expired. Expired timers are removed
// from the table before their callback runs, so a callback may safely
// start, stop, or reset other timers — including reusing the just-freed id —
// without deadlocking or corrupting the table.
func (m *Manager) HandleTick() {
	m.mu.Lock()
	var expired []*timer
	for _, t := range m.table {
		t.increment(m.tickMs)
		if t.expired() {
			expired = append(expired, t)
		}
	}
	for _, t := range expired {
		delete(m.table, t.id)
	}
	m.mu.Unlock()

	if len(expired) > 0 {
		logger.TimerLog.Debugf("dispatching %d expired timer(s)", len(expired))
	}
	for _, t := range expired {
		t.cb()
	}
}

// Len reports the number of currently running timers.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.table)
}
