package services

import (
	"context"
	"sort"
	"sync"

	"evewspace/sitetracker/internal/db/repositories"
	gormModels "evewspace/sitetracker/internal/models/gorm"
)

// FleetLocks serializes in-process mutations of one fleet. The fleet and site
// credit services must share one instance.
type FleetLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewFleetLocks() *FleetLocks {
	return &FleetLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *FleetLocks) get(fleetID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.locks[fleetID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[fleetID] = m
	}
	return m
}

// Lock takes the fleet's mutex and returns its release func.
func (l *FleetLocks) Lock(fleetID string) func() {
	m := l.get(fleetID)
	m.Lock()
	return m.Unlock
}

// LockMany takes several fleet mutexes in id order so two callers never
// wait on each other.
func (l *FleetLocks) LockMany(fleetIDs []string) func() {
	ids := append([]string(nil), fleetIDs...)
	sort.Strings(ids)

	held := make([]*sync.Mutex, 0, len(ids))
	for i, id := range ids {
		if i > 0 && ids[i-1] == id {
			continue
		}
		m := l.get(id)
		m.Lock()
		held = append(held, m)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

// fleetMutator runs a mutation of one fleet under its mutex and inside a
// transaction holding the fleet row lock.
type fleetMutator struct {
	repo  *repositories.Repository
	locks *FleetLocks
}

func (m fleetMutator) withFleet(
	ctx context.Context,
	fleetID string,
	fn func(tx *repositories.Repository, fleet *gormModels.Fleet) error,
) error {
	unlock := m.locks.Lock(fleetID)
	defer unlock()

	return m.repo.InTx(ctx, func(tx *repositories.Repository) error {
		fleet, err := tx.Fleets.GetForUpdate(ctx, fleetID)
		if err != nil {
			return err
		}
		return fn(tx, fleet)
	})
}
