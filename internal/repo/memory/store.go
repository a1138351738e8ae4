// Package memory is an in-process implementation of the storage contracts.
// It backs the "memory" storage driver and the service tests.
//
// Every call is serialized on one mutex. WithinTx holds that mutex for the
// whole callback and restores a snapshot of the state when the callback fails,
// so a multi-write operation either applies completely or not at all.
package memory

import (
	"context"
	"slices"
	"sync"

	"competition-ledger/internal/domain/models"
)

type txKey struct{}

type Store struct {
	mu sync.Mutex
	st *state
}

type state struct {
	users       map[string]models.User
	teams       map[string]models.Team
	projects    map[string]models.Project
	submissions map[string]models.Submission
	invitations map[string]models.TeamInvitation
	ledger      []models.PointTransaction
}

func New() *Store {
	return &Store{st: newState()}
}

func newState() *state {
	return &state{
		users:       make(map[string]models.User),
		teams:       make(map[string]models.Team),
		projects:    make(map[string]models.Project),
		submissions: make(map[string]models.Submission),
		invitations: make(map[string]models.TeamInvitation),
	}
}

// clone copies every slice held by the state. Pointer fields are never
// mutated in place, so sharing them between snapshots is safe.
func (s *state) clone() *state {
	c := newState()
	for id, u := range s.users {
		u.RegisteredProjects = slices.Clone(u.RegisteredProjects)
		c.users[id] = u
	}
	for id, t := range s.teams {
		t.RegisteredProjects = slices.Clone(t.RegisteredProjects)
		c.teams[id] = t
	}
	for id, p := range s.projects {
		p.Participants = slices.Clone(p.Participants)
		c.projects[id] = p
	}
	for id, sub := range s.submissions {
		c.submissions[id] = sub
	}
	for id, inv := range s.invitations {
		c.invitations[id] = inv
	}
	c.ledger = slices.Clone(s.ledger)
	return c
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// acquire locks the store unless ctx already runs inside one of its transactions.
func (s *Store) acquire(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	committed := false
	defer func() {
		if !committed {
			s.st = snapshot
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		return err
	}
	committed = true
	return nil
}

// Lock is a no-op: WithinTx already serializes all writers.
func (s *Store) Lock(ctx context.Context, keys ...string) error {
	return nil
}

func ptr[T any](v T) *T {
	return &v
}
