// Package selection keeps the organizer's transient player selection in the
// HTTP session. It is UI state and never part of the bracket snapshot.
package selection

import (
	"context"
	"slices"

	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
)

type Store struct {
	sessions *scs.SessionManager
}

func New(sessions *scs.SessionManager) *Store {
	return &Store{sessions: sessions}
}

func key(tournamentID uuid.UUID) string {
	return "selection:" + tournamentID.String()
}

// Get returns the selected player ids in the order they were picked
func (s *Store) Get(ctx context.Context, tournamentID uuid.UUID) []uuid.UUID {
	raw, _ := s.sessions.Get(ctx, key(tournamentID)).([]string)
	ids := make([]uuid.UUID, 0, len(raw))
	for _, v := range raw {
		if id, err := uuid.Parse(v); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *Store) Set(ctx context.Context, tournamentID uuid.UUID, ids []uuid.UUID) {
	if len(ids) == 0 {
		s.Clear(ctx, tournamentID)
		return
	}
	raw := make([]string, 0, len(ids))
	for _, id := range ids {
		if v := id.String(); !slices.Contains(raw, v) {
			raw = append(raw, v)
		}
	}
	s.sessions.Put(ctx, key(tournamentID), raw)
}

// Toggle flips one player and reports whether they are selected afterwards
func (s *Store) Toggle(ctx context.Context, tournamentID, playerID uuid.UUID) bool {
	ids := s.Get(ctx, tournamentID)
	if i := slices.Index(ids, playerID); i >= 0 {
		s.Set(ctx, tournamentID, slices.Delete(ids, i, i+1))
		return false
	}
	s.Set(ctx, tournamentID, append(ids, playerID))
	return true
}

func (s *Store) Clear(ctx context.Context, tournamentID uuid.UUID) {
	s.sessions.Remove(ctx, key(tournamentID))
}
