package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/AdamBeresnev/cueboard/internal/bracket"
	"github.com/AdamBeresnev/cueboard/internal/metrics"
	"github.com/AdamBeresnev/cueboard/internal/store"
	"github.com/AdamBeresnev/cueboard/views"
	"github.com/google/uuid"
)

const EventBracketUpdated = "bracket_updated"

// Broadcaster pushes the fresh view to whoever watches the tournament
type Broadcaster interface {
	Publish(tournamentID uuid.UUID, event string, payload any)
}

type loadedTournament struct {
	tournament  *bracket.Tournament
	coordinator *bracket.Coordinator
}

// BracketService runs organizer intents against the in-memory coordinator of
// a tournament. Intents are serialised, each one sees the result of the
// previous and the state is persisted after every applied intent.
type BracketService struct {
	store   *store.TournamentStore
	titles  []string
	live    Broadcaster
	metrics *metrics.Recorder
	opts    []bracket.Option

	mu     sync.Mutex
	loaded map[uuid.UUID]*loadedTournament
}

func NewBracketService(store *store.TournamentStore, titles []string, live Broadcaster, rec *metrics.Recorder, opts ...bracket.Option) *BracketService {
	if len(titles) == 0 {
		titles = bracket.DefaultRoundTitles
	}
	return &BracketService{
		store:   store,
		titles:  titles,
		live:    live,
		metrics: rec,
		opts:    opts,
		loaded:  make(map[uuid.UUID]*loadedTournament),
	}
}

// load expects s.mu to be held
func (s *BracketService) load(ctx context.Context, tournamentID uuid.UUID) (*loadedTournament, error) {
	if t, ok := s.loaded[tournamentID]; ok {
		return t, nil
	}

	tournament, err := s.store.GetTournament(ctx, tournamentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", bracket.ErrTournamentNotFound, tournamentID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tournament: %w", err)
	}

	var coordinator *bracket.Coordinator
	state, _, err := s.store.GetState(ctx, tournamentID)
	switch {
	case err == nil:
		coordinator = bracket.Restore(*state, s.opts...)
	case errors.Is(err, sql.ErrNoRows):
		// Nothing played yet, start from the registrations
		regs, err := s.store.GetRegistrations(ctx, tournamentID)
		if err != nil {
			return nil, fmt.Errorf("failed to get registrations: %w", err)
		}
		coordinator = bracket.NewCoordinator(bracket.PlayersFromRegistrations(regs), s.opts...)
	default:
		return nil, fmt.Errorf("failed to get bracket state: %w", err)
	}

	t := &loadedTournament{tournament: tournament, coordinator: coordinator}
	s.loaded[tournamentID] = t
	return t, nil
}

// Apply runs fn as the named intent. fn must call exactly the coordinator
// operations of the intent, their all-or-nothing guarantee is what keeps the
// state consistent when fn fails.
func (s *BracketService) Apply(ctx context.Context, tournamentID uuid.UUID, intent string, fn func(c *bracket.Coordinator) error) (views.BracketData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.load(ctx, tournamentID)
	if err != nil {
		s.record(intent, tournamentID, err)
		return views.BracketData{}, err
	}

	if err := fn(t.coordinator); err != nil {
		s.record(intent, tournamentID, err)
		return views.BracketData{}, err
	}

	if _, err := s.store.SaveState(ctx, tournamentID, t.coordinator.Snapshot()); err != nil {
		// Memory is ahead of storage now, start over from storage next time
		delete(s.loaded, tournamentID)
		err = fmt.Errorf("failed to save bracket state: %w", err)
		s.record(intent, tournamentID, err)
		return views.BracketData{}, err
	}

	s.record(intent, tournamentID, nil)
	data := s.view(t)
	if s.live != nil {
		s.live.Publish(tournamentID, EventBracketUpdated, data)
	}
	return data, nil
}

func (s *BracketService) record(intent string, tournamentID uuid.UUID, err error) {
	if err == nil {
		s.metrics.Intent(intent, metrics.OutcomeApplied)
		slog.Info("intent applied", "intent", intent, "tournament_id", tournamentID)
		return
	}

	if refusal, ok := bracket.AsRefusal(err); ok {
		s.metrics.Intent(intent, metrics.OutcomeRefused)
		s.metrics.Refusal(string(refusal.Reason))
		slog.Warn("intent refused", "intent", intent, "tournament_id", tournamentID, "reason", refusal.Reason, "detail", refusal.Detail)
		return
	}

	if bracket.IsNotFound(err) || bracket.IsPrecondition(err) {
		s.metrics.Intent(intent, metrics.OutcomeRejected)
		slog.Warn("intent rejected", "intent", intent, "tournament_id", tournamentID, "error", err)
		return
	}

	s.metrics.Intent(intent, metrics.OutcomeFailed)
	slog.Error("intent failed", "intent", intent, "tournament_id", tournamentID, "error", err)
}

// CloseMatch is Apply for closing a match plus the match duration metric
func (s *BracketService) CloseMatch(ctx context.Context, tournamentID, matchID, winnerID uuid.UUID, score string) (bracket.Match, views.BracketData, error) {
	var closed bracket.Match
	data, err := s.Apply(ctx, tournamentID, "close_match", func(c *bracket.Coordinator) error {
		m, err := c.CloseMatch(matchID, winnerID, score)
		closed = m
		return err
	})
	if err != nil {
		return bracket.Match{}, data, err
	}
	s.metrics.MatchClosed(closed.Duration)
	return closed, data, nil
}

func (s *BracketService) View(ctx context.Context, tournamentID uuid.UUID) (views.BracketData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.load(ctx, tournamentID)
	if err != nil {
		return views.BracketData{}, err
	}
	return s.view(t), nil
}

func (s *BracketService) Snapshot(ctx context.Context, tournamentID uuid.UUID) (bracket.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.load(ctx, tournamentID)
	if err != nil {
		return bracket.State{}, err
	}
	return t.coordinator.Snapshot(), nil
}

func (s *BracketService) view(t *loadedTournament) views.BracketData {
	data := views.PrepareBracketData(t.coordinator.Snapshot(), s.titles)
	data.Tournament = t.tournament
	return data
}
