package bracket

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/AdamBeresnev/cueboard/internal/utils"
	"github.com/google/uuid"
)

type ShuffleOptions struct {
	// Selected is the organizer's current selection, owned by the UI layer
	Selected []uuid.UUID
	// ExcludeSelected parks the selected players in the waiting area instead of pairing them
	ExcludeSelected bool
}

type ShuffleResult struct {
	Matches        []Match     `json:"matches"`
	Leftover       *uuid.UUID  `json:"leftover,omitempty"`
	Waiting        []uuid.UUID `json:"waiting,omitempty"`
	Discarded      int         `json:"discarded,omitempty"`
	RoundCompleted bool        `json:"round_completed"`
}

// roundStore keeps rounds in creation order. Every method validates first
// and only then mutates, so a returned error never leaves half an update.
type roundStore struct {
	roster  *Roster
	shuffle Shuffler
	now     func() time.Time
	rounds  []*Round
}

func (s *roundStore) create(displayName string) *Round {
	number := len(s.rounds) + 1
	r := &Round{
		ID:          uuid.New(),
		Number:      number,
		Name:        fmt.Sprintf("Round %d", number),
		DisplayName: strings.TrimSpace(displayName),
		Status:      RoundPending,
		CreatedAt:   s.now(),
	}
	s.rounds = append(s.rounds, r)
	return r
}

func (s *roundStore) get(id uuid.UUID) (*Round, error) {
	for _, r := range s.rounds {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrRoundNotFound, id)
}

func (s *roundStore) findMatch(matchID uuid.UUID) (*Round, *Match, error) {
	for _, r := range s.rounds {
		if m := r.Match(matchID); m != nil {
			return r, m, nil
		}
	}
	return nil, nil, fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
}

// requireOpen guards everything that adds players or matches to a round. A
// round whose predicate already holds counts as finished even if its status
// has not been settled yet.
func (s *roundStore) requireOpen(r *Round) error {
	if r.Status == RoundCompleted || r.IsComplete() {
		return refuse(RefusalRoundCompleted, "%s is already completed", r.Title())
	}
	return nil
}

func (s *roundStore) start(roundID uuid.UUID) error {
	r, err := s.get(roundID)
	if err != nil {
		return err
	}
	if r.Status != RoundPending {
		return fmt.Errorf("%w: %s is %s", ErrInvalidTransition, r.Title(), r.Status)
	}
	r.Status = RoundActive
	return nil
}

func (s *roundStore) close(roundID uuid.UUID) error {
	r, err := s.get(roundID)
	if err != nil {
		return err
	}
	if r.Status == RoundCompleted {
		return fmt.Errorf("%w: %s is already completed", ErrInvalidTransition, r.Title())
	}
	if open := r.OpenMatches(); len(open) > 0 {
		return &Refusal{
			Reason:          RefusalOpenMatches,
			Detail:          fmt.Sprintf("%s still has %d unfinished match(es)", r.Title(), len(open)),
			AffectedMatches: len(open),
			Conflicts:       open,
		}
	}
	r.Status = RoundCompleted
	return nil
}

func (s *roundStore) movePlayersIntoRound(roundID uuid.UUID, playerIDs []uuid.UUID) error {
	if len(playerIDs) == 0 {
		return nil
	}
	r, err := s.get(roundID)
	if err != nil {
		return err
	}
	if err := s.requireOpen(r); err != nil {
		return err
	}
	players, err := s.roster.lookup(uniqueIDs(playerIDs))
	if err != nil {
		return err
	}

	for _, p := range players {
		if e := r.Entry(p.ID); e != nil {
			if !e.movable() {
				return fmt.Errorf("%w: %s is %s in %s", ErrInvalidTransition, p.Name, e.Status, r.Title())
			}
			continue
		}
		if p.Status != PlayerAvailable {
			return fmt.Errorf("%w: %s is %s and cannot join %s", ErrInvalidTransition, p.Name, p.Status, r.Title())
		}
	}

	for _, p := range players {
		if r.Entry(p.ID) == nil {
			r.Entries = append(r.Entries, Entry{PlayerID: p.ID})
		}
		s.setEntry(r, p.ID, PlayerInRound, nil)
	}
	return nil
}

func (s *roundStore) movePlayersToWaiting(roundID uuid.UUID, playerIDs []uuid.UUID) error {
	if len(playerIDs) == 0 {
		return nil
	}
	r, err := s.get(roundID)
	if err != nil {
		return err
	}
	playerIDs = uniqueIDs(playerIDs)
	if err := s.requireMovable(r, playerIDs); err != nil {
		return err
	}
	for _, id := range playerIDs {
		s.setEntry(r, id, PlayerWaiting, nil)
	}
	s.settle(r)
	return nil
}

func (s *roundStore) returnPlayersToAvailable(roundID uuid.UUID, playerIDs []uuid.UUID) error {
	if len(playerIDs) == 0 {
		return nil
	}
	r, err := s.get(roundID)
	if err != nil {
		return err
	}
	playerIDs = uniqueIDs(playerIDs)
	if err := s.requireMovable(r, playerIDs); err != nil {
		return err
	}
	for _, id := range playerIDs {
		s.release(r, id)
	}
	return nil
}

// movePlayersToLobby pulls each player out of whatever round they currently sit in
func (s *roundStore) movePlayersToLobby(playerIDs []uuid.UUID) error {
	if len(playerIDs) == 0 {
		return nil
	}
	players, err := s.roster.lookup(uniqueIDs(playerIDs))
	if err != nil {
		return err
	}

	var from []*Round
	var ids []uuid.UUID
	for _, p := range players {
		if p.CurrentRound == nil {
			if p.Status == PlayerAvailable {
				continue
			}
			return fmt.Errorf("%w: %s is %s", ErrInvalidTransition, p.Name, p.Status)
		}
		r, err := s.get(*p.CurrentRound)
		if err != nil {
			return err
		}
		if err := s.requireMovable(r, []uuid.UUID{p.ID}); err != nil {
			return err
		}
		from = append(from, r)
		ids = append(ids, p.ID)
	}

	for i, r := range from {
		s.release(r, ids[i])
	}
	return nil
}

func (s *roundStore) requireMovable(r *Round, playerIDs []uuid.UUID) error {
	for _, id := range playerIDs {
		if _, err := s.roster.Get(id); err != nil {
			return err
		}
		e := r.Entry(id)
		if e == nil {
			return fmt.Errorf("%w: %s not in %s", ErrPlayerNotInRound, id, r.Title())
		}
		if !e.movable() {
			return fmt.Errorf("%w: %s is %s in %s", ErrInvalidTransition, id, e.Status, r.Title())
		}
	}
	return nil
}

// release drops the player's entry from the round. A promoted copy hands the
// player back to the round they won, an original entry goes to the lobby.
func (s *roundStore) release(r *Round, playerID uuid.UUID) {
	e := r.Entry(playerID)
	p := s.roster.players[playerID]
	if e == nil || p == nil {
		return
	}

	if e.Copied() {
		origin := *e.OriginalRound
		p.CopiedToRounds = slices.DeleteFunc(p.CopiedToRounds, func(id uuid.UUID) bool { return id == r.ID })
		p.CurrentRound = utils.Ptr(origin)
		p.CurrentMatch = nil
		p.Status = PlayerWinner
		if src, err := s.get(origin); err == nil {
			if se := src.Entry(playerID); se != nil {
				p.Status = se.Status
			}
		}
	} else {
		p.Status = PlayerAvailable
		p.CurrentRound = nil
		p.CurrentMatch = nil
	}
	r.removeEntry(playerID)
	s.settle(r)
}

func (s *roundStore) shuffleRound(roundID uuid.UUID, opts ShuffleOptions) (ShuffleResult, error) {
	r, err := s.get(roundID)
	if err != nil {
		return ShuffleResult{}, err
	}
	if err := s.requireOpen(r); err != nil {
		return ShuffleResult{}, err
	}

	selected := make(map[uuid.UUID]bool, len(opts.Selected))
	for _, id := range opts.Selected {
		selected[id] = true
	}

	var pool, park []uuid.UUID
	for _, e := range r.Entries {
		if e.Status != PlayerInRound || r.inCompletedMatch(e.PlayerID) {
			continue
		}
		if opts.ExcludeSelected && selected[e.PlayerID] {
			park = append(park, e.PlayerID)
			continue
		}
		pool = append(pool, e.PlayerID)
	}
	if len(pool) < 2 {
		return ShuffleResult{}, refuse(RefusalInsufficientPlayers,
			"%d player(s) left to pair in %s, need at least 2", len(pool), r.Title())
	}

	for _, id := range park {
		s.setEntry(r, id, PlayerWaiting, nil)
	}
	result := s.pairInto(r, pool)
	result.Waiting = park
	result.RoundCompleted = s.settle(r)
	return result, nil
}

// reshuffleAll throws away every open pairing and pairs again. Completed
// matches and waiting players are left alone.
func (s *roundStore) reshuffleAll(roundID uuid.UUID, confirmed bool) (ShuffleResult, error) {
	r, err := s.get(roundID)
	if err != nil {
		return ShuffleResult{}, err
	}
	if err := s.requireOpen(r); err != nil {
		return ShuffleResult{}, err
	}

	open := r.OpenMatches()
	if len(open) > 0 && !confirmed {
		return ShuffleResult{}, &Refusal{
			Reason:          RefusalConfirmationRequired,
			Detail:          fmt.Sprintf("reshuffling %s discards %d open match(es)", r.Title(), len(open)),
			AffectedMatches: len(open),
			Conflicts:       open,
		}
	}

	var pool []uuid.UUID
	for _, e := range r.Entries {
		switch {
		case e.Status == PlayerInMatch:
			pool = append(pool, e.PlayerID)
		case e.Status == PlayerInRound && !r.inCompletedMatch(e.PlayerID):
			pool = append(pool, e.PlayerID)
		}
	}
	if len(pool) < 2 {
		return ShuffleResult{}, refuse(RefusalInsufficientPlayers,
			"%d player(s) left to pair in %s, need at least 2", len(pool), r.Title())
	}

	for _, id := range open {
		r.removeMatch(id)
	}
	for _, id := range pool {
		s.setEntry(r, id, PlayerInRound, nil)
	}
	result := s.pairInto(r, pool)
	result.Discarded = len(open)
	result.RoundCompleted = s.settle(r)
	return result, nil
}

func (s *roundStore) pairPlayers(roundID, player1ID, player2ID uuid.UUID) (Match, error) {
	if player1ID == player2ID {
		return Match{}, fmt.Errorf("%w: %s", ErrSamePlayer, player1ID)
	}
	r, err := s.get(roundID)
	if err != nil {
		return Match{}, err
	}
	if err := s.requireOpen(r); err != nil {
		return Match{}, err
	}
	if err := s.requireMovable(r, []uuid.UUID{player1ID, player2ID}); err != nil {
		return Match{}, err
	}

	return s.newMatch(r, player1ID, player2ID).clone(), nil
}

func (s *roundStore) pairInto(r *Round, pool []uuid.UUID) ShuffleResult {
	pairs, leftover := Pair(pool, s.shuffle)
	result := ShuffleResult{Leftover: leftover, Matches: make([]Match, 0, len(pairs))}
	for _, pair := range pairs {
		m := s.newMatch(r, pair.Player1ID, pair.Player2ID)
		result.Matches = append(result.Matches, m.clone())
	}
	return result
}

func (s *roundStore) newMatch(r *Round, player1ID, player2ID uuid.UUID) *Match {
	r.Matches = append(r.Matches, Match{
		ID:        uuid.New(),
		RoundID:   r.ID,
		Player1ID: player1ID,
		Player2ID: player2ID,
		Status:    MatchPending,
		CreatedAt: s.now(),
	})
	m := &r.Matches[len(r.Matches)-1]
	s.setEntry(r, player1ID, PlayerInMatch, &m.ID)
	s.setEntry(r, player2ID, PlayerInMatch, &m.ID)
	return m
}

// setEntry keeps the round entry and the roster record in step
func (s *roundStore) setEntry(r *Round, playerID uuid.UUID, status PlayerStatus, matchID *uuid.UUID) {
	if e := r.Entry(playerID); e != nil {
		e.Status = status
		e.MatchID = clonePtr(matchID)
	}
	if p, ok := s.roster.players[playerID]; ok {
		p.Status = status
		p.CurrentRound = utils.Ptr(r.ID)
		p.CurrentMatch = clonePtr(matchID)
	}
}

// settle flips the round to completed once IsComplete holds
func (s *roundStore) settle(r *Round) bool {
	if r.Status != RoundCompleted && r.IsComplete() {
		r.Status = RoundCompleted
	}
	return r.Status == RoundCompleted
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
