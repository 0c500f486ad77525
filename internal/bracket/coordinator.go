package bracket

import (
	"fmt"
	"time"

	"github.com/AdamBeresnev/cueboard/internal/utils"
	"github.com/google/uuid"
)

// Coordinator owns the whole player/round/match graph of one tournament.
// All mutation goes through it. It is not safe for concurrent use, callers
// serialise intents.
type Coordinator struct {
	roster  *Roster
	rounds  *roundStore
	matches *matchLifecycle

	shuffle Shuffler
	now     func() time.Time
}

type Option func(*Coordinator)

func WithShuffler(shuffle Shuffler) Option {
	return func(c *Coordinator) { c.shuffle = shuffle }
}

func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// State is the read-only snapshot handed to the UI and to persistence
type State struct {
	Players []Player `json:"players"`
	Rounds  []Round  `json:"rounds"`
}

// NewCoordinator starts a tournament from registration data, everyone available
func NewCoordinator(players []Player, opts ...Option) *Coordinator {
	registered := make([]Player, len(players))
	for i, p := range players {
		registered[i] = Player{
			ID:       p.ID,
			Name:     p.Name,
			Contact:  p.Contact,
			Skill:    p.Skill,
			ImageRef: clonePtr(p.ImageRef),
			Status:   PlayerAvailable,
		}
	}
	return Restore(State{Players: registered}, opts...)
}

// Restore rebuilds a coordinator from a snapshot taken with Snapshot
func Restore(state State, opts ...Option) *Coordinator {
	c := &Coordinator{shuffle: RandomShuffler(), now: time.Now}
	for _, opt := range opts {
		opt(c)
	}

	c.roster = NewRoster(state.Players)
	c.rounds = &roundStore{roster: c.roster, shuffle: c.shuffle, now: c.now}
	for _, r := range state.Rounds {
		r := r.clone()
		c.rounds.rounds = append(c.rounds.rounds, &r)
	}
	c.matches = &matchLifecycle{roster: c.roster, rounds: c.rounds, now: c.now}
	return c
}

func (c *Coordinator) Snapshot() State {
	state := State{Players: c.roster.Players(), Rounds: make([]Round, 0, len(c.rounds.rounds))}
	for _, r := range c.rounds.rounds {
		state.Rounds = append(state.Rounds, r.clone())
	}
	return state
}

func (c *Coordinator) Players() []Player {
	return c.roster.Players()
}

func (c *Coordinator) Player(id uuid.UUID) (Player, error) {
	p, err := c.roster.Get(id)
	if err != nil {
		return Player{}, err
	}
	return p.clone(), nil
}

// AvailablePlayers is the lobby: registered players not placed in any round
func (c *Coordinator) AvailablePlayers() []Player {
	var lobby []Player
	for _, p := range c.roster.Players() {
		if p.Status == PlayerAvailable {
			lobby = append(lobby, p)
		}
	}
	return lobby
}

func (c *Coordinator) Standings() []Standing {
	return c.roster.Standings()
}

func (c *Coordinator) Rounds() []Round {
	return c.Snapshot().Rounds
}

func (c *Coordinator) Round(id uuid.UUID) (Round, error) {
	r, err := c.rounds.get(id)
	if err != nil {
		return Round{}, err
	}
	return r.clone(), nil
}

func (c *Coordinator) CreateRound(displayName string) Round {
	return c.rounds.create(displayName).clone()
}

func (c *Coordinator) StartRound(roundID uuid.UUID) error {
	return c.rounds.start(roundID)
}

func (c *Coordinator) CloseRound(roundID uuid.UUID) error {
	return c.rounds.close(roundID)
}

func (c *Coordinator) MovePlayersIntoRound(roundID uuid.UUID, playerIDs []uuid.UUID) error {
	return c.rounds.movePlayersIntoRound(roundID, playerIDs)
}

func (c *Coordinator) MovePlayersToWaiting(roundID uuid.UUID, playerIDs []uuid.UUID) error {
	return c.rounds.movePlayersToWaiting(roundID, playerIDs)
}

func (c *Coordinator) MovePlayersToLobby(playerIDs []uuid.UUID) error {
	return c.rounds.movePlayersToLobby(playerIDs)
}

func (c *Coordinator) ReturnPlayersToAvailable(roundID uuid.UUID, playerIDs []uuid.UUID) error {
	return c.rounds.returnPlayersToAvailable(roundID, playerIDs)
}

func (c *Coordinator) ShuffleRound(roundID uuid.UUID, opts ShuffleOptions) (ShuffleResult, error) {
	return c.rounds.shuffleRound(roundID, opts)
}

// ReshuffleAll needs confirmed=true whenever open pairings would be thrown
// away, otherwise it refuses with the number of affected matches.
func (c *Coordinator) ReshuffleAll(roundID uuid.UUID, confirmed bool) (ShuffleResult, error) {
	return c.rounds.reshuffleAll(roundID, confirmed)
}

func (c *Coordinator) PairPlayers(roundID, player1ID, player2ID uuid.UUID) (Match, error) {
	return c.rounds.pairPlayers(roundID, player1ID, player2ID)
}

func (c *Coordinator) StartMatch(matchID uuid.UUID) (Match, error) {
	return c.matches.start(matchID)
}

func (c *Coordinator) CancelMatch(matchID uuid.UUID) error {
	return c.matches.cancel(matchID)
}

func (c *Coordinator) CloseMatch(matchID, winnerID uuid.UUID, score string) (Match, error) {
	return c.matches.close(matchID, winnerID, score)
}

// PromoteWinnersToRound copies winners of the source round into the target
// round as fresh in_round entries. A player can be copied into a given round
// only once; any repeat refuses the whole request.
func (c *Coordinator) PromoteWinnersToRound(sourceRoundID uuid.UUID, winnerIDs []uuid.UUID, targetRoundID uuid.UUID) error {
	if len(winnerIDs) == 0 {
		return nil
	}
	if sourceRoundID == targetRoundID {
		return fmt.Errorf("%w: %s", ErrSameRound, sourceRoundID)
	}
	src, err := c.rounds.get(sourceRoundID)
	if err != nil {
		return err
	}
	dst, err := c.rounds.get(targetRoundID)
	if err != nil {
		return err
	}
	if err := c.rounds.requireOpen(dst); err != nil {
		return err
	}
	players, err := c.roster.lookup(uniqueIDs(winnerIDs))
	if err != nil {
		return err
	}

	var conflicts []uuid.UUID
	for _, p := range players {
		e := src.Entry(p.ID)
		if e == nil || e.Status != PlayerWinner {
			return fmt.Errorf("%w: %s in %s", ErrNotAWinner, p.Name, src.Title())
		}
		if err := c.requireIdle(p, src.ID, dst.ID); err != nil {
			return err
		}
		if p.CopiedTo(dst.ID) || dst.Entry(p.ID) != nil {
			conflicts = append(conflicts, p.ID)
		}
	}
	if len(conflicts) > 0 {
		return &Refusal{
			Reason:    RefusalDuplicatePromotion,
			Detail:    fmt.Sprintf("already in %s: %s", dst.Title(), joinIDs(conflicts)),
			Conflicts: conflicts,
		}
	}

	for _, p := range players {
		dst.Entries = append(dst.Entries, Entry{
			PlayerID:      p.ID,
			Status:        PlayerInRound,
			OriginalRound: utils.Ptr(src.ID),
		})
		p.CopiedToRounds = append(p.CopiedToRounds, dst.ID)
		p.Status = PlayerInRound
		p.CurrentRound = utils.Ptr(dst.ID)
		p.CurrentMatch = nil
	}
	return nil
}

// requireIdle refuses a player who still takes part in a third round, e.g. a
// winner already promoted elsewhere and now sitting in a live match there
func (c *Coordinator) requireIdle(p *Player, sourceRoundID, targetRoundID uuid.UUID) error {
	if p.CurrentRound == nil || *p.CurrentRound == sourceRoundID || *p.CurrentRound == targetRoundID {
		return nil
	}
	current, err := c.rounds.get(*p.CurrentRound)
	if err != nil {
		return nil
	}
	if e := current.Entry(p.ID); e != nil && (e.movable() || e.Status == PlayerInMatch) {
		return fmt.Errorf("%w: %s is %s in %s", ErrInvalidTransition, p.Name, e.Status, current.Title())
	}
	return nil
}

// RevokePromotion undoes PromoteWinnersToRound for one player. Original
// participants cannot be removed this way.
func (c *Coordinator) RevokePromotion(roundID, playerID uuid.UUID) error {
	r, err := c.rounds.get(roundID)
	if err != nil {
		return err
	}
	if _, err := c.roster.Get(playerID); err != nil {
		return err
	}
	e := r.Entry(playerID)
	if e == nil {
		return fmt.Errorf("%w: %s not in %s", ErrPlayerNotInRound, playerID, r.Title())
	}
	if !e.Copied() {
		return fmt.Errorf("%w: %s", ErrNotPromoted, playerID)
	}
	if !e.movable() {
		return fmt.Errorf("%w: promoted entry is already %s", ErrInvalidTransition, e.Status)
	}

	c.rounds.release(r, playerID)
	return nil
}

func (c *Coordinator) UnmatchedPlayers(roundID uuid.UUID) ([]uuid.UUID, error) {
	r, err := c.rounds.get(roundID)
	if err != nil {
		return nil, err
	}
	return r.UnmatchedPlayers(), nil
}

func (c *Coordinator) RoundIsComplete(roundID uuid.UUID) (bool, error) {
	r, err := c.rounds.get(roundID)
	if err != nil {
		return false, err
	}
	return r.IsComplete(), nil
}

// SuggestRoundTitles filters the catalogue against titles already in use
func (c *Coordinator) SuggestRoundTitles(catalog []string) []string {
	return SuggestRoundTitles(catalog, c.Rounds())
}
