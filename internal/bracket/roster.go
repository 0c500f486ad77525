package bracket

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// Roster owns every Player record of the tournament. Players are never
// removed, eliminated and finished players stay for the history.
type Roster struct {
	order   []uuid.UUID
	players map[uuid.UUID]*Player
}

func NewRoster(players []Player) *Roster {
	r := &Roster{players: make(map[uuid.UUID]*Player, len(players))}
	for _, p := range players {
		if _, exists := r.players[p.ID]; exists {
			continue
		}
		p := p.clone()
		if p.Status == "" {
			p.Status = PlayerAvailable
		}
		r.order = append(r.order, p.ID)
		r.players[p.ID] = &p
	}
	return r
}

func (r *Roster) Get(id uuid.UUID) (*Player, error) {
	p, ok := r.players[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPlayerNotFound, id)
	}
	return p, nil
}

// lookup resolves all ids or none
func (r *Roster) lookup(ids []uuid.UUID) ([]*Player, error) {
	players := make([]*Player, 0, len(ids))
	for _, id := range ids {
		p, err := r.Get(id)
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, nil
}

// Players returns copies in registration order
func (r *Roster) Players() []Player {
	out := make([]Player, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.players[id].clone())
	}
	return out
}

// SetStatus overwrites the status without any transition checks, callers
// are responsible for keeping the graph consistent.
func (r *Roster) SetStatus(id uuid.UUID, status PlayerStatus) error {
	p, err := r.Get(id)
	if err != nil {
		return err
	}
	p.Status = status
	return nil
}

func (r *Roster) RecordMatchResult(winnerID, loserID uuid.UUID, roundName string) error {
	winner, err := r.Get(winnerID)
	if err != nil {
		return err
	}
	loser, err := r.Get(loserID)
	if err != nil {
		return err
	}

	winner.MatchesPlayed++
	loser.MatchesPlayed++
	winner.RoundsWon = append(winner.RoundsWon, roundName)
	winner.Status = PlayerWinner
	loser.Status = PlayerEliminated
	return nil
}

type Standing struct {
	PlayerID      uuid.UUID    `json:"player_id"`
	Name          string       `json:"name"`
	Status        PlayerStatus `json:"status"`
	RoundsWon     int          `json:"rounds_won"`
	MatchesPlayed int          `json:"matches_played"`
}

func (r *Roster) Standings() []Standing {
	standings := make([]Standing, 0, len(r.order))
	for _, id := range r.order {
		p := r.players[id]
		standings = append(standings, Standing{
			PlayerID:      p.ID,
			Name:          p.Name,
			Status:        p.Status,
			RoundsWon:     len(p.RoundsWon),
			MatchesPlayed: p.MatchesPlayed,
		})
	}
	slices.SortStableFunc(standings, func(a, b Standing) int {
		return cmp.Or(
			cmp.Compare(b.RoundsWon, a.RoundsWon),
			cmp.Compare(b.MatchesPlayed, a.MatchesPlayed),
			cmp.Compare(a.Name, b.Name),
		)
	})
	return standings
}
