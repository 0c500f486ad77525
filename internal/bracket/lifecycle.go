package bracket

import (
	"fmt"
	"strings"
	"time"

	"github.com/AdamBeresnev/cueboard/internal/utils"
	"github.com/google/uuid"
)

// matchLifecycle drives pending -> active -> completed, with cancel as the
// only way out of pending. Nothing leaves completed.
type matchLifecycle struct {
	roster *Roster
	rounds *roundStore
	now    func() time.Time
}

// start puts a match on the table. Only one match per round is live at a time.
func (l *matchLifecycle) start(matchID uuid.UUID) (Match, error) {
	r, m, err := l.rounds.findMatch(matchID)
	if err != nil {
		return Match{}, err
	}
	if m.Status != MatchPending {
		return Match{}, fmt.Errorf("%w: match %s is %s", ErrInvalidTransition, m.ID, m.Status)
	}
	if active := r.ActiveMatch(); active != nil {
		return Match{}, &Refusal{
			Reason:    RefusalMatchAlreadyActive,
			Detail:    fmt.Sprintf("match %s is already live in %s", active.ID, r.Title()),
			Conflicts: []uuid.UUID{active.ID},
		}
	}

	m.Status = MatchActive
	m.StartedAt = utils.Ptr(l.now())
	if r.Status == RoundPending {
		r.Status = RoundActive
	}
	return m.clone(), nil
}

// cancel drops a pending match. Both players go to waiting so the next
// shuffle does not immediately pair them again.
func (l *matchLifecycle) cancel(matchID uuid.UUID) error {
	r, m, err := l.rounds.findMatch(matchID)
	if err != nil {
		return err
	}
	if m.Status != MatchPending {
		return fmt.Errorf("%w: only pending matches can be cancelled, %s is %s", ErrInvalidTransition, m.ID, m.Status)
	}

	player1, player2 := m.Player1ID, m.Player2ID
	r.removeMatch(m.ID)
	l.rounds.setEntry(r, player1, PlayerWaiting, nil)
	l.rounds.setEntry(r, player2, PlayerWaiting, nil)
	l.rounds.settle(r)
	return nil
}

func (l *matchLifecycle) close(matchID, winnerID uuid.UUID, score string) (Match, error) {
	r, m, err := l.rounds.findMatch(matchID)
	if err != nil {
		return Match{}, err
	}
	if m.Status != MatchActive {
		return Match{}, fmt.Errorf("%w: only active matches can be closed, %s is %s", ErrInvalidTransition, m.ID, m.Status)
	}
	if !m.Involves(winnerID) {
		return Match{}, fmt.Errorf("%w: %s", ErrWinnerNotInMatch, winnerID)
	}
	loserID := m.Opponent(winnerID)

	// Validates both ids before touching anything
	if err := l.roster.RecordMatchResult(winnerID, loserID, r.Title()); err != nil {
		return Match{}, err
	}

	end := l.now()
	m.Status = MatchCompleted
	m.EndedAt = &end
	if m.StartedAt != nil {
		m.Duration = end.Sub(*m.StartedAt)
	}
	m.Score = strings.TrimSpace(score)
	m.WinnerID = utils.Ptr(winnerID)

	for _, id := range []uuid.UUID{winnerID, loserID} {
		p := l.roster.players[id]
		if e := r.Entry(id); e != nil {
			e.Status = p.Status
		}
		p.CurrentMatch = nil
		p.CurrentRound = utils.Ptr(r.ID)
	}

	l.rounds.settle(r)
	return m.clone(), nil
}
