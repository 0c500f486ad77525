package bracket

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

type RoundStatus string

const (
	RoundPending   RoundStatus = "pending"
	RoundActive    RoundStatus = "active"
	RoundCompleted RoundStatus = "completed"
)

// Entry is a player's participation in one round. A promoted winner gets a
// fresh entry in the target round with OriginalRound pointing back at the
// round they won.
type Entry struct {
	PlayerID      uuid.UUID    `json:"player_id"`
	Status        PlayerStatus `json:"status"`
	MatchID       *uuid.UUID   `json:"match_id,omitempty"`
	OriginalRound *uuid.UUID   `json:"original_round,omitempty"`
}

func (e *Entry) Copied() bool {
	return e.OriginalRound != nil
}

// movable entries can still be shifted between the round, the waiting area and the lobby
func (e *Entry) movable() bool {
	return e.Status == PlayerInRound || e.Status == PlayerWaiting
}

type Round struct {
	ID          uuid.UUID   `json:"id"`
	Number      int         `json:"number"`
	Name        string      `json:"name"`
	DisplayName string      `json:"display_name,omitempty"`
	Status      RoundStatus `json:"status"`
	Entries     []Entry     `json:"entries"`
	Matches     []Match     `json:"matches"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Title prefers the organizer supplied name
func (r *Round) Title() string {
	if r.DisplayName != "" {
		return r.DisplayName
	}
	return r.Name
}

func (r *Round) Entry(playerID uuid.UUID) *Entry {
	for i := range r.Entries {
		if r.Entries[i].PlayerID == playerID {
			return &r.Entries[i]
		}
	}
	return nil
}

func (r *Round) Match(matchID uuid.UUID) *Match {
	for i := range r.Matches {
		if r.Matches[i].ID == matchID {
			return &r.Matches[i]
		}
	}
	return nil
}

func (r *Round) ActiveMatch() *Match {
	for i := range r.Matches {
		if r.Matches[i].Status == MatchActive {
			return &r.Matches[i]
		}
	}
	return nil
}

// OpenMatches are the pending and active ones, i.e. everything a reshuffle would discard
func (r *Round) OpenMatches() []uuid.UUID {
	var ids []uuid.UUID
	for _, m := range r.Matches {
		if m.Status != MatchCompleted {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

func (r *Round) PlayersWithStatus(status PlayerStatus) []uuid.UUID {
	var ids []uuid.UUID
	for _, e := range r.Entries {
		if e.Status == status {
			ids = append(ids, e.PlayerID)
		}
	}
	return ids
}

func (r *Round) inAnyMatch(playerID uuid.UUID) bool {
	return slices.ContainsFunc(r.Matches, func(m Match) bool { return m.Involves(playerID) })
}

func (r *Round) inCompletedMatch(playerID uuid.UUID) bool {
	return slices.ContainsFunc(r.Matches, func(m Match) bool {
		return m.Status == MatchCompleted && m.Involves(playerID)
	})
}

// UnmatchedPlayers are in_round players that no match of the round references.
// These are the manual pairing candidates.
func (r *Round) UnmatchedPlayers() []uuid.UUID {
	var ids []uuid.UUID
	for _, e := range r.Entries {
		if e.Status == PlayerInRound && !r.inAnyMatch(e.PlayerID) {
			ids = append(ids, e.PlayerID)
		}
	}
	return ids
}

// IsComplete is the only definition of a finished round: at least one match,
// every match completed and nobody left unmatched.
func (r *Round) IsComplete() bool {
	if len(r.Matches) == 0 {
		return false
	}
	for _, m := range r.Matches {
		if m.Status != MatchCompleted {
			return false
		}
	}
	return len(r.UnmatchedPlayers()) == 0
}

func (r *Round) removeEntry(playerID uuid.UUID) {
	r.Entries = slices.DeleteFunc(r.Entries, func(e Entry) bool { return e.PlayerID == playerID })
}

func (r *Round) removeMatch(matchID uuid.UUID) {
	r.Matches = slices.DeleteFunc(r.Matches, func(m Match) bool { return m.ID == matchID })
}

func (r *Round) clone() Round {
	c := *r
	c.Entries = make([]Entry, len(r.Entries))
	for i, e := range r.Entries {
		e.MatchID = clonePtr(e.MatchID)
		e.OriginalRound = clonePtr(e.OriginalRound)
		c.Entries[i] = e
	}
	c.Matches = make([]Match, len(r.Matches))
	for i, m := range r.Matches {
		c.Matches[i] = m.clone()
	}
	return c
}
