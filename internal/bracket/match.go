package bracket

import (
	"time"

	"github.com/google/uuid"
)

type MatchStatus string

const (
	MatchPending   MatchStatus = "pending"
	MatchActive    MatchStatus = "active"
	MatchCompleted MatchStatus = "completed"
)

type Match struct {
	ID      uuid.UUID `json:"id"`
	RoundID uuid.UUID `json:"round_id"`

	// Slots are not seeds, either order is fine
	Player1ID uuid.UUID `json:"player_1_id"`
	Player2ID uuid.UUID `json:"player_2_id"`

	Status    MatchStatus   `json:"status"`
	StartedAt *time.Time    `json:"started_at,omitempty"`
	EndedAt   *time.Time    `json:"ended_at,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
	Score     string        `json:"score,omitempty"`
	WinnerID  *uuid.UUID    `json:"winner_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (m *Match) Involves(playerID uuid.UUID) bool {
	return m.Player1ID == playerID || m.Player2ID == playerID
}

// Opponent returns the other player, or uuid.Nil when playerID is not in the match
func (m *Match) Opponent(playerID uuid.UUID) uuid.UUID {
	switch playerID {
	case m.Player1ID:
		return m.Player2ID
	case m.Player2ID:
		return m.Player1ID
	}
	return uuid.Nil
}

func (m *Match) IsWinner(playerID uuid.UUID) bool {
	return m.Status == MatchCompleted && m.WinnerID != nil && *m.WinnerID == playerID
}

func (m *Match) IsLoser(playerID uuid.UUID) bool {
	return m.Status == MatchCompleted && m.WinnerID != nil && *m.WinnerID != playerID && m.Involves(playerID)
}

func (m Match) clone() Match {
	m.StartedAt = clonePtr(m.StartedAt)
	m.EndedAt = clonePtr(m.EndedAt)
	m.WinnerID = clonePtr(m.WinnerID)
	return m
}
