package bracket

import (
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// keepOrder pairs players in the order they sit in the round
func keepOrder(int, func(i, j int)) {}

type testClock struct {
	now time.Time
}

// Now moves one minute forward on every call so durations are predictable
func (c *testClock) Now() time.Time {
	c.now = c.now.Add(time.Minute)
	return c.now
}

func newTestPlayers(n int) []Player {
	faker := gofakeit.New(7)
	players := make([]Player, n)
	for i := range players {
		players[i] = Player{
			ID:      uuid.New(),
			Name:    faker.Name(),
			Contact: faker.Phone(),
			Skill:   SkillIntermediate,
		}
	}
	return players
}

func newTestCoordinator(t *testing.T, n int) (*Coordinator, []uuid.UUID) {
	t.Helper()

	players := newTestPlayers(n)
	ids := make([]uuid.UUID, n)
	for i, p := range players {
		ids[i] = p.ID
	}
	clock := &testClock{now: time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)}
	return NewCoordinator(players, WithShuffler(keepOrder), WithClock(clock.Now)), ids
}

// newRoundWith creates a round and seats the given players in it
func newRoundWith(t *testing.T, c *Coordinator, name string, ids ...uuid.UUID) Round {
	t.Helper()

	round := c.CreateRound(name)
	require.NoError(t, c.MovePlayersIntoRound(round.ID, ids))
	return round
}

func playMatch(t *testing.T, c *Coordinator, matchID, winnerID uuid.UUID) Match {
	t.Helper()

	_, err := c.StartMatch(matchID)
	require.NoError(t, err)
	m, err := c.CloseMatch(matchID, winnerID, "7-3")
	require.NoError(t, err)
	return m
}

func mustPlayer(t *testing.T, c *Coordinator, id uuid.UUID) Player {
	t.Helper()

	p, err := c.Player(id)
	require.NoError(t, err)
	return p
}

func mustRound(t *testing.T, c *Coordinator, id uuid.UUID) Round {
	t.Helper()

	r, err := c.Round(id)
	require.NoError(t, err)
	return r
}
