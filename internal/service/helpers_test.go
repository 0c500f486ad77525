package service

import (
	"fmt"
	"sync"
	"testing"

	"github.com/AdamBeresnev/cueboard/internal/db"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := db.Connect(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err, "Failed to connect to in-memory DB")
	database.SetMaxOpenConns(1)

	require.NoError(t, db.RunMigrations(database.DB, "file://../../migrations"), "Failed to apply migrations")
	t.Cleanup(func() { database.Close() })
	return database
}

type published struct {
	tournamentID uuid.UUID
	event        string
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []published
}

func (b *fakeBroadcaster) Publish(tournamentID uuid.UUID, event string, _ any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, published{tournamentID: tournamentID, event: event})
}

func (b *fakeBroadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}
