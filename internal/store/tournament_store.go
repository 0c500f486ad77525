package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AdamBeresnev/cueboard/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type TournamentStore struct {
	db *sqlx.DB
}

func NewTournamentStore(db *sqlx.DB) *TournamentStore {
	return &TournamentStore{db: db}
}

type stateRow struct {
	TournamentID uuid.UUID `db:"tournament_id"`
	State        string    `db:"state"`
	Version      int       `db:"version"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (s *TournamentStore) CreateTournament(ctx context.Context, tx *sqlx.Tx, tournament *bracket.Tournament) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO tournaments (id, name, created_at)
        VALUES (:id, :name, :created_at)`, tournament)
	return err
}

func (s *TournamentStore) CreateRegistrations(ctx context.Context, tx *sqlx.Tx, regs []bracket.Registration) error {
	if len(regs) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO registrations (id, tournament_id, name, contact, skill, image_ref, seq, created_at)
            VALUES (:id, :tournament_id, :name, :contact, :skill, :image_ref, :seq, :created_at)`, regs)
	return err
}

func (s *TournamentStore) GetTournament(ctx context.Context, id uuid.UUID) (*bracket.Tournament, error) {
	var tournament bracket.Tournament
	err := s.db.GetContext(ctx, &tournament, "SELECT id, name, created_at FROM tournaments WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	return &tournament, nil
}

func (s *TournamentStore) ListTournaments(ctx context.Context) ([]bracket.Tournament, error) {
	var tournaments []bracket.Tournament
	err := s.db.SelectContext(ctx, &tournaments, "SELECT id, name, created_at FROM tournaments ORDER BY created_at DESC")
	return tournaments, err
}

func (s *TournamentStore) GetRegistrations(ctx context.Context, tournamentID uuid.UUID) ([]bracket.Registration, error) {
	var regs []bracket.Registration
	err := s.db.SelectContext(ctx, &regs, `SELECT id, tournament_id, name, contact, skill, image_ref, seq, created_at
		FROM registrations WHERE tournament_id = ? ORDER BY seq ASC`, tournamentID)
	return regs, err
}

// SaveState upserts the bracket snapshot and returns the new version
func (s *TournamentStore) SaveState(ctx context.Context, tournamentID uuid.UUID, state bracket.State) (int, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return 0, fmt.Errorf("encode state: %w", err)
	}

	var version int
	err = s.db.GetContext(ctx, &version, `INSERT INTO bracket_states (tournament_id, state, version, updated_at)
		VALUES (?, ?, 1, ?)
		ON CONFLICT(tournament_id) DO UPDATE SET
			state = excluded.state,
			version = bracket_states.version + 1,
			updated_at = excluded.updated_at
		RETURNING version`, tournamentID, string(data), time.Now().UTC())
	return version, err
}

// GetState returns sql.ErrNoRows until the first intent has been saved
func (s *TournamentStore) GetState(ctx context.Context, tournamentID uuid.UUID) (*bracket.State, int, error) {
	var row stateRow
	err := s.db.GetContext(ctx, &row, "SELECT tournament_id, state, version, updated_at FROM bracket_states WHERE tournament_id = ?", tournamentID)
	if err != nil {
		return nil, 0, err
	}

	var state bracket.State
	if err := json.Unmarshal([]byte(row.State), &state); err != nil {
		return nil, 0, fmt.Errorf("decode state for %s: %w", tournamentID, err)
	}
	return &state, row.Version, nil
}
