package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AdamBeresnev/cueboard/internal/bracket"
	"github.com/AdamBeresnev/cueboard/internal/store"
	"github.com/AdamBeresnev/cueboard/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const maxNameLength = 50

var ErrInvalidRegistration = errors.New("invalid registration")

type TournamentService struct {
	db    *sqlx.DB
	store *store.TournamentStore
}

func NewTournamentService(db *sqlx.DB, store *store.TournamentStore) *TournamentService {
	return &TournamentService{db: db, store: store}
}

type RegistrationInput struct {
	Name     string `json:"name"`
	Contact  string `json:"contact"`
	Skill    string `json:"skill"`
	ImageRef string `json:"image_ref"`
}

// ParseRoster reads one player per line as "name; contact; skill". Contact
// and skill are optional, blank lines and lines starting with # are skipped.
func ParseRoster(text string) []RegistrationInput {
	var inputs []RegistrationInput
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.SplitN(line, ";", 3)
		input := RegistrationInput{Name: strings.TrimSpace(fields[0])}
		if len(fields) > 1 {
			input.Contact = strings.TrimSpace(fields[1])
		}
		if len(fields) > 2 {
			input.Skill = strings.TrimSpace(fields[2])
		}
		if input.Name != "" {
			inputs = append(inputs, input)
		}
	}
	return inputs
}

func validateName(kind, name string) error {
	if name == "" {
		return fmt.Errorf("%w: %s name is required", ErrInvalidRegistration, kind)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: %s name '%s' exceeds %d characters", ErrInvalidRegistration, kind, name, maxNameLength)
	}
	return nil
}

func (s *TournamentService) CreateTournament(ctx context.Context, name string, inputs []RegistrationInput) (uuid.UUID, error) {
	name = strings.TrimSpace(name)
	if err := validateName("tournament", name); err != nil {
		return uuid.Nil, err
	}

	now := time.Now().UTC()
	tournament := bracket.Tournament{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: now,
	}

	var regs []bracket.Registration
	for _, input := range inputs {
		playerName := strings.TrimSpace(input.Name)
		// Empty rows of the registration form are ignored
		if playerName == "" {
			continue
		}
		if err := validateName("player", playerName); err != nil {
			return uuid.Nil, err
		}
		regs = append(regs, bracket.Registration{
			ID:           uuid.New(),
			TournamentID: tournament.ID,
			Name:         playerName,
			Contact:      strings.TrimSpace(input.Contact),
			Skill:        bracket.ParseSkillTier(input.Skill),
			ImageRef:     utils.StringOrNil(input.ImageRef),
			Seq:          len(regs) + 1,
			CreatedAt:    now,
		})
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback()

	if err := s.store.CreateTournament(ctx, tx, &tournament); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create tournament: %w", err)
	}
	if err := s.store.CreateRegistrations(ctx, tx, regs); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create registrations: %w", err)
	}

	return tournament.ID, tx.Commit()
}

func (s *TournamentService) GetTournament(ctx context.Context, id uuid.UUID) (*bracket.Tournament, error) {
	tournament, err := s.store.GetTournament(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", bracket.ErrTournamentNotFound, id)
	}
	return tournament, err
}

func (s *TournamentService) ListTournaments(ctx context.Context) ([]bracket.Tournament, error) {
	return s.store.ListTournaments(ctx)
}
