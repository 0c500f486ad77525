package bracket

import (
	"time"

	"github.com/google/uuid"
)

type Tournament struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Registration is what the organizer entered before play started. It is
// never changed by the bracket, the live record is the Player.
type Registration struct {
	ID           uuid.UUID `db:"id" json:"id"`
	TournamentID uuid.UUID `db:"tournament_id" json:"tournament_id"`
	Name         string    `db:"name" json:"name"`
	Contact      string    `db:"contact" json:"contact,omitempty"`
	Skill        SkillTier `db:"skill" json:"skill,omitempty"`
	ImageRef     *string   `db:"image_ref" json:"image_ref,omitempty"`
	Seq          int       `db:"seq" json:"seq"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

func (r Registration) Player() Player {
	return Player{
		ID:       r.ID,
		Name:     r.Name,
		Contact:  r.Contact,
		Skill:    r.Skill,
		ImageRef: clonePtr(r.ImageRef),
		Status:   PlayerAvailable,
	}
}

func PlayersFromRegistrations(regs []Registration) []Player {
	players := make([]Player, len(regs))
	for i, r := range regs {
		players[i] = r.Player()
	}
	return players
}
