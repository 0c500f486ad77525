package bracket

import (
	"slices"
	"strings"

	"github.com/google/uuid"
)

type PlayerStatus string

const (
	PlayerAvailable  PlayerStatus = "available"
	PlayerInRound    PlayerStatus = "in_round"
	PlayerWaiting    PlayerStatus = "waiting"
	PlayerInMatch    PlayerStatus = "in_match"
	PlayerEliminated PlayerStatus = "eliminated"
	PlayerWinner     PlayerStatus = "winner"
)

// Terminal statuses are results of a closed match and never change again
// within the same round.
func (s PlayerStatus) Terminal() bool {
	return s == PlayerWinner || s == PlayerEliminated
}

// Skill tier is informational only, pairing ignores it.
type SkillTier string

const (
	SkillUnrated      SkillTier = ""
	SkillBeginner     SkillTier = "beginner"
	SkillIntermediate SkillTier = "intermediate"
	SkillAdvanced     SkillTier = "advanced"
	SkillPro          SkillTier = "pro"
)

var skillOrder = []SkillTier{SkillUnrated, SkillBeginner, SkillIntermediate, SkillAdvanced, SkillPro}

func (s SkillTier) Rank() int {
	return slices.Index(skillOrder, s)
}

// ParseSkillTier accepts the tier names case-insensitively, anything else is unrated
func ParseSkillTier(s string) SkillTier {
	tier := SkillTier(strings.ToLower(strings.TrimSpace(s)))
	if tier.Rank() < 0 {
		return SkillUnrated
	}
	return tier
}

type Player struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Contact  string    `json:"contact,omitempty"`
	Skill    SkillTier `json:"skill,omitempty"`
	ImageRef *string   `json:"image_ref,omitempty"`

	// Status mirrors the player's most recent participation
	Status       PlayerStatus `json:"status"`
	CurrentRound *uuid.UUID   `json:"current_round,omitempty"`
	CurrentMatch *uuid.UUID   `json:"current_match,omitempty"`

	MatchesPlayed  int         `json:"matches_played"`
	RoundsWon      []string    `json:"rounds_won"`
	CopiedToRounds []uuid.UUID `json:"copied_to_rounds"`
}

func (p *Player) CopiedTo(roundID uuid.UUID) bool {
	return slices.Contains(p.CopiedToRounds, roundID)
}

func (p Player) clone() Player {
	p.ImageRef = clonePtr(p.ImageRef)
	p.CurrentRound = clonePtr(p.CurrentRound)
	p.CurrentMatch = clonePtr(p.CurrentMatch)
	p.RoundsWon = slices.Clone(p.RoundsWon)
	p.CopiedToRounds = slices.Clone(p.CopiedToRounds)
	return p
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
