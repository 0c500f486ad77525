package views

import (
	"github.com/AdamBeresnev/cueboard/internal/bracket"
	"github.com/google/uuid"
)

type RoundView struct {
	Round    bracket.Round                        `json:"round"`
	Title    string                               `json:"title"`
	ByStatus map[bracket.PlayerStatus][]uuid.UUID `json:"by_status"`

	// Manual pairing candidates
	Unmatched        []uuid.UUID     `json:"unmatched"`
	Promoted         []uuid.UUID     `json:"promoted"`
	ActiveMatch      *bracket.Match  `json:"active_match,omitempty"`
	PendingMatches   []bracket.Match `json:"pending_matches"`
	CompletedMatches []bracket.Match `json:"completed_matches"`
	IsComplete       bool            `json:"is_complete"`

	// CanShuffle is a hint only, the shuffle control stays usable and the
	// coordinator answers with a refusal when there is nobody to pair
	CanShuffle bool `json:"can_shuffle"`
}

type BracketData struct {
	Tournament       *bracket.Tournament          `json:"tournament,omitempty"`
	Rounds           []RoundView                  `json:"rounds"`
	Lobby            []bracket.Player             `json:"lobby"`
	PlayerMap        map[uuid.UUID]bracket.Player `json:"players"`
	TitleSuggestions []string                     `json:"title_suggestions"`
	Standings        []bracket.Standing           `json:"standings"`
}

func PrepareBracketData(state bracket.State, titleCatalog []string) BracketData {
	playerMap := make(map[uuid.UUID]bracket.Player, len(state.Players))
	lobby := make([]bracket.Player, 0)
	for _, p := range state.Players {
		playerMap[p.ID] = p
		if p.Status == bracket.PlayerAvailable {
			lobby = append(lobby, p)
		}
	}

	rounds := make([]RoundView, 0, len(state.Rounds))
	for _, r := range state.Rounds {
		rounds = append(rounds, prepareRound(r))
	}

	return BracketData{
		Rounds:           rounds,
		Lobby:            lobby,
		PlayerMap:        playerMap,
		TitleSuggestions: bracket.SuggestRoundTitles(titleCatalog, state.Rounds),
		Standings:        bracket.NewRoster(state.Players).Standings(),
	}
}

func prepareRound(r bracket.Round) RoundView {
	v := RoundView{
		Round:            r,
		Title:            r.Title(),
		ByStatus:         make(map[bracket.PlayerStatus][]uuid.UUID),
		Unmatched:        r.UnmatchedPlayers(),
		PendingMatches:   make([]bracket.Match, 0),
		CompletedMatches: make([]bracket.Match, 0),
		IsComplete:       r.IsComplete(),
	}

	played := make(map[uuid.UUID]bool)
	for _, m := range r.Matches {
		switch m.Status {
		case bracket.MatchActive:
			active := m
			v.ActiveMatch = &active
		case bracket.MatchPending:
			v.PendingMatches = append(v.PendingMatches, m)
		case bracket.MatchCompleted:
			v.CompletedMatches = append(v.CompletedMatches, m)
			played[m.Player1ID] = true
			played[m.Player2ID] = true
		}
	}

	shufflable := 0
	for _, e := range r.Entries {
		v.ByStatus[e.Status] = append(v.ByStatus[e.Status], e.PlayerID)
		if e.Copied() {
			v.Promoted = append(v.Promoted, e.PlayerID)
		}
		if e.Status == bracket.PlayerInRound && !played[e.PlayerID] {
			shufflable++
		}
	}
	v.CanShuffle = r.Status != bracket.RoundCompleted && shufflable >= 2

	return v
}
