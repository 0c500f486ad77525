package bracket

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Precondition failures. These mean the caller asked for something that
// cannot happen in the current state, e.g. an unknown id or closing a
// pending match.
var (
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrRoundNotFound      = errors.New("round not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrPlayerNotInRound   = errors.New("player is not in this round")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrWinnerNotInMatch   = errors.New("winner is not part of this match")
	ErrSamePlayer         = errors.New("a player cannot be paired with themselves")
	ErrSameRound          = errors.New("source and target round are the same")
	ErrNotAWinner         = errors.New("player has not won the source round")
	ErrNotPromoted        = errors.New("entry was not promoted from another round")
)

type RefusalReason string

const (
	RefusalInsufficientPlayers  RefusalReason = "insufficient_players"
	RefusalDuplicatePromotion   RefusalReason = "duplicate_promotion"
	RefusalMatchAlreadyActive   RefusalReason = "match_already_active"
	RefusalConfirmationRequired RefusalReason = "confirmation_required"
	RefusalRoundCompleted       RefusalReason = "round_completed"
	RefusalOpenMatches          RefusalReason = "open_matches"
)

// Refusal is an anticipated policy outcome, not a failure. The state is left
// exactly as it was before the call.
type Refusal struct {
	Reason RefusalReason `json:"reason"`
	Detail string        `json:"detail"`
	// Number of pending/active matches a confirmed retry would discard
	AffectedMatches int `json:"affected_matches,omitempty"`
	// Ids the refusal is about (already promoted players, the live match, ...)
	Conflicts []uuid.UUID `json:"conflicts,omitempty"`
}

func (r *Refusal) Error() string {
	if r.Detail == "" {
		return "refused: " + string(r.Reason)
	}
	return fmt.Sprintf("refused: %s: %s", r.Reason, r.Detail)
}

// AsRefusal unwraps err into a *Refusal when it is one
func AsRefusal(err error) (*Refusal, bool) {
	var refusal *Refusal
	if errors.As(err, &refusal) {
		return refusal, true
	}
	return nil, false
}

// IsNotFound reports whether err is one of the unknown-id failures
func IsNotFound(err error) bool {
	for _, target := range []error{ErrTournamentNotFound, ErrPlayerNotFound, ErrRoundNotFound, ErrMatchNotFound} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsPrecondition reports whether err is a caller mistake other than an unknown id
func IsPrecondition(err error) bool {
	for _, target := range []error{ErrPlayerNotInRound, ErrInvalidTransition, ErrWinnerNotInMatch, ErrSamePlayer, ErrSameRound, ErrNotAWinner, ErrNotPromoted} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func refuse(reason RefusalReason, format string, args ...any) *Refusal {
	return &Refusal{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

func joinIDs(ids []uuid.UUID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ", ")
}
