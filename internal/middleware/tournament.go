package middleware

import (
	"context"
	"net/http"

	"github.com/AdamBeresnev/cueboard/internal/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type ContextKey string

const TournamentIDKey ContextKey = "tournamentID"

// TournamentContext parses the {id} route parameter once for every handler below it
func TournamentContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			httputil.BadRequest(w, "Invalid tournament ID", err)
			return
		}

		ctx := context.WithValue(r.Context(), TournamentIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetTournamentIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	val := ctx.Value(TournamentIDKey)
	if val == nil {
		return uuid.Nil, false
	}

	id, ok := val.(uuid.UUID)
	return id, ok
}
