package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/AdamBeresnev/cueboard/internal/bracket"
	"github.com/AdamBeresnev/cueboard/internal/httputil"
	"github.com/AdamBeresnev/cueboard/internal/live"
	"github.com/AdamBeresnev/cueboard/internal/metrics"
	"github.com/AdamBeresnev/cueboard/internal/middleware"
	"github.com/AdamBeresnev/cueboard/internal/selection"
	"github.com/AdamBeresnev/cueboard/internal/service"
	"github.com/AdamBeresnev/cueboard/views"
	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

type routerDeps struct {
	sessions       *scs.SessionManager
	tournaments    *service.TournamentService
	brackets       *service.BracketService
	hub            *live.Hub
	registry       *prometheus.Registry
	allowedOrigins []string
}

type createTournamentRequest struct {
	Name    string                      `json:"name"`
	Players []service.RegistrationInput `json:"players"`
	// Roster is the pasted "name; contact; skill" list, appended after Players
	Roster string `json:"roster"`
}

type createRoundRequest struct {
	DisplayName string `json:"display_name"`
}

type playersRequest struct {
	PlayerIDs []uuid.UUID `json:"player_ids"`
}

type shuffleRequest struct {
	ExcludeSelected bool `json:"exclude_selected"`
}

type reshuffleRequest struct {
	Confirm bool `json:"confirm"`
}

type pairRequest struct {
	Player1ID uuid.UUID `json:"player1_id"`
	Player2ID uuid.UUID `json:"player2_id"`
}

type closeMatchRequest struct {
	WinnerID uuid.UUID `json:"winner_id"`
	Score    string    `json:"score"`
}

type promoteRequest struct {
	PlayerIDs     []uuid.UUID `json:"player_ids"`
	TargetRoundID uuid.UUID   `json:"target_round_id"`
}

type intentResponse struct {
	Result  any               `json:"result,omitempty"`
	Bracket views.BracketData `json:"bracket"`
}

type selectionResponse struct {
	PlayerIDs []uuid.UUID `json:"player_ids"`
	Selected  *bool       `json:"selected,omitempty"`
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httputil.BadRequest(w, "Invalid request body", err)
		return false
	}
	return true
}

func urlUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		httputil.BadRequest(w, "Invalid "+name, err)
		return uuid.Nil, false
	}
	return id, true
}

func tournamentID(r *http.Request) uuid.UUID {
	id, _ := middleware.GetTournamentIDFromContext(r.Context())
	return id
}

// apply runs one intent and answers with its result and the fresh bracket view
func apply(w http.ResponseWriter, r *http.Request, brackets *service.BracketService, intent string, fn func(c *bracket.Coordinator) (any, error)) {
	var result any
	data, err := brackets.Apply(r.Context(), tournamentID(r), intent, func(c *bracket.Coordinator) error {
		var err error
		result, err = fn(c)
		return err
	})
	if err != nil {
		httputil.Error(w, "Failed to apply "+intent, err)
		return
	}
	httputil.JSON(w, http.StatusOK, intentResponse{Result: result, Bracket: data})
}

func newRouter(deps routerDeps) http.Handler {
	brackets := deps.brackets
	selected := selection.New(deps.sessions)

	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Handle("/metrics", metrics.Handler(deps.registry))

	// Outside the session middleware, the upgrade needs the raw connection
	r.With(middleware.TournamentContext).Get("/ws/tournaments/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := tournamentID(r)
		if _, err := deps.tournaments.GetTournament(r.Context(), id); err != nil {
			httputil.Error(w, "Failed to get tournament", err)
			return
		}
		deps.hub.ServeWS(w, r, id)
	})

	r.Group(func(r chi.Router) {
		r.Use(deps.sessions.LoadAndSave)

		r.Get("/tournaments", func(w http.ResponseWriter, r *http.Request) {
			tournaments, err := deps.tournaments.ListTournaments(r.Context())
			if err != nil {
				httputil.InternalServerError(w, "Failed to list tournaments", err)
				return
			}
			if tournaments == nil {
				tournaments = []bracket.Tournament{}
			}
			httputil.JSON(w, http.StatusOK, tournaments)
		})

		r.Post("/tournaments", func(w http.ResponseWriter, r *http.Request) {
			var req createTournamentRequest
			if !decode(w, r, &req) {
				return
			}
			inputs := append(req.Players, service.ParseRoster(req.Roster)...)

			id, err := deps.tournaments.CreateTournament(r.Context(), req.Name, inputs)
			if err != nil {
				if errors.Is(err, service.ErrInvalidRegistration) {
					httputil.BadRequest(w, err.Error(), err)
					return
				}
				httputil.InternalServerError(w, "Failed to create tournament", err)
				return
			}
			httputil.JSON(w, http.StatusCreated, map[string]uuid.UUID{"id": id})
		})

		r.Route("/tournaments/{id}", func(r chi.Router) {
			r.Use(middleware.TournamentContext)

			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				data, err := brackets.View(r.Context(), tournamentID(r))
				if err != nil {
					httputil.Error(w, "Failed to get bracket", err)
					return
				}
				httputil.JSON(w, http.StatusOK, data)
			})

			r.Get("/state", func(w http.ResponseWriter, r *http.Request) {
				state, err := brackets.Snapshot(r.Context(), tournamentID(r))
				if err != nil {
					httputil.Error(w, "Failed to get bracket state", err)
					return
				}
				httputil.JSON(w, http.StatusOK, state)
			})

			r.Post("/rounds", func(w http.ResponseWriter, r *http.Request) {
				var req createRoundRequest
				if !decode(w, r, &req) {
					return
				}
				apply(w, r, brackets, "create_round", func(c *bracket.Coordinator) (any, error) {
					return c.CreateRound(req.DisplayName), nil
				})
			})

			r.Get("/rounds/titles", func(w http.ResponseWriter, r *http.Request) {
				data, err := brackets.View(r.Context(), tournamentID(r))
				if err != nil {
					httputil.Error(w, "Failed to get round titles", err)
					return
				}
				httputil.JSON(w, http.StatusOK, data.TitleSuggestions)
			})

			r.Post("/lobby", func(w http.ResponseWriter, r *http.Request) {
				var req playersRequest
				if !decode(w, r, &req) {
					return
				}
				apply(w, r, brackets, "move_to_lobby", func(c *bracket.Coordinator) (any, error) {
					return nil, c.MovePlayersToLobby(req.PlayerIDs)
				})
			})

			r.Route("/rounds/{roundID}", func(r chi.Router) {
				r.Post("/start", func(w http.ResponseWriter, r *http.Request) {
					roundID, ok := urlUUID(w, r, "roundID")
					if !ok {
						return
					}
					apply(w, r, brackets, "start_round", func(c *bracket.Coordinator) (any, error) {
						return nil, c.StartRound(roundID)
					})
				})

				r.Post("/close", func(w http.ResponseWriter, r *http.Request) {
					roundID, ok := urlUUID(w, r, "roundID")
					if !ok {
						return
					}
					apply(w, r, brackets, "close_round", func(c *bracket.Coordinator) (any, error) {
						return nil, c.CloseRound(roundID)
					})
				})

				movePlayers := map[string]func(c *bracket.Coordinator, roundID uuid.UUID, ids []uuid.UUID) error{
					"players":   (*bracket.Coordinator).MovePlayersIntoRound,
					"waiting":   (*bracket.Coordinator).MovePlayersToWaiting,
					"available": (*bracket.Coordinator).ReturnPlayersToAvailable,
				}
				for target, move := range movePlayers {
					r.Post("/"+target, func(w http.ResponseWriter, r *http.Request) {
						roundID, ok := urlUUID(w, r, "roundID")
						if !ok {
							return
						}
						var req playersRequest
						if !decode(w, r, &req) {
							return
						}
						apply(w, r, brackets, "move_to_"+target, func(c *bracket.Coordinator) (any, error) {
							return nil, move(c, roundID, req.PlayerIDs)
						})
					})
				}

				r.Post("/shuffle", func(w http.ResponseWriter, r *http.Request) {
					roundID, ok := urlUUID(w, r, "roundID")
					if !ok {
						return
					}
					var req shuffleRequest
					if !decode(w, r, &req) {
						return
					}
					opts := bracket.ShuffleOptions{ExcludeSelected: req.ExcludeSelected}
					if req.ExcludeSelected {
						opts.Selected = selected.Get(r.Context(), tournamentID(r))
					}
					apply(w, r, brackets, "shuffle_round", func(c *bracket.Coordinator) (any, error) {
						return c.ShuffleRound(roundID, opts)
					})
				})

				r.Post("/reshuffle", func(w http.ResponseWriter, r *http.Request) {
					roundID, ok := urlUUID(w, r, "roundID")
					if !ok {
						return
					}
					var req reshuffleRequest
					if !decode(w, r, &req) {
						return
					}
					apply(w, r, brackets, "reshuffle_round", func(c *bracket.Coordinator) (any, error) {
						return c.ReshuffleAll(roundID, req.Confirm)
					})
				})

				r.Post("/matches", func(w http.ResponseWriter, r *http.Request) {
					roundID, ok := urlUUID(w, r, "roundID")
					if !ok {
						return
					}
					var req pairRequest
					if !decode(w, r, &req) {
						return
					}
					apply(w, r, brackets, "pair_players", func(c *bracket.Coordinator) (any, error) {
						return c.PairPlayers(roundID, req.Player1ID, req.Player2ID)
					})
				})

				r.Post("/promote", func(w http.ResponseWriter, r *http.Request) {
					roundID, ok := urlUUID(w, r, "roundID")
					if !ok {
						return
					}
					var req promoteRequest
					if !decode(w, r, &req) {
						return
					}
					apply(w, r, brackets, "promote_winners", func(c *bracket.Coordinator) (any, error) {
						return nil, c.PromoteWinnersToRound(roundID, req.PlayerIDs, req.TargetRoundID)
					})
				})

				r.Delete("/promotions/{playerID}", func(w http.ResponseWriter, r *http.Request) {
					roundID, ok := urlUUID(w, r, "roundID")
					if !ok {
						return
					}
					playerID, ok := urlUUID(w, r, "playerID")
					if !ok {
						return
					}
					apply(w, r, brackets, "revoke_promotion", func(c *bracket.Coordinator) (any, error) {
						return nil, c.RevokePromotion(roundID, playerID)
					})
				})
			})

			r.Route("/matches/{matchID}", func(r chi.Router) {
				r.Post("/start", func(w http.ResponseWriter, r *http.Request) {
					matchID, ok := urlUUID(w, r, "matchID")
					if !ok {
						return
					}
					apply(w, r, brackets, "start_match", func(c *bracket.Coordinator) (any, error) {
						return c.StartMatch(matchID)
					})
				})

				r.Post("/cancel", func(w http.ResponseWriter, r *http.Request) {
					matchID, ok := urlUUID(w, r, "matchID")
					if !ok {
						return
					}
					apply(w, r, brackets, "cancel_match", func(c *bracket.Coordinator) (any, error) {
						return nil, c.CancelMatch(matchID)
					})
				})

				r.Post("/close", func(w http.ResponseWriter, r *http.Request) {
					matchID, ok := urlUUID(w, r, "matchID")
					if !ok {
						return
					}
					var req closeMatchRequest
					if !decode(w, r, &req) {
						return
					}
					closed, data, err := brackets.CloseMatch(r.Context(), tournamentID(r), matchID, req.WinnerID, req.Score)
					if err != nil {
						httputil.Error(w, "Failed to close match", err)
						return
					}
					httputil.JSON(w, http.StatusOK, intentResponse{Result: closed, Bracket: data})
				})
			})

			r.Route("/selection", func(r chi.Router) {
				r.Get("/", func(w http.ResponseWriter, r *http.Request) {
					httputil.JSON(w, http.StatusOK, selectionResponse{PlayerIDs: selected.Get(r.Context(), tournamentID(r))})
				})

				r.Put("/", func(w http.ResponseWriter, r *http.Request) {
					var req playersRequest
					if !decode(w, r, &req) {
						return
					}
					selected.Set(r.Context(), tournamentID(r), req.PlayerIDs)
					httputil.JSON(w, http.StatusOK, selectionResponse{PlayerIDs: selected.Get(r.Context(), tournamentID(r))})
				})

				r.Delete("/", func(w http.ResponseWriter, r *http.Request) {
					selected.Clear(r.Context(), tournamentID(r))
					w.WriteHeader(http.StatusNoContent)
				})

				r.Post("/{playerID}/toggle", func(w http.ResponseWriter, r *http.Request) {
					playerID, ok := urlUUID(w, r, "playerID")
					if !ok {
						return
					}
					on := selected.Toggle(r.Context(), tournamentID(r), playerID)
					httputil.JSON(w, http.StatusOK, selectionResponse{
						PlayerIDs: selected.Get(r.Context(), tournamentID(r)),
						Selected:  &on,
					})
				})
			})
		})
	})

	return r
}
