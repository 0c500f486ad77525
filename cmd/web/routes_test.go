package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/AdamBeresnev/cueboard/internal/bracket"
	"github.com/AdamBeresnev/cueboard/internal/db"
	"github.com/AdamBeresnev/cueboard/internal/live"
	"github.com/AdamBeresnev/cueboard/internal/metrics"
	"github.com/AdamBeresnev/cueboard/internal/service"
	"github.com/AdamBeresnev/cueboard/internal/store"
	"github.com/AdamBeresnev/cueboard/views"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testApp struct {
	t      *testing.T
	server *httptest.Server
	client *http.Client
}

type bracketResponse struct {
	Result  json.RawMessage   `json:"result"`
	Bracket views.BracketData `json:"bracket"`
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	database, err := db.Connect(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	database.SetMaxOpenConns(1)
	require.NoError(t, db.RunMigrations(database.DB, "file://../../migrations"))

	sessionManager := scs.New()
	sessionManager.Store = sqlite3store.NewWithCleanupInterval(database.DB, 0)

	registry := prometheus.NewRegistry()
	tournamentStore := store.NewTournamentStore(database)
	hub := live.NewHub(nil)

	server := httptest.NewServer(newRouter(routerDeps{
		sessions:    sessionManager,
		tournaments: service.NewTournamentService(database, tournamentStore),
		brackets:    service.NewBracketService(tournamentStore, nil, hub, metrics.NewRecorder(registry)),
		hub:         hub,
		registry:    registry,
	}))
	t.Cleanup(func() {
		server.Close()
		database.Close()
	})

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testApp{t: t, server: server, client: &http.Client{Jar: jar}}
}

func (a *testApp) do(method, path string, body any) *http.Response {
	a.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, a.server.URL+path, &buf)
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	require.NoError(a.t, err)
	a.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeAs[T any](t *testing.T, resp *http.Response, status int) T {
	t.Helper()

	require.Equal(t, status, resp.StatusCode)
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (a *testApp) createTournament(name, roster string) string {
	a.t.Helper()

	resp := a.do(http.MethodPost, "/tournaments", map[string]string{"name": name, "roster": roster})
	created := decodeAs[map[string]uuid.UUID](a.t, resp, http.StatusCreated)
	return created["id"].String()
}

func lobbyIDs(data views.BracketData) []uuid.UUID {
	ids := make([]uuid.UUID, len(data.Lobby))
	for i, p := range data.Lobby {
		ids[i] = p.ID
	}
	return ids
}

// newRoundWithPlayers creates a round and moves the whole lobby into it
func (a *testApp) newRoundWithPlayers(tournament, title string) (uuid.UUID, []uuid.UUID) {
	a.t.Helper()

	view := decodeAs[views.BracketData](a.t, a.do(http.MethodGet, "/tournaments/"+tournament, nil), http.StatusOK)
	ids := lobbyIDs(view)

	created := decodeAs[bracketResponse](a.t, a.do(http.MethodPost, "/tournaments/"+tournament+"/rounds", map[string]string{"display_name": title}), http.StatusOK)
	var round bracket.Round
	require.NoError(a.t, json.Unmarshal(created.Result, &round))

	resp := a.do(http.MethodPost, fmt.Sprintf("/tournaments/%s/rounds/%s/players", tournament, round.ID), map[string]any{"player_ids": ids})
	require.Equal(a.t, http.StatusOK, resp.StatusCode)
	return round.ID, ids
}

func TestCreateAndListTournaments(t *testing.T) {
	app := newTestApp(t)

	id := app.createTournament("Friday 9-ball", "Ana; ana@example.com; advanced\n# late entries\nBo\n\nCleo")

	view := decodeAs[views.BracketData](t, app.do(http.MethodGet, "/tournaments/"+id, nil), http.StatusOK)
	require.NotNil(t, view.Tournament)
	assert.Equal(t, "Friday 9-ball", view.Tournament.Name)
	require.Len(t, view.Lobby, 3)
	assert.Equal(t, "Ana", view.Lobby[0].Name)
	assert.Equal(t, bracket.SkillAdvanced, view.Lobby[0].Skill)

	list := decodeAs[[]bracket.Tournament](t, app.do(http.MethodGet, "/tournaments", nil), http.StatusOK)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID.String())
}

func TestCreateTournamentValidation(t *testing.T) {
	app := newTestApp(t)

	resp := app.do(http.MethodPost, "/tournaments", map[string]string{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	list := decodeAs[[]bracket.Tournament](t, app.do(http.MethodGet, "/tournaments", nil), http.StatusOK)
	assert.Empty(t, list)
}

func TestMatchFlowOverHTTP(t *testing.T) {
	app := newTestApp(t)
	tournament := app.createTournament("Club Night", "Ana\nBo\nCleo\nDev")
	roundID, _ := app.newRoundWithPlayers(tournament, "Quarterfinals")
	base := "/tournaments/" + tournament

	shuffled := decodeAs[bracketResponse](t, app.do(http.MethodPost, fmt.Sprintf("%s/rounds/%s/shuffle", base, roundID), nil), http.StatusOK)
	require.Len(t, shuffled.Bracket.Rounds, 1)
	assert.Equal(t, "Quarterfinals", shuffled.Bracket.Rounds[0].Title)
	pending := shuffled.Bracket.Rounds[0].PendingMatches
	require.Len(t, pending, 2)
	first, second := pending[0], pending[1]

	resp := app.do(http.MethodPost, fmt.Sprintf("%s/matches/%s/start", base, first.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	refusal := decodeAs[bracket.Refusal](t, app.do(http.MethodPost, fmt.Sprintf("%s/matches/%s/start", base, second.ID), nil), http.StatusConflict)
	assert.Equal(t, bracket.RefusalMatchAlreadyActive, refusal.Reason)
	assert.Equal(t, []uuid.UUID{first.ID}, refusal.Conflicts)

	resp = app.do(http.MethodPost, fmt.Sprintf("%s/matches/%s/cancel", base, first.ID), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, "only pending matches can be cancelled")

	closed := decodeAs[bracketResponse](t, app.do(http.MethodPost, fmt.Sprintf("%s/matches/%s/close", base, first.ID),
		map[string]any{"winner_id": first.Player1ID, "score": "7-3"}), http.StatusOK)
	var match bracket.Match
	require.NoError(t, json.Unmarshal(closed.Result, &match))
	assert.Equal(t, bracket.MatchCompleted, match.Status)
	assert.Equal(t, "7-3", match.Score)
	assert.Len(t, closed.Bracket.Rounds[0].CompletedMatches, 1)

	refusal = decodeAs[bracket.Refusal](t, app.do(http.MethodPost, fmt.Sprintf("%s/rounds/%s/close", base, roundID), nil), http.StatusConflict)
	assert.Equal(t, bracket.RefusalOpenMatches, refusal.Reason)

	refusal = decodeAs[bracket.Refusal](t, app.do(http.MethodPost, fmt.Sprintf("%s/rounds/%s/reshuffle", base, roundID), nil), http.StatusConflict)
	assert.Equal(t, bracket.RefusalConfirmationRequired, refusal.Reason)
	assert.Equal(t, 1, refusal.AffectedMatches)

	view := decodeAs[views.BracketData](t, app.do(http.MethodGet, base, nil), http.StatusOK)
	assert.Len(t, view.Rounds[0].PendingMatches, 1, "refusals leave the bracket as it was")
}

func TestUnknownIDs(t *testing.T) {
	app := newTestApp(t)
	tournament := app.createTournament("Club Night", "Ana\nBo")

	resp := app.do(http.MethodGet, "/tournaments/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = app.do(http.MethodGet, "/tournaments/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = app.do(http.MethodPost, fmt.Sprintf("/tournaments/%s/matches/%s/start", tournament, uuid.New()), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = app.do(http.MethodPost, fmt.Sprintf("/tournaments/%s/rounds/%s/start", tournament, "nope"), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestShuffleExcludesSelection(t *testing.T) {
	app := newTestApp(t)
	tournament := app.createTournament("Club Night", "Ana\nBo\nCleo\nDev\nEli")
	roundID, ids := app.newRoundWithPlayers(tournament, "")
	base := "/tournaments/" + tournament

	type selectionBody struct {
		PlayerIDs []uuid.UUID `json:"player_ids"`
		Selected  *bool       `json:"selected"`
	}

	toggled := decodeAs[selectionBody](t, app.do(http.MethodPost, fmt.Sprintf("%s/selection/%s/toggle", base, ids[0]), nil), http.StatusOK)
	require.NotNil(t, toggled.Selected)
	assert.True(t, *toggled.Selected)

	current := decodeAs[selectionBody](t, app.do(http.MethodGet, base+"/selection", nil), http.StatusOK)
	assert.Equal(t, []uuid.UUID{ids[0]}, current.PlayerIDs, "selection survives across requests")

	shuffled := decodeAs[bracketResponse](t, app.do(http.MethodPost, fmt.Sprintf("%s/rounds/%s/shuffle", base, roundID),
		map[string]bool{"exclude_selected": true}), http.StatusOK)
	round := shuffled.Bracket.Rounds[0]
	assert.Len(t, round.PendingMatches, 2)
	assert.Equal(t, []uuid.UUID{ids[0]}, round.ByStatus[bracket.PlayerWaiting])

	resp := app.do(http.MethodDelete, base+"/selection", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	current = decodeAs[selectionBody](t, app.do(http.MethodGet, base+"/selection", nil), http.StatusOK)
	assert.Empty(t, current.PlayerIDs)
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t)
	tournament := app.createTournament("Club Night", "Ana")

	app.do(http.MethodPost, "/tournaments/"+tournament+"/rounds", map[string]string{})

	resp := app.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body bytes.Buffer
	_, err := body.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, body.String(), `cueboard_intents_total{intent="create_round",outcome="applied"} 1`)
}
