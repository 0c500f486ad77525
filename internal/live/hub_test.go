package live

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T, origins []string) (*Hub, *httptest.Server, uuid.UUID) {
	t.Helper()

	hub := NewHub(origins)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	tournamentID := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, tournamentID)
	}))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv, tournamentID
}

func dial(t *testing.T, srv *httptest.Server, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	return websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), header)
}

func TestPublishReachesSubscribers(t *testing.T) {
	hub, srv, tournamentID := startHub(t, nil)

	conn, _, err := dial(t, srv, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount(tournamentID) == 1 }, time.Second, 10*time.Millisecond)

	hub.Publish(tournamentID, "bracket_updated", map[string]int{"rounds": 2})
	// Other rooms stay quiet
	hub.Publish(uuid.New(), "bracket_updated", nil)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg struct {
		Type         string         `json:"type"`
		TournamentID uuid.UUID      `json:"tournament_id"`
		Payload      map[string]int `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&msg))

	assert.Equal(t, "bracket_updated", msg.Type)
	assert.Equal(t, tournamentID, msg.TournamentID)
	assert.Equal(t, 2, msg.Payload["rounds"])
}

func TestClientLeavesRoomOnClose(t *testing.T) {
	hub, srv, tournamentID := startHub(t, nil)

	conn, _, err := dial(t, srv, nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.ClientCount(tournamentID) == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool { return hub.ClientCount(tournamentID) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestOriginCheck(t *testing.T) {
	_, srv, _ := startHub(t, []string{"https://cue.example"})

	_, resp, err := dial(t, srv, http.Header{"Origin": []string{"https://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn, _, err := dial(t, srv, http.Header{"Origin": []string{"https://cue.example"}})
	require.NoError(t, err)
	conn.Close()
}
