package server

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zucenko/curveclash/model"
)

func wsDial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendEvent(t *testing.T, conn *websocket.Conn, eventType string, payload any) {
	t.Helper()
	b, err := model.Encode(eventType, payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, b))
}

// readUntil drains messages until one of the wanted type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, eventType string) model.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))
	for {
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %s", eventType)
		env, err := model.DecodeEnvelope(raw)
		require.NoError(t, err)
		if env.T == eventType {
			return env
		}
	}
}

func TestWebsocketMatchEndToEnd(t *testing.T) {
	cfg := testConfig()
	cfg.WinScore = 1
	gs := NewGameServer(cfg, nil)
	srv := httptest.NewServer(gs.HandleWS())
	defer srv.Close()

	host := wsDial(t, srv)
	sendEvent(t, host, model.MSG_CREATE_GAME, model.CreateGame{Name: "alice", Color: "red"})
	env := readUntil(t, host, model.MSG_GAME_JOINED)
	created, err := model.DecodePayload[model.GameJoined](env)
	require.NoError(t, err)
	require.True(t, created.Created)
	require.Len(t, created.GameId, gameCodeLen)

	guest := wsDial(t, srv)
	sendEvent(t, guest, model.MSG_JOIN_GAME, model.JoinGame{GameId: created.GameId, Name: "bob", Color: "green"})
	env = readUntil(t, guest, model.MSG_GAME_JOINED)
	joined, err := model.DecodePayload[model.GameJoined](env)
	require.NoError(t, err)
	require.Equal(t, created.GameId, joined.GameId)

	// The guest steers hard left on every round start; circling into its own
	// trail is fatal long before the straight-flying host reaches anything.
	// The reader runs without the testing.T: a goroutine must not FailNow.
	steer, _ := model.Encode(model.MSG_CHANGE_DIRECTION, model.ChangeDirection{Direction: "left"})
	guestDone := make(chan struct{})
	go func() {
		defer close(guestDone)
		for {
			_ = guest.SetReadDeadline(time.Now().Add(10 * time.Second))
			_, raw, err := guest.ReadMessage()
			if err != nil {
				return
			}
			env, err := model.DecodeEnvelope(raw)
			if err != nil {
				continue
			}
			switch env.T {
			case model.MSG_STATE_CHANGED:
				st, _ := model.DecodePayload[model.StateChanged](env)
				if st.State == ST_PLAYING.Name() {
					_ = guest.WriteMessage(websocket.TextMessage, steer)
				}
			case model.MSG_MATCH_RESOLVED:
				return
			}
		}
	}()

	sendEvent(t, host, model.MSG_START_GAME, model.StartGame{GameId: created.GameId})

	env = readUntil(t, host, model.MSG_MATCH_RESOLVED)
	match, err := model.DecodePayload[model.MatchResolved](env)
	require.NoError(t, err)
	assert.Equal(t, created.PlayerId, match.WinnerId, "the straight flyer outlives the circler")

	select {
	case <-guestDone:
	case <-time.After(10 * time.Second):
		t.Fatal("guest never saw the match resolve")
	}

	// leaving tears the session down once it empties
	sendEvent(t, host, model.MSG_LEAVE_GAME, nil)
	sendEvent(t, guest, model.MSG_LEAVE_GAME, nil)
	require.Eventually(t, func() bool {
		return len(gs.Directory.ListSessions()) == 0
	}, 5*time.Second, 5*time.Millisecond)
}

func TestWebsocketBadRequests(t *testing.T) {
	gs := NewGameServer(testConfig(), nil)
	srv := httptest.NewServer(gs.HandleWS())
	defer srv.Close()

	conn := wsDial(t, srv)

	// missing name
	sendEvent(t, conn, model.MSG_CREATE_GAME, model.CreateGame{Color: "red"})
	env := readUntil(t, conn, model.MSG_ERROR_NOTICE)
	notice, err := model.DecodePayload[model.ErrorNotice](env)
	require.NoError(t, err)
	assert.Contains(t, notice.Message, "name")

	// joining a game that does not exist
	sendEvent(t, conn, model.MSG_JOIN_GAME, model.JoinGame{GameId: "NOSUCH", Name: "alice"})
	env = readUntil(t, conn, model.MSG_ERROR_NOTICE)
	notice, err = model.DecodePayload[model.ErrorNotice](env)
	require.NoError(t, err)
	assert.Equal(t, ErrGameNotFound.Error(), notice.Message)

	// starting without being in a game
	sendEvent(t, conn, model.MSG_START_GAME, model.StartGame{})
	env = readUntil(t, conn, model.MSG_ERROR_NOTICE)
	notice, err = model.DecodePayload[model.ErrorNotice](env)
	require.NoError(t, err)
	assert.Equal(t, ErrNoGameForPlayer.Error(), notice.Message)

	// unknown event names are reported, not fatal
	sendEvent(t, conn, "teleport", nil)
	env = readUntil(t, conn, model.MSG_ERROR_NOTICE)
	notice, err = model.DecodePayload[model.ErrorNotice](env)
	require.NoError(t, err)
	assert.Contains(t, notice.Message, "unknown event")

	// malformed direction is coerced, never answered with an error
	sendEvent(t, conn, model.MSG_CREATE_GAME, model.CreateGame{Name: "alice"})
	readUntil(t, conn, model.MSG_GAME_JOINED)
	sendEvent(t, conn, model.MSG_CHANGE_DIRECTION, model.ChangeDirection{Direction: "sideways"})

	// connection still healthy afterwards
	sendEvent(t, conn, "ping?", nil)
	readUntil(t, conn, model.MSG_ERROR_NOTICE)
}

func TestWebsocketDisconnectActsAsLeave(t *testing.T) {
	gs := NewGameServer(testConfig(), nil)
	srv := httptest.NewServer(gs.HandleWS())
	defer srv.Close()

	conn := wsDial(t, srv)
	sendEvent(t, conn, model.MSG_CREATE_GAME, model.CreateGame{Name: "alice", Color: "red"})
	readUntil(t, conn, model.MSG_GAME_JOINED)
	require.Len(t, gs.Directory.ListSessions(), 1)

	conn.Close()
	require.Eventually(t, func() bool {
		return len(gs.Directory.ListSessions()) == 0
	}, 5*time.Second, 5*time.Millisecond)
}
