package server

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/zucenko/curveclash/model"
	"github.com/zucenko/curveclash/records"
)

// inbound rate limit per connection: enough for 60 Hz steering with headroom,
// tight enough that one client cannot flood a session inbox.
const (
	inboundRate  = 120
	inboundBurst = 240
)

const sendBuffer = 256

// GameServer bridges websocket connections to the session directory: inbound
// envelopes become directory/session calls, session broadcasts flow back out
// through the per-connection write pump.
type GameServer struct {
	Directory *Directory
	Upgrader  *websocket.Upgrader
}

func NewGameServer(cfg Config, recorder records.Recorder) *GameServer {
	return &GameServer{
		Directory: NewDirectory(cfg, recorder),
		Upgrader:  &websocket.Upgrader{},
	}
}

// client is one websocket connection. Send never blocks; the write pump
// drains the buffer and a receiver that stops draining gets dropped.
type client struct {
	id      string
	conn    *websocket.Conn
	send    chan []byte
	done    chan struct{}
	closer  sync.Once
	limiter *rate.Limiter
}

func newClient(conn *websocket.Conn) *client {
	return &client{
		id:      uuid.NewString(),
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		done:    make(chan struct{}),
		limiter: rate.NewLimiter(inboundRate, inboundBurst),
	}
}

func (c *client) Send(msg []byte) bool {
	select {
	case c.send <- msg:
		return true
	case <-c.done:
		return false
	default:
		return false
	}
}

func (c *client) close() {
	c.closer.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

func (c *client) loopWrite() {
	log.Debugf("conn %s: write loop started", c.id)
	for {
		select {
		case msg := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Debugf("conn %s: write failed: %v", c.id, err)
				c.close()
				return
			}
		case <-c.done:
			return
		}
	}
}

// HandleWS upgrades the connection and runs its read loop until it dies,
// then detaches it from whatever session it was in. Disconnect and explicit
// leave take the same path.
func (s *GameServer) HandleWS() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.Upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warnf("websocket upgrade failed: %v", err)
			return
		}
		c := newClient(conn)
		log.Infof("conn %s: connected from %s", c.id, r.RemoteAddr)
		go c.loopWrite()
		s.loopRead(c)
		c.close()
		s.Directory.RemoveConnection(c.id)
		log.Infof("conn %s: disconnected", c.id)
	}
}

func (s *GameServer) loopRead(c *client) {
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			log.Debugf("conn %s: read ended: %v", c.id, err)
			return
		}
		if !c.limiter.Allow() {
			log.Warnf("conn %s: rate limit exceeded, message dropped", c.id)
			continue
		}
		env, err := model.DecodeEnvelope(raw)
		if err != nil {
			s.notify(c, "malformed message")
			continue
		}
		s.dispatch(c, env)
	}
}

func (s *GameServer) dispatch(c *client, env model.Envelope) {
	switch env.T {
	case model.MSG_CREATE_GAME:
		req, err := model.DecodePayload[model.CreateGame](env)
		if err != nil || req.Name == "" {
			s.notify(c, "createGame needs a name")
			return
		}
		gameId, playerId, err := s.Directory.CreateSession(c.id, req.Name, req.Color, c)
		if err != nil {
			s.notify(c, err.Error())
			return
		}
		s.reply(c, model.MSG_GAME_JOINED, model.GameJoined{GameId: gameId, PlayerId: playerId, Created: true})

	case model.MSG_JOIN_GAME:
		req, err := model.DecodePayload[model.JoinGame](env)
		if err != nil || req.GameId == "" || req.Name == "" {
			s.notify(c, "joinGame needs a gameId and a name")
			return
		}
		playerId, err := s.Directory.JoinSession(c.id, req.GameId, req.Name, req.Color, c)
		if err != nil {
			s.notify(c, err.Error())
			return
		}
		s.reply(c, model.MSG_GAME_JOINED, model.GameJoined{GameId: req.GameId, PlayerId: playerId})

	case model.MSG_FIND_GAME:
		req, err := model.DecodePayload[model.FindGame](env)
		if err != nil || req.Name == "" {
			s.notify(c, "findGame needs a name")
			return
		}
		gameId, playerId, created, err := s.Directory.FindOrCreate(c.id, req.Name, req.Color, c)
		if err != nil {
			s.notify(c, err.Error())
			return
		}
		s.reply(c, model.MSG_GAME_JOINED, model.GameJoined{GameId: gameId, PlayerId: playerId, Created: created})

	case model.MSG_START_GAME:
		sess, playerId, err := s.Directory.Resolve(c.id)
		if err != nil {
			s.notify(c, err.Error())
			return
		}
		if err := sess.Start(playerId); err != nil {
			s.notify(c, err.Error())
		}

	case model.MSG_CHANGE_DIRECTION:
		req, err := model.DecodePayload[model.ChangeDirection](env)
		if err != nil {
			return
		}
		sess, playerId, err := s.Directory.Resolve(c.id)
		if err != nil {
			return
		}
		sess.SetDirection(playerId, req.Direction)

	case model.MSG_LEAVE_GAME:
		s.Directory.RemoveConnection(c.id)

	case model.MSG_RESET_GAME:
		sess, _, err := s.Directory.Resolve(c.id)
		if err != nil {
			s.notify(c, err.Error())
			return
		}
		if err := sess.Reset(); err != nil {
			s.notify(c, err.Error())
		}

	default:
		s.notify(c, "unknown event: "+env.T)
	}
}

func (s *GameServer) reply(c *client, t string, payload any) {
	b, err := model.Encode(t, payload)
	if err != nil {
		log.Warnf("conn %s: encode %s: %v", c.id, t, err)
		return
	}
	c.Send(b)
}

func (s *GameServer) notify(c *client, msg string) {
	s.reply(c, model.MSG_ERROR_NOTICE, model.ErrorNotice{Message: msg})
}
