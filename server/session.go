package server

import (
	"time"

	"github.com/zucenko/curveclash/model"
	"github.com/zucenko/curveclash/records"
)

type SessionState int

const (
	ST_WAITING SessionState = iota
	ST_COUNTDOWN
	ST_PLAYING
	ST_ROUND_END
	ST_GAME_END
)

func (s SessionState) Name() string {
	switch s {
	case ST_WAITING:
		return "waiting"
	case ST_COUNTDOWN:
		return "countdown"
	case ST_PLAYING:
		return "playing"
	case ST_ROUND_END:
		return "roundEnd"
	case ST_GAME_END:
		return "gameEnd"
	default:
		return "n/a"
	}
}

// Sender delivers an already encoded message to one connected player.
// Send reports false when the connection cannot accept it anymore.
type Sender interface {
	Send(msg []byte) bool
}

// Session is one isolated match. All fields below the channels are owned by
// the Loop goroutine; the outside world talks to it through commands only.
type Session struct {
	Id  string
	cfg Config

	commands chan any
	quit     chan struct{}

	onEmpty     func(sessionId string)
	onMatchDone func(records.MatchSummary)

	registry    *Registry
	conns       map[string]Sender // playerId -> outbound
	joined      bool              // at least one player ever joined
	state       SessionState
	frameCount  int
	roundWinner string
	matchWinner string

	ticker *time.Ticker
	tickC  <-chan time.Time
	phaseC <-chan time.Time
}

// Info is the discovery view of a session.
type Info struct {
	Id          string `json:"id"`
	PlayerCount int    `json:"playerCount"`
	State       string `json:"state"`
}

type joinCmd struct {
	name, color string
	out         Sender
	reply       chan joinResult
}

type joinResult struct {
	playerId string
	err      error
}

type leaveCmd struct{ playerId string }

type startCmd struct {
	playerId string
	reply    chan error
}

type resetCmd struct{ reply chan error }

type dirCmd struct {
	playerId string
	dir      string
}

type infoCmd struct{ reply chan Info }

type playersCmd struct{ reply chan []model.Player }

func NewSession(id string, cfg Config, onEmpty func(string), onMatchDone func(records.MatchSummary)) *Session {
	return &Session{
		Id:          id,
		cfg:         cfg,
		commands:    make(chan any, 256),
		quit:        make(chan struct{}),
		onEmpty:     onEmpty,
		onMatchDone: onMatchDone,
		registry:    NewRegistry(),
		conns:       make(map[string]Sender),
		state:       ST_WAITING,
	}
}

// Join adds a player and returns its id. Blocks for the session loop's
// answer; a torn down session reports ErrGameNotFound.
func (s *Session) Join(name, color string, out Sender) (string, error) {
	reply := make(chan joinResult, 1)
	select {
	case s.commands <- joinCmd{name: name, color: color, out: out, reply: reply}:
	case <-s.quit:
		return "", ErrGameNotFound
	}
	select {
	case r := <-reply:
		return r.playerId, r.err
	case <-s.quit:
		return "", ErrGameNotFound
	}
}

// Leave removes a player. Fire and forget, idempotent.
func (s *Session) Leave(playerId string) {
	select {
	case s.commands <- leaveCmd{playerId: playerId}:
	case <-s.quit:
	}
}

func (s *Session) Start(playerId string) error {
	reply := make(chan error, 1)
	select {
	case s.commands <- startCmd{playerId: playerId, reply: reply}:
	case <-s.quit:
		return ErrGameNotFound
	}
	select {
	case err := <-reply:
		return err
	case <-s.quit:
		return ErrGameNotFound
	}
}

// Reset returns a finished session to waiting with scores cleared.
func (s *Session) Reset() error {
	reply := make(chan error, 1)
	select {
	case s.commands <- resetCmd{reply: reply}:
	case <-s.quit:
		return ErrGameNotFound
	}
	select {
	case err := <-reply:
		return err
	case <-s.quit:
		return ErrGameNotFound
	}
}

// SetDirection queues a pending direction change. Never blocks the caller;
// under pressure the input is dropped, the next one wins anyway.
func (s *Session) SetDirection(playerId, dir string) {
	select {
	case s.commands <- dirCmd{playerId: playerId, dir: dir}:
	default:
	}
}

func (s *Session) Info() Info {
	reply := make(chan Info, 1)
	select {
	case s.commands <- infoCmd{reply: reply}:
	case <-s.quit:
		return Info{Id: s.Id, State: ST_GAME_END.Name()}
	}
	select {
	case i := <-reply:
		return i
	case <-s.quit:
		return Info{Id: s.Id, State: ST_GAME_END.Name()}
	}
}

// Players returns a snapshot of the session roster in join order.
func (s *Session) Players() ([]model.Player, error) {
	reply := make(chan []model.Player, 1)
	select {
	case s.commands <- playersCmd{reply: reply}:
	case <-s.quit:
		return nil, ErrGameNotFound
	}
	select {
	case players := <-reply:
		return players, nil
	case <-s.quit:
		return nil, ErrGameNotFound
	}
}

// Done is closed once the session loop has exited.
func (s *Session) Done() <-chan struct{} {
	return s.quit
}
