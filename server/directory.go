package server

import (
	"context"
	"crypto/rand"
	"math/big"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/zucenko/curveclash/model"
	"github.com/zucenko/curveclash/records"
)

// gameCodeChars leaves out the lookalikes so codes stay readable over voice.
const gameCodeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
const gameCodeLen = 6

// Directory is the process-wide registry of sessions and of which connection
// drives which player. It is explicitly constructed and owned by whoever
// accepts connections; multiple independent directories can coexist in tests.
type Directory struct {
	cfg      Config
	recorder records.Recorder

	mu       sync.Mutex
	sessions map[string]*Session
	order    []string // session ids in creation order, for first-fit matching
	conns    map[string]connEntry
}

type connEntry struct {
	sessionId string
	playerId  string
}

func NewDirectory(cfg Config, recorder records.Recorder) *Directory {
	return &Directory{
		cfg:      cfg,
		recorder: recorder,
		sessions: make(map[string]*Session),
		conns:    make(map[string]connEntry),
	}
}

// CreateSession allocates a fresh session, starts its loop and joins the
// requesting connection as host.
func (d *Directory) CreateSession(connId, name, color string, out Sender) (string, string, error) {
	d.mu.Lock()
	if _, ok := d.conns[connId]; ok {
		d.mu.Unlock()
		return "", "", ErrAlreadyInGame
	}
	gameId := d.newGameCodeLocked()
	s := NewSession(gameId, d.cfg, d.dropSession, d.recordMatch)
	// reserves the code but stays out of d.order, so quick match cannot
	// route anyone here before the host is in
	d.sessions[gameId] = s
	d.mu.Unlock()

	go s.Loop()
	playerId, err := s.Join(name, color, out)
	if err != nil {
		// cannot happen for a session nobody can discover yet, but keep the
		// directory consistent if it ever does
		d.dropSession(gameId)
		return "", "", err
	}
	d.mu.Lock()
	d.conns[connId] = connEntry{sessionId: gameId, playerId: playerId}
	d.order = append(d.order, gameId)
	d.mu.Unlock()
	log.Infof("directory: created game %s for %s", gameId, name)
	return gameId, playerId, nil
}

// JoinSession joins the connection into an existing waiting session.
func (d *Directory) JoinSession(connId, gameId, name, color string, out Sender) (string, error) {
	d.mu.Lock()
	if _, ok := d.conns[connId]; ok {
		d.mu.Unlock()
		return "", ErrAlreadyInGame
	}
	s, ok := d.sessions[gameId]
	d.mu.Unlock()
	if !ok {
		return "", ErrGameNotFound
	}
	playerId, err := s.Join(name, color, out)
	if err != nil {
		return "", err
	}
	d.mu.Lock()
	d.conns[connId] = connEntry{sessionId: gameId, playerId: playerId}
	d.mu.Unlock()
	return playerId, nil
}

// FindOrCreate joins the first waiting session with room, scanning in
// creation order, or creates a new one when none fits.
func (d *Directory) FindOrCreate(connId, name, color string, out Sender) (gameId, playerId string, created bool, err error) {
	d.mu.Lock()
	if _, ok := d.conns[connId]; ok {
		d.mu.Unlock()
		return "", "", false, ErrAlreadyInGame
	}
	candidates := make([]*Session, 0, len(d.order))
	for _, id := range d.order {
		if s, ok := d.sessions[id]; ok {
			candidates = append(candidates, s)
		}
	}
	d.mu.Unlock()

	for _, s := range candidates {
		info := s.Info()
		if info.State != ST_WAITING.Name() || info.PlayerCount >= d.cfg.MaxPlayers {
			continue
		}
		playerId, err = d.JoinSession(connId, s.Id, name, color, out)
		if err != nil {
			// lost the race for this one, try the next
			continue
		}
		return s.Id, playerId, false, nil
	}

	gameId, playerId, err = d.CreateSession(connId, name, color, out)
	return gameId, playerId, true, err
}

// RemoveConnection detaches a connection from its session, if any. Safe to
// call for unknown connections and to call twice.
func (d *Directory) RemoveConnection(connId string) {
	d.mu.Lock()
	entry, ok := d.conns[connId]
	if ok {
		delete(d.conns, connId)
	}
	d.mu.Unlock()
	if !ok {
		return
	}
	d.mu.Lock()
	s, live := d.sessions[entry.sessionId]
	d.mu.Unlock()
	if live {
		s.Leave(entry.playerId)
	}
}

// Resolve maps a connection to its (session, playerId) pair.
func (d *Directory) Resolve(connId string) (*Session, string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	entry, ok := d.conns[connId]
	if !ok {
		return nil, "", ErrNoGameForPlayer
	}
	s, ok := d.sessions[entry.sessionId]
	if !ok {
		return nil, "", ErrGameNotFound
	}
	return s, entry.playerId, nil
}

// ListSessions reports every live session for discovery.
func (d *Directory) ListSessions() []Info {
	d.mu.Lock()
	candidates := make([]*Session, 0, len(d.order))
	for _, id := range d.order {
		if s, ok := d.sessions[id]; ok {
			candidates = append(candidates, s)
		}
	}
	d.mu.Unlock()

	out := make([]Info, 0, len(candidates))
	for _, s := range candidates {
		select {
		case <-s.Done():
			continue
		default:
		}
		out = append(out, s.Info())
	}
	return out
}

// SessionPlayers lists the roster of one session.
func (d *Directory) SessionPlayers(gameId string) ([]model.Player, error) {
	d.mu.Lock()
	s, ok := d.sessions[gameId]
	d.mu.Unlock()
	if !ok {
		return nil, ErrGameNotFound
	}
	return s.Players()
}

// dropSession deregisters a session and any connection entries pointing at
// it. Called by the session itself once its loop has ended.
func (d *Directory) dropSession(gameId string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.sessions[gameId]; !ok {
		return
	}
	delete(d.sessions, gameId)
	for i, id := range d.order {
		if id == gameId {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	for connId, entry := range d.conns {
		if entry.sessionId == gameId {
			delete(d.conns, connId)
		}
	}
	log.Infof("directory: removed game %s", gameId)
}

func (d *Directory) recordMatch(summary records.MatchSummary) {
	if d.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.recorder.RecordMatch(ctx, summary); err != nil {
		log.Warnf("directory: recording match %s failed: %v", summary.GameId, err)
	}
}

// newGameCodeLocked generates a short shareable id unused by any live
// session. Caller holds d.mu, so check-and-reserve is atomic.
func (d *Directory) newGameCodeLocked() string {
	for {
		b := make([]byte, gameCodeLen)
		max := big.NewInt(int64(len(gameCodeChars)))
		for i := range b {
			n, _ := rand.Int(rand.Reader, max)
			b[i] = gameCodeChars[n.Int64()]
		}
		code := string(b)
		if _, exists := d.sessions[code]; !exists {
			return code
		}
	}
}
