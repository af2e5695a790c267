package server

import (
	"math"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/zucenko/curveclash/geom"
	"github.com/zucenko/curveclash/model"
	"github.com/zucenko/curveclash/records"
)

// Loop is the session actor. It has exclusive ownership of the registry and
// all match state; everything else posts commands. A fault inside one
// session's loop tears down that session only.
func (s *Session) Loop() {
	log.Infof("session %s: loop started", s.Id)
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("session %s: fault, tearing down: %v", s.Id, r)
			s.broadcast(model.MSG_ERROR_NOTICE, model.ErrorNotice{
				Message: "game closed due to a server error"})
		}
		s.stopTicker()
		close(s.quit)
		if s.onEmpty != nil {
			s.onEmpty(s.Id)
		}
		log.Infof("session %s: loop ended", s.Id)
	}()

	for {
		select {
		case cmd := <-s.commands:
			s.handle(cmd)
		case <-s.tickC:
			s.tick()
		case <-s.phaseC:
			s.phaseC = nil
			s.phaseElapsed()
		}
		if s.joined && s.registry.Len() == 0 {
			return
		}
	}
}

func (s *Session) handle(cmd any) {
	switch c := cmd.(type) {
	case joinCmd:
		s.handleJoin(c)
	case leaveCmd:
		s.removePlayerState(c.playerId)
	case startCmd:
		c.reply <- s.handleStart(c.playerId)
	case resetCmd:
		c.reply <- s.handleReset()
	case dirCmd:
		s.handleDirection(c)
	case infoCmd:
		c.reply <- Info{Id: s.Id, PlayerCount: s.registry.Len(), State: s.state.Name()}
	case playersCmd:
		c.reply <- s.registry.Snapshot()
	}
}

func (s *Session) handleJoin(c joinCmd) {
	if s.state != ST_WAITING {
		c.reply <- joinResult{err: ErrGameNotJoinable}
		return
	}
	if s.registry.Len() >= s.cfg.MaxPlayers {
		c.reply <- joinResult{err: ErrGameFull}
		return
	}
	p := s.registry.AddPlayer(c.name, c.color)
	s.conns[p.Id] = c.out
	s.joined = true
	c.reply <- joinResult{playerId: p.Id}
	log.Infof("session %s: player %s (%s) joined", s.Id, p.Name, p.Id)
	s.broadcastPlayers()
	s.broadcast(model.MSG_STATE_CHANGED, model.StateChanged{State: s.state.Name(), GameId: s.Id})
}

func (s *Session) handleStart(playerId string) error {
	if s.registry.Player(playerId) == nil {
		return ErrPlayerNotFound
	}
	if s.state != ST_WAITING {
		return ErrAlreadyStarted
	}
	if s.registry.Len() < 2 {
		return ErrNotEnoughPlayers
	}
	log.Infof("session %s: start requested by %s", s.Id, playerId)
	s.setState(ST_COUNTDOWN)
	s.phaseC = time.After(s.cfg.CountdownDuration)
	return nil
}

func (s *Session) handleReset() error {
	if s.state != ST_GAME_END {
		return ErrNotFinished
	}
	s.registry.ClearScores()
	s.roundWinner = ""
	s.matchWinner = ""
	s.frameCount = 0
	s.setState(ST_WAITING)
	s.broadcastPlayers()
	return nil
}

func (s *Session) handleDirection(c dirCmd) {
	if err := s.registry.SetDirection(c.playerId, model.ParseDirection(c.dir)); err != nil {
		s.sendTo(c.playerId, model.MSG_ERROR_NOTICE, model.ErrorNotice{Message: err.Error()})
	}
}

// phaseElapsed fires the timed transitions: countdown into a fresh round,
// round end into the next countdown. Stale timers from a forced reversion
// never reach here because phaseC is nilled on every reversion.
func (s *Session) phaseElapsed() {
	switch s.state {
	case ST_COUNTDOWN:
		s.startRound()
	case ST_ROUND_END:
		s.setState(ST_COUNTDOWN)
		s.phaseC = time.After(s.cfg.CountdownDuration)
	}
}

func (s *Session) startRound() {
	starts := geom.StartPositions(s.registry.Len(),
		s.cfg.ArenaWidth/2, s.cfg.ArenaHeight/2, s.cfg.StartDistance)
	s.registry.ResetRound(starts)
	s.frameCount = 0
	s.roundWinner = ""
	s.setState(ST_PLAYING)
	s.broadcastPlayers()
	s.ticker = time.NewTicker(s.cfg.TickInterval)
	s.tickC = s.ticker.C
}

func (s *Session) stopTicker() {
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
		s.tickC = nil
	}
}

// tick is one fixed-rate simulation step: steer, integrate, record trail
// points (real or gap), then resolve collisions against the post-move state
// of every trail. All movement happens before any collision test, so nobody
// dodges mid-tick.
func (s *Session) tick() {
	s.frameCount++
	players := s.registry.Players()
	radius := s.cfg.CollisionRadius()
	inGapWindow := s.frameCount > s.cfg.InitialHolePeriod &&
		s.frameCount%s.cfg.GapFrequency < s.cfg.GapDuration

	moved := make(map[string]bool, len(players))
	for _, p := range players {
		if !p.Alive {
			continue
		}
		switch s.registry.Direction(p.Id) {
		case model.LEFT:
			p.Angle -= s.cfg.TurnSpeed
		case model.RIGHT:
			p.Angle += s.cfg.TurnSpeed
		}
		p.X += math.Cos(p.Angle) * s.cfg.Speed
		p.Y += math.Sin(p.Angle) * s.cfg.Speed
		p.Trail = append(p.Trail, model.Point{X: p.X, Y: p.Y, Gap: inGapWindow})
		moved[p.Id] = true
	}

	var newlyDead []*model.Player
	for _, p := range players {
		if !p.Alive {
			continue
		}
		if s.collides(p, players, radius) {
			newlyDead = append(newlyDead, p)
		}
	}
	for _, p := range newlyDead {
		p.Alive = false
		log.Infof("session %s: player %s eliminated at frame %d", s.Id, p.Id, s.frameCount)
	}

	ticks := make([]model.PlayerTick, 0, len(players))
	for _, p := range players {
		pt := model.PlayerTick{
			Id: p.Id, X: p.X, Y: p.Y, Angle: p.Angle,
			Alive: p.Alive, Score: p.Score,
		}
		if moved[p.Id] && len(p.Trail) > 0 {
			last := p.Trail[len(p.Trail)-1]
			pt.NewPoint = &last
		}
		ticks = append(ticks, pt)
	}
	s.broadcast(model.MSG_TICK_SNAPSHOT, model.TickSnapshot{Frame: s.frameCount, Players: ticks})

	// the broadcast may have dropped a dead connection and forced the session
	// back to waiting; a forced interruption must not resolve as a round
	if s.state == ST_PLAYING && s.registry.AliveCount() <= 1 {
		s.resolveRound()
	}
}

// collides tests p's post-move head against the arena bounds, every other
// trail (dead players' trails stay lethal until the round ends) and its own
// trail minus the safe tail directly behind the head.
func (s *Session) collides(p *model.Player, players []*model.Player, radius float64) bool {
	head := model.Point{X: p.X, Y: p.Y}
	if geom.OutOfBounds(head, s.cfg.ArenaWidth, s.cfg.ArenaHeight) {
		return true
	}
	for _, o := range players {
		if o.Id == p.Id {
			continue
		}
		if geom.TrailHitsPoint(o.Trail, head, radius) {
			return true
		}
	}
	if len(p.Trail) > s.cfg.SafeTailSegments {
		own := p.Trail[:len(p.Trail)-s.cfg.SafeTailSegments]
		if geom.TrailHitsPoint(own, head, radius) {
			return true
		}
	}
	return false
}

func (s *Session) resolveRound() {
	s.stopTicker()
	var survivor *model.Player
	for _, p := range s.registry.Players() {
		if p.Alive {
			survivor = p
			break
		}
	}
	if survivor == nil {
		// everyone died the same tick, nobody scores
		s.broadcast(model.MSG_ROUND_RESOLVED, model.RoundResolved{})
		s.setState(ST_ROUND_END)
		s.phaseC = time.After(s.cfg.RoundEndDuration)
		return
	}

	survivor.Score++
	s.roundWinner = survivor.Id
	s.broadcast(model.MSG_ROUND_RESOLVED, model.RoundResolved{WinnerId: survivor.Id})

	if survivor.Score >= s.cfg.WinScore {
		s.matchWinner = survivor.Id
		s.setState(ST_GAME_END)
		s.broadcast(model.MSG_MATCH_RESOLVED, model.MatchResolved{WinnerId: survivor.Id})
		if s.onMatchDone != nil {
			summary := s.matchSummary()
			go s.onMatchDone(summary)
		}
		return
	}
	s.setState(ST_ROUND_END)
	s.phaseC = time.After(s.cfg.RoundEndDuration)
}

func (s *Session) matchSummary() records.MatchSummary {
	summary := records.MatchSummary{
		GameId:     s.Id,
		WinnerId:   s.matchWinner,
		FinishedAt: time.Now(),
	}
	for _, p := range s.registry.Players() {
		summary.Scores = append(summary.Scores, records.PlayerScore{
			PlayerId: p.Id, Name: p.Name, Score: p.Score,
		})
	}
	return summary
}

// removePlayerState drops a player from registry and fan-out. Idempotent.
// Stops the round and reverts to waiting when fewer than two players remain.
func (s *Session) removePlayerState(playerId string) {
	if s.registry.Player(playerId) == nil {
		delete(s.conns, playerId)
		return
	}
	s.registry.RemovePlayer(playerId)
	delete(s.conns, playerId)
	log.Infof("session %s: player %s left", s.Id, playerId)
	if s.registry.Len() == 0 {
		return
	}
	if s.registry.Len() < 2 && s.state != ST_WAITING {
		s.stopTicker()
		s.phaseC = nil
		s.roundWinner = ""
		s.setState(ST_WAITING)
	}
	s.broadcastPlayers()
}

func (s *Session) setState(st SessionState) {
	s.state = st
	s.broadcast(model.MSG_STATE_CHANGED, model.StateChanged{State: st.Name(), GameId: s.Id})
}

func (s *Session) broadcastPlayers() {
	s.broadcast(model.MSG_PLAYERS_CHANGED, model.PlayersChanged{
		Players: s.registry.Snapshot(),
		HostId:  s.registry.HostId(),
	})
}

// broadcast encodes once and fans out. Players whose connection cannot take
// the message anymore are dropped from the session.
func (s *Session) broadcast(t string, payload any) {
	b, err := model.Encode(t, payload)
	if err != nil {
		log.Warnf("session %s: encode %s: %v", s.Id, t, err)
		return
	}
	var failed []string
	for id, c := range s.conns {
		if !c.Send(b) {
			failed = append(failed, id)
		}
	}
	for _, id := range failed {
		log.Warnf("session %s: dropping unresponsive player %s", s.Id, id)
		s.removePlayerState(id)
	}
}

func (s *Session) sendTo(playerId, t string, payload any) {
	c, ok := s.conns[playerId]
	if !ok {
		return
	}
	b, err := model.Encode(t, payload)
	if err != nil {
		return
	}
	if !c.Send(b) {
		s.removePlayerState(playerId)
	}
}
