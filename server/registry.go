package server

import (
	"github.com/google/uuid"

	"github.com/zucenko/curveclash/geom"
	"github.com/zucenko/curveclash/model"
)

// Registry is the per-session player store: identities, live positions and
// trails, and pending direction input. It is owned exclusively by the session
// loop goroutine and does no locking of its own.
type Registry struct {
	players    []*model.Player // join order, first entry is the host
	directions map[string]model.Direction
}

func NewRegistry() *Registry {
	return &Registry{
		players:    make([]*model.Player, 0),
		directions: make(map[string]model.Direction),
	}
}

func (r *Registry) AddPlayer(name, color string) *model.Player {
	p := &model.Player{
		Id:    uuid.NewString(),
		Name:  name,
		Color: color,
		Alive: true,
		Trail: make([]model.Point, 0),
	}
	r.players = append(r.players, p)
	r.directions[p.Id] = model.NONE
	return p
}

// RemovePlayer is a no-op for unknown ids; disconnect races are expected.
func (r *Registry) RemovePlayer(id string) {
	for i, p := range r.players {
		if p.Id == id {
			r.players = append(r.players[:i], r.players[i+1:]...)
			break
		}
	}
	delete(r.directions, id)
}

func (r *Registry) Player(id string) *model.Player {
	for _, p := range r.players {
		if p.Id == id {
			return p
		}
	}
	return nil
}

// Players returns a copy of the ordered player slice. Mutating the returned
// slice does not affect the registry.
func (r *Registry) Players() []*model.Player {
	out := make([]*model.Player, len(r.players))
	copy(out, r.players)
	return out
}

// Snapshot returns player values for broadcasting.
func (r *Registry) Snapshot() []model.Player {
	out := make([]model.Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, *p)
	}
	return out
}

func (r *Registry) SetDirection(id string, dir model.Direction) error {
	if _, ok := r.directions[id]; !ok {
		return ErrPlayerNotFound
	}
	r.directions[id] = dir
	return nil
}

func (r *Registry) Direction(id string) model.Direction {
	if d, ok := r.directions[id]; ok {
		return d
	}
	return model.NONE
}

func (r *Registry) Len() int {
	return len(r.players)
}

func (r *Registry) AliveCount() int {
	n := 0
	for _, p := range r.players {
		if p.Alive {
			n++
		}
	}
	return n
}

func (r *Registry) HostId() string {
	if len(r.players) == 0 {
		return ""
	}
	return r.players[0].Id
}

// ResetRound places every player on its start position heading at the arena
// center, revives it, clears its trail to the single starting point and drops
// any stale pending direction.
func (r *Registry) ResetRound(starts []geom.Start) {
	for i, p := range r.players {
		s := starts[i%len(starts)]
		p.X, p.Y, p.Angle = s.X, s.Y, s.Angle
		p.Alive = true
		p.Trail = []model.Point{{X: s.X, Y: s.Y}}
		r.directions[p.Id] = model.NONE
	}
}

func (r *Registry) ClearScores() {
	for _, p := range r.players {
		p.Score = 0
	}
}
