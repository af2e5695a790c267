package server

import "time"

// Config carries every game-feel tunable. Gap and safe-tail values are
// empirically chosen, not derived from an invariant; only "some positive
// safe tail" matters for correctness.
type Config struct {
	ArenaWidth  float64
	ArenaHeight float64

	Speed     float64 // units moved per tick
	TurnSpeed float64 // radians turned per tick
	LineWidth float64 // rendered line thickness; collision radius is half of it

	TickInterval      time.Duration
	GapFrequency      int // a gap window recurs every this many frames
	GapDuration       int // frames per gap window
	InitialHolePeriod int // frames before the first gap may open
	SafeTailSegments  int // own-trail suffix excluded from self collision

	StartDistance float64 // spawn circle radius around arena center
	MaxPlayers    int
	WinScore      int

	CountdownDuration time.Duration
	RoundEndDuration  time.Duration
}

func DefaultConfig() Config {
	return Config{
		ArenaWidth:        800,
		ArenaHeight:       600,
		Speed:             2,
		TurnSpeed:         0.08,
		LineWidth:         4,
		TickInterval:      time.Second / 60,
		GapFrequency:      300,
		GapDuration:       15,
		InitialHolePeriod: 120,
		SafeTailSegments:  10,
		StartDistance:     200,
		MaxPlayers:        6,
		WinScore:          5,
		CountdownDuration: 3 * time.Second,
		RoundEndDuration:  3 * time.Second,
	}
}

// CollisionRadius derives the logical hit radius from the rendered line width
// so visual overlap and collision agree.
func (c Config) CollisionRadius() float64 {
	return c.LineWidth / 2
}
