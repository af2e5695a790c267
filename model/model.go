package model

// Point is one recorded trail position. Gap marks a deliberate hole in the
// trail: no line is drawn through it and no collision is tested against any
// segment touching it.
type Point struct {
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
	Gap bool    `json:"gap,omitempty"`
}

type Direction string

const (
	LEFT  Direction = "left"
	RIGHT Direction = "right"
	NONE  Direction = "none"
)

// ParseDirection coerces anything unrecognized to NONE.
func ParseDirection(s string) Direction {
	switch Direction(s) {
	case LEFT:
		return LEFT
	case RIGHT:
		return RIGHT
	default:
		return NONE
	}
}

// Player is the per-player state mirrored to clients.
type Player struct {
	Id    string  `json:"id"`
	Name  string  `json:"name"`
	Color string  `json:"color"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Angle float64 `json:"angle"`
	Alive bool    `json:"alive"`
	Score int     `json:"score"`
	Trail []Point `json:"trail,omitempty"`
}
