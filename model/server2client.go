package model

// Event names carried in Envelope.T, server to client.
const (
	MSG_GAME_JOINED     = "gameJoined"
	MSG_STATE_CHANGED   = "stateChanged"
	MSG_PLAYERS_CHANGED = "playersChanged"
	MSG_TICK_SNAPSHOT   = "tickSnapshot"
	MSG_ROUND_RESOLVED  = "roundResolved"
	MSG_MATCH_RESOLVED  = "matchResolved"
	MSG_ERROR_NOTICE    = "errorNotice"
)

type GameJoined struct {
	GameId   string `json:"gameId"`
	PlayerId string `json:"playerId"`
	Created  bool   `json:"created,omitempty"`
}

type StateChanged struct {
	State  string `json:"state"`
	GameId string `json:"gameId,omitempty"`
}

type PlayersChanged struct {
	Players []Player `json:"players"`
	HostId  string   `json:"hostId,omitempty"`
}

// PlayerTick is one player's slice of a tick snapshot. NewPoint is the trail
// point appended this tick (real or gap); nil for dead players.
type PlayerTick struct {
	Id       string  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Angle    float64 `json:"angle"`
	Alive    bool    `json:"alive"`
	Score    int     `json:"score"`
	NewPoint *Point  `json:"newPoint,omitempty"`
}

type TickSnapshot struct {
	Frame   int          `json:"frame"`
	Players []PlayerTick `json:"players"`
}

type RoundResolved struct {
	WinnerId string `json:"winnerId,omitempty"`
}

type MatchResolved struct {
	WinnerId string `json:"winnerId"`
}

type ErrorNotice struct {
	Message string `json:"message"`
}
