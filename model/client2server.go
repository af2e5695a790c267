package model

// Event names carried in Envelope.T, client to server.
const (
	MSG_CREATE_GAME      = "createGame"
	MSG_JOIN_GAME        = "joinGame"
	MSG_FIND_GAME        = "findGame"
	MSG_START_GAME       = "startGame"
	MSG_CHANGE_DIRECTION = "changeDirection"
	MSG_LEAVE_GAME       = "leaveGame"
	MSG_RESET_GAME       = "resetGame"
)

type CreateGame struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type JoinGame struct {
	GameId string `json:"gameId"`
	Name   string `json:"name"`
	Color  string `json:"color"`
}

type FindGame struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type StartGame struct {
	GameId string `json:"gameId"`
}

type ChangeDirection struct {
	Direction string `json:"direction"`
}
