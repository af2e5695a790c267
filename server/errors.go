package server

import (
	"errors"
	"net/http"
)

var (
	ErrGameNotFound     = errors.New("game not found")
	ErrGameNotJoinable  = errors.New("cannot join a game that has already started")
	ErrGameFull         = errors.New("game is full")
	ErrNotEnoughPlayers = errors.New("need at least 2 players to start the game")
	ErrAlreadyStarted   = errors.New("game already started")
	ErrNotFinished      = errors.New("game is not finished")
	ErrPlayerNotFound   = errors.New("player not found")
	ErrAlreadyInGame    = errors.New("connection already belongs to a game")
	ErrNoGameForPlayer  = errors.New("connection belongs to no game")
)

// HTTPStatus maps the game error taxonomy onto discovery API responses.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrGameNotFound), errors.Is(err, ErrPlayerNotFound), errors.Is(err, ErrNoGameForPlayer):
		return http.StatusNotFound
	case errors.Is(err, ErrGameNotJoinable), errors.Is(err, ErrGameFull),
		errors.Is(err, ErrNotEnoughPlayers), errors.Is(err, ErrAlreadyStarted),
		errors.Is(err, ErrNotFinished), errors.Is(err, ErrAlreadyInGame):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
