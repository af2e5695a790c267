package main

import (
	"encoding/json"
	"net/http"

	"github.com/matryer/way"

	"github.com/zucenko/curveclash/server"
)

const URI_WS = "/play"
const URI_GAMES = "/api/games"
const URI_GAME_PLAYERS = "/api/games/:id/players"

func (s *Server) routes() {
	s.router = way.NewRouter()
	s.router.HandleFunc("GET", URI_WS, s.GameServer.HandleWS())
	s.router.HandleFunc("GET", URI_GAMES, s.handleListGames())
	s.router.HandleFunc("GET", URI_GAME_PLAYERS, s.handleGamePlayers())
}

func (s *Server) handleListGames() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"games": s.GameServer.Directory.ListSessions(),
		})
	}
}

func (s *Server) handleGamePlayers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameId := way.Param(r.Context(), "id")
		players, err := s.GameServer.Directory.SessionPlayers(gameId)
		if err != nil {
			writeJSON(w, server.HTTPStatus(err), map[string]any{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"players": players})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
