package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/matryer/way"
	log "github.com/sirupsen/logrus"

	"github.com/zucenko/curveclash/records"
	"github.com/zucenko/curveclash/server"
)

type Server struct {
	router     *way.Router
	GameServer *server.GameServer
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debugf("no .env file: %v", err)
	}

	var recorder records.Recorder = records.LogRecorder{}
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		pg, err := records.NewPostgresRecorder(context.Background(), dsn)
		if err != nil {
			log.Fatalf("connecting match recorder: %v", err)
		}
		defer pg.Close()
		recorder = pg
		log.Info("recording match results to postgres")
	}

	Server := Server{
		GameServer: server.NewGameServer(server.DefaultConfig(), recorder),
	}
	Server.routes()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
		log.Printf("Defaulting to port %s", port)
	}
	log.Fatalln(http.ListenAndServe(":"+port, Server.router))
}
