// Package records persists finished-match summaries. The game core only
// knows the Recorder interface; everything else here is an optional
// collaborator.
package records

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

type PlayerScore struct {
	PlayerId string `json:"playerId"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
}

type MatchSummary struct {
	GameId     string        `json:"gameId"`
	WinnerId   string        `json:"winnerId"`
	Scores     []PlayerScore `json:"scores"`
	FinishedAt time.Time     `json:"finishedAt"`
}

type Recorder interface {
	RecordMatch(ctx context.Context, summary MatchSummary) error
}

// LogRecorder just logs the summary. Default when no database is configured.
type LogRecorder struct{}

func (LogRecorder) RecordMatch(_ context.Context, summary MatchSummary) error {
	log.Infof("match %s finished, winner %s, %d players",
		summary.GameId, summary.WinnerId, len(summary.Scores))
	return nil
}
