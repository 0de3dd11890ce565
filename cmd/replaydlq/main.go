// cmd/replaydlq moves dead-lettered jobs back onto their work queue.
// Usage: go run ./cmd/replaydlq -queue jobs:email -limit 100
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/BulizzesRG/myownpos/internal/config"
	"github.com/BulizzesRG/myownpos/internal/infra"
	"github.com/BulizzesRG/myownpos/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	queue := flag.String("queue", worker.QueueEmail, "work queue whose DLQ is replayed")
	limit := flag.Int("limit", 100, "maximum entries to move")
	flag.Parse()

	if *queue != worker.QueueIndex && *queue != worker.QueueEmail {
		log.Fatal().Str("queue", *queue).Msg("unknown queue")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer rdb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	moved, err := worker.Replay(ctx, rdb, *queue, *limit)
	if err != nil {
		log.Fatal().Err(err).Int("moved", moved).Msg("replay interrupted")
	}
	left, _ := worker.DLQLength(ctx, rdb, *queue)
	log.Info().Str("queue", *queue).Int("moved", moved).Int64("remaining", left).Msg("replay done")
}
