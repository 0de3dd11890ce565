package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/BulizzesRG/myownpos/internal/infra"
	"github.com/BulizzesRG/myownpos/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health returns a JSON health check response.
// Checks DB and Redis connectivity (a nil rdb reports "disabled") and reports the search breaker state and
// dead-letter backlog; never exposes credentials or internals. An open breaker
// degrades search only, so it does not fail the check.
func Health(db *gorm.DB, rdb *redis.Client, breaker *infra.CircuitBreaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		redisStatus := "connected"
		deadLetters := gin.H{}
		switch {
		case rdb == nil:
			redisStatus = "disabled"
		case rdb.Ping(ctx).Err() != nil:
			redisStatus = "error"
		default:
			for _, q := range []string{worker.QueueIndex, worker.QueueEmail} {
				if n, err := worker.DLQLength(ctx, rdb, q); err == nil {
					deadLetters[q] = n
				}
			}
		}

		status := http.StatusOK
		if dbStatus != "connected" || redisStatus == "error" {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"ok":           status == http.StatusOK,
			"db":           dbStatus,
			"redis":        redisStatus,
			"search":       breaker.State().String(),
			"dead_letters": deadLetters,
		})
	}
}
