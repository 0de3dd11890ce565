package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/BulizzesRG/myownpos/internal/dto"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ── Fixed-window limiter ─────────────────────────────────────────────────────

// windowEntry tracks request counts per IP within a window.
type windowEntry struct {
	count     int
	windowEnd time.Time
}

// windowLimiter counts requests per client IP. Expired entries are purged
// lazily, at most once per purgeInterval, so IPs that never return do not
// accumulate.
type windowLimiter struct {
	name      string
	limit     int
	window    time.Duration
	mu        sync.Mutex
	entries   map[string]*windowEntry
	nextPurge time.Time
	now       func() time.Time
}

const purgeInterval = 5 * time.Minute

func newWindowLimiter(name string, limit int, window time.Duration) *windowLimiter {
	return &windowLimiter{
		name:    name,
		limit:   limit,
		window:  window,
		entries: make(map[string]*windowEntry),
		now:     time.Now,
	}
}

// allow records one request from ip and reports whether it is within limit,
// plus when the current window ends.
func (l *windowLimiter) allow(ip string) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.After(l.nextPurge) {
		l.purge(now)
		l.nextPurge = now.Add(purgeInterval)
	}

	entry, ok := l.entries[ip]
	if !ok || now.After(entry.windowEnd) {
		entry = &windowEntry{windowEnd: now.Add(l.window)}
		l.entries[ip] = entry
	}
	entry.count++
	return entry.count <= l.limit, entry.windowEnd
}

func (l *windowLimiter) purge(now time.Time) {
	purged := 0
	for ip, entry := range l.entries {
		if now.After(entry.windowEnd) {
			delete(l.entries, ip)
			purged++
		}
	}
	if purged > 0 {
		log.Debug().
			Str("limiter", l.name).
			Int("entries_purged", purged).
			Int("entries_remaining", len(l.entries)).
			Msg("rate limiter purged")
	}
}

func (l *windowLimiter) handler(msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, windowEnd := l.allow(c.ClientIP())
		if !ok {
			retry := int(time.Until(windowEnd).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.Fail(msg))
			return
		}
		c.Next()
	}
}

// LoginRateLimiter limits login attempts to 20 per minute per IP.
func LoginRateLimiter() gin.HandlerFunc {
	return newWindowLimiter("login", 20, time.Minute).
		handler("Too many login attempts. Try again in a minute.")
}

// RateLimiter returns a general-purpose per-IP limiter.
func RateLimiter(limit int, window time.Duration) gin.HandlerFunc {
	return newWindowLimiter("api", limit, window).
		handler("Too Many Requests")
}
