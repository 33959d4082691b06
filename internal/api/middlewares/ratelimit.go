package middlewares

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"election-ledger/internal/api/models"
	"election-ledger/internal/api/types"
)

// visitor tracks request counts for one client within the current window
type visitor struct {
	count    int
	windowAt time.Time
	lastSeen time.Time
}

// RateLimit enforces a fixed-window per-client request limit
func RateLimit(requestsPerMinute int) gin.HandlerFunc {
	var mu sync.Mutex
	visitors := make(map[string]*visitor)

	// Drop idle visitors so the map does not grow unbounded
	go func() {
		for range time.Tick(5 * time.Minute) {
			mu.Lock()
			for ip, v := range visitors {
				if time.Since(v.lastSeen) > 10*time.Minute {
					delete(visitors, ip)
				}
			}
			mu.Unlock()
		}
	}()

	return func(c *gin.Context) {
		ip := c.ClientIP()
		now := time.Now()

		mu.Lock()
		v, ok := visitors[ip]
		if !ok || now.Sub(v.windowAt) >= time.Minute {
			v = &visitor{windowAt: now}
			visitors[ip] = v
		}
		v.count++
		v.lastSeen = now
		over := v.count > requestsPerMinute
		mu.Unlock()

		if over {
			c.JSON(http.StatusTooManyRequests, types.ErrorResponse{
				Error: "rate limit exceeded",
				Code:  models.ErrCodeRateLimited,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
