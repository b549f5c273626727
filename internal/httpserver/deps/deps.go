package deps

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/cradle/internal/dispatch"
	"github.com/MrSnakeDoc/cradle/internal/index"
	"github.com/MrSnakeDoc/cradle/internal/logger"
	"github.com/MrSnakeDoc/cradle/internal/metrics"
	"github.com/MrSnakeDoc/cradle/internal/schema"
	redisstore "github.com/MrSnakeDoc/cradle/internal/store/redis"
)

type Deps struct {
	Logger        logger.Logger
	StartTime     time.Time
	Version       string
	Commit        string
	BuildDate     string
	GoVersion     string
	TimeNow       func() time.Time     // clock for uptime reporting, defaults to time.Now
	AllowedHosts  []string             // Host headers allowed to access the server
	AllowedCIDRS  []string             // IPs allowed to access admin endpoints
	TrustProxy    bool                 // true if running behind a trusted reverse proxy (e.g., cloudflared)
	RedisClient   *redis.Client        // Redis client connection
	Store         *redisstore.Store    // Redis mirror + call stats
	MemoryIndex   *index.MemoryIndex   // In-memory child index
	Table         *schema.Table        // Service schema table built from the manifest
	Dispatcher    *dispatch.Dispatcher // Routes validated calls to the Baby Buddy API
	Metrics       *metrics.Collector   // Prometheus metrics
	ReloadTrigger chan struct{}        // Channel to trigger manual child refresh

	RateLimitBurst  int // max burst per IP on the invoke route
	RateLimitPerMin int // sustained invocations per IP per minute
}
