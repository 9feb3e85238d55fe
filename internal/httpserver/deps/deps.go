package deps

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/menav/internal/index"
	"github.com/MrSnakeDoc/menav/internal/logger"
	"github.com/MrSnakeDoc/menav/internal/site"
	redisstore "github.com/MrSnakeDoc/menav/internal/store/redis"
)

// BuildState exposes the rebuild loop to the handlers.
type BuildState interface {
	Built() bool
	Last() *site.Result
	Trigger() bool
}

// SearchCache is the optional Redis side of the search API.
type SearchCache interface {
	GetCachedSearch(ctx context.Context, buildHash, query string) ([]byte, error)
	CacheSearch(ctx context.Context, buildHash, query string, body []byte, ttl time.Duration) error
	IncrementQuery(ctx context.Context, query string) error
	TopQueries(ctx context.Context, n int) ([]redisstore.QueryCount, error)
}

// Pinger reports whether the cache backend answers.
type Pinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

type Deps struct {
	Logger             logger.Logger
	StartTime          time.Time
	Version            string
	Commit             string
	BuildDate          string
	GoVersion          string
	TimeNow            func() time.Time   // for testing, defaults to time.Now
	AllowedCIDRS       []string           // IPs allowed to call POST /reload
	AllowedHosts       []string           // Host headers accepted by control routes
	TrustProxy         bool               // true if running behind a trusted reverse proxy
	OutputDir          string             // generated site served at /
	MemoryIndex        *index.MemoryIndex // search records of the last build
	Builds             BuildState         // rebuild loop
	Cache              SearchCache        // nil when Redis is disabled
	Redis              Pinger             // nil when Redis is disabled
	SearchBurst        int                // rate limit bucket size for /api/search
	SearchRefillPerMin int                // rate limit refill for /api/search
}
