package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const healthCheckTimeout = 3 * time.Second

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// probe одна зависимость. Падение некритичной переводит сервис в degraded, но не в 503.
type probe struct {
	name     string
	critical bool
	check    func(ctx context.Context) error
}

type HealthHandler struct {
	probes []probe
}

// NewHealthHandler redis может быть nil: без него работают кэш в памяти и лимиты в памяти.
func NewHealthHandler(db *sqlx.DB, redisClient *redis.Client) *HealthHandler {
	probes := []probe{
		{name: "database", critical: true, check: db.PingContext},
		{name: "connection_pool", check: func(context.Context) error {
			if s := db.Stats(); s.MaxOpenConnections > 0 && s.InUse >= s.MaxOpenConnections {
				return errPoolExhausted
			}
			return nil
		}},
	}
	if redisClient != nil {
		probes = append(probes, probe{name: "redis", check: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}})
	}
	return &HealthHandler{probes: probes}
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// Health GET /health. Проверки идут параллельно под общим таймаутом.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	var (
		mu     sync.Mutex
		checks = make(map[string]string, len(h.probes))
		status = statusHealthy
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, p := range h.probes {
		p := p
		g.Go(func() error {
			err := p.check(gctx)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				checks[p.name] = statusHealthy
			case p.critical:
				checks[p.name] = statusUnhealthy + ": " + err.Error()
				status = statusUnhealthy
			default:
				checks[p.name] = statusDegraded + ": " + err.Error()
				if status == statusHealthy {
					status = statusDegraded
				}
			}
			// ошибки собираются в checks, группу не отменяем
			return nil
		})
	}
	_ = g.Wait()

	code := http.StatusOK
	if status == statusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, HealthResponse{Status: status, Timestamp: time.Now().UTC(), Checks: checks})
}

// Live GET /health/live: процесс жив и обслуживает запросы, зависимости не трогаются.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": statusHealthy})
}

type healthError string

func (e healthError) Error() string { return string(e) }

const errPoolExhausted = healthError("pool exhausted")
