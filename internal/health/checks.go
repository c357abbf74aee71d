package health

import (
	"fmt"
	"time"

	"github.com/aaravmahajanofficial/cart-service/internal/config"
	"github.com/hellofresh/health-go/v5"
	"github.com/hellofresh/health-go/v5/checks/postgres"
	healthRedis "github.com/hellofresh/health-go/v5/checks/redis"
)

const (
	componentName    = "cart-service"
	componentVersion = "1.0.0"
)

// Checks lists the health checks for the configured backends. Redis is only checked when it is
// configured, and a failing Redis degrades the service instead of taking it down.
func Checks(cfg *config.Config) []health.Config {
	checks := []health.Config{
		{
			Name:    "database",
			Timeout: 3 * time.Second,
			Check:   postgres.New(postgres.Config{DSN: cfg.Database.GetDSN()}),
		},
	}

	if cfg.RedisConnect.Enabled() {
		checks = append(checks, health.Config{
			Name:      "redis",
			Timeout:   2 * time.Second,
			SkipOnErr: true,
			Check:     healthRedis.New(healthRedis.Config{DSN: cfg.RedisConnect.GetDSN()}),
		})
	}

	return checks
}

func NewHealthHandler(cfg *config.Config) (*health.Health, error) {
	h, err := health.New(
		health.WithComponent(health.Component{
			Name:    componentName,
			Version: componentVersion,
		}),
		health.WithSystemInfo(),
		health.WithChecks(Checks(cfg)...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create health instance: %w", err)
	}

	return h, nil
}
