package ledger

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// HealthChecker provides Redis health check functionality
type HealthChecker struct {
	client redis.UniversalClient
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(client redis.UniversalClient) *HealthChecker {
	return &HealthChecker{client: client}
}

// Check pings Redis with a short timeout.
func (h *HealthChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if _, err := h.client.Ping(ctx).Result(); err != nil {
		logrus.Errorf("Redis health check failed: %v", err)
		return err
	}
	return nil
}

// IsHealthy returns true if Redis is accessible
func (h *HealthChecker) IsHealthy(ctx context.Context) bool {
	return h.Check(ctx) == nil
}
