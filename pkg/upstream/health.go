package upstream

import (
	"context"
	"fmt"
	"time"
)

// UnhealthyThreshold is the number of consecutive failed exchanges after
// which the upstream is reported unhealthy.
const UnhealthyThreshold = 3

// Health is a passive view of upstream health, derived from real traffic.
// It feeds readiness and metrics only; requests are never refused because
// of it.
type Health struct {
	Healthy             bool
	ConsecutiveFailures int
	LastError           string
	LastCheck           time.Time
	LastSuccess         time.Time
	TotalRequests       int64
	FailedRequests      int64
}

// IsHealthy returns the current health status.
func (c *Client) IsHealthy() bool {
	c.healthMu.RLock()
	defer c.healthMu.RUnlock()
	return c.health.Healthy
}

// GetHealth returns a snapshot of the health information.
func (c *Client) GetHealth() Health {
	c.healthMu.RLock()
	defer c.healthMu.RUnlock()
	return c.health
}

// HealthCheck reports an error while the upstream is unhealthy. It matches
// health.CheckFunc and performs no network I/O.
func (c *Client) HealthCheck(_ context.Context) error {
	h := c.GetHealth()
	if h.Healthy {
		return nil
	}
	return fmt.Errorf("%d consecutive failures, last: %s", h.ConsecutiveFailures, h.LastError)
}

// updateHealth records the outcome of one exchange.
func (c *Client) updateHealth(success bool, err error) {
	c.healthMu.Lock()

	wasHealthy := c.health.Healthy
	now := time.Now()
	c.health.LastCheck = now
	c.health.TotalRequests++

	if success {
		c.health.Healthy = true
		c.health.ConsecutiveFailures = 0
		c.health.LastError = ""
		c.health.LastSuccess = now
	} else {
		c.health.FailedRequests++
		c.health.ConsecutiveFailures++
		if err != nil {
			c.health.LastError = err.Error()
		}
		if c.health.ConsecutiveFailures >= UnhealthyThreshold {
			c.health.Healthy = false
		}
	}

	healthy := c.health.Healthy
	failures := c.health.ConsecutiveFailures
	c.healthMu.Unlock()

	if healthy == wasHealthy {
		return
	}
	if healthy {
		c.logger.Info("upstream marked healthy")
	} else {
		c.logger.Warn("upstream marked unhealthy",
			"consecutive_failures", failures,
			"error", err,
		)
	}
	if c.onHealthChange != nil {
		c.onHealthChange(healthy)
	}
}
