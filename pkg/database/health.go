package database

import (
	"context"
	"time"
)

// HealthStatus reports database connectivity and round-trip latency.
type HealthStatus struct {
	Status       string        `json:"status"`
	ResponseTime time.Duration `json:"response_time_ms"`
}

// Health pings the database and reports round-trip time.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	start := time.Now()

	if err := c.mongo.Ping(ctx, nil); err != nil {
		return &HealthStatus{
			Status:       "unhealthy",
			ResponseTime: time.Since(start),
		}, err
	}

	return &HealthStatus{
		Status:       "healthy",
		ResponseTime: time.Since(start),
	}, nil
}
