// internal/core/ports/health.go
package ports

import "context"

// HealthChecker is a dependency the readiness probe reports on.
type HealthChecker interface {
	Ping(ctx context.Context) error
	Health(ctx context.Context) map[string]interface{}
}
