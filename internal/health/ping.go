package health

import "context"

// HealthPinger is implemented by dependencies that can probe their own
// connectivity.
type HealthPinger interface {
	HealthPing(ctx context.Context) error
}
