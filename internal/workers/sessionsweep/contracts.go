package sessionsweep

import "time"

type Sessions interface {
	Sweep(idle time.Duration) int
}
