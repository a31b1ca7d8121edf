package history

import (
	"time"

	"github.com/google/uuid"
)

// Launch records one spawned QEMU process for post-hoc diagnosis. The
// launcher never reconnects to a running VM; records only tell the user what
// was started, when, and with which arguments.
type Launch struct {
	ID         string    `json:"id"`
	PID        int       `json:"pid"`
	Executable string    `json:"executable"`
	Args       []string  `json:"args"`
	StartedAt  time.Time `json:"started_at"`
}

// NewLaunch builds a record with a fresh id.
func NewLaunch(pid int, executable string, args []string) *Launch {
	return &Launch{
		ID:         uuid.New().String(),
		PID:        pid,
		Executable: executable,
		Args:       args,
		StartedAt:  time.Now(),
	}
}
