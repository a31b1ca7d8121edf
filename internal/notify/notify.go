package notify

import (
	"fmt"

	"github.com/gen2brain/beeep"
)

const title = "qlaunch"

// Notifier sends best-effort desktop notifications about launch outcomes.
// Delivery failures are ignored; a notification never affects control flow.
type Notifier struct {
	Enabled bool
}

// New returns an enabled notifier.
func New() *Notifier {
	return &Notifier{Enabled: true}
}

// Launched announces a successful spawn.
func (n *Notifier) Launched(pid int) {
	if !n.Enabled {
		return
	}
	_ = beeep.Notify(title, fmt.Sprintf("QEMU started (pid %d)", pid), "")
}

// LaunchFailed announces a spawn failure.
func (n *Notifier) LaunchFailed(err error) {
	if !n.Enabled {
		return
	}
	msg := "QEMU failed to start"
	if err != nil {
		msg = fmt.Sprintf("QEMU failed to start: %v", err)
	}
	_ = beeep.Notify(title, msg, "")
}
