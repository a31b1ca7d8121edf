package launch

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/macforge/qlaunch/internal/history"
	"github.com/macforge/qlaunch/internal/notify"
	"github.com/macforge/qlaunch/internal/qemu"
	"github.com/macforge/qlaunch/internal/window"
)

const (
	defaultSettleDelay = 2 * time.Second
	keepLaunchRecords  = 20
)

// Supervisor spawns the QEMU process fire-and-forget and performs the single
// best-effort window placement pass afterwards. It never monitors the child
// beyond spawn confirmation.
type Supervisor struct {
	LogPath     string
	SettleDelay time.Duration
	Placer      window.Placer
	History     *history.Store
	Notifier    *notify.Notifier
	Debugf      func(format string, args ...interface{})
}

// Handle describes a confirmed spawn.
type Handle struct {
	PID      int
	RecordID string
}

// NewSupervisor returns a supervisor writing child output and launch records
// under dir.
func NewSupervisor(dir string, placer window.Placer, notifier *notify.Notifier) *Supervisor {
	return &Supervisor{
		LogPath:     filepath.Join(dir, "qemu.log"),
		SettleDelay: defaultSettleDelay,
		Placer:      placer,
		History:     history.NewStore(filepath.Join(dir, "launches")),
		Notifier:    notifier,
	}
}

// Launch spawns the plan's process detached into its own process group with
// stdout and stderr appended to the qemu log. It returns once the spawn is
// confirmed; the child is never waited on, and the caller may exit while the
// VM keeps running.
func (s *Supervisor) Launch(plan qemu.Plan) (*Handle, error) {
	if err := os.MkdirAll(filepath.Dir(s.LogPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logFile, err := os.OpenFile(s.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open qemu log: %w", err)
	}
	defer logFile.Close()

	cmd := exec.Command(plan.Executable, plan.Args...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	// Detach from our process group so the VM outlives the launcher.
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}

	if err := cmd.Start(); err != nil {
		s.Notifier.LaunchFailed(err)
		return nil, fmt.Errorf("failed to start qemu: %w", err)
	}

	handle := &Handle{PID: cmd.Process.Pid}

	// Record keeping is best-effort; the spawn already succeeded.
	record := history.NewLaunch(handle.PID, plan.Executable, plan.Args)
	if err := s.History.Save(record); err != nil {
		s.debugf("failed to save launch record: %v", err)
	} else {
		handle.RecordID = record.ID
		if err := s.History.Prune(keepLaunchRecords); err != nil {
			s.debugf("failed to prune launch records: %v", err)
		}
	}

	s.Notifier.Launched(handle.PID)
	return handle, nil
}

// PlaceWindow waits for the child to settle, then makes one attempt to move
// its window onto the secondary display. Placement is best-effort: every
// error is logged and suppressed, and there is no retry.
func (s *Supervisor) PlaceWindow(pid int) {
	time.Sleep(s.SettleDelay)

	layout, err := s.Placer.DetectLayout()
	if err != nil {
		s.debugf("window placement skipped: %v", err)
		return
	}
	if !layout.HasSecondary() {
		s.debugf("single display, leaving window in place")
		return
	}

	if err := s.Placer.Place(pid, layout); err != nil {
		s.debugf("window placement failed: %v", err)
		return
	}
	s.debugf("window moved to display %d frame %+v", layout.TargetIndex+1, layout.Frame)
}

func (s *Supervisor) debugf(format string, args ...interface{}) {
	if s.Debugf != nil {
		s.Debugf(format, args...)
	}
}
