package probe

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

const (
	// DefaultExecTimeout bounds the qemu version check.
	DefaultExecTimeout = 3 * time.Second
	// DefaultAudioTimeout bounds the audio backend enumeration.
	DefaultAudioTimeout = 5 * time.Second
)

// versionRe parses "QEMU emulator version 10.0.2 (...)" -> "10.0.2".
var versionRe = regexp.MustCompile(`version (\d+\.\d+(?:\.\d+)?)`)

// Result captures what the host is capable of right now. It is derived fresh
// for every validation pass and every launch, never persisted.
type Result struct {
	ExecutableValid   bool
	Version           string
	ProbeError        string
	SDLAudioAvailable bool
}

// Prober runs bounded subprocess probes against a QEMU executable. Timeouts
// are fields so tests can shrink them.
type Prober struct {
	ExecTimeout  time.Duration
	AudioTimeout time.Duration
}

// New returns a prober with the default timeouts.
func New() *Prober {
	return &Prober{
		ExecTimeout:  DefaultExecTimeout,
		AudioTimeout: DefaultAudioTimeout,
	}
}

// Probe runs both capability probes against path. When the executable probe
// fails the audio probe is skipped and SDLAudioAvailable stays false.
func (p *Prober) Probe(path string) Result {
	var r Result
	version, err := p.ProbeExecutable(path)
	if err != nil {
		r.ProbeError = err.Error()
		return r
	}
	r.ExecutableValid = true
	r.Version = version
	r.SDLAudioAvailable = p.ProbeAudioBackend(path)
	return r
}

// ProbeExecutable verifies that path points at a runnable QEMU binary by
// invoking it with --version under a deadline. On success it returns the
// parsed version string (empty when the banner is unrecognized).
func (p *Prober) ProbeExecutable(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("qemu executable not found at %s", path)
	}
	if info.IsDir() {
		return "", fmt.Errorf("qemu executable path %s is a directory", path)
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.ExecTimeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, "--version")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("qemu version check timed out after %s", p.ExecTimeout)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("qemu version check failed: %s", msg)
		}
		return "", fmt.Errorf("qemu version check failed: %w", err)
	}

	if matches := versionRe.FindStringSubmatch(stdout.String()); len(matches) >= 2 {
		return matches[1], nil
	}
	return "", nil
}

// ProbeAudioBackend reports whether the binary lists the sdl audio backend.
// Every failure degrades to false; audio backend selection is never fatal.
func (p *Prober) ProbeAudioBackend(path string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), p.AudioTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, path, "-audiodev", "help")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return false
	}

	// The help output lists one backend name per line.
	for _, line := range strings.Split(string(output), "\n") {
		if strings.EqualFold(strings.TrimSpace(line), "sdl") {
			return true
		}
	}
	return false
}
