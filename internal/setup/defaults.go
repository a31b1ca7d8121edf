package setup

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/macforge/qlaunch/internal/config"
)

// HostArch maps the Go runtime architecture onto the QEMU architecture
// names the launcher supports.
func HostArch() string {
	if runtime.GOARCH == "arm64" {
		return "aarch64"
	}
	return "x86_64"
}

// SmartDefaults builds a starting configuration for arch by probing the
// host: the qemu binary and edk2 firmware under the Homebrew prefix, with a
// PATH lookup as the fallback for the binary. Only paths that actually exist
// are suggested; anything undiscovered stays empty for the form to fill in.
func SmartDefaults(arch string) *config.Config {
	cfg := config.Default()
	if arch == "" {
		arch = HostArch()
	}
	cfg.Arch = arch

	exe := "qemu-system-" + arch
	firmware := "edk2-" + arch + "-code.fd"

	if prefix := brewPrefix(); prefix != "" {
		if p := filepath.Join(prefix, "bin", exe); isFile(p) {
			cfg.QEMUPath = p
		}
		if p := filepath.Join(prefix, "share", "qemu", firmware); isFile(p) {
			cfg.FirmwarePath = p
		}
	}
	if cfg.QEMUPath == "" {
		if p, err := exec.LookPath(exe); err == nil {
			cfg.QEMUPath = p
		}
	}
	return cfg
}

func brewPrefix() string {
	out, err := exec.Command("brew", "--prefix").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
