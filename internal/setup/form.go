package setup

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/mitchellh/go-homedir"

	"github.com/macforge/qlaunch/internal/config"
	"github.com/macforge/qlaunch/internal/launch"
)

// Form is the interactive setup editor. It is a pure presentation layer: it
// edits a candidate configuration and hands it to the orchestrator, which
// owns all validation. Reader and writer are injectable for tests.
type Form struct {
	in  *bufio.Reader
	out io.Writer

	// suggest derives host defaults when the architecture changes.
	// Overridable in tests to avoid probing the real host.
	suggest func(arch string) *config.Config
}

// NewForm returns a form reading selections from in and rendering to out.
func NewForm(in io.Reader, out io.Writer) *Form {
	return &Form{
		in:      bufio.NewReader(in),
		out:     out,
		suggest: SmartDefaults,
	}
}

// Run edits a copy of current until the user submits or quits. It returns
// the candidate and true on submit ('l'), or nil and false on cancel ('q' or
// end of input).
func (f *Form) Run(current *config.Config) (*config.Config, bool) {
	cfg := *current

	for {
		f.render(&cfg)

		input, err := f.readLine("Enter number to change, 'l' to save and launch, 'q' to quit: ")
		if err != nil {
			return nil, false
		}

		switch strings.ToLower(input) {
		case "q", "quit":
			return nil, false
		case "l", "launch":
			candidate := cfg
			return &candidate, true
		case "1":
			f.cycleArch(&cfg)
		case "2":
			cfg.QEMUPath = f.editPath("QEMU executable", cfg.QEMUPath)
		case "3":
			cfg.DiskPath = f.editPath("Disk image", cfg.DiskPath)
		case "4":
			cfg.FirmwarePath = f.editPath("Firmware image", cfg.FirmwarePath)
		case "5":
			cfg.SharedDirPath = f.editPath("Shared directory", cfg.SharedDirPath)
		case "6":
			cfg.MountTag = f.editString("Mount tag", cfg.MountTag)
		case "7":
			cfg.NetworkMode = f.cycle("Network mode", cfg.NetworkMode, config.ValidNetworkModes)
		case "8":
			cfg.BridgeName = f.editString("Bridge name", cfg.BridgeName)
		case "9":
			cfg.EnableWebcam = f.editBool("Webcam passthrough", cfg.EnableWebcam)
		case "10":
			cfg.EnableGuestAgent = f.editBool("Guest agent channel", cfg.EnableGuestAgent)
		case "11":
			cfg.EnableMicrophone = f.editBool("Microphone input", cfg.EnableMicrophone)
		default:
			fmt.Fprintln(f.out, "Invalid selection.")
		}
	}
}

// ShowFailures displays the orchestrator's validation failures so the user
// can re-edit the rejected candidate.
func (f *Form) ShowFailures(failures []launch.ValidationFailure) {
	fmt.Fprintln(f.out)
	fmt.Fprintln(f.out, "Configuration not accepted:")
	for _, failure := range failures {
		fmt.Fprintf(f.out, "  - %s\n", failure.Error())
	}
}

func (f *Form) render(cfg *config.Config) {
	fmt.Fprintln(f.out)
	fmt.Fprintln(f.out, "qlaunch setup")
	fmt.Fprintln(f.out, "=============")
	fmt.Fprintln(f.out)
	fmt.Fprintf(f.out, " 1. Architecture: %s\n", cfg.Arch)
	fmt.Fprintf(f.out, " 2. QEMU executable: %s\n", orUnset(cfg.QEMUPath))
	fmt.Fprintf(f.out, " 3. Disk image: %s\n", orUnset(cfg.DiskPath))
	fmt.Fprintf(f.out, " 4. Firmware image: %s\n", orUnset(cfg.FirmwarePath))
	fmt.Fprintf(f.out, " 5. Shared directory: %s\n", orUnset(cfg.SharedDirPath))
	fmt.Fprintf(f.out, " 6. Mount tag: %s\n", orUnset(cfg.MountTag))
	fmt.Fprintf(f.out, " 7. Network mode: %s\n", cfg.NetworkMode)
	fmt.Fprintf(f.out, " 8. Bridge name: %s\n", orUnset(cfg.BridgeName))
	fmt.Fprintf(f.out, " 9. Webcam passthrough: %s\n", formatBool(cfg.EnableWebcam))
	fmt.Fprintf(f.out, "10. Guest agent channel: %s\n", formatBool(cfg.EnableGuestAgent))
	fmt.Fprintf(f.out, "11. Microphone input: %s\n", formatBool(cfg.EnableMicrophone))
	fmt.Fprintln(f.out)
}

// cycleArch advances the architecture and refreshes the suggested qemu and
// firmware paths for it, matching how the reference setup re-derives paths
// when the user switches architectures.
func (f *Form) cycleArch(cfg *config.Config) {
	cfg.Arch = next(cfg.Arch, config.ValidArchs)
	suggested := f.suggest(cfg.Arch)
	if suggested.QEMUPath != "" {
		cfg.QEMUPath = suggested.QEMUPath
	}
	if suggested.FirmwarePath != "" {
		cfg.FirmwarePath = suggested.FirmwarePath
	}
	fmt.Fprintf(f.out, "Updated architecture to %s.\n", cfg.Arch)
}

// cycle advances an enum field to the next allowed value.
func (f *Form) cycle(name, current string, values []string) string {
	v := next(current, values)
	fmt.Fprintf(f.out, "Updated %s to %s.\n", name, v)
	return v
}

// editString prompts for a new value. Blank keeps the current value; a
// single "-" clears it.
func (f *Form) editString(name, current string) string {
	input, err := f.readLine(fmt.Sprintf("%s [%s]: ", name, orUnset(current)))
	if err != nil || input == "" {
		return current
	}
	if input == "-" {
		fmt.Fprintf(f.out, "Cleared %s.\n", name)
		return ""
	}
	fmt.Fprintf(f.out, "Updated %s to %s.\n", name, input)
	return input
}

// editPath is editString with ~ expansion.
func (f *Form) editPath(name, current string) string {
	value := f.editString(name, current)
	if value == "" {
		return value
	}
	expanded, err := homedir.Expand(value)
	if err != nil {
		return value
	}
	return expanded
}

// editBool prompts y/n. Blank keeps the current value.
func (f *Form) editBool(name string, current bool) bool {
	currentStr := "n"
	if current {
		currentStr = "y"
	}

	input, err := f.readLine(fmt.Sprintf("%s (y/n) [%s]: ", name, currentStr))
	if err != nil || input == "" {
		return current
	}

	input = strings.ToLower(input)
	value := input == "y" || input == "yes" || input == "true" || input == "1"
	fmt.Fprintf(f.out, "Updated %s to %s.\n", name, formatBool(value))
	return value
}

func (f *Form) readLine(prompt string) (string, error) {
	fmt.Fprint(f.out, prompt)
	input, err := f.in.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

func next(current string, values []string) string {
	for i, v := range values {
		if v == current {
			return values[(i+1)%len(values)]
		}
	}
	return values[0]
}

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

func formatBool(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}
