//go:build darwin

package window

import (
	"fmt"
	"os/exec"
	"strings"
)

// detectScript enumerates displays via AppKit and emits the count plus the
// secondary display's visible frame. Piped via stdin (not -e) to avoid
// osascript parse issues with multi-line scripts.
const detectScript = `use framework "AppKit"
use framework "Foundation"
set screenList to current application's NSScreen's screens()
set n to (screenList's |count|()) as integer
if n < 2 then
	return (n as text)
end if
set f to (screenList's objectAtIndex:1)'s visibleFrame()
return (n as text) & "|" & ((current application's NSStringFromRect(f)) as text)
`

// placeScript moves and resizes the first window of the process with the
// given unix id. Requires the caller to hold Accessibility permission.
const placeScript = `tell application "System Events"
	set proc to first process whose unix id is %d
	tell proc
		set win to first window
		set position of win to {%d, %d}
		set size of win to {%d, %d}
	end tell
end tell
`

// OSAScriptPlacer drives display detection and window movement through
// osascript, the same mechanism the rest of the macOS automation uses.
type OSAScriptPlacer struct{}

// NewPlacer returns the platform placer.
func NewPlacer() Placer {
	return &OSAScriptPlacer{}
}

func (p *OSAScriptPlacer) DetectLayout() (Layout, error) {
	cmd := exec.Command("osascript")
	cmd.Stdin = strings.NewReader(detectScript)
	output, err := cmd.Output()
	if err != nil {
		return Layout{}, fmt.Errorf("failed to detect display layout: %w", err)
	}
	return parseLayout(string(output))
}

func (p *OSAScriptPlacer) Place(pid int, layout Layout) error {
	if !layout.HasSecondary() {
		return nil
	}

	script := fmt.Sprintf(placeScript, pid,
		layout.Frame.X, layout.Frame.Y,
		layout.Frame.Width, layout.Frame.Height)

	cmd := exec.Command("osascript")
	cmd.Stdin = strings.NewReader(script)
	if output, err := cmd.CombinedOutput(); err != nil {
		msg := strings.TrimSpace(string(output))
		if msg == "" {
			return fmt.Errorf("failed to place window for pid %d: %w", pid, err)
		}
		return fmt.Errorf("failed to place window for pid %d: %s", pid, msg)
	}
	return nil
}
