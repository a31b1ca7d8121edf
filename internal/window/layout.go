package window

import (
	"fmt"
	"strconv"
	"strings"
)

// Rect is a display frame in global screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Layout describes the displays attached at placement time. It is computed
// once per launch, used for a single placement attempt, then discarded.
type Layout struct {
	DisplayCount int
	TargetIndex  int
	Frame        Rect
}

// HasSecondary reports whether a secondary display is available to place
// the window on.
func (l Layout) HasSecondary() bool {
	return l.DisplayCount > 1
}

// Placer detects the display layout and relocates a process's top-level
// window. Implementations are best-effort: the caller logs and suppresses
// every error.
type Placer interface {
	DetectLayout() (Layout, error)
	Place(pid int, layout Layout) error
}

// NoopPlacer reports a single display and never moves windows. It backs
// non-darwin builds and tests.
type NoopPlacer struct{}

func (NoopPlacer) DetectLayout() (Layout, error) {
	return Layout{DisplayCount: 1}, nil
}

func (NoopPlacer) Place(int, Layout) error {
	return nil
}

// parseLayout parses the detect script output: "<count>" alone for a single
// display, or "<count>|{{x, y}, {w, h}}" with the secondary display's
// visible frame.
func parseLayout(s string) (Layout, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Layout{}, fmt.Errorf("empty display layout output")
	}

	parts := strings.SplitN(s, "|", 2)
	count, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Layout{}, fmt.Errorf("bad display count %q: %w", parts[0], err)
	}

	layout := Layout{DisplayCount: count}
	if count < 2 {
		return layout, nil
	}
	if len(parts) < 2 {
		return Layout{}, fmt.Errorf("missing frame for %d displays", count)
	}

	frame, err := parseRect(parts[1])
	if err != nil {
		return Layout{}, err
	}
	layout.TargetIndex = 1
	layout.Frame = frame
	return layout, nil
}

// parseRect parses NSStringFromRect output, "{{x, y}, {w, h}}". Coordinates
// may carry fractional parts on scaled displays; they are truncated.
func parseRect(s string) (Rect, error) {
	clean := strings.NewReplacer("{", "", "}", "", " ", "").Replace(strings.TrimSpace(s))
	fields := strings.Split(clean, ",")
	if len(fields) != 4 {
		return Rect{}, fmt.Errorf("bad display frame %q", s)
	}

	var vals [4]int
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Rect{}, fmt.Errorf("bad display frame %q: %w", s, err)
		}
		vals[i] = int(v)
	}
	return Rect{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}, nil
}
