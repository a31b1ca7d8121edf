//go:build !darwin

package window

// NewPlacer returns a no-op placer on platforms without window automation.
func NewPlacer() Placer {
	return NoopPlacer{}
}
