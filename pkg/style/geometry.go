package style

import (
	"slices"
	"strconv"
	"strings"

	tderrors "github.com/matzehuels/topodraw/pkg/errors"
)

// Axis is the direction tiers are stacked in.
type Axis int

const (
	// Vertical stacks tiers top to bottom.
	Vertical Axis = iota
	// Horizontal stacks tiers left to right.
	Horizontal
)

// ParseAxis maps "vertical" and "horizontal" to an Axis.
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(s) {
	case "", "vertical", "v":
		return Vertical, nil
	case "horizontal", "h":
		return Horizontal, nil
	}
	return 0, tderrors.New(tderrors.ErrCodeInvalidInput, "unknown layout %q (want vertical or horizontal)", s)
}

func (a Axis) String() string {
	if a == Horizontal {
		return "horizontal"
	}
	return "vertical"
}

// StepX is the distance between neighboring node origins along x.
func (c *Config) StepX() float64 { return c.NodeWidth + c.PaddingX }

// StepY is the distance between neighboring node origins along y.
func (c *Config) StepY() float64 { return c.NodeHeight + c.PaddingY }

// Position returns the top-left corner of the node at tier index
// levelIndex and slot within the tier. Slots may be fractional when a
// tier is centered.
func (c *Config) Position(levelIndex int, slot float64, axis Axis) (x, y float64) {
	primary := float64(levelIndex)
	if axis == Horizontal {
		return c.MarginX + primary*c.StepX(), c.MarginY + slot*c.StepY()
	}
	return c.MarginX + slot*c.StepX(), c.MarginY + primary*c.StepY()
}

// CanvasSize returns the page size for tiers holding the given number of
// slots each. Fixed page dimensions from the style take precedence.
func (c *Config) CanvasSize(slots []int, axis Axis) (width, height float64) {
	tiers := len(slots)
	widest := 0
	if tiers > 0 {
		widest = slices.Max(slots)
	}

	span := func(n int, size, pad float64) float64 {
		if n == 0 {
			return 0
		}
		return float64(n)*size + float64(n-1)*pad
	}
	cols, rows := widest, tiers
	if axis == Horizontal {
		cols, rows = tiers, widest
	}
	width = 2*c.MarginX + span(cols, c.NodeWidth, c.PaddingX)
	height = 2*c.MarginY + span(rows, c.NodeHeight, c.PaddingY)

	if v, err := strconv.ParseFloat(c.PageWidth, 64); err == nil {
		width = v
	}
	if v, err := strconv.ParseFloat(c.PageHeight, 64); err == nil {
		height = v
	}
	return width, height
}
