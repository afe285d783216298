package topology

import (
	"strconv"
	"strings"

	tderrors "github.com/matzehuels/topodraw/pkg/errors"
)

// LiftLabels moves the layout labels of n into its typed fields. Labels
// that do not parse stay in the map and produce a warning.
func LiftLabels(n *Node) []tderrors.Warning {
	if n.Labels == nil {
		return nil
	}
	var warnings []tderrors.Warning
	if v, ok := n.Labels[LabelLevel]; ok {
		level, err := strconv.Atoi(strings.TrimSpace(v))
		switch {
		case err != nil:
			warnings = append(warnings, tderrors.Warnf(tderrors.WarnInvalidLevel, n.Name,
				"%s %q is not an integer, level ignored", LabelLevel, v))
		case level < 1:
			warnings = append(warnings, tderrors.Warnf(tderrors.WarnInvalidLevel, n.Name,
				"%s %d is below 1, level ignored", LabelLevel, level))
		default:
			n.Level = level
			delete(n.Labels, LabelLevel)
		}
	}
	if v, ok := n.Labels[LabelIcon]; ok {
		n.Icon = v
		delete(n.Labels, LabelIcon)
	}

	xs, okX := n.Labels[LabelPosX]
	ys, okY := n.Labels[LabelPosY]
	switch {
	case okX && okY:
		x, errX := strconv.ParseFloat(strings.TrimSpace(xs), 64)
		y, errY := strconv.ParseFloat(strings.TrimSpace(ys), 64)
		if errX != nil || errY != nil {
			warnings = append(warnings, tderrors.Warnf(tderrors.WarnInvalidLevel, n.Name,
				"fixed position (%q, %q) is not numeric, position ignored", xs, ys))
			break
		}
		n.Pos = &Point{X: x, Y: y}
		delete(n.Labels, LabelPosX)
		delete(n.Labels, LabelPosY)
	case okX != okY:
		warnings = append(warnings, tderrors.Warnf(tderrors.WarnInvalidLevel, n.Name,
			"fixed position needs both %s and %s, position ignored", LabelPosX, LabelPosY))
	}
	return warnings
}

// IsLayoutLabel reports whether key is one of the labels lifted by
// [LiftLabels].
func IsLayoutLabel(key string) bool {
	switch key {
	case LabelLevel, LabelIcon, LabelPosX, LabelPosY:
		return true
	}
	return false
}
