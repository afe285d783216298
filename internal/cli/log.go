// Package cli implements the topodraw command-line interface.
//
// # Commands
//
//   - draw: containerlab topology YAML to a draw.io diagram
//   - extract: draw.io diagram to containerlab topology YAML
//   - preview: Graphviz SVG/PNG of the tiers, for a quick look without draw.io
//   - themes: list the bundled styles
//   - serve: run the HTTP API
//   - cache: inspect and clear the conversion cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Conversion
// warnings are logged at warn level and summarized on stderr; stdout
// only carries converted documents written to "-".
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	tderrors "github.com/matzehuels/topodraw/pkg/errors"
)

// newLogger returns a logger stamping each line with "15:04:05.00".
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs completion of an operation with its elapsed time.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time rounded to the millisecond,
// e.g. "Placed 6 nodes in 3 tiers (automatic) (12ms)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// logWarnings reports each conversion warning at warn level.
func logWarnings(l *log.Logger, ws []tderrors.Warning) {
	for _, w := range ws {
		if w.Subject != "" {
			l.Warn(w.Message, "code", w.Code, "subject", w.Subject)
			continue
		}
		l.Warn(w.Message, "code", w.Code)
	}
}
