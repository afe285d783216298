package grafana

import (
	"fmt"
	"regexp"
	"strings"

	tderrors "github.com/matzehuels/topodraw/pkg/errors"
)

// InterfaceMapper rewrites interface names for telemetry queries. A
// pattern such as "e1-{x}:ethernet1/{x}" maps e1-7 to ethernet1/7; every
// {x} stands for a run of digits.
//
// The zero value and a nil mapper leave names unchanged.
type InterfaceMapper struct {
	re          *regexp.Regexp
	replacement string
}

// NewInterfaceMapper compiles a "from:to" pattern. An empty pattern
// returns nil.
func NewInterfaceMapper(pattern string) (*InterfaceMapper, error) {
	if pattern == "" {
		return nil, nil
	}
	from, to, ok := strings.Cut(pattern, ":")
	if !ok || from == "" {
		return nil, tderrors.New(tderrors.ErrCodeInvalidInput, "interface format %q: want from:to, e.g. e1-{x}:ethernet1/{x}", pattern)
	}

	var expr strings.Builder
	expr.WriteString("^")
	for i, part := range strings.Split(from, "{x}") {
		if i > 0 {
			expr.WriteString(`(\d+)`)
		}
		expr.WriteString(regexp.QuoteMeta(part))
	}
	expr.WriteString("$")
	re, err := regexp.Compile(expr.String())
	if err != nil {
		return nil, tderrors.Wrap(tderrors.ErrCodeInvalidInput, err, "interface format %q", pattern)
	}

	groups := re.NumSubexp()
	var repl strings.Builder
	for i, part := range strings.Split(to, "{x}") {
		if i > 0 {
			if i > groups {
				return nil, tderrors.New(tderrors.ErrCodeInvalidInput,
					"interface format %q: replacement uses more {x} than the pattern captures", pattern)
			}
			fmt.Fprintf(&repl, "${%d}", i)
		}
		repl.WriteString(strings.ReplaceAll(part, "$", "$$"))
	}
	return &InterfaceMapper{re: re, replacement: repl.String()}, nil
}

// Map returns the rewritten name, or name itself when it does not match.
func (m *InterfaceMapper) Map(name string) string {
	if m == nil || m.re == nil || !m.re.MatchString(name) {
		return name
	}
	return m.re.ReplaceAllString(name, m.replacement)
}
