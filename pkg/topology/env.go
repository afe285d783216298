package topology

import (
	"os"
	"regexp"
)

// envPattern matches ${VAR}, ${VAR:=default} and ${VAR:default}.
var envPattern = regexp.MustCompile(`\$\{([^:}]+):?=?([^}]*)\}`)

// LookupFunc resolves an environment variable.
type LookupFunc func(key string) (string, bool)

// ExpandEnv replaces ${VAR} placeholders with values from lookup, falling
// back to the inline default (empty when none is given). A nil lookup uses
// the process environment.
func ExpandEnv(content string, lookup LookupFunc) string {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return envPattern.ReplaceAllStringFunc(content, func(match string) string {
		m := envPattern.FindStringSubmatch(match)
		if v, ok := lookup(m[1]); ok {
			return v
		}
		return m[2]
	})
}
