package style

import (
	"fmt"
	"strings"
)

// Property is one segment of a draw.io style string. Flags such as
// "ellipse" or "edgeLabel" have no value.
type Property struct {
	Key      string
	Value    string
	HasValue bool
}

func (p Property) String() string {
	if !p.HasValue {
		return p.Key
	}
	return p.Key + "=" + p.Value
}

// ParseStyle splits a draw.io style string into properties, keeping order.
func ParseStyle(s string) []Property {
	var props []Property
	for _, seg := range strings.Split(s, ";") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		if k, v, ok := strings.Cut(seg, "="); ok {
			props = append(props, Property{Key: k, Value: v, HasValue: true})
		} else {
			props = append(props, Property{Key: seg})
		}
	}
	return props
}

// FormatStyle joins properties back into a style string with a trailing
// semicolon, the form draw.io writes.
func FormatStyle(props []Property) string {
	var b strings.Builder
	for _, p := range props {
		b.WriteString(p.String())
		b.WriteByte(';')
	}
	return b.String()
}

// MergeStyle overlays custom on base. Keys from custom replace keys of the
// same name in base and keep base's position; new keys are appended.
func MergeStyle(base, custom string) string {
	merged := ParseStyle(base)
	index := make(map[string]int, len(merged))
	for i, p := range merged {
		index[p.Key] = i
	}
	for _, p := range ParseStyle(custom) {
		if i, ok := index[p.Key]; ok {
			merged[i] = p
			continue
		}
		index[p.Key] = len(merged)
		merged = append(merged, p)
	}
	return FormatStyle(merged)
}

// StyleValue returns the value of key in a style string.
func StyleValue(s, key string) (string, bool) {
	for _, p := range ParseStyle(s) {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// HasFlag reports whether the style string contains key as a bare flag.
func HasFlag(s, key string) bool {
	for _, p := range ParseStyle(s) {
		if p.Key == key && !p.HasValue {
			return true
		}
	}
	return false
}

// ValidateStyle checks that every segment is either a bare flag or a
// key=value pair with a non-empty key without spaces.
func ValidateStyle(s string) error {
	for _, seg := range strings.Split(s, ";") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		k, _, _ := strings.Cut(seg, "=")
		if k == "" {
			return fmt.Errorf("style segment %q has an empty key", seg)
		}
		if strings.ContainsAny(k, " \t\n") {
			return fmt.Errorf("style key %q contains whitespace", k)
		}
	}
	return nil
}
