package errors

import (
	"strings"
	"unicode"
)

// ValidateNodeName validates a topology node name.
//
// Node names are written into endpoint strings of the form "node:iface",
// so the rules are:
//   - No empty names
//   - No control characters
//   - No colon
//   - Maximum length of 256 characters
func ValidateNodeName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidName, "node name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidName, "node name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "node name %q contains control characters", name)
		}
	}

	if strings.Contains(name, ":") {
		return New(ErrCodeInvalidName, "node name %q cannot contain ':'", name)
	}

	return nil
}

// ValidateInterfaceName validates an endpoint interface name.
// Empty names are allowed; they stand for an interface label that could
// not be recovered from a diagram.
func ValidateInterfaceName(name string) error {
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "interface name %q contains control characters", name)
		}
	}
	return nil
}

// ValidateOutputPath validates a path an artifact will be written to.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
//   - Must not end with a path separator
func ValidateOutputPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasSuffix(path, "/") || strings.HasSuffix(path, "\\") {
		return New(ErrCodeInvalidPath, "path %q names a directory", path)
	}

	return nil
}
