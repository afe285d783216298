package errors

import "fmt"

// WarnCode identifies a class of recoverable anomaly.
type WarnCode string

// Warning codes reported alongside successful conversions.
const (
	WarnDuplicateLabel     WarnCode = "duplicate-label"
	WarnUnresolvedEndpoint WarnCode = "unresolved-endpoint"
	WarnMissingInterface   WarnCode = "missing-interface"
	WarnUnknownProperty    WarnCode = "unknown-property"
	WarnUnknownStyleRole   WarnCode = "unknown-style-role"
	WarnInvalidLevel       WarnCode = "invalid-level"
	WarnUnknownLinkNode    WarnCode = "unknown-link-node"
	WarnInvalidName        WarnCode = "invalid-name"
	WarnConfigDefault      WarnCode = "config-default"
	WarnDroppedLabel       WarnCode = "dropped-label"
)

// Warning describes a recoverable anomaly. Conversions keep going and
// return every warning they produced with the result.
type Warning struct {
	Code    WarnCode `json:"code"`
	Subject string   `json:"subject,omitempty"` // node name, shape id, edge id...
	Message string   `json:"message"`
}

// Warnf creates a Warning with a formatted message.
func Warnf(code WarnCode, subject, format string, args ...any) Warning {
	return Warning{Code: code, Subject: subject, Message: fmt.Sprintf(format, args...)}
}

func (w Warning) String() string {
	if w.Subject == "" {
		return fmt.Sprintf("%s: %s", w.Code, w.Message)
	}
	return fmt.Sprintf("%s [%s]: %s", w.Code, w.Subject, w.Message)
}

// CountWarnings groups warnings by code.
func CountWarnings(ws []Warning) map[WarnCode]int {
	counts := make(map[WarnCode]int, len(ws))
	for _, w := range ws {
		counts[w.Code]++
	}
	return counts
}
