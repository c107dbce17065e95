package entities

import "strings"

// Error kinds carried in ErrorDetail.Type.
const (
	ErrorDecode   = "decode"
	ErrorEncode   = "encode"
	ErrorConfig   = "config"
	ErrorLimit    = "limit"
	ErrorPanic    = "panic"
	ErrorInternal = "internal"
)

// ErrorDetail describes why a renderer produced no payload. The guest logs
// it through host_log before returning the empty fallback result.
type ErrorDetail struct {
	Details map[string]any `json:"details,omitempty"`
	Message string         `json:"message"`
	Type    string         `json:"type"`
	Code    string         `json:"code"`
	// Stack is set for recovered panics only.
	Stack []byte `json:"stack,omitempty"`
}

// Error renders "type: message [code]". Internal errors omit the type.
func (e *ErrorDetail) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	if e.Type != "" && e.Type != ErrorInternal {
		b.WriteString(e.Type)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Code != "" {
		b.WriteString(" [")
		b.WriteString(e.Code)
		b.WriteString("]")
	}
	return b.String()
}

func NewErrorDetail(kind, message string) *ErrorDetail {
	return &ErrorDetail{Type: kind, Message: message}
}
