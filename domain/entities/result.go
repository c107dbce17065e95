package entities

// RenderStatus represents the outcome of a single render.
type RenderStatus string

const (
	// RenderStatusRendered indicates the renderer produced a payload.
	RenderStatusRendered RenderStatus = "rendered"

	// RenderStatusEmpty indicates there was nothing to render.
	RenderStatusEmpty RenderStatus = "empty"

	// RenderStatusFailed indicates the input could not be rendered.
	RenderStatusFailed RenderStatus = "failed"
)

// RenderResult is the outcome of a render. Renderers return it instead of an
// error; the plugin boundary flattens it to the (payload, mime) pair the host
// callback carries.
type RenderResult struct {
	// Error describes why the render failed. Nil unless Status is failed.
	Error *ErrorDetail `json:"error,omitempty"`

	// Status distinguishes a real payload from an empty or failed render.
	Status RenderStatus `json:"status"`

	// MIME is the payload type, or the fallback type for failed renders.
	MIME string `json:"mime"`

	// Payload holds the rendered bytes. Nil unless Status is rendered.
	Payload []byte `json:"payload,omitempty"`
}

// Rendered creates a successful RenderResult.
func Rendered(payload []byte, mime string) RenderResult {
	return RenderResult{
		Status:  RenderStatusRendered,
		MIME:    mime,
		Payload: payload,
	}
}

// Empty creates a RenderResult with no payload.
func Empty(mime string) RenderResult {
	return RenderResult{
		Status: RenderStatusEmpty,
		MIME:   mime,
	}
}

// Failed creates a failed RenderResult. fallbackMIME is what the host sees.
func Failed(err *ErrorDetail, fallbackMIME string) RenderResult {
	return RenderResult{
		Status: RenderStatusFailed,
		MIME:   fallbackMIME,
		Error:  err,
	}
}

// Flatten returns the payload and MIME type handed to the host. Empty and
// failed results both flatten to a nil payload.
func (r RenderResult) Flatten() ([]byte, string) {
	if r.Status != RenderStatusRendered {
		return nil, r.MIME
	}
	return r.Payload, r.MIME
}

// IsRendered returns true if the result carries a payload.
func (r RenderResult) IsRendered() bool {
	return r.Status == RenderStatusRendered
}

// IsEmpty returns true if there was nothing to render.
func (r RenderResult) IsEmpty() bool {
	return r.Status == RenderStatusEmpty
}

// IsFailed returns true if the render failed.
func (r RenderResult) IsFailed() bool {
	return r.Status == RenderStatusFailed
}
