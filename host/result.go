package host

import "github.com/neon-files/preview-sdk/domain/entities"

// Export names preview plugins provide.
const (
	ExportInit            = "init"
	ExportPreviewFile     = "preview_file"
	ExportHighlightCode   = "highlight_code"
	ExportExtractMetadata = "extract_metadata"
)

// Result is what a plugin delivered through host_return_result.
type Result struct {
	MIMEType string
	Data     []byte
	Status   int32
}

// IsEmpty reports whether the plugin delivered no payload, which is how
// empty inputs and render failures both arrive at the host.
func (r *Result) IsEmpty() bool {
	return r == nil || len(r.Data) == 0
}

// Failed reports whether the result looks like a render failure: no payload
// and a generic MIME type. Plugins do not report failures explicitly, so an
// empty JSON payload and an empty octet stream are both treated as failed.
func (r *Result) Failed() bool {
	if !r.IsEmpty() {
		return false
	}
	if r == nil {
		return true
	}
	return r.MIMEType == entities.MIMEOctetStream || r.MIMEType == entities.MIMEJSON || r.MIMEType == ""
}
