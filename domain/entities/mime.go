package entities

// MIME types produced by the preview plugins.
const (
	MIMEHTML        = "text/html"
	MIMEJPEG        = "image/jpeg"
	MIMEJSON        = "application/json"
	MIMEOctetStream = "application/octet-stream"
)
