package validate

import "strings"

// MaxURLLength is the longest original_url accepted.
const MaxURLLength = 2048

// ShortenRequest is the body of POST /.
type ShortenRequest struct {
	OriginalURL string `json:"original_url" form:"original_url" validate:"required,http_url,url_host,max=2048"`
}

// Normalize trims surrounding whitespace from the submitted values.
func (r *ShortenRequest) Normalize() {
	r.OriginalURL = strings.TrimSpace(r.OriginalURL)
}

// ShortenMessages are the messages shown next to the URL input.
var ShortenMessages = Messages{
	"original_url.required": "Please enter a URL to shorten.",
	"original_url.http_url": "Please enter a valid URL (including http:// or https://).",
	"original_url.url_host": "Please enter a valid URL (including http:// or https://).",
	"original_url.max":      "The URL is too long. Please enter a URL with less than 2048 characters.",
}
