package types

import (
	"fmt"
	"net/http"
	"net/url"
)

// Request tags used in logs and metrics.
const (
	TagListing   = "listing"
	TagDetail    = "detail"
	TagDirectory = "directory"
	TagProgram   = "program"
)

// Request is a single outbound GET against the catalog.
type Request struct {
	// URL is the target URL to fetch.
	URL *url.URL

	// Method is always GET for catalog pages.
	Method string

	// Tag categorizes this request (listing, detail, directory, program).
	Tag string
}

// NewRequest creates a GET Request for rawURL.
func NewRequest(rawURL string) (*Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidURL, rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w %q: scheme must be http or https", ErrInvalidURL, rawURL)
	}

	return &Request{
		URL:    u,
		Method: http.MethodGet,
	}, nil
}

// URLString returns the string representation of the request URL.
func (r *Request) URLString() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.String()
}
