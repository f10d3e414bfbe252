package transport

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// HTTP serves http:// and https:// URIs with plain GET requests.
//
// Exists keeps the response of its probe around so an immediately following
// OpenRead of the same URI reuses it instead of fetching twice. That cache
// holds a single open stream and is not safe for concurrent use.
type HTTP struct {
	Client *http.Client

	lastURI  string
	lastBody io.ReadCloser
}

// NewHTTP returns an HTTP transport using the default client.
func NewHTTP() *HTTP {
	return &HTTP{Client: http.DefaultClient}
}

func (t *HTTP) check(uri string) error {
	u, err := url.Parse(uri)
	if err != nil {
		return fmt.Errorf("transport: parsing %q: %w", uri, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme must be http or https, got %q", ErrURIMismatch, u.Scheme)
	}
	return nil
}

func (t *HTTP) dropCached() {
	if t.lastBody != nil {
		t.lastBody.Close()
		t.lastBody = nil
		t.lastURI = ""
	}
}

// Exists probes uri with a GET and reports whether it resolved. A successful
// probe's body is cached for the next OpenRead of the same URI.
func (t *HTTP) Exists(uri string) (bool, error) {
	if err := t.check(uri); err != nil {
		return false, err
	}
	t.dropCached()

	resp, err := t.Client.Get(uri)
	if err != nil {
		return false, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return false, nil
	}

	t.lastURI = uri
	t.lastBody = resp.Body
	return true, nil
}

// OpenRead opens uri with a GET, reusing the stream a preceding Exists call
// left behind when the URI matches.
func (t *HTTP) OpenRead(uri string) (io.ReadCloser, error) {
	if err := t.check(uri); err != nil {
		return nil, err
	}
	if t.lastBody != nil && t.lastURI == uri {
		body := t.lastBody
		t.lastBody = nil
		t.lastURI = ""
		return body, nil
	}
	t.dropCached()

	resp, err := t.Client.Get(uri)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", ErrNotFound, uri)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("transport: GET %s: %s", uri, resp.Status)
	}
	return resp.Body, nil
}

// OpenWrite is unsupported over plain HTTP.
func (t *HTTP) OpenWrite(uri string) (io.WriteCloser, error) {
	t.dropCached()
	return nil, fmt.Errorf("%w: HTTP has no generic write support", ErrUnsupported)
}

// ListDirectory is unsupported over plain HTTP.
func (t *HTTP) ListDirectory(uri string) (*Listing, error) {
	t.dropCached()
	return nil, fmt.Errorf("%w: HTTP has no generic listing support", ErrUnsupported)
}
