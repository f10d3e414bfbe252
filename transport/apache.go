package transport

import (
	"bufio"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/net/html"
)

// apacheDoctype is the first line of an Apache auto-index page. Anything
// else is not an index we know how to read.
const apacheDoctype = `<!DOCTYPE HTML PUBLIC "-//W3C//DTD HTML 3.2 Final//EN">`

// Apache extends the plain HTTP transport with directory listings backed by
// Apache's mod_autoindex pages.
type Apache struct {
	HTTP
}

// NewApache returns an Apache transport using the default client.
func NewApache() *Apache {
	return &Apache{HTTP: HTTP{Client: http.DefaultClient}}
}

// ListDirectory fetches the auto-index page for uri (with fancy indexing
// switched off via ?F=0) and parses its entry list. The first entry, the
// link back to the parent directory, is skipped; entries with a trailing
// slash are directories.
func (t *Apache) ListDirectory(uri string) (*Listing, error) {
	if err := t.check(uri); err != nil {
		return nil, err
	}
	t.dropCached()

	if !strings.HasSuffix(uri, "/") {
		uri += "/"
	}

	resp, err := t.Client.Get(uri + "?F=0")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, uri)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transport: GET %s: %s", uri, resp.Status)
	}

	body := bufio.NewReader(resp.Body)
	first, err := body.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not an Apache index", ErrNotFound, uri)
	}
	if strings.TrimRight(first, "\r\n") != apacheDoctype {
		return nil, fmt.Errorf("%w: %s is not an Apache index", ErrNotFound, uri)
	}

	doc, err := html.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("transport: parsing index of %s: %w", uri, err)
	}

	var hrefs []string
	collectIndexEntries(doc, &hrefs)

	listing := &Listing{}
	for i, href := range hrefs {
		// The first entry always points back at the parent directory.
		if i == 0 {
			continue
		}
		if strings.HasSuffix(href, "/") {
			listing.Directories = append(listing.Directories, strings.TrimSuffix(href, "/"))
		} else {
			listing.Files = append(listing.Files, href)
		}
	}
	return listing, nil
}

// collectIndexEntries gathers the href of every ul/li/a node, the shape
// mod_autoindex renders entries in.
func collectIndexEntries(n *html.Node, hrefs *[]string) {
	if n.Type == html.ElementNode && n.Data == "a" &&
		n.Parent != nil && n.Parent.Data == "li" &&
		n.Parent.Parent != nil && n.Parent.Parent.Data == "ul" {
		for _, attr := range n.Attr {
			if attr.Key == "href" {
				*hrefs = append(*hrefs, attr.Val)
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectIndexEntries(c, hrefs)
	}
}
