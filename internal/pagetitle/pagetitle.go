// Package pagetitle discovers the title of a web page so that a URL given on
// the command line can stand in for the browser's active tab.
package pagetitle

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/html"

	"tabnotes/internal/service"
)

const (
	// DefaultTimeout bounds a single lookup.
	DefaultTimeout = 5 * time.Second

	// MaxBodyBytes caps how much of a page is read while looking for the title.
	MaxBodyBytes = 1 << 20

	userAgent = "tabnotes/1 (+title lookup)"
)

// Fetcher looks up page titles over HTTP.
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
	log     zerolog.Logger
}

// New creates a Fetcher. A nil client uses http.DefaultClient; a zero
// timeout uses DefaultTimeout.
func New(client *http.Client, timeout time.Duration, log zerolog.Logger) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{client: client, timeout: timeout, log: log}
}

// Title fetches rawURL and returns its document title.
func (f *Fetcher) Title(ctx context.Context, rawURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", wrapError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status: %s", resp.Status)
	}

	return ParseTitle(io.LimitReader(resp.Body, MaxBodyBytes))
}

// Source returns a service.TabSource describing rawURL as the active tab.
// Lookup failures are logged and produce an empty title.
func (f *Fetcher) Source(rawURL string) service.TabSource {
	return service.TabSourceFunc(func(ctx context.Context) (service.TabInfo, error) {
		title, err := f.Title(ctx, rawURL)
		if err != nil {
			f.log.Debug().Err(err).Str("url", rawURL).Msg("title lookup failed")
			title = ""
		}
		return service.TabInfo{URL: rawURL, Title: title}, nil
	})
}

// StaticSource returns a TabSource that never touches the network.
func StaticSource(rawURL, title string) service.TabSource {
	return service.TabSourceFunc(func(ctx context.Context) (service.TabInfo, error) {
		return service.TabInfo{URL: rawURL, Title: title}, nil
	})
}

// ParseTitle returns the first <title> of an HTML document, falling back to
// the og:title meta property. Whitespace runs are collapsed.
func ParseTitle(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var title, ogTitle string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				title = collapse(textOf(n))
				return
			case "meta":
				if ogTitle == "" && attr(n, "property") == "og:title" {
					ogTitle = collapse(attr(n, "content"))
				}
			case "svg":
				// <title> inside inline SVG is not the page title.
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if title == "" {
		title = ogTitle
	}
	return title, nil
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// wrapError wraps transport errors with user-friendly messages.
func wrapError(err error) error {
	if strings.Contains(err.Error(), "context deadline exceeded") {
		return fmt.Errorf("request timed out")
	}
	return err
}
