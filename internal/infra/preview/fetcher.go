// Package preview extracts link previews (title, description, image) from
// remote pages. Failures degrade to an empty preview; the caller treats the
// link as unavailable rather than surfacing an error.
package preview

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/html"

	"circles-platform/internal/infra/metrics"
)

// Preview is the extracted metadata for a link. The zero value means "no
// preview available".
type Preview struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	URL         string `json:"url,omitempty"`
	Domain      string `json:"domain,omitempty"`
}

func (p Preview) IsZero() bool { return p == Preview{} }

type Fetcher struct {
	client   *http.Client
	cache    *Cache
	timeout  time.Duration
	maxBytes int64
	log      *zerolog.Logger
}

func NewFetcher(cache *Cache, timeout time.Duration, maxBytes int64, logger *zerolog.Logger) *Fetcher {
	l := logger.With().Str("component", "PreviewFetcher").Logger()
	return &Fetcher{
		client:   &http.Client{Timeout: timeout},
		cache:    cache,
		timeout:  timeout,
		maxBytes: maxBytes,
		log:      &l,
	}
}

// Fetch returns the preview for a URL, consulting the cache first. The
// outbound request is capped by the fetch timeout and the response body by
// maxBytes; both caps turn the result into an empty preview, never an error.
// Cancelling ctx abandons the fetch without caching anything.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Preview, error) {
	target, err := url.Parse(rawURL)
	if err != nil || (target.Scheme != "http" && target.Scheme != "https") || target.Host == "" {
		return Preview{}, fmt.Errorf("invalid preview url %q", rawURL)
	}

	if p, ok := f.cache.Get(rawURL); ok {
		metrics.IncPreviewCache("hit")
		return p, nil
	}
	metrics.IncPreviewCache("miss")

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return Preview{}, err
	}
	req.Header.Set("User-Agent", "circles-link-preview/1.0")
	req.Header.Set("Accept", "text/html")

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			// Superseded or timed out; nothing is cached.
			metrics.IncPreviewFetchFailure()
			return Preview{}, nil
		}
		metrics.IncPreviewFetchFailure()
		f.log.Debug().Err(err).Str("url", rawURL).Msg("preview fetch failed")
		return Preview{}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.IncPreviewFetchFailure()
		return Preview{}, nil
	}

	p := extract(io.LimitReader(resp.Body, f.maxBytes), target)
	if ctx.Err() != nil {
		// The consumer went away while we were reading; discard.
		return Preview{}, nil
	}
	f.cache.Add(rawURL, p)
	return p, nil
}

// extract walks the HTML head collecting og: tags with <title> and
// name=description as fallbacks.
func extract(r io.Reader, target *url.URL) Preview {
	p := Preview{URL: target.String(), Domain: target.Hostname()}

	doc, err := html.Parse(r)
	if err != nil {
		// A truncated body still parses partially; a hard failure means no
		// usable metadata at all.
		return p
	}

	var title, metaTitle, metaDesc, ogDesc string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if n.FirstChild != nil && title == "" {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "meta":
				var name, property, content string
				for _, a := range n.Attr {
					switch a.Key {
					case "name":
						name = a.Val
					case "property":
						property = a.Val
					case "content":
						content = a.Val
					}
				}
				switch property {
				case "og:title":
					metaTitle = content
				case "og:description":
					ogDesc = content
				case "og:image":
					p.Image = resolveRef(target, content)
				case "og:url":
					if content != "" {
						p.URL = content
					}
				}
				if name == "description" && metaDesc == "" {
					metaDesc = content
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	p.Title = firstNonEmpty(metaTitle, title)
	p.Description = firstNonEmpty(ogDesc, metaDesc)
	return p
}

func resolveRef(base *url.URL, ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return base.ResolveReference(u).String()
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
