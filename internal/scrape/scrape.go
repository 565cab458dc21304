// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scrape fetches a URL and extracts clean article text, stripping
// navigation and other boilerplate. The pipeline treats it as an opaque
// collaborator: any failure is fatal to the run and the caller is advised
// to paste the article text instead.
package scrape

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/rocknruds/powerflow-agents/internal/httputil"
	"github.com/rocknruds/powerflow-agents/pkg/types"
)

// FetchError reports that a URL could not be turned into usable article
// text. The core never retries it.
type FetchError struct {
	URL    string
	Reason string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s: %s", e.URL, e.Reason)
}

func (e *FetchError) Unwrap() error { return e.Err }

const (
	defaultTimeout   = 15 * time.Second
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// Fragments shorter than this are captions or labels, not body text.
	minFragmentChars = 40

	// Anything shorter than this overall is likely a paywall or JS shell.
	minArticleChars = 200
)

// noiseTags typically contain boilerplate or navigation content.
var noiseTags = map[string]bool{
	"nav": true, "header": true, "footer": true, "aside": true,
	"script": true, "style": true, "noscript": true, "form": true,
	"button": true, "figure": true,
}

// textTags are the elements whose text makes up the article body.
var textTags = map[string]bool{
	"p": true, "h1": true, "h2": true, "h3": true, "h4": true,
	"li": true, "blockquote": true,
}

// containerClasses are, in order, the class names that commonly mark the
// article body when no semantic element is present.
var containerClasses = []string{"article-body", "post-content", "entry-content"}

// containerIDs are the id values checked between semantic elements and
// class-based containers.
var containerIDs = []string{"content", "main-content"}

// Fetcher downloads pages and extracts their article text.
type Fetcher struct {
	client *http.Client
	cfg    types.ScrapeConfig
}

// NewFetcher returns a Fetcher using the given scrape settings.
func NewFetcher(cfg types.ScrapeConfig) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	return &Fetcher{
		client: &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
	}
}

// Fetch downloads the URL and returns clean article text. 429 responses are
// retried with backoff; every other failure mode is a FetchError.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &FetchError{URL: url, Reason: "invalid URL", Err: err}
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := httputil.DoWithRetry(ctx, f.client, req, 0)
	if err != nil {
		return "", &FetchError{URL: url, Reason: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &FetchError{URL: url, Reason: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(contentType, "text/html") && !strings.Contains(contentType, "application/xhtml") {
		return "", &FetchError{
			URL:    url,
			Reason: fmt.Sprintf("non-HTML content (%s); may be a PDF, paywall, or JS-rendered page", contentType),
		}
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return "", &FetchError{URL: url, Reason: "parsing HTML", Err: err}
	}

	text := ExtractText(doc)
	if len(text) < minArticleChars {
		return "", &FetchError{
			URL:    url,
			Reason: fmt.Sprintf("extracted text too short (%d chars); the page may be paywalled, JS-rendered, or structured unusually", len(text)),
		}
	}
	return text, nil
}

// ExtractText pulls the article body out of a parsed HTML document:
// boilerplate elements are skipped, the most specific article container is
// located, and substantial text fragments are joined with blank lines.
func ExtractText(doc *html.Node) string {
	root := findContainer(doc)
	if root == nil {
		return ""
	}

	var fragments []string
	collectFragments(root, &fragments)
	return strings.Join(fragments, "\n\n")
}

// findContainer returns the most article-like element, preferring semantic
// containers over id- and class-based ones, falling back to <body>.
func findContainer(doc *html.Node) *html.Node {
	for _, tag := range []string{"article", "main"} {
		if n := findElement(doc, func(n *html.Node) bool { return n.Data == tag }); n != nil {
			return n
		}
	}
	for _, id := range containerIDs {
		if n := findElement(doc, func(n *html.Node) bool { return attr(n, "id") == id }); n != nil {
			return n
		}
	}
	for _, class := range containerClasses {
		if n := findElement(doc, func(n *html.Node) bool { return hasClass(n, class) }); n != nil {
			return n
		}
	}
	return findElement(doc, func(n *html.Node) bool { return n.Data == "body" })
}

// findElement walks the tree depth-first and returns the first element node
// matching the predicate, never descending into noise elements.
func findElement(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode {
		if noiseTags[n.Data] {
			return nil
		}
		if match(n) {
			return n
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, match); found != nil {
			return found
		}
	}
	return nil
}

// collectFragments appends the text of every substantial body element under
// n. A matched element's subtree is consumed whole, so nested body elements
// (a <p> inside a <blockquote>) are not double-counted.
func collectFragments(n *html.Node, fragments *[]string) {
	if n.Type == html.ElementNode {
		if noiseTags[n.Data] {
			return
		}
		if textTags[n.Data] {
			text := strings.Join(strings.Fields(textContent(n)), " ")
			if len(text) > minFragmentChars {
				*fragments = append(*fragments, text)
			}
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectFragments(c, fragments)
	}
}

// textContent concatenates the text nodes under n, skipping noise elements.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && noiseTags[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// attr returns the value of the named attribute, or "".
func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// hasClass reports whether the element's class attribute contains name.
func hasClass(n *html.Node, name string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == name {
			return true
		}
	}
	return false
}
