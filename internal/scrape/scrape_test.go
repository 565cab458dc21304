// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/net/html"

	"github.com/rocknruds/powerflow-agents/internal/httputil"
	"github.com/rocknruds/powerflow-agents/pkg/types"
)

const bodySentence = "Wagner Group personnel have assumed day-to-day control of security checkpoints across the capital."

func parse(t *testing.T, page string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		t.Fatalf("parsing fixture: %v", err)
	}
	return doc
}

func TestExtractTextSkipsBoilerplate(t *testing.T) {
	page := fmt.Sprintf(`<html><body>
		<nav><p>Home News Politics World Subscribe Newsletter Account Settings</p></nav>
		<article>
			<h1>Security handover confirmed by transition government officials</h1>
			<p>%s</p>
			<aside><p>Related: five other stories you might also be interested in today</p></aside>
		</article>
		<footer><p>Copyright and terms of service and privacy policy links here</p></footer>
	</body></html>`, bodySentence)

	text := ExtractText(parse(t, page))
	if !strings.Contains(text, bodySentence) {
		t.Errorf("body text missing from %q", text)
	}
	for _, noise := range []string{"Subscribe", "Related:", "terms of service"} {
		if strings.Contains(text, noise) {
			t.Errorf("boilerplate %q leaked into extracted text", noise)
		}
	}
}

func TestExtractTextPrefersArticleContainer(t *testing.T) {
	page := fmt.Sprintf(`<html><body>
		<div><p>A trending sidebar story about something entirely unrelated to the article.</p></div>
		<article><p>%s</p></article>
	</body></html>`, bodySentence)

	text := ExtractText(parse(t, page))
	if !strings.Contains(text, bodySentence) {
		t.Errorf("article text missing from %q", text)
	}
	if strings.Contains(text, "sidebar") {
		t.Error("text outside <article> was extracted despite the container being present")
	}
}

func TestExtractTextClassContainerFallback(t *testing.T) {
	page := fmt.Sprintf(`<html><body>
		<div class="promo"><p>An unrelated promotional block that should never be extracted here.</p></div>
		<div class="article-body"><p>%s</p></div>
	</body></html>`, bodySentence)

	text := ExtractText(parse(t, page))
	if !strings.Contains(text, bodySentence) {
		t.Errorf("class-container text missing from %q", text)
	}
	if strings.Contains(text, "promotional") {
		t.Error("text outside the class container was extracted")
	}
}

func TestExtractTextDropsShortFragments(t *testing.T) {
	page := fmt.Sprintf(`<html><body><article>
		<p>Photo: AFP</p>
		<p>%s</p>
	</article></body></html>`, bodySentence)

	text := ExtractText(parse(t, page))
	if strings.Contains(text, "Photo: AFP") {
		t.Error("caption-length fragment was kept")
	}
	if !strings.Contains(text, bodySentence) {
		t.Errorf("body text missing from %q", text)
	}
}

func TestExtractTextNoDoubleCountingNestedElements(t *testing.T) {
	quoted := "We did not invite them, but we can no longer operate without them, a minister said."
	page := fmt.Sprintf(`<html><body><article>
		<blockquote><p>%s</p></blockquote>
	</article></body></html>`, quoted)

	text := ExtractText(parse(t, page))
	if got := strings.Count(text, "no longer operate"); got != 1 {
		t.Errorf("nested quote extracted %d times, want 1", got)
	}
}

func articlePage() string {
	var sb strings.Builder
	sb.WriteString("<html><body><article>")
	for i := 0; i < 5; i++ {
		fmt.Fprintf(&sb, "<p>%s</p>", bodySentence)
	}
	sb.WriteString("</article></body></html>")
	return sb.String()
}

func TestFetchReturnsArticleText(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, articlePage())
	}))
	defer server.Close()

	f := NewFetcher(types.ScrapeConfig{})
	text, err := f.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if !strings.Contains(text, bodySentence) {
		t.Errorf("fetched text missing article body: %q", text)
	}
	if !strings.Contains(gotUA, "Mozilla") {
		t.Errorf("User-Agent = %q, want a browser user agent", gotUA)
	}
}

func TestFetchErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		reason  string
	}{
		{
			name: "http error status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			reason: "HTTP 404",
		},
		{
			name: "non-html content type",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/pdf")
				fmt.Fprint(w, "%PDF-1.7")
			},
			reason: "non-HTML content",
		},
		{
			name: "too little text",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				fmt.Fprint(w, "<html><body><p>Please enable JavaScript to continue reading this.</p></body></html>")
			},
			reason: "too short",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			f := NewFetcher(types.ScrapeConfig{})
			_, err := f.Fetch(context.Background(), server.URL)

			var fetchErr *FetchError
			if !errors.As(err, &fetchErr) {
				t.Fatalf("Fetch() error = %v, want FetchError", err)
			}
			if !strings.Contains(fetchErr.Reason, tt.reason) {
				t.Errorf("Reason = %q, want it to mention %q", fetchErr.Reason, tt.reason)
			}
			if fetchErr.URL != server.URL {
				t.Errorf("URL = %q, want %q", fetchErr.URL, server.URL)
			}
		})
	}
}

func TestFetchRetriesRateLimit(t *testing.T) {
	prev := httputil.RetryBaseDelay
	httputil.RetryBaseDelay = time.Millisecond
	defer func() { httputil.RetryBaseDelay = prev }()

	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, articlePage())
	}))
	defer server.Close()

	f := NewFetcher(types.ScrapeConfig{})
	if _, err := f.Fetch(context.Background(), server.URL); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if calls != 2 {
		t.Errorf("server saw %d requests, want 2 (one retry after 429)", calls)
	}
}
