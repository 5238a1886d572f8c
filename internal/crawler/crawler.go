package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/custodia-labs/devrag-core/internal/core/domain"
	"github.com/custodia-labs/devrag-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.Crawler = (*Crawler)(nil)

// Config holds crawl session bounds and link policy.
type Config struct {
	// MaxDepth is the largest link distance from the seed (seed = 0)
	MaxDepth int

	// MaxConcurrency bounds in-flight fetches within a session
	MaxConcurrency int

	// MaxPages is the total page ceiling per session
	MaxPages int

	// Timeout applies per HTTP request
	Timeout time.Duration

	// UserAgent is sent with every fetch
	UserAgent string

	// SameDomainOnly restricts the frontier to the seed's domain
	SameDomainOnly bool

	// UnwantedKeywords discards anchors whose visible text or href
	// contains any of them
	UnwantedKeywords []string

	// SocialMediaDomains discards anchors whose href contains any of
	// these domain tokens
	SocialMediaDomains []string
}

// DefaultConfig returns the standard crawl policy.
func DefaultConfig() Config {
	return Config{
		MaxDepth:       2,
		MaxConcurrency: 20,
		MaxPages:       200,
		Timeout:        10 * time.Second,
		UserAgent:      "Mozilla/5.0 (compatible; devrag/1.0)",
		SameDomainOnly: true,
		UnwantedKeywords: []string{
			"signup", "signin", "register", "login", "billing",
			"pricing", "contact", "sign up", "sign in", "expert services",
		},
		SocialMediaDomains: []string{
			"youtube", "twitter", "facebook", "linkedin",
		},
	}
}

// Crawler performs a depth-bounded, concurrency-bounded breadth-first
// traversal of a web graph. Each session keeps its own visited set; no
// state is shared between sessions.
type Crawler struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a Crawler with the given policy.
func New(cfg Config, logger *slog.Logger) *Crawler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 1
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Crawler{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// frontierEntry is one discovered-but-not-yet-fetched URL.
type frontierEntry struct {
	url   string
	depth int
}

// layerOutcome carries one fetch's results back to the layer loop.
type layerOutcome struct {
	page  *domain.Page
	links []string
}

// Crawl walks the graph from seed one depth layer at a time: all entries
// at depth d are fetched concurrently (bounded by MaxConcurrency) before
// depth d+1 begins. A URL is fetched at most once per session. Per-URL
// failures are logged and skipped, never fatal.
func (c *Crawler) Crawl(ctx context.Context, seed string) (*domain.CrawlResult, error) {
	seedURL, err := url.Parse(seed)
	if err != nil || seedURL.Host == "" || (seedURL.Scheme != "http" && seedURL.Scheme != "https") {
		return nil, fmt.Errorf("%w: seed %q is not an absolute http(s) URL", domain.ErrInvalidInput, seed)
	}

	seedHost := registrableHost(seedURL.Host)
	normalizedSeed := normalizeURL(seedURL)

	visited := map[string]bool{normalizedSeed: true}
	frontier := []frontierEntry{{url: normalizedSeed, depth: 0}}

	result := &domain.CrawlResult{Seed: seed}
	sem := semaphore.NewWeighted(int64(c.cfg.MaxConcurrency))
	fetched := 0

	for depth := 0; depth <= c.cfg.MaxDepth && len(frontier) > 0; depth++ {
		if err := ctx.Err(); err != nil {
			break
		}

		var (
			mu       sync.Mutex
			wg       sync.WaitGroup
			outcomes []layerOutcome
		)

		for _, entry := range frontier {
			if fetched >= c.cfg.MaxPages {
				break
			}
			fetched++

			wg.Add(1)
			go func(e frontierEntry) {
				defer wg.Done()
				if err := sem.Acquire(ctx, 1); err != nil {
					return
				}
				defer sem.Release(1)

				page, links, err := c.fetchPage(ctx, e.url, e.depth)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					result.Skipped++
					c.logger.Warn("page skipped", "url", e.url, "depth", e.depth, "error", err)
					return
				}
				outcomes = append(outcomes, layerOutcome{page: page, links: links})
			}(entry)
		}
		wg.Wait()

		// Collect the layer's pages (completion order) and build the
		// next frontier, deduplicating against the session's visited set.
		var next []frontierEntry
		for _, out := range outcomes {
			if out.page.Text != "" {
				result.Pages = append(result.Pages, *out.page)
			} else {
				result.Skipped++
			}
			if depth >= c.cfg.MaxDepth {
				continue
			}
			for _, link := range out.links {
				if len(visited) >= c.cfg.MaxPages {
					break
				}
				if visited[link] {
					continue
				}
				if c.cfg.SameDomainOnly && !sameDomain(link, seedHost) {
					continue
				}
				visited[link] = true
				next = append(next, frontierEntry{url: link, depth: depth + 1})
			}
		}
		frontier = next
	}

	result.Visited = len(visited)
	c.logger.Info("crawl finished",
		"seed", seed,
		"pages", len(result.Pages),
		"visited", result.Visited,
		"skipped", result.Skipped,
	)
	return result, nil
}

// fetchPage retrieves one URL and extracts its cleaned text and candidate
// links. Non-success status or a non-HTML content type yields an empty
// page rather than an error, so the URL still counts as visited.
func (c *Crawler) fetchPage(ctx context.Context, pageURL string, depth int) (*domain.Page, []string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrFetch, err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrFetch, err)
	}
	defer resp.Body.Close()

	page := &domain.Page{URL: pageURL, Title: pageURL, Depth: depth}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return page, nil, nil
	}
	if !strings.Contains(strings.ToLower(resp.Header.Get("Content-Type")), "text/html") {
		return page, nil, nil
	}

	doc, err := parsePage(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}

	if doc.Title != "" {
		page.Title = doc.Title
	}
	page.Text = doc.Text

	base, err := url.Parse(pageURL)
	if err != nil {
		return page, nil, nil
	}
	return page, c.filterLinks(base, doc.Links), nil
}

// filterLinks resolves anchors to absolute URLs and applies the unwanted
// keyword and social-media policies.
func (c *Crawler) filterLinks(base *url.URL, anchors []anchor) []string {
	var links []string
	seen := make(map[string]bool)
	for _, a := range anchors {
		ref, err := url.Parse(strings.TrimSpace(a.Href))
		if err != nil {
			continue
		}
		abs := base.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			continue
		}
		link := normalizeURL(abs)

		if c.unwantedAnchor(strings.ToLower(a.Text), strings.ToLower(link)) {
			continue
		}
		if seen[link] {
			continue
		}
		seen[link] = true
		links = append(links, link)
	}
	return links
}

func (c *Crawler) unwantedAnchor(text, href string) bool {
	for _, kw := range c.cfg.UnwantedKeywords {
		if strings.Contains(text, kw) || strings.Contains(href, kw) {
			return true
		}
	}
	for _, token := range c.cfg.SocialMediaDomains {
		if strings.Contains(href, token) {
			return true
		}
	}
	return false
}

// normalizeURL strips fragments and normalizes the empty path so the
// visited set treats equivalent URLs as one.
func normalizeURL(u *url.URL) string {
	clean := *u
	clean.Fragment = ""
	if clean.Path == "" {
		clean.Path = "/"
	}
	return clean.String()
}

// registrableHost drops the leading www. so www.example.com and
// example.com count as the same domain.
func registrableHost(host string) string {
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}

func sameDomain(link, seedHost string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	return registrableHost(u.Host) == seedHost
}
