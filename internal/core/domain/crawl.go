package domain

import "strings"

// Page is one fetched page from a crawl session.
type Page struct {
	// URL is the normalized absolute URL that was fetched
	URL string `json:"url"`

	// Title is the page title, or the URL when none was found
	Title string `json:"title"`

	// Depth is the distance from the seed (seed = 0)
	Depth int `json:"depth"`

	// Text is the cleaned visible text of the page
	Text string `json:"text"`
}

// CrawlResult is the outcome of one crawl session.
// Pages within a depth layer are in completion order, which is not
// deterministic; callers must not rely on ordering beyond depth grouping.
type CrawlResult struct {
	Seed    string `json:"seed"`
	Pages   []Page `json:"pages"`
	Visited int    `json:"visited"`
	Skipped int    `json:"skipped"`
}

// Text concatenates all page texts, separated by blank lines.
func (r *CrawlResult) Text() string {
	parts := make([]string, 0, len(r.Pages))
	for _, p := range r.Pages {
		if p.Text != "" {
			parts = append(parts, p.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}
