// Package sources implements the TextSource port for the non-web
// source kinds: github repositories and already-extracted pdf text.
package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/custodia-labs/devrag-core/internal/core/domain"
	"github.com/custodia-labs/devrag-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.TextSource = (*GithubSource)(nil)

const defaultGithubTimeout = 60 * time.Second

// GithubSource fetches a repository's text through the gitingest
// rendering service, which flattens a repo into plain-text digests
// served in textarea elements.
type GithubSource struct {
	httpClient *http.Client

	// ingestHost overrides the gitingest host, for tests
	ingestHost string
}

// NewGithubSource creates a new gitingest-backed GithubSource
func NewGithubSource() *GithubSource {
	return &GithubSource{
		httpClient: &http.Client{Timeout: defaultGithubTimeout},
	}
}

// FetchText resolves a github repository URL to its flattened text.
func (s *GithubSource) FetchText(ctx context.Context, repoURL string) (string, error) {
	ingestURL := s.ingestURL(repoURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ingestURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("%w: gitingest returned %s for %s", domain.ErrFetch, resp.Status, repoURL)
	}

	text, err := extractTextareas(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrParse, err)
	}
	if text == "" {
		return "", fmt.Errorf("%w: no digest found for %s", domain.ErrParse, repoURL)
	}
	return text, nil
}

// ingestURL maps a github URL onto the rendering service. Non-github
// URLs pass through unchanged.
func (s *GithubSource) ingestURL(repoURL string) string {
	rewritten := repoURL
	if strings.Contains(repoURL, "github.com") {
		rewritten = strings.Replace(repoURL, "github.com", "gitingest.com", 1)
	}
	if s.ingestHost != "" {
		rewritten = strings.Replace(rewritten, "gitingest.com", s.ingestHost, 1)
	}
	return rewritten
}

// extractTextareas collects the text content of every textarea element,
// joined by blank lines.
func extractTextareas(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "textarea" {
			var sb strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					sb.WriteString(c.Data)
				}
			}
			if text := strings.TrimSpace(sb.String()); text != "" {
				parts = append(parts, text)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.Join(parts, "\n\n"), nil
}
