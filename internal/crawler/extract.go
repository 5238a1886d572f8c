package crawler

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// anchor is one <a href> with its visible text.
type anchor struct {
	Href string
	Text string
}

// pageDoc is the uniform result of parsing one HTML document.
type pageDoc struct {
	Title string
	Text  string
	Links []anchor
}

// skippedElements are subtrees that carry chrome, not content.
var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"header":   true,
	"footer":   true,
	"nav":      true,
	"aside":    true,
}

// parsePage extracts title, cleaned text and anchors from an HTML body.
func parsePage(r io.Reader) (*pageDoc, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	doc := &pageDoc{}
	var lines []string
	walk(root, doc, &lines)
	doc.Text = cleanLines(lines)
	return doc, nil
}

func walk(n *html.Node, doc *pageDoc, lines *[]string) {
	if n.Type == html.ElementNode {
		if skippedElements[n.Data] {
			return
		}
		switch n.Data {
		case "title":
			doc.Title = strings.TrimSpace(textContent(n))
			return
		case "a":
			a := anchor{Text: strings.TrimSpace(textContent(n))}
			for _, attr := range n.Attr {
				if attr.Key == "href" {
					a.Href = attr.Val
					break
				}
			}
			if a.Href != "" {
				doc.Links = append(doc.Links, a)
			}
			// Anchor text still counts as page text; fall through to
			// children below.
		}
	}

	if n.Type == html.TextNode {
		if line := strings.TrimSpace(n.Data); line != "" {
			*lines = append(*lines, line)
		}
		return
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		walk(child, doc, lines)
	}
}

// textContent flattens the text nodes under n.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var rec func(*html.Node)
	rec = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			rec(child)
		}
	}
	rec(n)
	return sb.String()
}

// cleanLines collapses whitespace, strips noisy characters and drops
// fragments too short to carry meaning, mirroring the page-cleanup rules
// content quality depends on.
func cleanLines(lines []string) string {
	var kept []string
	for _, line := range lines {
		cleaned := sanitizeLine(line)
		if len(cleaned) > 20 {
			kept = append(kept, cleaned)
		}
	}
	return strings.Join(kept, "\n\n")
}

// sanitizeLine collapses runs of whitespace and keeps only word
// characters and basic punctuation.
func sanitizeLine(line string) string {
	var sb strings.Builder
	lastSpace := false
	for _, r := range line {
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			if !lastSpace && sb.Len() > 0 {
				sb.WriteRune(' ')
				lastSpace = true
			}
		case isWordRune(r) || strings.ContainsRune(".,!?-", r):
			sb.WriteRune(r)
			lastSpace = false
		}
	}
	return strings.TrimSpace(sb.String())
}

func isWordRune(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9') ||
		r > 127 // keep non-ASCII letters
}
