package rss

import (
	"slices"
	"strings"

	"golang.org/x/net/html"
)

// ExtractSummary returns the text of the "snippet summary" div in a feed
// entry's HTML, or the text of the whole snippet when there is none.
func ExtractSummary(snippet string) string {
	doc, err := html.Parse(strings.NewReader(snippet))
	if err != nil {
		return flatten(snippet)
	}

	if n := findDiv(doc, "snippet", "summary"); n != nil {
		return flatten(textContent(n))
	}
	return flatten(textContent(doc))
}

// ExtractContent returns the text of the page's "content-section" div.
func ExtractContent(page string) (string, bool) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return "", false
	}

	n := findDiv(doc, "content-section")
	if n == nil {
		return "", false
	}

	content := strings.ReplaceAll(textContent(n), "\nmore", "")
	return strings.ReplaceAll(content, "\n", " "), true
}

// SplitFeatures splits page content at the first "Features" heading.
func SplitFeatures(content string) (details, features string) {
	details, features, _ = strings.Cut(content, "Features")
	return strings.TrimSpace(details), strings.TrimSpace(features)
}

func findDiv(n *html.Node, classes ...string) *html.Node {
	if n.Type == html.ElementNode && n.Data == "div" && hasClasses(n, classes) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findDiv(c, classes...); found != nil {
			return found
		}
	}
	return nil
}

func hasClasses(n *html.Node, want []string) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		have := strings.Fields(a.Val)
		for _, w := range want {
			if !slices.Contains(have, w) {
				return false
			}
		}
		return true
	}
	return false
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
		return ""
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return b.String()
}

func flatten(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
}
