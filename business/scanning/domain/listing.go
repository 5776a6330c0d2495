// Package domain contains the scanning context's listing and deal types.
package domain

import (
	"strings"
	"time"
)

// ScrapedListing is one raw feed entry, enriched with the deal page's text
// when it could be fetched. Immutable once fetched.
type ScrapedListing struct {
	Title       string
	Summary     string
	Details     string
	Features    string
	URL         string
	PublishedAt time.Time
}

// Describe renders the listing for the selection prompt. The summary stands
// in for details when the page body was not scraped.
func (l ScrapedListing) Describe() string {
	details := strings.TrimSpace(l.Details)
	if details == "" {
		details = strings.TrimSpace(l.Summary)
	}

	var b strings.Builder
	b.WriteString("Title: ")
	b.WriteString(l.Title)
	b.WriteString("\nDetails: ")
	b.WriteString(details)
	b.WriteString("\nFeatures: ")
	b.WriteString(strings.TrimSpace(l.Features))
	b.WriteString("\nURL: ")
	b.WriteString(l.URL)
	return b.String()
}

// ExcludeSeen returns the listings whose URL is not in seen, keeping order.
func ExcludeSeen(listings []ScrapedListing, seen map[string]struct{}) []ScrapedListing {
	fresh := make([]ScrapedListing, 0, len(listings))
	for _, l := range listings {
		if _, ok := seen[l.URL]; ok {
			continue
		}
		fresh = append(fresh, l)
	}
	return fresh
}
