// Package app contains the deal selector and the ports it depends on.
package app

import (
	"context"

	"github.com/fd1az/deal-finder/business/scanning/domain"
)

// FeedSource fetches the current listings from the deal feeds.
type FeedSource interface {
	Fetch(ctx context.Context) ([]domain.ScrapedListing, error)
}
