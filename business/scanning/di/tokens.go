// Package di contains dependency injection tokens for the scanning context.
package di

import (
	"github.com/fd1az/deal-finder/business/scanning/app"
	"github.com/fd1az/deal-finder/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Selector = di.NewToken[*app.Selector]("scanning.Selector")
)

// Private dependency tokens - internal to scanning module
var (
	FeedSource = di.NewToken[app.FeedSource]("scanning:feedSource")
)

// Helper functions for type-safe access
func GetSelector(c di.ServiceRegistry) *app.Selector {
	return di.GetToken(c, Selector)
}

func GetFeedSource(c di.ServiceRegistry) app.FeedSource {
	return di.GetToken(c, FeedSource)
}
