// Package di contains dependency injection tokens for the messaging context.
package di

import (
	"github.com/fd1az/deal-finder/business/messaging/app"
	"github.com/fd1az/deal-finder/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Notifier = di.NewToken[*app.Notifier]("messaging.Notifier")
)

// Private dependency tokens - internal to messaging module
var (
	PushGateway = di.NewToken[app.PushGateway]("messaging:pushGateway")
)

// Helper functions for type-safe access
func GetNotifier(c di.ServiceRegistry) *app.Notifier {
	return di.GetToken(c, Notifier)
}

func GetPushGateway(c di.ServiceRegistry) app.PushGateway {
	return di.GetToken(c, PushGateway)
}
