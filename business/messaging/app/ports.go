// Package app contains the notifier and the push gateway port.
package app

import "context"

// PushGateway delivers a text message to the user's devices.
type PushGateway interface {
	Send(ctx context.Context, message string) error
}
