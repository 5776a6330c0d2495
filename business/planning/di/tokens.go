// Package di contains dependency injection tokens for the planning context.
package di

import (
	"github.com/fd1az/deal-finder/business/planning/app"
	"github.com/fd1az/deal-finder/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Framework = di.NewToken[*app.Framework]("planning.Framework")
)

// Private dependency tokens - internal to planning module
var (
	MemoryStore = di.NewToken[app.MemoryStore]("planning:memoryStore")
	Journal     = di.NewToken[app.Journal]("planning:journal")
	Reporter    = di.NewToken[app.Reporter]("planning:reporter")
	Planner     = di.NewToken[app.Planner]("planning:planner")
)

// Helper functions for type-safe access
func GetFramework(c di.ServiceRegistry) *app.Framework {
	return di.GetToken(c, Framework)
}

func GetMemoryStore(c di.ServiceRegistry) app.MemoryStore {
	return di.GetToken(c, MemoryStore)
}

func GetJournal(c di.ServiceRegistry) app.Journal {
	return di.GetToken(c, Journal)
}

func GetReporter(c di.ServiceRegistry) app.Reporter {
	return di.GetToken(c, Reporter)
}

func GetPlanner(c di.ServiceRegistry) app.Planner {
	return di.GetToken(c, Planner)
}
