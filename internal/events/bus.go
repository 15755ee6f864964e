// Package events re-exports the platform event bus so domain modules import
// one events package; the implementation lives in platform/events.
package events

import (
	platformevents "kejani_backend/platform/events"
	"kejani_backend/platform/logger"
)

type InMemoryBus = platformevents.InMemoryBus

func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platformevents.NewInMemoryBus(log)
}
