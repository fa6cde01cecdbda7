package events

import (
	platformevents "github.com/Niconord59/crm-axivity-sub001/platform/events"
	"github.com/Niconord59/crm-axivity-sub001/platform/logger"
)

// InMemoryBus is the process-local bus shared by the api and scheduler binaries.
type InMemoryBus = platformevents.InMemoryBus

func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platformevents.NewInMemoryBus(log)
}

// SubscribeAll registers one handler for several event names. Consumers such
// as cache invalidation listen to every write in a context at once.
func SubscribeAll(bus Bus, handler Handler, names ...string) {
	for _, name := range names {
		bus.Subscribe(name, handler)
	}
}
