package graph

import (
	"log/slog"

	"github.com/starford/notegraph/internal/events"
)

// Listen resets the cache on every entity event published on bus. Any change
// may affect resolution of arbitrary notes, so no event is filtered out.
func Listen(bus *events.Bus, c *Cache, logger *slog.Logger) (unsubscribe func()) {
	return bus.Subscribe(func(ev events.Event) {
		c.Reset()
		logger.Debug("graph: cache reset",
			"kind", ev.Kind, "entity", ev.EntityName, "entity_id", ev.EntityID)
	})
}
