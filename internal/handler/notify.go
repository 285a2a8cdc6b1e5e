package handler

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/arunika0/menu/internal/events"
	"github.com/arunika0/menu/internal/logger"
	"github.com/arunika0/menu/internal/middleware"
)

// CacheInvalidator drops cached listings after a write.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// publishTimeout bounds a background event publish.
const publishTimeout = 5 * time.Second

// Notifier runs the side effects of a successful catalog write: the listing
// cache is invalidated before the response is sent and a change event is
// published in the background.  Failures are logged, never returned.
type Notifier struct {
	Cache  CacheInvalidator
	Events events.Publisher
}

func (n *Notifier) changed(c echo.Context, ev events.CatalogEvent) {
	if n == nil {
		return
	}
	log := logger.FromContext(c)
	if id := middleware.IdentityFrom(c); id != nil {
		ev.ActorID = id.UserID
		ev.ActorRole = string(id.Role)
	}

	if n.Cache != nil {
		if err := n.Cache.Invalidate(c.Request().Context()); err != nil {
			log.Warn("cache invalidation failed", zap.Error(err))
		}
	}
	if n.Events != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
			defer cancel()
			if err := n.Events.Publish(ctx, ev); err != nil {
				log.Warn("publish catalog event failed",
					zap.String("entity", ev.Entity), zap.String("action", ev.Action), zap.Error(err))
			}
		}()
	}
}
