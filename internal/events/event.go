// Package events publishes catalog change notifications to RabbitMQ and
// consumes them into an append-only audit log.
package events

import "time"

// Entity names used in CatalogEvent.Entity.
const (
	EntityRestaurant = "restaurant"
	EntityCategory   = "category"
	EntityMenuItem   = "menu_item"
	EntityUser       = "user"
)

// Actions used in CatalogEvent.Action.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// CatalogEvent describes one successful write.  It carries enough context
// for an auditor to reconstruct who changed what without reading the
// database.
type CatalogEvent struct {
	Entity       string `json:"entity"`
	Action       string `json:"action"`
	ID           uint64 `json:"id"`
	RestaurantID uint64 `json:"restaurant_id,omitempty"`
	Name         string `json:"name,omitempty"`
	ActorID      uint64 `json:"actor_id"`
	ActorRole    string `json:"actor_role"`
	OccurredAt   string `json:"occurred_at"`
}

// NewCatalogEvent stamps the event with the current UTC time.
func NewCatalogEvent(entity, action string, id uint64) CatalogEvent {
	return CatalogEvent{
		Entity:     entity,
		Action:     action,
		ID:         id,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
}
