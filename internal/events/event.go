package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventLibraryAdd     EventType = "library_add"
	EventLibraryUpdate  EventType = "library_update"
	EventLibraryRemove  EventType = "library_remove"
	EventStatusChange   EventType = "status_change"
	EventStatsUpdated   EventType = "stats_updated"
	EventAccountDeleted EventType = "account_deleted"
)

type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	UserID    string                 `json:"user_id"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

func NewEvent(eventType EventType, userID string, data map[string]interface{}) Event {
	if data == nil {
		data = map[string]interface{}{}
	}
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}
