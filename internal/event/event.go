package event

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeAnimalCreated Type = "animal.created"
	TypeAnimalUpdated Type = "animal.updated"
	TypeAnimalDeleted Type = "animal.deleted"
)

type Event struct {
	ID        string `json:"id"`
	Type      Type   `json:"type"`
	Payload   any    `json:"payload"`
	Timestamp string `json:"timestamp"`
	ActorID   string `json:"actor_id,omitempty"` // admin who made the change
}

func New(typ Type, actorID string, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      typ,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		ActorID:   actorID,
	}
}

// Bus carries catalogue changes from admin workflows to their listeners.
type Bus interface {
	Publish(e Event)
	Subscribe(types ...Type) (<-chan Event, func())
}
