package event

import (
	"context"
	"log/slog"

	"pet-adoption-portal/internal/model"
)

// RunAuditLog writes one structured log line per catalogue change until ctx
// is done.
func RunAuditLog(ctx context.Context, bus Bus, log *slog.Logger) {
	events, unsubscribe := bus.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			attrs := []any{"event_id", e.ID, "type", e.Type, "actor", e.ActorID, "at", e.Timestamp}
			if animal, ok := e.Payload.(model.Animal); ok {
				attrs = append(attrs, "animal_id", animal.ID, "animal", animal.Name)
			}
			log.Info("catalogue changed", attrs...)
		}
	}
}
