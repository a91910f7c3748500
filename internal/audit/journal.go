package audit

import (
	"context"
	"fmt"

	"github.com/dangerclosesec/pathway/internal/admission"
	"github.com/dangerclosesec/pathway/internal/model"
)

// EventWriter persists journal entries.
type EventWriter interface {
	Create(ctx context.Context, event *model.ApplicationEvent) error
}

// Journal writes one ApplicationEvent per persisted lifecycle transition.
type Journal struct {
	events EventWriter
}

func NewJournal(events EventWriter) *Journal {
	return &Journal{events: events}
}

// Record implements admission.Journal
func (j *Journal) Record(ctx context.Context, change admission.Change, app *model.Application) error {
	meta := MetaFromContext(ctx)

	data := model.JSONMap{
		"offering_id":     app.OfferingID.String(),
		"organization_id": app.OrganizationID.String(),
		"party":           string(change.By),
	}
	if change.Response != nil {
		data["student_response"] = string(*change.Response)
	}
	if meta.UserAgent != "" {
		data["user_agent"] = meta.UserAgent
	}

	event := &model.ApplicationEvent{
		ApplicationID: change.ApplicationID,
		Event:         string(change.Event),
		FromStatus:    change.From,
		ToStatus:      change.To,
		ActorID:       change.Actor.ID,
		ActorRole:     change.Actor.Role,
		Context:       data,
		RequestID:     meta.RequestID,
		ClientIP:      meta.ClientIP,
		CreatedAt:     change.At,
	}

	if err := j.events.Create(ctx, event); err != nil {
		return fmt.Errorf("journaling %s on %s: %w", change.Event, change.ApplicationID, err)
	}
	return nil
}

// NoOpJournal is a journal that does nothing
type NoOpJournal struct{}

// Record implements admission.Journal
func (NoOpJournal) Record(context.Context, admission.Change, *model.Application) error {
	return nil
}
