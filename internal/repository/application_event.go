package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/dangerclosesec/pathway/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ApplicationEventRepository stores the transition journal.
type ApplicationEventRepository struct {
	db *gorm.DB
}

// NewApplicationEventRepository creates a new ApplicationEventRepository
func NewApplicationEventRepository(db *gorm.DB) *ApplicationEventRepository {
	return &ApplicationEventRepository{db: db}
}

// Create inserts a new journal entry
func (r *ApplicationEventRepository) Create(ctx context.Context, event *model.ApplicationEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to create application event: %w", err)
	}
	return nil
}

// EventQuery holds parameters for querying the journal
type EventQuery struct {
	ApplicationID *uuid.UUID
	ActorID       *uuid.UUID
	Event         string
	StartTime     time.Time
	EndTime       time.Time
	Page          Page
}

// Query retrieves journal entries matching params, newest first.
func (r *ApplicationEventRepository) Query(ctx context.Context, params EventQuery) ([]model.ApplicationEvent, int64, error) {
	var events []model.ApplicationEvent
	var count int64

	query := r.db.WithContext(ctx).Model(&model.ApplicationEvent{})
	if params.ApplicationID != nil {
		query = query.Where("application_id = ?", *params.ApplicationID)
	}
	if params.ActorID != nil {
		query = query.Where("actor_id = ?", *params.ActorID)
	}
	if params.Event != "" {
		query = query.Where("event = ?", params.Event)
	}
	if !params.StartTime.IsZero() {
		query = query.Where("created_at >= ?", params.StartTime)
	}
	if !params.EndTime.IsZero() {
		query = query.Where("created_at <= ?", params.EndTime)
	}

	if err := query.Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count application events: %w", err)
	}

	if err := params.Page.apply(query).Order("created_at DESC").Find(&events).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to query application events: %w", err)
	}

	return events, count, nil
}
