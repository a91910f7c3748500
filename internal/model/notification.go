// internal/model/notification.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationAdmission NotificationType = "admission"
	NotificationJob       NotificationType = "job"
	NotificationReminder  NotificationType = "reminder"
	NotificationSystem    NotificationType = "system"
	NotificationSuccess   NotificationType = "success"
)

type Notification struct {
	ID            uuid.UUID        `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID        uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
	Type          NotificationType `gorm:"type:notification_type;not null" json:"type"`
	Title         string           `gorm:"type:text;not null" json:"title"`
	Message       string           `gorm:"type:text;not null" json:"message"`
	ApplicationID *uuid.UUID       `gorm:"type:uuid" json:"application_id,omitempty"`
	ActionURL     string           `gorm:"type:text" json:"action_url,omitempty"`
	Read          bool             `gorm:"not null;default:false" json:"read"`
	CreatedAt     time.Time        `json:"created_at"`
}
