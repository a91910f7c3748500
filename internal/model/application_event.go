package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ApplicationEvent journals a status transition that was written to an application.
type ApplicationEvent struct {
	ID            uuid.UUID         `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ApplicationID uuid.UUID         `json:"application_id" gorm:"type:uuid;not null;index"`
	Event         string            `json:"event"`
	FromStatus    ApplicationStatus `json:"from_status"`
	ToStatus      ApplicationStatus `json:"to_status"`
	ActorID       uuid.UUID         `json:"actor_id" gorm:"type:uuid"`
	ActorRole     Role              `json:"actor_role"`
	Context       JSONMap           `json:"context" gorm:"type:jsonb"`
	RequestID     string            `json:"request_id"`
	ClientIP      string            `json:"client_ip"`
	CreatedAt     time.Time         `json:"created_at" gorm:"default:CURRENT_TIMESTAMP"`
}

// TableName specifies the table name for ApplicationEvent
func (ApplicationEvent) TableName() string {
	return "application_events"
}

// JSONMap represents a generic map stored as JSONB in the database
type JSONMap map[string]interface{}

// Value implements the driver.Valuer interface for JSONMap
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements the sql.Scanner interface for JSONMap
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = make(JSONMap)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("type assertion failed: failed to decode JSONB")
	}

	return json.Unmarshal(bytes, m)
}
