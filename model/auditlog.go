package model

import "time"

// AuditLog is an append-only record of a state transition. Rows are never
// updated after insert, so the change feed classifies every log row as
// "created" and uses created_at as its delta column.
type AuditLog struct {
	LogID      string                 `json:"log_id"`
	ActorID    string                 `json:"actor_id"`
	EntityType string                 `json:"entity_type"`
	EntityID   string                 `json:"entity_id"`
	Action     string                 `json:"action"`
	Details    map[string]interface{} `json:"details,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}
