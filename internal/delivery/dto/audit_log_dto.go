package dto

import "time"

// Response DTOs

type AuditLogResponse struct {
	ID         int64                  `json:"id"`
	ActorRealm string                 `json:"actor_realm"`
	ActorID    string                 `json:"actor_id,omitempty"`
	Action     string                 `json:"action"`
	IPAddress  string                 `json:"ip_address,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}
