// Package queue defines message payloads exchanged over the message broker.
package queue

// AuditQueueName is the durable queue carrying security audit events.
const AuditQueueName = "audit.events"

// AuditEvent is published whenever a security-relevant action happens:
// register, login, refresh, logout, session revocation, exam creation and
// result submission.  It contains enough information for the consumer to
// append the audit log row without querying the primary database.
type AuditEvent struct {
	EventID    string                 `json:"event_id"`
	UserID     uint64                 `json:"user_id"`
	Action     string                 `json:"action"`
	Meta       map[string]interface{} `json:"meta,omitempty"`
	IP         string                 `json:"ip"`
	UserAgent  string                 `json:"user_agent"`
	OccurredAt string                 `json:"occurred_at"`
}
