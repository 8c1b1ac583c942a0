package repository

import (
	"context"
	"database/sql"
	"time"
)

// AuditLogRepo appends security-relevant events to the 'audit_logs' table.
// The table is append-only; nothing in the application updates or deletes
// rows.  Events arrive through the audit queue consumer rather than the
// request path, so a slow insert never delays a response.
type AuditLogRepo struct{ DB *sql.DB }

func NewAuditLogRepo(db *sql.DB) *AuditLogRepo { return &AuditLogRepo{DB: db} }

// Insert appends one audit event.  EventID is the publisher-assigned UUID;
// the unique index on it makes redelivered queue messages harmless.
func (r *AuditLogRepo) Insert(ctx context.Context, eventID string, userID uint64, action, metaJSON, ip, userAgent string, occurredAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT IGNORE INTO audit_logs (event_id, user_id, action, meta, ip, user_agent, occurred_at) VALUES (?,?,?,?,?,?,?)",
		eventID, userID, action, metaJSON, ip, userAgent, occurredAt)
	return err
}
