package database

import (
	"time"

	"github.com/google/uuid"
)

func (db *DB) LogAudit(userID int64, action, category, target, targetID, details string) {
	if len(details) > 200 {
		details = details[:200]
	}
	id := uuid.New().String()
	now := time.Now().UTC()
	_, _ = db.Exec(
		"INSERT INTO audit_logs (id, user_id, action, category, target, target_id, details, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		id, userID, action, category, target, targetID, details, now,
	)
}

// PruneAuditLogs removes audit entries older than the retention window.
func (db *DB) PruneAuditLogs(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	res, err := db.Exec("DELETE FROM audit_logs WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}
