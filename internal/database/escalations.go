package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"trainsched/internal/metrics"
	"trainsched/internal/models"
)

// InsertEscalation creates an escalation event. The unique index on
// (athlete_id, date) enforces at most one per athlete per day; a duplicate
// insert reports created=false instead of erroring so concurrent reviews
// remain idempotent.
func (db *DB) InsertEscalation(e *models.EscalationEvent) (bool, error) {
	timer := prometheus.NewTimer(metrics.DBOperationDuration.WithLabelValues(metrics.DBOpInsertEscalation))
	defer timer.ObserveDuration()

	e.CreatedAt = time.Now().Unix()

	_, err := db.conn.Exec(`
		INSERT INTO escalation_events (
			id, athlete_id, date, trigger_reason, level, resolved, created_at
		) VALUES (?, ?, ?, ?, ?, 0, ?)
	`, e.ID, e.AthleteID, e.Date, e.TriggerReason, e.Level, e.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return false, nil
		}
		metrics.DBOperationErrorsTotal.WithLabelValues(metrics.DBOpInsertEscalation).Inc()
		return false, fmt.Errorf("failed to insert escalation: %w", err)
	}
	return true, nil
}

// EscalationExists reports whether an escalation was already raised for the
// athlete on the given date
func (db *DB) EscalationExists(athleteID int64, date string) (bool, error) {
	var count int
	err := db.conn.QueryRow(`
		SELECT COUNT(*) FROM escalation_events
		WHERE athlete_id = ? AND date = ?
	`, athleteID, date).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check escalation: %w", err)
	}
	return count > 0, nil
}

// CountUnresolvedSince counts the athlete's unresolved escalations with
// date >= sinceDate. The level of a new escalation is derived from this.
func (db *DB) CountUnresolvedSince(athleteID int64, sinceDate string) (int, error) {
	var count int
	err := db.conn.QueryRow(`
		SELECT COUNT(*) FROM escalation_events
		WHERE athlete_id = ? AND resolved = 0 AND date >= ?
	`, athleteID, sinceDate).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unresolved escalations: %w", err)
	}
	return count, nil
}

// ResolveEscalation marks an escalation handled
func (db *DB) ResolveEscalation(escalationID string) error {
	_, err := db.conn.Exec(`
		UPDATE escalation_events
		SET resolved = 1, resolved_at = ?
		WHERE id = ? AND resolved = 0
	`, time.Now().Unix(), escalationID)
	if err != nil {
		return fmt.Errorf("failed to resolve escalation: %w", err)
	}
	return nil
}
