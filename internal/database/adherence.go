package database

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"trainsched/internal/metrics"
	"trainsched/internal/models"
)

// UpsertAdherence writes the full weekly aggregate for (athlete, weekStart).
// Records are always written whole; there is deliberately no increment op.
func (db *DB) UpsertAdherence(r *models.AdherenceRecord) error {
	timer := prometheus.NewTimer(metrics.DBOperationDuration.WithLabelValues(metrics.DBOpUpsertAdherence))
	defer timer.ObserveDuration()

	r.UpdatedAt = time.Now().Unix()

	_, err := db.conn.Exec(`
		INSERT INTO adherence_records (
			athlete_id, week_start, scheduled_count, completed_count,
			missed_count, skipped_count, adherence_rate, consecutive_missed,
			escalation_triggered, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(athlete_id, week_start) DO UPDATE SET
			scheduled_count = excluded.scheduled_count,
			completed_count = excluded.completed_count,
			missed_count = excluded.missed_count,
			skipped_count = excluded.skipped_count,
			adherence_rate = excluded.adherence_rate,
			consecutive_missed = excluded.consecutive_missed,
			escalation_triggered = excluded.escalation_triggered,
			updated_at = excluded.updated_at
	`, r.AthleteID, r.WeekStart, r.ScheduledCount, r.CompletedCount,
		r.MissedCount, r.SkippedCount, r.AdherenceRate, r.ConsecutiveMissed,
		r.EscalationTriggered, r.UpdatedAt)
	if err != nil {
		metrics.DBOperationErrorsTotal.WithLabelValues(metrics.DBOpUpsertAdherence).Inc()
		return fmt.Errorf("failed to upsert adherence record: %w", err)
	}
	return nil
}

// GetAdherence returns the record for one week, or (nil, nil) when absent
func (db *DB) GetAdherence(athleteID int64, weekStart string) (*models.AdherenceRecord, error) {
	records, err := db.queryAdherence(`
		SELECT athlete_id, week_start, scheduled_count, completed_count,
		       missed_count, skipped_count, adherence_rate, consecutive_missed,
		       escalation_triggered, updated_at
		FROM adherence_records
		WHERE athlete_id = ? AND week_start = ?
	`, athleteID, weekStart)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// ListRecentAdherence returns up to limit records, most recent week first
func (db *DB) ListRecentAdherence(athleteID int64, limit int) ([]*models.AdherenceRecord, error) {
	return db.queryAdherence(`
		SELECT athlete_id, week_start, scheduled_count, completed_count,
		       missed_count, skipped_count, adherence_rate, consecutive_missed,
		       escalation_triggered, updated_at
		FROM adherence_records
		WHERE athlete_id = ?
		ORDER BY week_start DESC
		LIMIT ?
	`, athleteID, limit)
}

// MarkAdherenceEscalated flags the week's record after an escalation fires
func (db *DB) MarkAdherenceEscalated(athleteID int64, weekStart string) error {
	_, err := db.conn.Exec(`
		UPDATE adherence_records
		SET escalation_triggered = 1, updated_at = ?
		WHERE athlete_id = ? AND week_start = ?
	`, time.Now().Unix(), athleteID, weekStart)
	if err != nil {
		return fmt.Errorf("failed to mark adherence escalated: %w", err)
	}
	return nil
}

func (db *DB) queryAdherence(query string, args ...any) ([]*models.AdherenceRecord, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query adherence records: %w", err)
	}
	defer rows.Close()

	var records []*models.AdherenceRecord
	for rows.Next() {
		var r models.AdherenceRecord
		err := rows.Scan(
			&r.AthleteID, &r.WeekStart, &r.ScheduledCount, &r.CompletedCount,
			&r.MissedCount, &r.SkippedCount, &r.AdherenceRate, &r.ConsecutiveMissed,
			&r.EscalationTriggered, &r.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan adherence record: %w", err)
		}
		records = append(records, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating adherence records: %w", err)
	}
	return records, nil
}
