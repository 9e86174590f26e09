package database

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"trainsched/internal/metrics"
	"trainsched/internal/models"
)

// InsertAdjustment appends one adjustment log row. The log is append-only;
// there are no update or delete operations on this table.
func (db *DB) InsertAdjustment(a *models.AdjustmentLog) error {
	timer := prometheus.NewTimer(metrics.DBOperationDuration.WithLabelValues(metrics.DBOpInsertAdjustment))
	defer timer.ObserveDuration()

	a.CreatedAt = time.Now().Unix()

	affected, err := json.Marshal(a.AffectedSessionIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal affected session ids: %w", err)
	}

	_, err = db.conn.Exec(`
		INSERT INTO adjustment_logs (
			id, plan_id, athlete_id, trigger_event, trigger_data,
			adjustment_type, description, affected_session_ids, date, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.PlanID, a.AthleteID, a.TriggerEvent, a.TriggerData,
		a.AdjustmentType, a.Description, string(affected), a.Date, a.CreatedAt)
	if err != nil {
		metrics.DBOperationErrorsTotal.WithLabelValues(metrics.DBOpInsertAdjustment).Inc()
		return fmt.Errorf("failed to insert adjustment log: %w", err)
	}
	return nil
}

// CountAdjustments returns how many adjustments of the given trigger were
// logged for the athlete on one local date. This persisted check, not the
// in-memory dedup cache, is what makes re-running a review side-effect free.
func (db *DB) CountAdjustments(athleteID int64, trigger models.TriggerEvent, date string) (int, error) {
	timer := prometheus.NewTimer(metrics.DBOperationDuration.WithLabelValues(metrics.DBOpCountAdjustments))
	defer timer.ObserveDuration()

	var count int
	err := db.conn.QueryRow(`
		SELECT COUNT(*) FROM adjustment_logs
		WHERE athlete_id = ? AND trigger_event = ? AND date = ?
	`, athleteID, trigger, date).Scan(&count)
	if err != nil {
		metrics.DBOperationErrorsTotal.WithLabelValues(metrics.DBOpCountAdjustments).Inc()
		return 0, fmt.Errorf("failed to count adjustments: %w", err)
	}
	return count, nil
}

// ListPlanAdjustments returns a plan's adjustment history, oldest first
func (db *DB) ListPlanAdjustments(planID string) ([]*models.AdjustmentLog, error) {
	rows, err := db.conn.Query(`
		SELECT id, plan_id, athlete_id, trigger_event, trigger_data,
		       adjustment_type, description, affected_session_ids, date, created_at
		FROM adjustment_logs
		WHERE plan_id = ?
		ORDER BY created_at ASC
	`, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to list adjustments: %w", err)
	}
	defer rows.Close()

	var logs []*models.AdjustmentLog
	for rows.Next() {
		var a models.AdjustmentLog
		var triggerData *string
		var affected string
		err := rows.Scan(
			&a.ID, &a.PlanID, &a.AthleteID, &a.TriggerEvent, &triggerData,
			&a.AdjustmentType, &a.Description, &affected, &a.Date, &a.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan adjustment: %w", err)
		}
		if triggerData != nil {
			a.TriggerData = *triggerData
		}
		if err := json.Unmarshal([]byte(affected), &a.AffectedSessionIDs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal affected session ids: %w", err)
		}
		logs = append(logs, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating adjustments: %w", err)
	}
	return logs, nil
}
