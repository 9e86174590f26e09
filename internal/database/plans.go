package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"trainsched/internal/metrics"
	"trainsched/internal/models"
)

// GetActivePlan returns the athlete's single active plan, or (nil, nil) when
// no plan is active.
func (db *DB) GetActivePlan(athleteID int64) (*models.WorkoutPlan, error) {
	timer := prometheus.NewTimer(metrics.DBOperationDuration.WithLabelValues(metrics.DBOpGetActivePlan))
	defer timer.ObserveDuration()

	var p models.WorkoutPlan
	err := db.conn.QueryRow(`
		SELECT id, athlete_id, week_number, block_type, start_date, end_date,
		       planned_tss, is_active, created_at
		FROM workout_plans
		WHERE athlete_id = ? AND is_active = 1
	`, athleteID).Scan(
		&p.ID, &p.AthleteID, &p.WeekNumber, &p.BlockType, &p.StartDate,
		&p.EndDate, &p.PlannedTSS, &p.IsActive, &p.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		metrics.DBOperationErrorsTotal.WithLabelValues(metrics.DBOpGetActivePlan).Inc()
		return nil, fmt.Errorf("failed to get active plan: %w", err)
	}
	return &p, nil
}

// GetPlan retrieves a plan by ID. Returns (nil, nil) when missing.
func (db *DB) GetPlan(planID string) (*models.WorkoutPlan, error) {
	var p models.WorkoutPlan
	err := db.conn.QueryRow(`
		SELECT id, athlete_id, week_number, block_type, start_date, end_date,
		       planned_tss, is_active, created_at
		FROM workout_plans WHERE id = ?
	`, planID).Scan(
		&p.ID, &p.AthleteID, &p.WeekNumber, &p.BlockType, &p.StartDate,
		&p.EndDate, &p.PlannedTSS, &p.IsActive, &p.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return &p, nil
}

// CreatePlanWithSessions atomically deactivates the athlete's current active
// plan and inserts the new plan plus all of its sessions. This is the single
// operation that maintains the one-active-plan invariant.
func (db *DB) CreatePlanWithSessions(plan *models.WorkoutPlan, sessions []*models.WorkoutSession) error {
	timer := prometheus.NewTimer(metrics.DBOperationDuration.WithLabelValues(metrics.DBOpCreatePlan))
	defer timer.ObserveDuration()

	now := time.Now().Unix()
	plan.CreatedAt = now
	plan.IsActive = true

	tx, err := db.conn.Begin()
	if err != nil {
		metrics.DBOperationErrorsTotal.WithLabelValues(metrics.DBOpCreatePlan).Inc()
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		UPDATE workout_plans SET is_active = 0
		WHERE athlete_id = ? AND is_active = 1
	`, plan.AthleteID); err != nil {
		metrics.DBOperationErrorsTotal.WithLabelValues(metrics.DBOpCreatePlan).Inc()
		return fmt.Errorf("failed to deactivate prior plan: %w", err)
	}

	if _, err := tx.Exec(`
		INSERT INTO workout_plans (
			id, athlete_id, week_number, block_type, start_date, end_date,
			planned_tss, is_active, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?)
	`, plan.ID, plan.AthleteID, plan.WeekNumber, plan.BlockType,
		plan.StartDate, plan.EndDate, plan.PlannedTSS, plan.CreatedAt); err != nil {
		metrics.DBOperationErrorsTotal.WithLabelValues(metrics.DBOpCreatePlan).Inc()
		return fmt.Errorf("failed to insert plan: %w", err)
	}

	for _, s := range sessions {
		s.PlanID = plan.ID
		s.CreatedAt = now
		s.UpdatedAt = now

		content, err := json.Marshal(s.Content)
		if err != nil {
			return fmt.Errorf("failed to marshal session content: %w", err)
		}

		if _, err := tx.Exec(`
			INSERT INTO workout_sessions (
				id, plan_id, athlete_id, scheduled_date, scheduled_order,
				session_type, status, prescribed_duration, prescribed_tss,
				content_json, original_date, rescheduled_from, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, s.ID, s.PlanID, s.AthleteID, s.ScheduledDate, s.ScheduledOrder,
			s.Type, s.Status, s.PrescribedDuration, s.PrescribedTSS,
			string(content), s.OriginalDate, s.RescheduledFrom, s.CreatedAt, s.UpdatedAt); err != nil {
			metrics.DBOperationErrorsTotal.WithLabelValues(metrics.DBOpCreatePlan).Inc()
			return fmt.Errorf("failed to insert session: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		metrics.DBOperationErrorsTotal.WithLabelValues(metrics.DBOpCreatePlan).Inc()
		return fmt.Errorf("failed to commit plan creation: %w", err)
	}
	return nil
}

// PlanExistsStartingOnOrAfter reports whether the athlete already has a plan
// whose start date is on or after the given date. The rollover step checks
// this against persisted state so re-running a review never double-generates.
func (db *DB) PlanExistsStartingOnOrAfter(athleteID int64, date string) (bool, error) {
	var count int
	err := db.conn.QueryRow(`
		SELECT COUNT(*) FROM workout_plans
		WHERE athlete_id = ? AND start_date >= ?
	`, athleteID, date).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check for existing plan: %w", err)
	}
	return count > 0, nil
}

// UpdatePlanBlockType flips a plan's block label (used by the emergency
// deload pull-forward)
func (db *DB) UpdatePlanBlockType(planID string, block models.BlockType) error {
	_, err := db.conn.Exec(`UPDATE workout_plans SET block_type = ? WHERE id = ?`, block, planID)
	if err != nil {
		return fmt.Errorf("failed to update plan block type: %w", err)
	}
	return nil
}

// UpdatePlanTSS rewrites a plan's aggregate prescribed load
func (db *DB) UpdatePlanTSS(planID string, plannedTSS int) error {
	_, err := db.conn.Exec(`UPDATE workout_plans SET planned_tss = ? WHERE id = ?`, plannedTSS, planID)
	if err != nil {
		return fmt.Errorf("failed to update plan tss: %w", err)
	}
	return nil
}
