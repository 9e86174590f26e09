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

const sessionColumns = `id, plan_id, athlete_id, scheduled_date, scheduled_order,
	session_type, status, prescribed_duration, prescribed_tss,
	content_json, original_date, rescheduled_from, created_at, updated_at`

func scanSession(scan func(dest ...any) error) (*models.WorkoutSession, error) {
	var s models.WorkoutSession
	var content string
	err := scan(
		&s.ID, &s.PlanID, &s.AthleteID, &s.ScheduledDate, &s.ScheduledOrder,
		&s.Type, &s.Status, &s.PrescribedDuration, &s.PrescribedTSS,
		&content, &s.OriginalDate, &s.RescheduledFrom, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(content), &s.Content); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session content: %w", err)
	}
	return &s, nil
}

func (db *DB) querySessions(query string, args ...any) ([]*models.WorkoutSession, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.WorkoutSession
	for rows.Next() {
		s, err := scanSession(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}
	return sessions, nil
}

// GetSession retrieves a session by ID. Returns (nil, nil) when missing.
func (db *DB) GetSession(sessionID string) (*models.WorkoutSession, error) {
	s, err := scanSession(db.conn.QueryRow(
		`SELECT `+sessionColumns+` FROM workout_sessions WHERE id = ?`, sessionID,
	).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return s, nil
}

// InsertSession inserts a single session (replacement sessions created by the
// adjustment engine)
func (db *DB) InsertSession(s *models.WorkoutSession) error {
	timer := prometheus.NewTimer(metrics.DBOperationDuration.WithLabelValues(metrics.DBOpInsertSession))
	defer timer.ObserveDuration()

	now := time.Now().Unix()
	s.CreatedAt = now
	s.UpdatedAt = now

	content, err := json.Marshal(s.Content)
	if err != nil {
		return fmt.Errorf("failed to marshal session content: %w", err)
	}

	_, err = db.conn.Exec(`
		INSERT INTO workout_sessions (
			id, plan_id, athlete_id, scheduled_date, scheduled_order,
			session_type, status, prescribed_duration, prescribed_tss,
			content_json, original_date, rescheduled_from, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.ID, s.PlanID, s.AthleteID, s.ScheduledDate, s.ScheduledOrder,
		s.Type, s.Status, s.PrescribedDuration, s.PrescribedTSS,
		string(content), s.OriginalDate, s.RescheduledFrom, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		metrics.DBOperationErrorsTotal.WithLabelValues(metrics.DBOpInsertSession).Inc()
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// ListPlanSessions returns all sessions of a plan ordered by date
func (db *DB) ListPlanSessions(planID string) ([]*models.WorkoutSession, error) {
	return db.querySessions(
		`SELECT `+sessionColumns+` FROM workout_sessions
		 WHERE plan_id = ?
		 ORDER BY scheduled_date ASC, scheduled_order ASC`, planID)
}

// ListSessionsByDate returns the athlete's sessions on one local date
func (db *DB) ListSessionsByDate(athleteID int64, date string) ([]*models.WorkoutSession, error) {
	timer := prometheus.NewTimer(metrics.DBOperationDuration.WithLabelValues(metrics.DBOpSessionsByDate))
	defer timer.ObserveDuration()

	return db.querySessions(
		`SELECT `+sessionColumns+` FROM workout_sessions
		 WHERE athlete_id = ? AND scheduled_date = ?
		 ORDER BY scheduled_order ASC`, athleteID, date)
}

// ListSessionsBetween returns the athlete's sessions with from <= date <= to
func (db *DB) ListSessionsBetween(athleteID int64, from, to string) ([]*models.WorkoutSession, error) {
	return db.querySessions(
		`SELECT `+sessionColumns+` FROM workout_sessions
		 WHERE athlete_id = ? AND scheduled_date >= ? AND scheduled_date <= ?
		 ORDER BY scheduled_date ASC, scheduled_order ASC`, athleteID, from, to)
}

// ListSessionsOnOrBefore returns the athlete's sessions up to and including
// the given date, most recent first. Feeds the consecutive-miss streak walk.
func (db *DB) ListSessionsOnOrBefore(athleteID int64, date string, limit int) ([]*models.WorkoutSession, error) {
	return db.querySessions(
		`SELECT `+sessionColumns+` FROM workout_sessions
		 WHERE athlete_id = ? AND scheduled_date <= ?
		 ORDER BY scheduled_date DESC, scheduled_order DESC
		 LIMIT ?`, athleteID, date, limit)
}

// UpdateSessionStatus transitions a session out of SCHEDULED. The WHERE
// clause enforces forward-only transitions: a terminal session is never
// rewritten, and the boolean result tells the caller whether this call was
// the one that performed the transition.
func (db *DB) UpdateSessionStatus(sessionID string, status models.SessionStatus) (bool, error) {
	timer := prometheus.NewTimer(metrics.DBOperationDuration.WithLabelValues(metrics.DBOpUpdateStatus))
	defer timer.ObserveDuration()

	result, err := db.conn.Exec(`
		UPDATE workout_sessions
		SET status = ?, updated_at = ?
		WHERE id = ? AND status = 'SCHEDULED'
	`, status, time.Now().Unix(), sessionID)
	if err != nil {
		metrics.DBOperationErrorsTotal.WithLabelValues(metrics.DBOpUpdateStatus).Inc()
		return false, fmt.Errorf("failed to update session status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// UpdateSessionContent rewrites a session's prescription. Only SCHEDULED
// sessions may be rewritten; completed or terminal sessions are left alone.
func (db *DB) UpdateSessionContent(s *models.WorkoutSession) (bool, error) {
	timer := prometheus.NewTimer(metrics.DBOperationDuration.WithLabelValues(metrics.DBOpUpdateContent))
	defer timer.ObserveDuration()

	content, err := json.Marshal(s.Content)
	if err != nil {
		return false, fmt.Errorf("failed to marshal session content: %w", err)
	}

	result, err := db.conn.Exec(`
		UPDATE workout_sessions
		SET session_type = ?, prescribed_duration = ?, prescribed_tss = ?,
		    content_json = ?, updated_at = ?
		WHERE id = ? AND status = 'SCHEDULED'
	`, s.Type, s.PrescribedDuration, s.PrescribedTSS,
		string(content), time.Now().Unix(), s.ID)
	if err != nil {
		metrics.DBOperationErrorsTotal.WithLabelValues(metrics.DBOpUpdateContent).Inc()
		return false, fmt.Errorf("failed to update session content: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

// RecentTemplateIDs returns the template ids used by the athlete's sessions
// on or after the given date. The planner excludes these to avoid repeating
// content inside the lookback window.
func (db *DB) RecentTemplateIDs(athleteID int64, sinceDate string) (map[string]bool, error) {
	rows, err := db.conn.Query(`
		SELECT content_json FROM workout_sessions
		WHERE athlete_id = ? AND scheduled_date >= ?
	`, athleteID, sinceDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent templates: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan content: %w", err)
		}
		var content models.SessionContent
		if err := json.Unmarshal([]byte(raw), &content); err != nil {
			continue // malformed content never blocks planning
		}
		if content.TemplateID != "" {
			ids[content.TemplateID] = true
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recent templates: %w", err)
	}
	return ids, nil
}
