package database

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"trainsched/internal/metrics"
	"trainsched/internal/models"
)

// InsertMessage records one outbound notification request
func (db *DB) InsertMessage(m *models.MessageLog) error {
	timer := prometheus.NewTimer(metrics.DBOperationDuration.WithLabelValues(metrics.DBOpInsertMessage))
	defer timer.ObserveDuration()

	m.CreatedAt = time.Now().Unix()

	_, err := db.conn.Exec(`
		INSERT INTO message_logs (
			id, athlete_id, category, channel, date, context, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.AthleteID, m.Category, m.Channel, m.Date, m.Context, m.CreatedAt)
	if err != nil {
		metrics.DBOperationErrorsTotal.WithLabelValues(metrics.DBOpInsertMessage).Inc()
		return fmt.Errorf("failed to insert message log: %w", err)
	}
	return nil
}

// CountMessagesByCategory returns how many requests of one category went out
// for the athlete on one local date
func (db *DB) CountMessagesByCategory(athleteID int64, category models.MessageCategory, date string) (int, error) {
	var count int
	err := db.conn.QueryRow(`
		SELECT COUNT(*) FROM message_logs
		WHERE athlete_id = ? AND category = ? AND date = ?
	`, athleteID, category, date).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count messages by category: %w", err)
	}
	return count, nil
}

// CountMessages returns the athlete's total message requests on one date
func (db *DB) CountMessages(athleteID int64, date string) (int, error) {
	var count int
	err := db.conn.QueryRow(`
		SELECT COUNT(*) FROM message_logs
		WHERE athlete_id = ? AND date = ?
	`, athleteID, date).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}
