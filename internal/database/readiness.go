package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"trainsched/internal/metrics"
	"trainsched/internal/models"
)

const readinessColumns = `athlete_id, date, source, perceived_energy, perceived_soreness,
	perceived_mood, sleep_quality, sleep_duration_min, hrv, sleep_score,
	fatigue_score, created_at`

func scanReadiness(scan func(dest ...any) error) (*models.ReadinessMetric, error) {
	var r models.ReadinessMetric
	err := scan(
		&r.AthleteID, &r.Date, &r.Source, &r.PerceivedEnergy, &r.PerceivedSoreness,
		&r.PerceivedMood, &r.SleepQuality, &r.SleepDurationMin, &r.HRV, &r.SleepScore,
		&r.FatigueScore, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// UpsertReadiness records one day's readiness for one source. Re-submitting
// the same (athlete, date, source) replaces the row rather than duplicating.
func (db *DB) UpsertReadiness(r *models.ReadinessMetric) error {
	timer := prometheus.NewTimer(metrics.DBOperationDuration.WithLabelValues(metrics.DBOpUpsertReadiness))
	defer timer.ObserveDuration()

	r.CreatedAt = time.Now().Unix()

	_, err := db.conn.Exec(`
		INSERT INTO readiness_metrics (
			athlete_id, date, source, perceived_energy, perceived_soreness,
			perceived_mood, sleep_quality, sleep_duration_min, hrv, sleep_score,
			fatigue_score, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(athlete_id, date, source) DO UPDATE SET
			perceived_energy = excluded.perceived_energy,
			perceived_soreness = excluded.perceived_soreness,
			perceived_mood = excluded.perceived_mood,
			sleep_quality = excluded.sleep_quality,
			sleep_duration_min = excluded.sleep_duration_min,
			hrv = excluded.hrv,
			sleep_score = excluded.sleep_score,
			fatigue_score = excluded.fatigue_score
	`, r.AthleteID, r.Date, r.Source, r.PerceivedEnergy, r.PerceivedSoreness,
		r.PerceivedMood, r.SleepQuality, r.SleepDurationMin, r.HRV, r.SleepScore,
		r.FatigueScore, r.CreatedAt)
	if err != nil {
		metrics.DBOperationErrorsTotal.WithLabelValues(metrics.DBOpUpsertReadiness).Inc()
		return fmt.Errorf("failed to upsert readiness: %w", err)
	}
	return nil
}

// GetReadiness returns the athlete's readiness for one date, preferring the
// device feed over a manual check-in when both exist. Returns (nil, nil) when
// neither exists.
func (db *DB) GetReadiness(athleteID int64, date string) (*models.ReadinessMetric, error) {
	r, err := scanReadiness(db.conn.QueryRow(`
		SELECT `+readinessColumns+` FROM readiness_metrics
		WHERE athlete_id = ? AND date = ?
		ORDER BY CASE source WHEN 'DEVICE' THEN 0 ELSE 1 END
		LIMIT 1
	`, athleteID, date).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get readiness: %w", err)
	}
	return r, nil
}

// ListReadinessSince returns readiness rows with date >= sinceDate, newest
// first, one per day (device preferred)
func (db *DB) ListReadinessSince(athleteID int64, sinceDate string) ([]*models.ReadinessMetric, error) {
	rows, err := db.conn.Query(`
		SELECT `+readinessColumns+` FROM readiness_metrics
		WHERE athlete_id = ? AND date >= ?
		ORDER BY date DESC, CASE source WHEN 'DEVICE' THEN 0 ELSE 1 END
	`, athleteID, sinceDate)
	if err != nil {
		return nil, fmt.Errorf("failed to list readiness: %w", err)
	}
	defer rows.Close()

	var out []*models.ReadinessMetric
	lastDate := ""
	for rows.Next() {
		r, err := scanReadiness(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan readiness: %w", err)
		}
		if r.Date == lastDate {
			continue // keep only the preferred source per day
		}
		lastDate = r.Date
		out = append(out, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating readiness: %w", err)
	}
	return out, nil
}
