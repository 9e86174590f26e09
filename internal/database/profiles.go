package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"trainsched/internal/metrics"
	"trainsched/internal/models"
)

// UpsertProfile inserts or replaces an athlete profile
func (db *DB) UpsertProfile(p *models.AthleteProfile) error {
	now := time.Now().Unix()
	if p.CreatedAt == 0 {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	_, err := db.conn.Exec(`
		INSERT INTO athlete_profiles (
			athlete_id, name, timezone, training_days_per_week,
			experience_level, equipment_access, primary_goal,
			subscription_active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(athlete_id) DO UPDATE SET
			name = excluded.name,
			timezone = excluded.timezone,
			training_days_per_week = excluded.training_days_per_week,
			experience_level = excluded.experience_level,
			equipment_access = excluded.equipment_access,
			primary_goal = excluded.primary_goal,
			subscription_active = excluded.subscription_active,
			updated_at = excluded.updated_at
	`, p.AthleteID, p.Name, p.Timezone, p.TrainingDaysPerWeek,
		p.ExperienceLevel, p.EquipmentAccess, p.PrimaryGoal,
		p.SubscriptionActive, p.CreatedAt, p.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

// GetProfile retrieves an athlete profile by ID. Returns (nil, nil) when the
// athlete does not exist.
func (db *DB) GetProfile(athleteID int64) (*models.AthleteProfile, error) {
	var p models.AthleteProfile
	err := db.conn.QueryRow(`
		SELECT athlete_id, name, timezone, training_days_per_week,
		       experience_level, equipment_access, primary_goal,
		       subscription_active, created_at, updated_at
		FROM athlete_profiles WHERE athlete_id = ?
	`, athleteID).Scan(
		&p.AthleteID, &p.Name, &p.Timezone, &p.TrainingDaysPerWeek,
		&p.ExperienceLevel, &p.EquipmentAccess, &p.PrimaryGoal,
		&p.SubscriptionActive, &p.CreatedAt, &p.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}

// ListActiveProfiles returns every athlete with an active paid subscription.
// This is the population the hourly review tick scans.
func (db *DB) ListActiveProfiles() ([]*models.AthleteProfile, error) {
	timer := prometheus.NewTimer(metrics.DBOperationDuration.WithLabelValues(metrics.DBOpListActiveProfiles))
	defer timer.ObserveDuration()

	rows, err := db.conn.Query(`
		SELECT athlete_id, name, timezone, training_days_per_week,
		       experience_level, equipment_access, primary_goal,
		       subscription_active, created_at, updated_at
		FROM athlete_profiles
		WHERE subscription_active = 1
		ORDER BY athlete_id ASC
	`)
	if err != nil {
		metrics.DBOperationErrorsTotal.WithLabelValues(metrics.DBOpListActiveProfiles).Inc()
		return nil, fmt.Errorf("failed to list active profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*models.AthleteProfile
	for rows.Next() {
		var p models.AthleteProfile
		err := rows.Scan(
			&p.AthleteID, &p.Name, &p.Timezone, &p.TrainingDaysPerWeek,
			&p.ExperienceLevel, &p.EquipmentAccess, &p.PrimaryGoal,
			&p.SubscriptionActive, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating profiles: %w", err)
	}

	return profiles, nil
}
