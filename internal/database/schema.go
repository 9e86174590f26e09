package database

// Schema contains all SQL statements for creating tables and indexes
const Schema = `
-- Athlete profiles: capacity parameters read by the scheduler.
-- Owned by onboarding; the scheduler only reads these rows.
CREATE TABLE IF NOT EXISTS athlete_profiles (
    athlete_id INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    timezone TEXT NOT NULL DEFAULT 'UTC',
    training_days_per_week INTEGER NOT NULL,
    experience_level TEXT NOT NULL,
    equipment_access TEXT NOT NULL,
    primary_goal TEXT NOT NULL,
    subscription_active BOOLEAN NOT NULL DEFAULT 1,

    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

-- Workout plans: one periodization window per row.
-- Invariant: at most one active plan per athlete; rollover deactivates the
-- prior plan in the same transaction that inserts the new one.
CREATE TABLE IF NOT EXISTS workout_plans (
    id TEXT PRIMARY KEY,
    athlete_id INTEGER NOT NULL,
    week_number INTEGER NOT NULL,
    block_type TEXT NOT NULL,
    start_date TEXT NOT NULL,  -- YYYY-MM-DD, athlete-local
    end_date TEXT NOT NULL,
    planned_tss INTEGER NOT NULL DEFAULT 0,
    is_active BOOLEAN NOT NULL DEFAULT 1,
    created_at INTEGER NOT NULL,

    FOREIGN KEY (athlete_id) REFERENCES athlete_profiles(athlete_id) ON DELETE CASCADE
);

-- Workout sessions: dated sessions belonging to a plan.
-- Status transitions are forward-only; replacements are new rows linked via
-- rescheduled_from.
CREATE TABLE IF NOT EXISTS workout_sessions (
    id TEXT PRIMARY KEY,
    plan_id TEXT NOT NULL,
    athlete_id INTEGER NOT NULL,
    scheduled_date TEXT NOT NULL,
    scheduled_order INTEGER NOT NULL DEFAULT 0,
    session_type TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'SCHEDULED',
    prescribed_duration INTEGER NOT NULL DEFAULT 0,
    prescribed_tss INTEGER NOT NULL DEFAULT 0,
    content_json TEXT NOT NULL,
    original_date TEXT,
    rescheduled_from TEXT,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,

    FOREIGN KEY (plan_id) REFERENCES workout_plans(id) ON DELETE CASCADE
);

-- Adjustment logs: append-only audit of adjustment decisions
CREATE TABLE IF NOT EXISTS adjustment_logs (
    id TEXT PRIMARY KEY,
    plan_id TEXT NOT NULL,
    athlete_id INTEGER NOT NULL,
    trigger_event TEXT NOT NULL,
    trigger_data TEXT,
    adjustment_type TEXT NOT NULL,
    description TEXT NOT NULL,
    affected_session_ids TEXT NOT NULL,  -- JSON array
    date TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

-- Readiness metrics: one row per (athlete, date, source)
CREATE TABLE IF NOT EXISTS readiness_metrics (
    athlete_id INTEGER NOT NULL,
    date TEXT NOT NULL,
    source TEXT NOT NULL,
    perceived_energy INTEGER NOT NULL DEFAULT 0,
    perceived_soreness INTEGER NOT NULL DEFAULT 0,
    perceived_mood INTEGER NOT NULL DEFAULT 0,
    sleep_quality INTEGER NOT NULL DEFAULT 0,
    sleep_duration_min INTEGER NOT NULL DEFAULT 0,
    hrv INTEGER,
    sleep_score INTEGER,
    fatigue_score INTEGER,
    created_at INTEGER NOT NULL,

    PRIMARY KEY (athlete_id, date, source)
);

-- Adherence records: cached weekly aggregates, fully recomputed on change
CREATE TABLE IF NOT EXISTS adherence_records (
    athlete_id INTEGER NOT NULL,
    week_start TEXT NOT NULL,  -- Monday, YYYY-MM-DD
    scheduled_count INTEGER NOT NULL DEFAULT 0,
    completed_count INTEGER NOT NULL DEFAULT 0,
    missed_count INTEGER NOT NULL DEFAULT 0,
    skipped_count INTEGER NOT NULL DEFAULT 0,
    adherence_rate REAL NOT NULL DEFAULT 0,
    consecutive_missed INTEGER NOT NULL DEFAULT 0,
    escalation_triggered BOOLEAN NOT NULL DEFAULT 0,
    updated_at INTEGER NOT NULL,

    PRIMARY KEY (athlete_id, week_start)
);

-- Escalation events: at most one per athlete per calendar day
CREATE TABLE IF NOT EXISTS escalation_events (
    id TEXT PRIMARY KEY,
    athlete_id INTEGER NOT NULL,
    date TEXT NOT NULL,
    trigger_reason TEXT NOT NULL,
    level INTEGER NOT NULL,
    resolved BOOLEAN NOT NULL DEFAULT 0,
    resolved_at INTEGER,
    created_at INTEGER NOT NULL
);

-- Message logs: record of notification requests, used for per-day dedup
CREATE TABLE IF NOT EXISTS message_logs (
    id TEXT PRIMARY KEY,
    athlete_id INTEGER NOT NULL,
    category TEXT NOT NULL,
    channel TEXT NOT NULL,
    date TEXT NOT NULL,
    context TEXT,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_profiles_subscription ON athlete_profiles(subscription_active);

CREATE INDEX IF NOT EXISTS idx_plans_athlete_active ON workout_plans(athlete_id, is_active);
CREATE INDEX IF NOT EXISTS idx_plans_athlete_start ON workout_plans(athlete_id, start_date);

CREATE INDEX IF NOT EXISTS idx_sessions_plan ON workout_sessions(plan_id);
CREATE INDEX IF NOT EXISTS idx_sessions_athlete_date ON workout_sessions(athlete_id, scheduled_date);
CREATE INDEX IF NOT EXISTS idx_sessions_status ON workout_sessions(status);

CREATE INDEX IF NOT EXISTS idx_adjustments_athlete_date ON adjustment_logs(athlete_id, date);
CREATE INDEX IF NOT EXISTS idx_adjustments_plan ON adjustment_logs(plan_id);

CREATE INDEX IF NOT EXISTS idx_readiness_athlete_date ON readiness_metrics(athlete_id, date);

-- One escalation per athlete per day, enforced at the storage layer
CREATE UNIQUE INDEX IF NOT EXISTS idx_escalations_athlete_date ON escalation_events(athlete_id, date);
CREATE INDEX IF NOT EXISTS idx_escalations_unresolved ON escalation_events(athlete_id, resolved);

CREATE INDEX IF NOT EXISTS idx_messages_athlete_date ON message_logs(athlete_id, date);
`
