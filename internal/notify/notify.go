package notify

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"trainsched/internal/database"
	"trainsched/internal/metrics"
	"trainsched/internal/models"
)

// Sender delivers a notification request to an outbound channel. The
// production sender hands off to the messaging service; the scheduler only
// needs acceptance, delivery is the channel's problem.
type Sender interface {
	Send(athleteID int64, category models.MessageCategory, context string) error
	Channel() string
}

// LogSender accepts every request and just logs it. Used when no messaging
// backend is configured, and in tests.
type LogSender struct {
	Logger *slog.Logger
}

func (s *LogSender) Send(athleteID int64, category models.MessageCategory, context string) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Notification requested",
		"athlete_id", athleteID,
		"category", category,
		"context", context)
	return nil
}

func (s *LogSender) Channel() string { return "log" }

// Dispatcher requests outbound messages and records each request so reviews
// can dedup by (athlete, category, date). The message log row is written
// first: a crashed send leaves a logged-but-unsent request, which downstream
// retries treat as already handled rather than sending twice.
type Dispatcher struct {
	db     *database.DB
	sender Sender
	logger *slog.Logger
}

// NewDispatcher creates a message dispatcher over the given sender
func NewDispatcher(db *database.DB, sender Sender) *Dispatcher {
	return &Dispatcher{db: db, sender: sender, logger: slog.Default()}
}

// Request asks the channel to deliver one message and records the request.
// Returns the message log id.
func (d *Dispatcher) Request(athleteID int64, category models.MessageCategory, date, context string) (string, error) {
	entry := &models.MessageLog{
		ID:        uuid.NewString(),
		AthleteID: athleteID,
		Category:  category,
		Channel:   d.sender.Channel(),
		Date:      date,
		Context:   context,
	}
	if err := d.db.InsertMessage(entry); err != nil {
		return "", fmt.Errorf("failed to record message request: %w", err)
	}

	if err := d.sender.Send(athleteID, category, context); err != nil {
		// The request is recorded; delivery failure is the channel's to retry
		d.logger.Error("Notification send failed",
			"athlete_id", athleteID,
			"category", category,
			"error", err)
	}

	metrics.MessagesRequestedTotal.WithLabelValues(string(category)).Inc()
	return entry.ID, nil
}

// RequestOncePerDay requests a message unless one of the same category was
// already requested for the athlete today
func (d *Dispatcher) RequestOncePerDay(athleteID int64, category models.MessageCategory, date, context string) (string, bool, error) {
	count, err := d.db.CountMessagesByCategory(athleteID, category, date)
	if err != nil {
		return "", false, err
	}
	if count > 0 {
		return "", false, nil
	}
	id, err := d.Request(athleteID, category, date, context)
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}
