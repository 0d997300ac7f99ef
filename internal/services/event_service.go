package services

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/devserver/internal/models"
	"github.com/isdelr/devserver/internal/websocket"
	"github.com/rs/zerolog/log"
)

// EventServiceProvider defines the interface for event services.
type EventServiceProvider interface {
	CreateEvent(eventType, level, message string) error
	GetRecentEvents(limit int) ([]models.Event, error)
}

// Broadcaster pushes encoded messages to live clients.
type Broadcaster interface {
	Publish(message []byte)
}

// EventService provides business logic for event management.
type EventService struct {
	db          *sql.DB
	broadcaster Broadcaster
}

// NewEventService creates a new EventService. broadcaster may be nil.
func NewEventService(db *sql.DB, broadcaster Broadcaster) *EventService {
	return &EventService{db: db, broadcaster: broadcaster}
}

// CreateEvent logs a new event to the database and forwards it to live clients.
func (s *EventService) CreateEvent(eventType, level, message string) error {
	event := models.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Level:     level,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}

	stmt, err := s.db.Prepare("INSERT INTO events (id, type, level, message, created_at) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	if _, err = stmt.Exec(event.ID, event.Type, event.Level, event.Message, event.CreatedAt); err != nil {
		return err
	}

	if s.broadcaster != nil {
		msg, err := websocket.NewEventMessage(event)
		if err != nil {
			log.Warn().Err(err).Str("event_type", eventType).Msg("Failed to encode event for broadcast")
			return nil
		}
		s.broadcaster.Publish(msg)
	}
	return nil
}

// GetRecentEvents retrieves the most recent events from the database.
func (s *EventService) GetRecentEvents(limit int) ([]models.Event, error) {
	rows, err := s.db.Query("SELECT id, type, level, message, created_at FROM events ORDER BY created_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		var event models.Event
		if err := rows.Scan(&event.ID, &event.Type, &event.Level, &event.Message, &event.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
