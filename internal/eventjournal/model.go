// Package eventjournal is the append-only trail of detection and
// deterrence events: every Detection, DeterrentAction, and effectiveness
// score gets one journal row, durable across a database outage via a
// local spool-and-replay failover. Grounded on the teacher's audit-log
// service (same write-then-spool-on-failure shape), generalized from a
// multi-tenant compliance log to a single-installation event trail.
package eventjournal

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Kind names the domain event that produced a journal row.
type Kind string

const (
	KindDetection        Kind = "detection"
	KindDeterrentAction  Kind = "deterrent_action"
	KindEffectivenessRun Kind = "effectiveness_run"
)

// Event is a single journal entry.
type Event struct {
	ID          uuid.UUID       `json:"id"`
	EventID     uuid.UUID       `json:"event_id"` // idempotency key
	CameraID    uuid.UUID       `json:"camera_id"`
	DetectionID *uuid.UUID      `json:"detection_id,omitempty"`
	Kind        Kind            `json:"kind"`
	Result      string          `json:"result"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// replayEnvelope wraps an Event for JSONL spooling.
type replayEnvelope struct {
	EventID   string    `json:"event_id"`
	Payload   Event     `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// Filter scopes QueryEvents/ExportEvents by CameraID and Kind. QueryEvents
// also applies Limit and Cursor; ExportEvents ignores both. DateFrom and
// DateTo are not applied by either.
type Filter struct {
	CameraID *uuid.UUID
	Kind     Kind
	DateFrom *time.Time
	DateTo   *time.Time
	Limit    int
	Cursor   string // ID-based cursor
}

// Service is the journal's main interface.
type Service struct {
	DB  *sql.DB
	log zerolog.Logger
}

func NewService(db *sql.DB, log zerolog.Logger) *Service {
	return &Service{DB: db, log: log.With().Str("component", "eventjournal").Logger()}
}
