package eventjournal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
)

func (s *Service) WriteEvent(ctx context.Context, evt Event) error {
	if evt.EventID == uuid.Nil {
		evt.EventID = uuid.New()
	}
	if evt.ID == uuid.Nil {
		evt.ID = uuid.New()
	}

	query := `
		INSERT INTO journal_events (
			id, event_id, camera_id, detection_id, kind, result, metadata, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (event_id) DO NOTHING
	`

	_, err := s.DB.ExecContext(ctx, query,
		evt.ID, evt.EventID, evt.CameraID, evt.DetectionID, evt.Kind, evt.Result, evt.Metadata, evt.CreatedAt,
	)

	if err != nil {
		s.log.Warn().Err(err).Str("event_id", evt.EventID.String()).Msg("journal DB write failed, spooling")
		if spoolErr := SpoolEvent(evt); spoolErr != nil {
			s.log.Error().Err(spoolErr).Str("event_id", evt.EventID.String()).Msg("journal spool failed, event dropped")
			return fmt.Errorf("eventjournal: critical failure: %w", spoolErr)
		}
		return nil // swallowed: event survives in the spool
	}

	return nil
}

// Append-only enforcement: no Update or Delete methods exposed.

// QueryEvents implements filters and ID-based cursor pagination.
func (s *Service) QueryEvents(ctx context.Context, f Filter) ([]Event, string, error) {
	q := `SELECT id, event_id, camera_id, detection_id, kind, result, created_at, metadata
	      FROM journal_events WHERE 1=1`
	var args []interface{}
	idx := 1

	if f.CameraID != nil {
		q += fmt.Sprintf(" AND camera_id = $%d", idx)
		args = append(args, *f.CameraID)
		idx++
	}
	if f.Kind != "" {
		q += fmt.Sprintf(" AND kind = $%d", idx)
		args = append(args, f.Kind)
		idx++
	}
	if f.Cursor != "" {
		q += fmt.Sprintf(" AND (created_at, id) < (SELECT created_at, id FROM journal_events WHERE id = $%d)", idx)
		args = append(args, f.Cursor)
		idx++
	}

	q += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", idx)
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)

	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	var events []Event
	var lastID string

	for rows.Next() {
		var evt Event
		var meta []byte
		if err := rows.Scan(&evt.ID, &evt.EventID, &evt.CameraID, &evt.DetectionID, &evt.Kind, &evt.Result, &evt.CreatedAt, &meta); err != nil {
			return nil, "", err
		}
		if len(meta) > 0 {
			evt.Metadata = meta
		}
		events = append(events, evt)
		lastID = evt.ID.String()
	}

	return events, lastID, rows.Err()
}

const exportMaxRecords = 10000

// ExportEvents streams matching events as newline-delimited JSON, capped
// at exportMaxRecords as a safety bound against unbounded exports.
func (s *Service) ExportEvents(ctx context.Context, f Filter, w io.Writer) error {
	q := `SELECT id, event_id, camera_id, detection_id, kind, result, created_at, metadata
	      FROM journal_events WHERE 1=1`
	var args []interface{}
	idx := 1
	if f.CameraID != nil {
		q += fmt.Sprintf(" AND camera_id = $%d", idx)
		args = append(args, *f.CameraID)
		idx++
	}
	if f.Kind != "" {
		q += fmt.Sprintf(" AND kind = $%d", idx)
		args = append(args, f.Kind)
		idx++
	}
	q += " ORDER BY created_at DESC"

	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	enc := json.NewEncoder(w)
	count := 0

	for rows.Next() {
		if count >= exportMaxRecords {
			break
		}
		var evt Event
		var meta []byte
		if err := rows.Scan(&evt.ID, &evt.EventID, &evt.CameraID, &evt.DetectionID, &evt.Kind, &evt.Result, &evt.CreatedAt, &meta); err != nil {
			return err
		}
		if len(meta) > 0 {
			evt.Metadata = meta
		}
		if err := enc.Encode(evt); err != nil {
			return err
		}
		count++
	}
	return rows.Err()
}
