package eventjournal

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestWriteEvent_InsertsOnSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewService(db, zerolog.Nop())

	mock.ExpectExec("INSERT INTO journal_events").WillReturnResult(sqlmock.NewResult(1, 1))

	evt := Event{CameraID: uuid.New(), Kind: KindDetection, Result: "foe_identified"}
	require.NoError(t, s.WriteEvent(context.Background(), evt))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWriteEvent_SpoolsOnDBFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	spoolDir := filepath.Join(t.TempDir(), "spool")
	ConfigureFailover(spoolDir, 16)

	s := NewService(db, zerolog.Nop())

	mock.ExpectExec("INSERT INTO journal_events").WillReturnError(errors.New("connection refused"))

	evt := Event{EventID: uuid.New(), CameraID: uuid.New(), Kind: KindDeterrentAction, Result: "played"}
	require.NoError(t, s.WriteEvent(context.Background(), evt))

	data, err := os.ReadFile(filepath.Join(spoolDir, "journal_spool.log"))
	require.NoError(t, err)
	require.Contains(t, string(data), evt.EventID.String())
}

func TestExportEvents_StreamsNDJSON(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := NewService(db, zerolog.Nop())

	id := uuid.New()
	eventID := uuid.New()
	camID := uuid.New()
	rows := sqlmock.NewRows([]string{"id", "event_id", "camera_id", "detection_id", "kind", "result", "created_at", "metadata"}).
		AddRow(id, eventID, camID, nil, "detection", "foe_identified", time.Now(), []byte(`{}`))
	mock.ExpectQuery("SELECT id, event_id, camera_id").WillReturnRows(rows)

	var buf bytes.Buffer
	require.NoError(t, s.ExportEvents(context.Background(), Filter{}, &buf))
	require.Contains(t, buf.String(), eventID.String())
}
