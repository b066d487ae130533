package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestSafeCommit_RollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("commit failed"))
	mock.ExpectRollback()

	tx, err := db.Begin()
	require.NoError(t, err)

	ok := SafeCommit(tx, zerolog.Nop())
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScopedSession_RollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := &Store{DB: db, log: zerolog.Nop()}

	mock.ExpectBegin()
	mock.ExpectRollback()

	wantErr := errors.New("boom")
	err = s.ScopedSession(context.Background(), func(tx *sql.Tx) error {
		return wantErr
	})
	require.ErrorIs(t, err, wantErr)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScopedSession_CommitsExplicitly(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := &Store{DB: db, log: zerolog.Nop()}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO settings").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err = s.ScopedSession(context.Background(), func(tx *sql.Tx) error {
		_, err := tx.ExecContext(context.Background(), "INSERT INTO settings (key, value) VALUES ($1, $2)", "k", "v")
		if err != nil {
			return err
		}
		return tx.Commit()
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
