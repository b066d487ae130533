package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
)

type IntegrationRepo struct{ DB DBTX }

func (r IntegrationRepo) Create(ctx context.Context, in *Integration) error {
	if in.ID == uuid.Nil {
		in.ID = uuid.New()
	}
	if in.Config == nil {
		in.Config = json.RawMessage("{}")
	}
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO integrations (id, kind, name, enabled, status, config, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())`,
		in.ID, in.Kind, in.Name, in.Enabled, in.Status, in.Config)
	return err
}

func (r IntegrationRepo) SetStatus(ctx context.Context, id uuid.UUID, status IntegrationStatus) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE integrations SET status = $2 WHERE id = $1`, id, status)
	return err
}

func (r IntegrationRepo) GetByID(ctx context.Context, id uuid.UUID) (*Integration, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, kind, name, enabled, status, config, created_at
		FROM integrations WHERE id = $1`, id)
	return scanIntegration(row)
}

// ListEnabledConnected returns integrations eligible to back active cameras.
func (r IntegrationRepo) ListEnabledConnected(ctx context.Context) ([]*Integration, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, kind, name, enabled, status, config, created_at
		FROM integrations WHERE enabled = true AND status = 'connected'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Integration
	for rows.Next() {
		in, err := scanIntegrationRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

func scanIntegration(row *sql.Row) (*Integration, error) {
	var in Integration
	if err := row.Scan(&in.ID, &in.Kind, &in.Name, &in.Enabled, &in.Status, &in.Config, &in.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &in, nil
}

func scanIntegrationRows(rows *sql.Rows) (*Integration, error) {
	var in Integration
	if err := rows.Scan(&in.ID, &in.Kind, &in.Name, &in.Enabled, &in.Status, &in.Config, &in.CreatedAt); err != nil {
		return nil, err
	}
	return &in, nil
}
