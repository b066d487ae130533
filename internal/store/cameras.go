package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
)

type CameraRepo struct{ DB DBTX }

func (r CameraRepo) Create(ctx context.Context, c *Camera) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	caps, err := json.Marshal(c.Capabilities)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO cameras (id, integration_id, name, status, provider_id, capabilities, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (integration_id, provider_id) DO UPDATE SET
			name = EXCLUDED.name, status = EXCLUDED.status, capabilities = EXCLUDED.capabilities`,
		c.ID, c.IntegrationID, c.Name, c.Status, c.ProviderID, caps)
	return err
}

func (r CameraRepo) GetByID(ctx context.Context, id uuid.UUID) (*Camera, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, integration_id, name, status, provider_id, capabilities, deleted_at, created_at
		FROM cameras WHERE id = $1`, id)
	return scanCamera(row)
}

// ActiveCameras returns cameras whose Integration is enabled and connected,
// and which have not been soft-deleted.
func (r CameraRepo) ActiveCameras(ctx context.Context) ([]*Camera, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT c.id, c.integration_id, c.name, c.status, c.provider_id, c.capabilities, c.deleted_at, c.created_at
		FROM cameras c
		JOIN integrations i ON i.id = c.integration_id
		WHERE c.deleted_at IS NULL AND i.enabled = true AND i.status = 'connected'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Camera
	for rows.Next() {
		cam, err := scanCameraRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cam)
	}
	return out, rows.Err()
}

func (r CameraRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE cameras SET deleted_at = now() WHERE id = $1`, id)
	return err
}

func (r CameraRepo) SetStatus(ctx context.Context, id uuid.UUID, status CameraStatus) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE cameras SET status = $2 WHERE id = $1`, id, status)
	return err
}

func scanCamera(row *sql.Row) (*Camera, error) {
	var c Camera
	var caps []byte
	if err := row.Scan(&c.ID, &c.IntegrationID, &c.Name, &c.Status, &c.ProviderID, &caps, &c.DeletedAt, &c.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	_ = json.Unmarshal(caps, &c.Capabilities)
	return &c, nil
}

func scanCameraRows(rows *sql.Rows) (*Camera, error) {
	var c Camera
	var caps []byte
	if err := rows.Scan(&c.ID, &c.IntegrationID, &c.Name, &c.Status, &c.ProviderID, &caps, &c.DeletedAt, &c.CreatedAt); err != nil {
		return nil, err
	}
	_ = json.Unmarshal(caps, &c.Capabilities)
	return &c, nil
}
