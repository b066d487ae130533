package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
)

type DetectionRepo struct{ DB DBTX }

func (r DetectionRepo) Create(ctx context.Context, d *Detection) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.DetectorBlob == nil {
		d.DetectorBlob = []byte("{}")
	}
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO detections (
			id, camera_id, created_at, snapshot_path, video_path, status, detector_blob,
			ai_cost_usd, played_sounds, visual_hash, scene_desc, error_detail
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		d.ID, d.CameraID, d.CreatedAt, d.SnapshotPath, d.VideoPath, d.Status, d.DetectorBlob,
		d.AICostUSD, strings.Join(d.PlayedSounds, ","), d.VisualHash, d.SceneDesc, d.ErrorDetail)
	return err
}

func (r DetectionRepo) UpdateVideoAndSounds(ctx context.Context, id uuid.UUID, videoPath *string, playedSounds []string) error {
	_, err := r.DB.ExecContext(ctx, `
		UPDATE detections SET video_path = $2, played_sounds = $3, status = 'deterred' WHERE id = $1`,
		id, videoPath, strings.Join(playedSounds, ","))
	return err
}

func (r DetectionRepo) GetByID(ctx context.Context, id uuid.UUID) (*Detection, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, camera_id, created_at, snapshot_path, video_path, status, detector_blob,
			ai_cost_usd, played_sounds, visual_hash, scene_desc, error_detail
		FROM detections WHERE id = $1`, id)
	return scanDetection(row)
}

func (r DetectionRepo) ListRecent(ctx context.Context, limit int) ([]*Detection, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, camera_id, created_at, snapshot_path, video_path, status, detector_blob,
			ai_cost_usd, played_sounds, visual_hash, scene_desc, error_detail
		FROM detections ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Detection
	for rows.Next() {
		var d Detection
		var sounds string
		if err := rows.Scan(&d.ID, &d.CameraID, &d.CreatedAt, &d.SnapshotPath, &d.VideoPath, &d.Status, &d.DetectorBlob,
			&d.AICostUSD, &sounds, &d.VisualHash, &d.SceneDesc, &d.ErrorDetail); err != nil {
			return nil, err
		}
		if sounds != "" {
			d.PlayedSounds = strings.Split(sounds, ",")
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

func scanDetection(row *sql.Row) (*Detection, error) {
	var d Detection
	var sounds string
	if err := row.Scan(&d.ID, &d.CameraID, &d.CreatedAt, &d.SnapshotPath, &d.VideoPath, &d.Status, &d.DetectorBlob,
		&d.AICostUSD, &sounds, &d.VisualHash, &d.SceneDesc, &d.ErrorDetail); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if sounds != "" {
		d.PlayedSounds = strings.Split(sounds, ",")
	}
	return &d, nil
}

type FoeRepo struct{ DB DBTX }

func (r FoeRepo) CreateBatch(ctx context.Context, foes []Foe) error {
	for i := range foes {
		if foes[i].ID == uuid.Nil {
			foes[i].ID = uuid.New()
		}
		_, err := r.DB.ExecContext(ctx, `
			INSERT INTO foes (id, detection_id, kind, confidence, bbox_x, bbox_y, bbox_w, bbox_h)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			foes[i].ID, foes[i].DetectionID, foes[i].Kind, foes[i].Confidence,
			foes[i].BBox.X, foes[i].BBox.Y, foes[i].BBox.W, foes[i].BBox.H)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r FoeRepo) ListByDetection(ctx context.Context, detectionID uuid.UUID) ([]Foe, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, detection_id, kind, confidence, bbox_x, bbox_y, bbox_w, bbox_h
		FROM foes WHERE detection_id = $1`, detectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Foe
	for rows.Next() {
		var f Foe
		if err := rows.Scan(&f.ID, &f.DetectionID, &f.Kind, &f.Confidence, &f.BBox.X, &f.BBox.Y, &f.BBox.W, &f.BBox.H); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

type DeterrentActionRepo struct{ DB DBTX }

func (r DeterrentActionRepo) Create(ctx context.Context, a *DeterrentAction) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO deterrent_actions (id, detection_id, action, triggered_at, success, details)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		a.ID, a.DetectionID, a.Action, a.TriggeredAt, a.Success, a.Details)
	return err
}
