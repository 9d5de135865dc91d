package calibdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/stereocal/internal/camera"
	"github.com/banshee-data/stereocal/internal/stereo"
)

// ErrUnnamedModel is returned when recording a stereo model without a name.
var ErrUnnamedModel = errors.New("stereo model has no name")

// Record is one stored stereo calibration.
type Record struct {
	CalibrationID  string
	CameraName     string
	Method         string // how the calibration was produced, e.g. "checkerboard"
	RecordedAt     time.Time
	BaselineMeters float64
	FxPixels       float64
	LeftYAML       string
	RightYAML      string
	PoseYAML       string // empty when recorded without extrinsics
}

// HasExtrinsics reports whether the record includes a pose document.
func (r *Record) HasExtrinsics() bool { return r.PoseYAML != "" }

// RecordCalibration stores a snapshot of m. The model must be named and
// valid; extrinsics are stored when present.
func (db *DB) RecordCalibration(ctx context.Context, m *stereo.Model, method string) (*Record, error) {
	if m.Name() == "" {
		return nil, ErrUnnamedModel
	}
	if !m.IsValid() {
		return nil, fmt.Errorf("%w: %q", stereo.ErrInvalidModel, m.Name())
	}

	left, err := camera.Encode(m.Left())
	if err != nil {
		return nil, fmt.Errorf("encode left camera: %w", err)
	}
	right, err := camera.Encode(m.Right())
	if err != nil {
		return nil, fmt.Errorf("encode right camera: %w", err)
	}

	rec := &Record{
		CalibrationID:  uuid.New().String(),
		CameraName:     m.Name(),
		Method:         method,
		RecordedAt:     db.clock.Now().UTC(),
		BaselineMeters: m.Baseline(),
		FxPixels:       m.Left().Fx(),
		LeftYAML:       string(left),
		RightYAML:      string(right),
	}

	var pose interface{}
	if m.HasExtrinsics() {
		data, err := stereo.EncodeExtrinsics(m.Extrinsics())
		if err != nil {
			return nil, fmt.Errorf("encode extrinsics: %w", err)
		}
		rec.PoseYAML = string(data)
		pose = rec.PoseYAML
	}

	err = retryOnBusy(func() error {
		_, err := db.ExecContext(ctx, `
			INSERT INTO stereo_calibrations (
				calibration_id, camera_name, method, recorded_at,
				baseline_m, fx_px, left_yaml, right_yaml, pose_yaml
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.CalibrationID, rec.CameraName, rec.Method, rec.RecordedAt.UnixNano(),
			rec.BaselineMeters, rec.FxPixels, rec.LeftYAML, rec.RightYAML, pose,
		)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("insert calibration: %w", err)
	}
	return rec, nil
}

const selectCalibrations = `
	SELECT calibration_id, camera_name, method, recorded_at,
	       baseline_m, fx_px, left_yaml, right_yaml, pose_yaml
	FROM stereo_calibrations`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (*Record, error) {
	var (
		r          Record
		recordedAt int64
		pose       sql.NullString
	)
	if err := row.Scan(
		&r.CalibrationID, &r.CameraName, &r.Method, &recordedAt,
		&r.BaselineMeters, &r.FxPixels, &r.LeftYAML, &r.RightYAML, &pose,
	); err != nil {
		return nil, err
	}
	r.RecordedAt = time.Unix(0, recordedAt).UTC()
	if pose.Valid {
		r.PoseYAML = pose.String
	}
	return &r, nil
}

// LatestCalibration returns the most recent record for cameraName, or nil
// if there is none.
func (db *DB) LatestCalibration(ctx context.Context, cameraName string) (*Record, error) {
	row := db.QueryRowContext(ctx, selectCalibrations+`
		WHERE camera_name = ?
		ORDER BY recorded_at DESC, rowid DESC
		LIMIT 1`, cameraName)
	r, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan calibration: %w", err)
	}
	return r, nil
}

// ListCalibrations returns the records for cameraName, newest first. An
// empty cameraName lists every camera.
func (db *DB) ListCalibrations(ctx context.Context, cameraName string) ([]*Record, error) {
	query := selectCalibrations
	var args []interface{}
	if cameraName != "" {
		query += ` WHERE camera_name = ?`
		args = append(args, cameraName)
	}
	query += ` ORDER BY recorded_at DESC, rowid DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query calibrations: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan calibration: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Model restores the stereo model captured by the record.
func (r *Record) Model(opts ...stereo.Option) (*stereo.Model, error) {
	left, err := camera.Decode([]byte(r.LeftYAML))
	if err != nil {
		return nil, fmt.Errorf("calibration %s: left camera: %w", r.CalibrationID, err)
	}
	right, err := camera.Decode([]byte(r.RightYAML))
	if err != nil {
		return nil, fmt.Errorf("calibration %s: right camera: %w", r.CalibrationID, err)
	}

	m := stereo.New(opts...)
	m.SetName(r.CameraName)
	m.SetCameras(left, right)
	if r.HasExtrinsics() {
		ext, err := stereo.DecodeExtrinsics([]byte(r.PoseYAML))
		if err != nil {
			return nil, fmt.Errorf("calibration %s: %w", r.CalibrationID, err)
		}
		if err := m.SetExtrinsics(ext); err != nil {
			return nil, fmt.Errorf("calibration %s: %w", r.CalibrationID, err)
		}
	}
	return m, nil
}
