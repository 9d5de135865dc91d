package camera

import (
	"github.com/banshee-data/stereocal/internal/calibfile"
)

// record is the on-disk layout of a camera calibration file.
type record struct {
	CameraName             string            `yaml:"camera_name"`
	ImageWidth             int               `yaml:"image_width"`
	ImageHeight            int               `yaml:"image_height"`
	CameraMatrix           *calibfile.Matrix `yaml:"camera_matrix,omitempty"`
	DistortionModel        string            `yaml:"distortion_model,omitempty"`
	DistortionCoefficients *calibfile.Matrix `yaml:"distortion_coefficients,omitempty"`
	RectificationMatrix    *calibfile.Matrix `yaml:"rectification_matrix,omitempty"`
	ProjectionMatrix       *calibfile.Matrix `yaml:"projection_matrix,omitempty"`
}

// Decode parses a camera calibration document. Shape violations and YAML
// errors match calibfile.ErrMalformed.
func Decode(data []byte) (*Model, error) {
	var rec record
	if err := calibfile.Unmarshal(data, &rec); err != nil {
		return nil, err
	}

	m := &Model{
		name:            rec.CameraName,
		imageSize:       ImageSize{Width: rec.ImageWidth, Height: rec.ImageHeight},
		distortionModel: rec.DistortionModel,
	}

	var err error
	if m.k, err = rec.CameraMatrix.Dense("camera_matrix", 3, 3); err != nil {
		return nil, err
	}
	if m.r, err = rec.RectificationMatrix.Dense("rectification_matrix", 3, 3); err != nil {
		return nil, err
	}
	if m.p, err = rec.ProjectionMatrix.Dense("projection_matrix", 3, 4); err != nil {
		return nil, err
	}
	if m.d, err = rec.DistortionCoefficients.DenseAnyShape("distortion_coefficients"); err != nil {
		return nil, err
	}
	if m.d != nil {
		rows, cols := m.d.Dims()
		if rows != 1 || !validDistortionCounts[cols] {
			return nil, &calibfile.ShapeError{
				Field: "distortion_coefficients", Rows: rows, Cols: cols, DataLen: rows * cols,
				WantRows: 1, WantCols: 5,
			}
		}
	}
	return m, nil
}

// Encode serialises m as a camera calibration document.
func Encode(m *Model) ([]byte, error) {
	rec := record{
		CameraName:             m.name,
		ImageWidth:             m.imageSize.Width,
		ImageHeight:            m.imageSize.Height,
		CameraMatrix:           calibfile.FromDense(m.k),
		DistortionModel:        m.distortionModel,
		DistortionCoefficients: calibfile.FromDense(m.d),
		RectificationMatrix:    calibfile.FromDense(m.r),
		ProjectionMatrix:       calibfile.FromDense(m.p),
	}
	if rec.DistortionCoefficients != nil && rec.DistortionModel == "" {
		rec.DistortionModel = DefaultDistortionModel
	}
	return calibfile.Marshal(rec)
}
