package stereo

import (
	"fmt"
	"path/filepath"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/stereocal/internal/calibfile"
	"github.com/banshee-data/stereocal/internal/fsutil"
)

// Extrinsics is the content of a stereo pose file: the rotation and
// translation relating the right camera frame to the left one, plus the
// essential and fundamental matrices derived from them. Nil means empty.
type Extrinsics struct {
	CameraName string
	R          *mat.Dense // 3x3
	T          *mat.Dense // 3x1
	E          *mat.Dense // 3x3
	F          *mat.Dense // 3x3
}

// poseRecord is the on-disk layout of a pose file, in ROS calibration format.
type poseRecord struct {
	CameraName  string            `yaml:"camera_name"`
	Rotation    *calibfile.Matrix `yaml:"rotation_matrix,omitempty"`
	Translation *calibfile.Matrix `yaml:"translation_matrix,omitempty"`
	Essential   *calibfile.Matrix `yaml:"essential_matrix,omitempty"`
	Fundamental *calibfile.Matrix `yaml:"fundamental_matrix,omitempty"`
}

// PoseFileName returns the pose file name for a stereo camera.
func PoseFileName(name string) string {
	return name + "_pose.yaml"
}

// PosePath returns the pose file path for a stereo camera in directory.
func PosePath(directory, name string) string {
	return filepath.Join(directory, PoseFileName(name))
}

// DecodeExtrinsics parses a pose document. Every block present must declare
// rows*cols equal to its data length and have its fixed shape (3x3, or 3x1
// for translation); violations match ErrMalformedCalibration.
func DecodeExtrinsics(data []byte) (*Extrinsics, error) {
	var rec poseRecord
	if err := calibfile.Unmarshal(data, &rec); err != nil {
		return nil, err
	}

	ext := &Extrinsics{CameraName: rec.CameraName}
	var err error
	if ext.R, err = rec.Rotation.Dense("rotation_matrix", 3, 3); err != nil {
		return nil, err
	}
	if ext.T, err = rec.Translation.Dense("translation_matrix", 3, 1); err != nil {
		return nil, err
	}
	if ext.E, err = rec.Essential.Dense("essential_matrix", 3, 3); err != nil {
		return nil, err
	}
	if ext.F, err = rec.Fundamental.Dense("fundamental_matrix", 3, 3); err != nil {
		return nil, err
	}
	return ext, nil
}

// EncodeExtrinsics serialises ext as a pose document. Empty matrices are
// omitted.
func EncodeExtrinsics(ext *Extrinsics) ([]byte, error) {
	return calibfile.Marshal(poseRecord{
		CameraName:  ext.CameraName,
		Rotation:    calibfile.FromDense(ext.R),
		Translation: calibfile.FromDense(ext.T),
		Essential:   calibfile.FromDense(ext.E),
		Fundamental: calibfile.FromDense(ext.F),
	})
}

// LoadExtrinsics reads directory/name_pose.yaml. It returns nil, nil when
// the file does not exist.
func LoadExtrinsics(fsys fsutil.FileSystem, directory, name string) (*Extrinsics, error) {
	path := PosePath(directory, name)
	if !fsys.Exists(path) {
		return nil, nil
	}
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stereo calibration %s: %w", path, err)
	}
	ext, err := DecodeExtrinsics(data)
	if err != nil {
		return nil, fmt.Errorf("stereo calibration %s: %w", path, err)
	}
	return ext, nil
}

// SaveExtrinsics writes ext to directory/name_pose.yaml, recording name as
// the camera_name. It writes nothing and returns ErrIncompleteCalibration
// when name, R or T is empty.
func SaveExtrinsics(fsys fsutil.FileSystem, directory, name string, ext *Extrinsics) error {
	if name == "" || ext == nil || ext.R == nil || ext.T == nil {
		return ErrIncompleteCalibration
	}
	rec := *ext
	rec.CameraName = name
	data, err := EncodeExtrinsics(&rec)
	if err != nil {
		return err
	}
	path := PosePath(directory, name)
	if err := fsys.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write stereo calibration %s: %w", path, err)
	}
	return nil
}
