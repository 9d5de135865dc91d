// Package camera implements the monocular pinhole camera model: intrinsics,
// distortion, rectification and projection matrices, and their persistence
// in ROS camera_info style YAML files.
package camera

import (
	"errors"
	"fmt"
	"path/filepath"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/stereocal/internal/calibfile"
	"github.com/banshee-data/stereocal/internal/fsutil"
)

// FileExt is the extension of camera calibration files.
const FileExt = ".yaml"

// DefaultDistortionModel is written when a model has distortion
// coefficients but no explicit model name.
const DefaultDistortionModel = "plumb_bob"

// ErrEmptyModel is returned when saving a model with no name or no matrices.
var ErrEmptyModel = errors.New("camera model has no name or no calibration matrices")

// valid distortion coefficient counts (plumb_bob, rational, thin prism, tilted)
var validDistortionCounts = map[int]bool{4: true, 5: true, 8: true, 12: true, 14: true}

// ImageSize is the image resolution in pixels.
type ImageSize struct {
	Width  int
	Height int
}

// IsZero reports whether the size is unset.
func (s ImageSize) IsZero() bool { return s.Width == 0 && s.Height == 0 }

// Model is a calibrated monocular camera. Matrices are nil when unset:
//
//	K 3x3 intrinsics, D 1xN distortion, R 3x3 rectification, P 3x4 projection.
type Model struct {
	name            string
	imageSize       ImageSize
	distortionModel string
	k, d, r, p      *mat.Dense
}

// New builds a rectified pinhole model. tx is P[0,3], which is
// -fx*baseline for the right camera of a rectified stereo pair and 0 otherwise.
func New(name string, fx, fy, cx, cy, tx float64, size ImageSize) *Model {
	return &Model{
		name:      name,
		imageSize: size,
		k: mat.NewDense(3, 3, []float64{
			fx, 0, cx,
			0, fy, cy,
			0, 0, 1,
		}),
		r: mat.NewDense(3, 3, []float64{
			1, 0, 0,
			0, 1, 0,
			0, 0, 1,
		}),
		p: mat.NewDense(3, 4, []float64{
			fx, 0, cx, tx,
			0, fy, cy, 0,
			0, 0, 1, 0,
		}),
	}
}

// FileName returns the calibration file name for a camera.
func FileName(name string) string {
	return name + FileExt
}

// Name returns the camera name.
func (m *Model) Name() string { return m.name }

// SetName renames the camera.
func (m *Model) SetName(name string) { m.name = name }

// ImageSize returns the calibrated resolution.
func (m *Model) ImageSize() ImageSize { return m.imageSize }

// SetImageSize sets the calibrated resolution.
func (m *Model) SetImageSize(size ImageSize) { m.imageSize = size }

// DistortionModel returns the distortion model name, if any.
func (m *Model) DistortionModel() string { return m.distortionModel }

// K returns a copy of the intrinsic matrix, or nil.
func (m *Model) K() *mat.Dense { return calibfile.CloneDense(m.k) }

// D returns a copy of the distortion coefficients, or nil.
func (m *Model) D() *mat.Dense { return calibfile.CloneDense(m.d) }

// R returns a copy of the rectification matrix, or nil.
func (m *Model) R() *mat.Dense { return calibfile.CloneDense(m.r) }

// P returns a copy of the projection matrix, or nil.
func (m *Model) P() *mat.Dense { return calibfile.CloneDense(m.p) }

// intrinsic reads element (i,j) from P when set, else from K.
func (m *Model) intrinsic(i, j int) float64 {
	switch {
	case m.p != nil:
		return m.p.At(i, j)
	case m.k != nil:
		return m.k.At(i, j)
	default:
		return 0
	}
}

// Fx returns the horizontal focal length in pixels.
func (m *Model) Fx() float64 { return m.intrinsic(0, 0) }

// Fy returns the vertical focal length in pixels.
func (m *Model) Fy() float64 { return m.intrinsic(1, 1) }

// Cx returns the principal point x coordinate in pixels.
func (m *Model) Cx() float64 { return m.intrinsic(0, 2) }

// Cy returns the principal point y coordinate in pixels.
func (m *Model) Cy() float64 { return m.intrinsic(1, 2) }

// Tx returns P[0,3], or 0 without a projection matrix.
func (m *Model) Tx() float64 {
	if m.p == nil {
		return 0
	}
	return m.p.At(0, 3)
}

// IsValidForProjection reports whether the intrinsics can project points.
func (m *Model) IsValidForProjection() bool {
	return m.Fx() > 0 && m.Fy() > 0 && m.Cx() > 0 && m.Cy() > 0
}

// Clone returns a deep copy.
func (m *Model) Clone() *Model {
	return &Model{
		name:            m.name,
		imageSize:       m.imageSize,
		distortionModel: m.distortionModel,
		k:               calibfile.CloneDense(m.k),
		d:               calibfile.CloneDense(m.d),
		r:               calibfile.CloneDense(m.r),
		p:               calibfile.CloneDense(m.p),
	}
}

// Scaled returns a copy with focal lengths, principal point, P's translation
// column and image size multiplied by factor. Distortion and rectification
// are resolution independent and stay unchanged. A model that is not valid
// for projection is returned unscaled. factor must be positive.
func (m *Model) Scaled(factor float64) *Model {
	if factor <= 0 {
		panic(fmt.Sprintf("camera: scale factor must be positive, got %v", factor))
	}
	out := m.Clone()
	if !m.IsValidForProjection() {
		return out
	}
	if out.k != nil {
		for _, ij := range [][2]int{{0, 0}, {1, 1}, {0, 2}, {1, 2}} {
			out.k.Set(ij[0], ij[1], out.k.At(ij[0], ij[1])*factor)
		}
	}
	if out.p != nil {
		for _, ij := range [][2]int{{0, 0}, {1, 1}, {0, 2}, {1, 2}, {0, 3}, {1, 3}} {
			out.p.Set(ij[0], ij[1], out.p.At(ij[0], ij[1])*factor)
		}
	}
	out.imageSize = ImageSize{
		Width:  int(float64(m.imageSize.Width) * factor),
		Height: int(float64(m.imageSize.Height) * factor),
	}
	return out
}

// Load reads directory/name.yaml into m and names the model name. A missing
// file matches calibfile.ErrNotFound; a bad one matches calibfile.ErrMalformed.
// On error m is left unchanged.
func (m *Model) Load(fsys fsutil.FileSystem, directory, name string) error {
	path := filepath.Join(directory, FileName(name))
	if !fsys.Exists(path) {
		return fmt.Errorf("%w: %s", calibfile.ErrNotFound, path)
	}
	data, err := fsys.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read camera calibration %s: %w", path, err)
	}
	loaded, err := Decode(data)
	if err != nil {
		return fmt.Errorf("camera calibration %s: %w", path, err)
	}
	*m = *loaded
	m.name = name
	return nil
}

// Save writes the model to directory/<name>.yaml.
func (m *Model) Save(fsys fsutil.FileSystem, directory string) error {
	if m.name == "" || (m.k == nil && m.d == nil && m.r == nil && m.p == nil) {
		return ErrEmptyModel
	}
	data, err := Encode(m)
	if err != nil {
		return err
	}
	path := filepath.Join(directory, FileName(m.name))
	if err := fsys.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write camera calibration %s: %w", path, err)
	}
	return nil
}
