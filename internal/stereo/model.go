// Package stereo models a calibrated stereo camera pair: two monocular camera
// models plus the extrinsics relating them (R, T, E, F). It persists the pair
// as three files in one directory,
//
//	<name>_left.yaml, <name>_right.yaml, <name>_pose.yaml
//
// and provides the depth/disparity conversions and the rigid stereo transform
// consumed by rectification and triangulation code elsewhere.
//
// Failures come in two classes. A missing file is recoverable: Load and Save
// return an error matching ErrCalibrationNotFound and a warning goes to the
// diagnostic sink. A file that exists but violates the schema returns an
// error matching ErrMalformedCalibration, which callers should treat as
// fatal. Geometry on an invalid model is a programming error and panics with
// a *PreconditionError.
//
// A Model is not safe for concurrent use; Load, Save and Scaled on the same
// instance must be serialised by the caller. Geometry methods only read.
package stereo

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/stereocal/internal/calibfile"
	"github.com/banshee-data/stereocal/internal/camera"
	"github.com/banshee-data/stereocal/internal/fsutil"
	"github.com/banshee-data/stereocal/internal/monitoring"
)

const (
	leftSuffix  = "_left"
	rightSuffix = "_right"
)

// Option configures a Model.
type Option func(*Model)

// WithFileSystem sets the filesystem used by Load and Save.
func WithFileSystem(fsys fsutil.FileSystem) Option {
	return func(m *Model) { m.fs = fsys }
}

// WithSink sets the diagnostic sink.
func WithSink(sink monitoring.Sink) Option {
	return func(m *Model) { m.log = sink }
}

// Model is a stereo camera: left and right monocular models, exclusively
// owned, plus R (3x3), T (3x1), E (3x3) and F (3x3). Nil matrices are empty.
type Model struct {
	name        string
	left, right *camera.Model
	r, t, e, f  *mat.Dense

	fs  fsutil.FileSystem
	log monitoring.Sink
}

// New returns an empty model.
func New(opts ...Option) *Model {
	m := &Model{
		left:  &camera.Model{},
		right: &camera.Model{},
		fs:    fsutil.OSFileSystem{},
		log:   monitoring.Default("StereoCameraModel"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewRectified builds an already rectified pair sharing one set of
// intrinsics, with the right camera offset by baseline meters along x.
func NewRectified(name string, fx, fy, cx, cy, baseline float64, size camera.ImageSize, opts ...Option) *Model {
	m := New(opts...)
	m.left = camera.New("", fx, fy, cx, cy, 0, size)
	m.right = camera.New("", fx, fy, cx, cy, -baseline*fx, size)
	m.r = mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	})
	m.t = mat.NewDense(3, 1, []float64{-baseline, 0, 0})
	m.SetName(name)
	return m
}

// Name returns the stereo camera name.
func (m *Model) Name() string { return m.name }

// SetName sets the name and renames the cameras name_left and name_right.
func (m *Model) SetName(name string) {
	m.name = name
	m.left.SetName(name + leftSuffix)
	m.right.SetName(name + rightSuffix)
}

// Left returns a copy of the left camera model.
func (m *Model) Left() *camera.Model { return m.left.Clone() }

// Right returns a copy of the right camera model.
func (m *Model) Right() *camera.Model { return m.right.Clone() }

// SetCameras replaces both camera models with copies, renamed after the
// stereo camera when it has a name.
func (m *Model) SetCameras(left, right *camera.Model) {
	m.left = left.Clone()
	m.right = right.Clone()
	if m.name != "" {
		m.SetName(m.name)
	}
}

// R returns a copy of the rotation, or nil.
func (m *Model) R() *mat.Dense { return calibfile.CloneDense(m.r) }

// T returns a copy of the translation, or nil.
func (m *Model) T() *mat.Dense { return calibfile.CloneDense(m.t) }

// E returns a copy of the essential matrix, or nil.
func (m *Model) E() *mat.Dense { return calibfile.CloneDense(m.e) }

// F returns a copy of the fundamental matrix, or nil.
func (m *Model) F() *mat.Dense { return calibfile.CloneDense(m.f) }

// HasExtrinsics reports whether both R and T are set.
func (m *Model) HasExtrinsics() bool { return m.r != nil && m.t != nil }

// Extrinsics returns a copy of the extrinsic matrices.
func (m *Model) Extrinsics() *Extrinsics {
	return &Extrinsics{
		CameraName: m.name,
		R:          calibfile.CloneDense(m.r),
		T:          calibfile.CloneDense(m.t),
		E:          calibfile.CloneDense(m.e),
		F:          calibfile.CloneDense(m.f),
	}
}

// SetExtrinsics copies R, T, E and F from ext. Each matrix must be nil or
// have its fixed shape; otherwise the model is left unchanged and the error
// matches ErrMalformedCalibration.
func (m *Model) SetExtrinsics(ext *Extrinsics) error {
	if ext == nil {
		m.r, m.t, m.e, m.f = nil, nil, nil, nil
		return nil
	}
	r, err := calibfile.FromDense(ext.R).Dense("rotation_matrix", 3, 3)
	if err != nil {
		return err
	}
	t, err := calibfile.FromDense(ext.T).Dense("translation_matrix", 3, 1)
	if err != nil {
		return err
	}
	e, err := calibfile.FromDense(ext.E).Dense("essential_matrix", 3, 3)
	if err != nil {
		return err
	}
	f, err := calibfile.FromDense(ext.F).Dense("fundamental_matrix", 3, 3)
	if err != nil {
		return err
	}
	m.r, m.t, m.e, m.f = r, t, e, f
	return nil
}

// IsValid reports whether both cameras are valid for projection. Extrinsics
// are not required; see HasExtrinsics.
func (m *Model) IsValid() bool {
	return m.left.IsValidForProjection() && m.right.IsValidForProjection()
}

// Load reads name_left and name_right from directory, then the pose file
// unless ignoreStereoTransform is set. A camera failure is returned at once.
// A missing pose file is an error matching ErrCalibrationNotFound even when
// both cameras loaded: extrinsics are mandatory unless explicitly ignored.
// On error the model keeps whatever the earlier steps loaded.
func (m *Model) Load(directory, name string, ignoreStereoTransform bool) error {
	m.name = name
	if err := m.left.Load(m.fs, directory, name+leftSuffix); err != nil {
		m.log.Warnf("Could not load left camera calibration: %v", err)
		return fmt.Errorf("load left camera: %w", err)
	}
	if err := m.right.Load(m.fs, directory, name+rightSuffix); err != nil {
		m.log.Warnf("Could not load right camera calibration: %v", err)
		return fmt.Errorf("load right camera: %w", err)
	}
	if ignoreStereoTransform {
		return nil
	}

	m.r, m.t, m.e, m.f = nil, nil, nil, nil
	path := PosePath(directory, name)
	ext, err := LoadExtrinsics(m.fs, directory, name)
	if err != nil {
		return err
	}
	if ext == nil {
		m.log.Warnf("Could not load stereo calibration file %q.", path)
		return fmt.Errorf("%w: %s", ErrCalibrationNotFound, path)
	}

	m.log.Infof("Read stereo calibration file %q", path)
	if ext.CameraName != "" && ext.CameraName != name {
		m.log.Infof("Stereo calibration file %q names camera %q, keeping %q", path, ext.CameraName, name)
	}
	if ext.R == nil || ext.T == nil {
		m.log.Warnf("Stereo calibration file %q has no rotation or translation", path)
	}
	m.r, m.t, m.e, m.f = ext.R, ext.T, ext.E, ext.F
	return nil
}

// Save writes both cameras to directory, then the pose file unless
// ignoreStereoTransform is set. Saving the pose requires a name, R and T
// (ErrIncompleteCalibration otherwise).
func (m *Model) Save(directory string, ignoreStereoTransform bool) error {
	if err := m.left.Save(m.fs, directory); err != nil {
		return fmt.Errorf("save left camera: %w", err)
	}
	if err := m.right.Save(m.fs, directory); err != nil {
		return fmt.Errorf("save right camera: %w", err)
	}
	if ignoreStereoTransform {
		return nil
	}

	path := PosePath(directory, m.name)
	if err := SaveExtrinsics(m.fs, directory, m.name, m.Extrinsics()); err != nil {
		if errors.Is(err, ErrIncompleteCalibration) {
			m.log.Warnf("Not saving stereo calibration %q: %v", path, err)
		}
		return err
	}
	m.log.Infof("Saved stereo calibration to file %q", path)
	return nil
}

// Scaled returns a new model for images resized by factor. Camera intrinsics
// scale; R, T, E and F are physical and are copied unchanged.
func (m *Model) Scaled(factor float64) *Model {
	return &Model{
		name:  m.name,
		left:  m.left.Scaled(factor),
		right: m.right.Scaled(factor),
		r:     calibfile.CloneDense(m.r),
		t:     calibfile.CloneDense(m.t),
		e:     calibfile.CloneDense(m.e),
		f:     calibfile.CloneDense(m.f),
		fs:    m.fs,
		log:   m.log,
	}
}
