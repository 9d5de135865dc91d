package stereo

import (
	"errors"
	"fmt"

	"github.com/banshee-data/stereocal/internal/calibfile"
)

var (
	// ErrCalibrationNotFound marks a recoverable absence: a camera or pose
	// file that does not exist. Load returns it wrapped; callers decide.
	ErrCalibrationNotFound = calibfile.ErrNotFound

	// ErrMalformedCalibration marks a file that exists but violates the
	// schema (bad YAML or a matrix of the wrong shape). It is never returned
	// for a missing file and must not be treated as one.
	ErrMalformedCalibration = calibfile.ErrMalformed

	// ErrIncompleteCalibration is returned by SaveExtrinsics when the name,
	// R or T is empty. Nothing is written in that case.
	ErrIncompleteCalibration = errors.New("stereo calibration needs a name, rotation and translation")

	// ErrInvalidModel is the panic value class for depth/disparity
	// conversions on a model whose cameras are not valid for projection.
	ErrInvalidModel = errors.New("stereo camera model is not valid")
)

// PreconditionError is the panic value raised when a geometry operation is
// called on an invalid model. It matches ErrInvalidModel.
type PreconditionError struct {
	Op   string
	Name string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("stereo: %s on %q: %v", e.Op, e.Name, ErrInvalidModel)
}

func (e *PreconditionError) Is(target error) bool {
	return target == ErrInvalidModel
}
