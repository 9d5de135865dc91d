package stereo

import (
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/stereocal/internal/rigid"
	"github.com/banshee-data/stereocal/internal/units"
)

// Baseline returns the distance between the optical centres in meters.
// The rectified projection convention is used when the right camera carries
// a projection offset (Tx = -fx*baseline); otherwise the norm of T.
// It returns 0 when neither is available.
func (m *Model) Baseline() float64 {
	lfx, rfx := m.left.Fx(), m.right.Fx()
	if lfx != 0 && rfx != 0 && m.right.Tx() != 0 {
		return m.left.Tx()/lfx - m.right.Tx()/rfx
	}
	if m.t != nil {
		return mat.Norm(m.t, 2)
	}
	return 0
}

func (m *Model) mustBeValid(op string) {
	if !m.IsValid() {
		panic(&PreconditionError{Op: op, Name: m.name})
	}
}

// ComputeDepth converts a disparity in pixels to a depth in meters:
//
//	depth = baseline * fx_left / (disparity + cx_right - cx_left)
//
// A zero disparity returns 0 without dividing. Panics if the model is not
// valid.
func (m *Model) ComputeDepth(disparity float64) float64 {
	m.mustBeValid("ComputeDepth")
	if disparity == 0 {
		return 0
	}
	return m.Baseline() * m.left.Fx() / (disparity + m.right.Cx() - m.left.Cx())
}

// ComputeDisparity converts a depth in meters to a disparity in pixels:
//
//	disparity = baseline * fx_left / depth - cx_right + cx_left
//
// A zero depth returns 0 without dividing. Panics if the model is not valid.
func (m *Model) ComputeDisparity(depth float64) float64 {
	m.mustBeValid("ComputeDisparity")
	if depth == 0 {
		return 0
	}
	return m.disparity(depth)
}

// ComputeDisparityMillimeters is ComputeDisparity for a 16-bit depth image
// value in millimeters. Zero is the "no depth" value and returns 0.
func (m *Model) ComputeDisparityMillimeters(depthMM uint16) float64 {
	m.mustBeValid("ComputeDisparityMillimeters")
	if depthMM == 0 {
		return 0
	}
	return m.disparity(units.MillimetersToMeters(depthMM))
}

func (m *Model) disparity(depth float64) float64 {
	return m.Baseline()*m.left.Fx()/depth - m.right.Cx() + m.left.Cx()
}

// StereoTransform returns the rigid transform with rotation R and
// translation T, or the null transform when either is empty.
func (m *Model) StereoTransform() rigid.Transform {
	if m.r == nil || m.t == nil {
		return rigid.Null()
	}
	return rigid.FromMatrices(m.r, m.t)
}
