// Package rigid provides the 4x4 rigid transform used to express the pose of
// one camera frame relative to another.
package rigid

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Tolerance is the default tolerance for checking rotation validity.
const Tolerance = 0.01

// Transform is a row-major 4x4 homogeneous matrix:
// m00,m01,m02,tx, m10,m11,m12,ty, m20,m21,m22,tz, 0,0,0,1.
//
// The zero value is the null transform, meaning "no transform known". It is
// distinct from Identity.
type Transform [16]float64

// Null returns the null transform.
func Null() Transform { return Transform{} }

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// New assembles a transform from a rotation (row-major) and a translation.
func New(r [9]float64, tx, ty, tz float64) Transform {
	return Transform{
		r[0], r[1], r[2], tx,
		r[3], r[4], r[5], ty,
		r[6], r[7], r[8], tz,
		0, 0, 0, 1,
	}
}

// FromMatrices copies a 3x3 rotation and a 3x1 translation element by element.
// Either being nil, or of any other shape, yields the null transform.
func FromMatrices(rot, trans mat.Matrix) Transform {
	if rot == nil || trans == nil {
		return Null()
	}
	if r, c := rot.Dims(); r != 3 || c != 3 {
		return Null()
	}
	if r, c := trans.Dims(); r != 3 || c != 1 {
		return Null()
	}
	var t Transform
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			t[i*4+j] = rot.At(i, j)
		}
		t[i*4+3] = trans.At(i, 0)
	}
	t[15] = 1
	return t
}

// IsNull reports whether t is the null transform.
func (t Transform) IsNull() bool {
	return t == Transform{}
}

// IsIdentity reports whether t is exactly the identity.
func (t Transform) IsIdentity() bool {
	return t == Identity()
}

// Apply applies t to point (x,y,z).
func (t Transform) Apply(x, y, z float64) (wx, wy, wz float64) {
	wx = t[0]*x + t[1]*y + t[2]*z + t[3]
	wy = t[4]*x + t[5]*y + t[6]*z + t[7]
	wz = t[8]*x + t[9]*y + t[10]*z + t[11]
	return
}

// Translation returns the translation part.
func (t Transform) Translation() (x, y, z float64) {
	return t[3], t[7], t[11]
}

// Rotation returns the rotation part as a 3x3 matrix.
func (t Transform) Rotation() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		t[0], t[1], t[2],
		t[4], t[5], t[6],
		t[8], t[9], t[10],
	})
}

// Inverse returns the inverse of a rigid transform: R^T and -R^T*t.
// The null transform is its own inverse.
func (t Transform) Inverse() Transform {
	if t.IsNull() {
		return t
	}
	r := [9]float64{
		t[0], t[4], t[8],
		t[1], t[5], t[9],
		t[2], t[6], t[10],
	}
	tx, ty, tz := t.Translation()
	return New(r,
		-(r[0]*tx + r[1]*ty + r[2]*tz),
		-(r[3]*tx + r[4]*ty + r[5]*tz),
		-(r[6]*tx + r[7]*ty + r[8]*tz),
	)
}

// Mul returns the composition t*o (o applied first).
func (t Transform) Mul(o Transform) Transform {
	var out Transform
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			var s float64
			for k := 0; k < 4; k++ {
				s += t[i*4+k] * o[k*4+j]
			}
			out[i*4+j] = s
		}
	}
	return out
}

// IsRigid checks that t is a proper rigid transform:
// 1. rotation determinant within tol of 1 (not a reflection or scale)
// 2. rotation columns orthonormal within tol
// 3. last row is [0 0 0 1]
func (t Transform) IsRigid(tol float64) bool {
	r00, r01, r02 := t[0], t[1], t[2]
	r10, r11, r12 := t[4], t[5], t[6]
	r20, r21, r22 := t[8], t[9], t[10]

	det := r00*(r11*r22-r12*r21) - r01*(r10*r22-r12*r20) + r02*(r10*r21-r11*r20)
	if math.Abs(det-1.0) > tol {
		return false
	}

	cols := [3][3]float64{{r00, r10, r20}, {r01, r11, r21}, {r02, r12, r22}}
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			dot := cols[i][0]*cols[j][0] + cols[i][1]*cols[j][1] + cols[i][2]*cols[j][2]
			want := 0.0
			if i == j {
				want = 1.0
			}
			if math.Abs(dot-want) > tol {
				return false
			}
		}
	}

	if t[12] != 0 || t[13] != 0 || t[14] != 0 || math.Abs(t[15]-1.0) > 0.001 {
		return false
	}
	return true
}

// String formats t as "xyz=... rpy=..." with rpy in radians, or "null".
func (t Transform) String() string {
	if t.IsNull() {
		return "null"
	}
	x, y, z := t.Translation()
	roll, pitch, yaw := t.EulerAngles()
	return fmt.Sprintf("xyz=%.6f,%.6f,%.6f rpy=%.6f,%.6f,%.6f", x, y, z, roll, pitch, yaw)
}

// EulerAngles returns roll, pitch, yaw (radians, ZYX convention).
func (t Transform) EulerAngles() (roll, pitch, yaw float64) {
	roll = math.Atan2(t[9], t[10])
	pitch = math.Asin(math.Max(-1, math.Min(1, -t[8])))
	yaw = math.Atan2(t[4], t[0])
	return
}
