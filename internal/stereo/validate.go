package stereo

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/stereocal/internal/rigid"
)

// EpipolarTolerance bounds the normalised residuals of the essential and
// fundamental matrix checks.
const EpipolarTolerance = 0.01

// ExtrinsicsValidationResult contains the result of extrinsics validation.
// Valid is false only for blocking issues (missing or non-rigid R|T, zero
// baseline); epipolar inconsistencies are reported as issues but do not
// invalidate the calibration.
type ExtrinsicsValidationResult struct {
	Valid  bool
	Issues []string
}

// ValidateExtrinsics checks that R is a proper rotation, T is non-zero, and
// that E and F, when present, agree with R and T.
func ValidateExtrinsics(ext *Extrinsics) ExtrinsicsValidationResult {
	result := ExtrinsicsValidationResult{Issues: make([]string, 0)}

	if ext == nil {
		result.Issues = append(result.Issues, "extrinsics are nil")
		return result
	}
	if ext.R == nil || ext.T == nil {
		result.Issues = append(result.Issues, "rotation or translation is missing")
		return result
	}

	result.Valid = true
	if !rigid.FromMatrices(ext.R, ext.T).IsRigid(rigid.Tolerance) {
		result.Valid = false
		result.Issues = append(result.Issues, "rotation is not orthonormal with determinant 1")
	}
	if mat.Norm(ext.T, 2) == 0 {
		result.Valid = false
		result.Issues = append(result.Issues, "translation is zero (no baseline)")
	}

	if ext.E != nil {
		if res := essentialResidual(ext.E, ext.R, ext.T); res > EpipolarTolerance {
			result.Issues = append(result.Issues,
				fmt.Sprintf("essential matrix inconsistent with R and T (residual %.4f)", res))
		}
	}
	if ext.F != nil {
		n := mat.Norm(ext.F, 2)
		if n == 0 {
			result.Issues = append(result.Issues, "fundamental matrix is zero")
		} else if d := math.Abs(mat.Det(ext.F)) / (n * n * n); d > EpipolarTolerance {
			result.Issues = append(result.Issues,
				fmt.Sprintf("fundamental matrix is not rank 2 (normalised det %.4f)", d))
		}
	}
	return result
}

// essentialResidual compares E with [T]x R after normalising both to unit
// Frobenius norm. E is only defined up to sign, so the smaller of the two
// residuals is returned.
func essentialResidual(e, r, t mat.Matrix) float64 {
	tx, ty, tz := t.At(0, 0), t.At(1, 0), t.At(2, 0)
	skew := mat.NewDense(3, 3, []float64{
		0, -tz, ty,
		tz, 0, -tx,
		-ty, tx, 0,
	})
	var expected mat.Dense
	expected.Mul(skew, r)

	en, xn := mat.Norm(e, 2), mat.Norm(&expected, 2)
	if en == 0 || xn == 0 {
		return math.Inf(1)
	}

	var a, b, diff mat.Dense
	a.Scale(1/en, e)
	b.Scale(1/xn, &expected)
	diff.Sub(&a, &b)
	minus := mat.Norm(&diff, 2)
	diff.Add(&a, &b)
	plus := mat.Norm(&diff, 2)
	return math.Min(minus, plus)
}
