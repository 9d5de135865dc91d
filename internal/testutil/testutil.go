// Package testutil provides shared test utilities and calibration fixtures.
//
// Fixtures are written as raw YAML so that the codecs under test are not
// used to produce their own input.
package testutil

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/stereocal/internal/fsutil"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertMatrixNear fails the test unless got and want have the same shape
// and every element differs by at most tol.
func AssertMatrixNear(t testing.TB, got, want mat.Matrix, tol float64) {
	t.Helper()
	if got == nil || want == nil {
		if got != want {
			t.Fatalf("matrix mismatch: got %v, want %v", got, want)
		}
		return
	}
	gr, gc := got.Dims()
	wr, wc := want.Dims()
	if gr != wr || gc != wc {
		t.Fatalf("matrix shape = %dx%d, want %dx%d", gr, gc, wr, wc)
	}
	for i := 0; i < gr; i++ {
		for j := 0; j < gc; j++ {
			if d := math.Abs(got.At(i, j) - want.At(i, j)); d > tol {
				t.Errorf("element (%d,%d) = %v, want %v (|diff| %g > %g)",
					i, j, got.At(i, j), want.At(i, j), d, tol)
			}
		}
	}
}

// Intrinsics are the pinhole parameters of one fixture camera.
type Intrinsics struct {
	Fx, Fy, Cx, Cy float64
	Tx             float64 // projection offset, -fx*baseline for a right camera
	Width, Height  int
}

// DefaultIntrinsics is a VGA camera with a 525px focal length.
var DefaultIntrinsics = Intrinsics{Fx: 525, Fy: 525, Cx: 319.5, Cy: 239.5, Width: 640, Height: 480}

// CameraYAML renders a camera calibration document.
func CameraYAML(name string, in Intrinsics) string {
	return fmt.Sprintf(`camera_name: %s
image_width: %d
image_height: %d
camera_matrix:
  rows: 3
  cols: 3
  data: [%s]
rectification_matrix:
  rows: 3
  cols: 3
  data: [1, 0, 0, 0, 1, 0, 0, 0, 1]
projection_matrix:
  rows: 3
  cols: 4
  data: [%s]
`, name, in.Width, in.Height,
		floatList(in.Fx, 0, in.Cx, 0, in.Fy, in.Cy, 0, 0, 1),
		floatList(in.Fx, 0, in.Cx, in.Tx, 0, in.Fy, in.Cy, 0, 0, 0, 1, 0))
}

// PoseYAML renders a pose document with 3x3 R, E, F and 3x1 T blocks.
func PoseYAML(name string, r [9]float64, t [3]float64, e, f [9]float64) string {
	block := func(key string, rows, cols int, data []float64) string {
		return fmt.Sprintf("%s:\n  rows: %d\n  cols: %d\n  data: [%s]\n", key, rows, cols, floatList(data...))
	}
	return "camera_name: " + name + "\n" +
		block("rotation_matrix", 3, 3, r[:]) +
		block("translation_matrix", 3, 1, t[:]) +
		block("essential_matrix", 3, 3, e[:]) +
		block("fundamental_matrix", 3, 3, f[:])
}

// RectifiedPose returns R=I, T=[-baseline,0,0] and the matching E=[T]x R.
func RectifiedPose(baseline float64) (r [9]float64, t [3]float64, e [9]float64) {
	r = [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}
	t = [3]float64{-baseline, 0, 0}
	e = [9]float64{0, 0, 0, 0, 0, baseline, 0, -baseline, 0}
	return
}

// WriteCameraFiles writes name_left.yaml and name_right.yaml for a rectified
// pair with the given baseline into dir.
func WriteCameraFiles(t testing.TB, fsys fsutil.FileSystem, dir, name string, in Intrinsics, baseline float64) {
	t.Helper()
	right := in
	right.Tx = -in.Fx * baseline
	left := in
	left.Tx = 0
	AssertNoError(t, fsys.WriteFile(filepath.Join(dir, name+"_left.yaml"), []byte(CameraYAML(name+"_left", left)), 0644))
	AssertNoError(t, fsys.WriteFile(filepath.Join(dir, name+"_right.yaml"), []byte(CameraYAML(name+"_right", right)), 0644))
}

// WriteStereoFixture writes both camera files and a rectified pose file.
func WriteStereoFixture(t testing.TB, fsys fsutil.FileSystem, dir, name string, baseline float64) {
	t.Helper()
	WriteCameraFiles(t, fsys, dir, name, DefaultIntrinsics, baseline)
	r, tr, e := RectifiedPose(baseline)
	f := [9]float64{0, 0, 0, 0, 0, -1, 0, 1, 0}
	AssertNoError(t, fsys.WriteFile(filepath.Join(dir, name+"_pose.yaml"), []byte(PoseYAML(name, r, tr, e, f)), 0644))
}

func floatList(vals ...float64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprintf("%g", v)
	}
	return strings.Join(parts, ", ")
}
