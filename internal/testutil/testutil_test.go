package testutil

import (
	"errors"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/stereocal/internal/fsutil"
)

func TestAssertHelpers(t *testing.T) {
	t.Parallel()

	AssertNoError(t, nil)
	AssertError(t, errors.New("boom"))

	a := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	b := mat.NewDense(2, 2, []float64{1, 2, 3, 4 + 1e-12})
	AssertMatrixNear(t, a, b, 1e-9)
}

func TestCameraYAML(t *testing.T) {
	t.Parallel()

	doc := CameraYAML("cam_left", DefaultIntrinsics)
	for _, want := range []string{
		"camera_name: cam_left",
		"image_width: 640",
		"data: [525, 0, 319.5, 0, 525, 239.5, 0, 0, 1]",
		"data: [525, 0, 319.5, 0, 0, 525, 239.5, 0, 0, 0, 1, 0]",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("camera YAML missing %q:\n%s", want, doc)
		}
	}
}

func TestWriteStereoFixture(t *testing.T) {
	t.Parallel()

	fsys := fsutil.NewMemoryFileSystem()
	WriteStereoFixture(t, fsys, "/calib", "stereo", 0.5)

	for _, name := range []string{"/calib/stereo_left.yaml", "/calib/stereo_right.yaml", "/calib/stereo_pose.yaml"} {
		if !fsys.Exists(name) {
			t.Errorf("expected %s to exist", name)
		}
	}
	right, _ := fsys.ReadFile("/calib/stereo_right.yaml")
	if !strings.Contains(string(right), "-262.5") {
		t.Errorf("expected right Tx -262.5 in:\n%s", right)
	}
}
