package main

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/stereocal/internal/fsutil"
	"github.com/banshee-data/stereocal/internal/monitoring"
	"github.com/banshee-data/stereocal/internal/stereo"
	"github.com/banshee-data/stereocal/internal/testutil"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	root := newRootCmd()
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func fixtureDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteStereoFixture(t, fsutil.OSFileSystem{}, dir, "stereo", 0.12)
	return dir
}

func TestInfo(t *testing.T) {
	dir := fixtureDir(t)

	out, err := run(t, "info", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Stereo camera: stereo")
	assert.Contains(t, out, "left  640x480  fx=525.000")
	assert.Contains(t, out, "Valid: true")
	assert.Contains(t, out, "Baseline: 0.1200 m")
	assert.Contains(t, out, "Extrinsics check: ok")
}

func TestInfo_IgnoreExtrinsics(t *testing.T) {
	dir := fixtureDir(t)
	require.NoError(t, os.Remove(filepath.Join(dir, "stereo_pose.yaml")))

	_, err := run(t, "info", "--dir", dir)
	assert.ErrorIs(t, err, stereo.ErrCalibrationNotFound)

	out, err := run(t, "info", "--dir", dir, "--ignore-extrinsics")
	require.NoError(t, err)
	assert.Contains(t, out, "Extrinsics: none")
	// baseline still known from the right projection matrix
	assert.Contains(t, out, "Baseline: 0.1200 m")
}

func TestInfo_Malformed(t *testing.T) {
	dir := fixtureDir(t)
	bad := "rotation_matrix:\n  rows: 3\n  cols: 3\n  data: [1, 0, 0]\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stereo_pose.yaml"), []byte(bad), 0644))

	_, err := run(t, "info", "--dir", dir)
	assert.ErrorIs(t, err, stereo.ErrMalformedCalibration)
}

func TestDepth(t *testing.T) {
	dir := fixtureDir(t)

	out, err := run(t, "depth", "--dir", dir, "63", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "disparity 63 px -> depth 1.0000 m")
	assert.Contains(t, out, "disparity 0 px -> depth 0.0000 m")

	out, err = run(t, "depth", "--dir", dir, "--units", "mm", "63")
	require.NoError(t, err)
	assert.Contains(t, out, "depth 1000.0000 mm")

	_, err = run(t, "depth", "--dir", dir, "--units", "ft", "63")
	assert.Error(t, err)
	_, err = run(t, "depth", "--dir", dir, "sixty")
	assert.Error(t, err)
}

func TestDisparity(t *testing.T) {
	dir := fixtureDir(t)

	out, err := run(t, "disparity", "--dir", dir, "--units", "mm", "1000", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "depth 1000 mm -> disparity 63.0000 px")
	assert.Contains(t, out, "depth 0 mm -> disparity 0.0000 px")

	out, err = run(t, "disparity", "--dir", dir, "2")
	require.NoError(t, err)
	assert.Contains(t, out, "depth 2 m -> disparity 31.5000 px")

	_, err = run(t, "disparity", "--dir", dir, "--units", "mm", "70000")
	assert.Error(t, err)
}

func TestGeometry_InvalidCalibration(t *testing.T) {
	dir := t.TempDir()
	in := testutil.DefaultIntrinsics
	in.Fx = 0
	testutil.WriteCameraFiles(t, fsutil.OSFileSystem{}, dir, "stereo", in, 0.12)

	_, err := run(t, "depth", "--dir", dir, "--ignore-extrinsics", "10")
	assert.ErrorIs(t, err, stereo.ErrInvalidModel)
}

func TestScale(t *testing.T) {
	dir := fixtureDir(t)
	outDir := filepath.Join(t.TempDir(), "half")

	out, err := run(t, "scale", "0.5", "--dir", dir, "--out", outDir, "--as", "half")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote half scaled by 0.5")

	m := stereo.New(stereo.WithSink(monitoring.Nop()))
	require.NoError(t, m.Load(outDir, "half", false))
	assert.Equal(t, 262.5, m.Left().Fx())
	assert.Equal(t, 320, m.Left().ImageSize().Width)
	assert.InDelta(t, 0.12, m.Baseline(), 1e-12)

	_, err = run(t, "scale", "-1", "--dir", dir, "--out", outDir)
	assert.Error(t, err)
}

func TestPlot(t *testing.T) {
	dir := fixtureDir(t)
	png := filepath.Join(t.TempDir(), "curve.png")

	out, err := run(t, "plot", "--dir", dir, "--out", png, "--steps", "16")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 16 samples")
	info, err := os.Stat(png)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestRecordAndHistory(t *testing.T) {
	dir := fixtureDir(t)
	db := filepath.Join(t.TempDir(), "history.db")

	out, err := run(t, "history", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "No calibrations recorded.")

	out, err = run(t, "record", "--dir", dir, "--db", db, "--method", "checkerboard")
	require.NoError(t, err)
	id := regexp.MustCompile(`Recorded calibration (\S+) for stereo`).FindStringSubmatch(out)
	require.Len(t, id, 2, out)

	out, err = run(t, "history", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, id[1])
	assert.Contains(t, out, "checkerboard")
	assert.Contains(t, out, "0.1200")

	restored := filepath.Join(t.TempDir(), "restored")
	out, err = run(t, "history", "--db", db, "--restore", id[1], "--out", restored)
	require.NoError(t, err)
	assert.Contains(t, out, "Restored "+id[1])
	for _, f := range []string{"stereo_left.yaml", "stereo_right.yaml", "stereo_pose.yaml"} {
		assert.FileExists(t, filepath.Join(restored, f))
	}

	_, err = run(t, "history", "--db", db, "--restore", "no-such-id")
	assert.Error(t, err)
}

func TestConfigAndEnv(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteStereoFixture(t, fsutil.OSFileSystem{}, dir, "front", 0.12)

	cfgPath := filepath.Join(t.TempDir(), "stereocal.json")
	cfg := `{"calibration_dir": "` + dir + `", "camera_name": "front", "depth_units": "mm"}`
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0644))

	out, err := run(t, "depth", "--config", cfgPath, "63")
	require.NoError(t, err)
	assert.Contains(t, out, "depth 1000.0000 mm")

	t.Setenv("STEREOCAL_DEPTH_UNITS", "m")
	out, err = run(t, "depth", "--config", cfgPath, "63")
	require.NoError(t, err)
	assert.Contains(t, out, "depth 1.0000 m")

	// flags win over config and environment
	_, err = run(t, "info", "--config", cfgPath, "--name", "rear")
	assert.ErrorIs(t, err, stereo.ErrCalibrationNotFound)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version", "--config", "/nonexistent.json")
	require.NoError(t, err)
	assert.Contains(t, out, "stereocal dev")
}

func TestRejectsUnsafeCameraName(t *testing.T) {
	dir := fixtureDir(t)

	_, err := run(t, "info", "--dir", dir, "--name", "../stereo")
	assert.Error(t, err)

	_, err = run(t, "scale", "2", "--dir", dir, "--out", t.TempDir(), "--as", "a/b")
	assert.Error(t, err)
}
