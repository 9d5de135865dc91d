package stereo

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/stereocal/internal/camera"
	"github.com/banshee-data/stereocal/internal/fsutil"
	"github.com/banshee-data/stereocal/internal/monitoring"
	"github.com/banshee-data/stereocal/internal/rigid"
)

func TestComputeDepth_Formula(t *testing.T) {
	t.Parallel()

	m := newTestModel(fsutil.NewMemoryFileSystem(), monitoring.Nop())
	// 0.12 m * 525 px / 63 px = 1 m
	assert.InDelta(t, 1.0, m.ComputeDepth(63), 1e-12)
	assert.InDelta(t, 63.0, m.ComputeDisparity(1.0), 1e-12)
	assert.InDelta(t, 63.0, m.ComputeDisparityMillimeters(1000), 1e-12)
	assert.InDelta(t, 31.5, m.ComputeDisparityMillimeters(2000), 1e-12)
}

func TestComputeDepth_PrincipalPointOffset(t *testing.T) {
	t.Parallel()

	m := New(WithSink(monitoring.Nop()))
	m.SetCameras(
		camera.New("", 500, 500, 300, 240, 0, vga),
		camera.New("", 500, 500, 310, 240, -50, vga),
	)
	// baseline 0.1, cx_right - cx_left = 10
	assert.InDelta(t, 0.1*500/(40+10), m.ComputeDepth(40), 1e-12)
	assert.InDelta(t, 0.1*500/2.0-10, m.ComputeDisparity(2.0), 1e-12)
}

func TestDepthDisparityInverse(t *testing.T) {
	t.Parallel()

	m := newTestModel(fsutil.NewMemoryFileSystem(), monitoring.Nop())
	for _, depth := range []float64{0.3, 0.5, 1, 2.25, 7.5, 40, -1.5} {
		t.Run(fmt.Sprintf("depth=%g", depth), func(t *testing.T) {
			d := m.ComputeDisparity(depth)
			assert.InDelta(t, depth, m.ComputeDepth(d), 1e-9*math.Max(1, math.Abs(depth)))
		})
	}
}

func TestZeroSentinels(t *testing.T) {
	t.Parallel()

	// A zero baseline would make any division return 0 or NaN; the
	// sentinels must not depend on dividing at all.
	m := NewRectified("zero", 525, 525, 319.5, 239.5, 0, vga, WithSink(monitoring.Nop()))
	require.True(t, m.IsValid())

	assert.Equal(t, 0.0, m.ComputeDepth(0))
	assert.Equal(t, 0.0, m.ComputeDisparity(0))
	assert.Equal(t, 0.0, m.ComputeDisparityMillimeters(0))

	m2 := newTestModel(fsutil.NewMemoryFileSystem(), monitoring.Nop())
	assert.Equal(t, 0.0, m2.ComputeDepth(0))
	assert.Equal(t, 0.0, m2.ComputeDisparity(0))
	assert.Equal(t, 0.0, m2.ComputeDisparityMillimeters(0))
}

func recoverPrecondition(t *testing.T, fn func()) (pe *PreconditionError) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected panic")
		err, ok := r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
		assert.True(t, errors.Is(err, ErrInvalidModel))
		require.True(t, errors.As(err, &pe))
	}()
	fn()
	return nil
}

func TestGeometry_InvalidModelPanics(t *testing.T) {
	t.Parallel()

	m := New(WithSink(monitoring.Nop()))
	m.SetName("broken")

	tests := []struct {
		op string
		fn func()
	}{
		{"ComputeDepth", func() { m.ComputeDepth(10) }},
		{"ComputeDisparity", func() { m.ComputeDisparity(1) }},
		{"ComputeDisparityMillimeters", func() { m.ComputeDisparityMillimeters(1000) }},
		// zero inputs still check the precondition first
		{"ComputeDepth", func() { m.ComputeDepth(0) }},
	}
	for _, tt := range tests {
		pe := recoverPrecondition(t, tt.fn)
		assert.Equal(t, tt.op, pe.Op)
		assert.Equal(t, "broken", pe.Name)
	}
}

func TestBaseline(t *testing.T) {
	t.Parallel()

	t.Run("projection convention", func(t *testing.T) {
		m := newTestModel(fsutil.NewMemoryFileSystem(), monitoring.Nop())
		assert.InDelta(t, testBaseline, m.Baseline(), 1e-12)
	})

	t.Run("translation norm fallback", func(t *testing.T) {
		m := New(WithSink(monitoring.Nop()))
		m.SetCameras(camera.New("", 500, 500, 320, 240, 0, vga), camera.New("", 500, 500, 320, 240, 0, vga))
		require.NoError(t, m.SetExtrinsics(&Extrinsics{
			R: mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}),
			T: mat.NewDense(3, 1, []float64{-0.3, 0, 0.4}),
		}))
		assert.InDelta(t, 0.5, m.Baseline(), 1e-12)
	})

	t.Run("unknown", func(t *testing.T) {
		assert.Equal(t, 0.0, New().Baseline())
	})
}

func TestStereoTransform(t *testing.T) {
	t.Parallel()

	m := newTestModel(fsutil.NewMemoryFileSystem(), monitoring.Nop())
	ext := rotatedExtrinsics()
	require.NoError(t, m.SetExtrinsics(ext))

	tr := m.StereoTransform()
	require.False(t, tr.IsNull())
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			assert.Equal(t, ext.R.At(i, j), tr[i*4+j])
		}
		assert.Equal(t, ext.T.At(i, 0), tr[i*4+3])
	}
	assert.True(t, tr.IsRigid(rigid.Tolerance))

	require.NoError(t, m.SetExtrinsics(&Extrinsics{R: ext.R}))
	assert.True(t, m.StereoTransform().IsNull())
}
