package calibfile

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

type doc struct {
	Name  string  `yaml:"camera_name"`
	Block *Matrix `yaml:"block,omitempty"`
}

func TestMatrix_DenseShapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		block     *Matrix
		rows      int
		cols      int
		wantNil   bool
		malformed bool
	}{
		{name: "nil block", block: nil, rows: 3, cols: 3, wantNil: true},
		{name: "zero block", block: &Matrix{}, rows: 3, cols: 3, wantNil: true},
		{name: "exact", block: &Matrix{Rows: 3, Cols: 1, Data: []float64{1, 2, 3}}, rows: 3, cols: 1},
		{name: "length mismatch", block: &Matrix{Rows: 3, Cols: 3, Data: []float64{1, 2}}, rows: 3, cols: 3, malformed: true},
		{name: "wrong shape", block: &Matrix{Rows: 2, Cols: 2, Data: []float64{1, 0, 0, 1}}, rows: 3, cols: 3, malformed: true},
		{name: "transposed", block: &Matrix{Rows: 1, Cols: 3, Data: []float64{1, 2, 3}}, rows: 3, cols: 1, malformed: true},
		{name: "negative", block: &Matrix{Rows: -1, Cols: -3, Data: []float64{1, 2, 3}}, rows: 3, cols: 1, malformed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m, err := tt.block.Dense("rotation_matrix", tt.rows, tt.cols)
			if tt.malformed {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrMalformed))
				var se *ShapeError
				require.True(t, errors.As(err, &se))
				assert.Equal(t, "rotation_matrix", se.Field)
				assert.Nil(t, m)
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, m)
				return
			}
			r, c := m.Dims()
			assert.Equal(t, tt.rows, r)
			assert.Equal(t, tt.cols, c)
		})
	}
}

func TestShapeError_Messages(t *testing.T) {
	t.Parallel()

	lenErr := &ShapeError{Field: "translation_matrix", Rows: 3, Cols: 1, DataLen: 2}
	assert.Contains(t, lenErr.Error(), "declared 3x1 but holds 2 values")

	shapeErr := &ShapeError{Field: "rotation_matrix", Rows: 2, Cols: 2, DataLen: 4, WantRows: 3, WantCols: 3}
	assert.Contains(t, shapeErr.Error(), "shape 2x2, want 3x3")
	assert.True(t, strings.HasPrefix(shapeErr.Error(), "malformed calibration"))
}

func TestFromDense_RowMajor(t *testing.T) {
	t.Parallel()

	m := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	b := FromDense(m)
	require.NotNil(t, b)
	assert.Equal(t, 2, b.Rows)
	assert.Equal(t, 3, b.Cols)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, b.Data)

	// Views over a larger matrix must still serialise row-major.
	big := mat.NewDense(3, 3, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9})
	view := big.Slice(0, 2, 1, 3).(*mat.Dense)
	assert.Equal(t, []float64{2, 3, 5, 6}, FromDense(view).Data)

	assert.Nil(t, FromDense(nil))
}

func TestDense_CopiesData(t *testing.T) {
	t.Parallel()

	b := &Matrix{Rows: 1, Cols: 2, Data: []float64{1, 2}}
	m, err := b.DenseAnyShape("d")
	require.NoError(t, err)
	b.Data[0] = 42
	assert.Equal(t, 1.0, m.At(0, 0))
}

func TestMarshalUnmarshal(t *testing.T) {
	t.Parallel()

	in := doc{Name: "stereo", Block: &Matrix{Rows: 1, Cols: 3, Data: []float64{0.1, -2.5e-3, 1e10}}}
	data, err := Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), "camera_name: stereo")
	assert.Contains(t, string(data), "data: [")

	var out doc
	require.NoError(t, Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestUnmarshal_OpenCVDirective(t *testing.T) {
	t.Parallel()

	src := "%YAML:1.0\n---\ncamera_name: \"stereo\"\nblock:\n   rows: 1\n   cols: 2\n   data: [ 1., -2.5e-01 ]\n"
	var out doc
	require.NoError(t, Unmarshal([]byte(src), &out))
	assert.Equal(t, "stereo", out.Name)
	assert.Equal(t, []float64{1, -0.25}, out.Block.Data)
}

func TestUnmarshal_SyntaxErrorIsMalformed(t *testing.T) {
	t.Parallel()

	var out doc
	err := Unmarshal([]byte("block: [unterminated"), &out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestCloneDense(t *testing.T) {
	t.Parallel()

	assert.Nil(t, CloneDense(nil))
	m := mat.NewDense(1, 1, []float64{3})
	c := CloneDense(m)
	m.Set(0, 0, 4)
	assert.Equal(t, 3.0, c.At(0, 0))
}
