// Package calibfile holds the YAML building blocks shared by the camera and
// stereo calibration files: a {rows, cols, data} matrix block, its conversion
// to gonum dense matrices, and the shape checks every block must pass.
//
// Calibration files are assumed well-formed once they exist. Any block whose
// declared shape disagrees with its data, or with the shape its field
// requires, is reported as a *ShapeError, which matches ErrMalformed.
package calibfile

import (
	"bytes"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"
)

// ErrMalformed identifies a calibration file that exists but cannot be
// trusted: bad YAML, or a matrix block with the wrong shape.
var ErrMalformed = errors.New("malformed calibration")

// ErrNotFound identifies a calibration file that does not exist. Unlike
// ErrMalformed it is recoverable: the caller decides what to do next.
var ErrNotFound = errors.New("calibration file not found")

// Matrix is a row-major matrix block as stored in calibration files.
type Matrix struct {
	Rows int       `yaml:"rows"`
	Cols int       `yaml:"cols"`
	Data []float64 `yaml:"data,flow"`
}

// ShapeError describes a matrix block that failed validation.
type ShapeError struct {
	Field    string
	Rows     int
	Cols     int
	DataLen  int
	WantRows int // zero when any shape is accepted
	WantCols int
}

func (e *ShapeError) Error() string {
	if e.Rows < 0 || e.Cols < 0 || e.Rows*e.Cols != e.DataLen {
		return fmt.Sprintf("%s: %s: declared %dx%d but holds %d values",
			ErrMalformed, e.Field, e.Rows, e.Cols, e.DataLen)
	}
	return fmt.Sprintf("%s: %s: shape %dx%d, want %dx%d",
		ErrMalformed, e.Field, e.Rows, e.Cols, e.WantRows, e.WantCols)
}

// Is lets errors.Is(err, ErrMalformed) match any ShapeError.
func (e *ShapeError) Is(target error) bool {
	return target == ErrMalformed
}

// FromDense converts m into a block. A nil matrix yields a nil block.
func FromDense(m *mat.Dense) *Matrix {
	if m == nil || m.IsEmpty() {
		return nil
	}
	rows, cols := m.Dims()
	data := make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			data = append(data, m.At(i, j))
		}
	}
	return &Matrix{Rows: rows, Cols: cols, Data: data}
}

// IsEmpty reports whether the block is missing or declares no elements.
func (b *Matrix) IsEmpty() bool {
	return b == nil || (b.Rows == 0 && b.Cols == 0 && len(b.Data) == 0)
}

// Dense converts the block into a matrix of exactly rows x cols. An empty
// block yields a nil matrix and no error.
func (b *Matrix) Dense(field string, rows, cols int) (*mat.Dense, error) {
	if b.IsEmpty() {
		return nil, nil
	}
	if err := b.check(field); err != nil {
		return nil, err
	}
	if b.Rows != rows || b.Cols != cols {
		return nil, &ShapeError{
			Field: field, Rows: b.Rows, Cols: b.Cols, DataLen: len(b.Data),
			WantRows: rows, WantCols: cols,
		}
	}
	return b.dense(), nil
}

// DenseAnyShape converts the block requiring only that its declared shape
// matches its data length.
func (b *Matrix) DenseAnyShape(field string) (*mat.Dense, error) {
	if b.IsEmpty() {
		return nil, nil
	}
	if err := b.check(field); err != nil {
		return nil, err
	}
	return b.dense(), nil
}

func (b *Matrix) check(field string) error {
	if b.Rows <= 0 || b.Cols <= 0 || b.Rows*b.Cols != len(b.Data) {
		return &ShapeError{Field: field, Rows: b.Rows, Cols: b.Cols, DataLen: len(b.Data)}
	}
	return nil
}

func (b *Matrix) dense() *mat.Dense {
	data := make([]float64, len(b.Data))
	copy(data, b.Data)
	return mat.NewDense(b.Rows, b.Cols, data)
}

// Unmarshal decodes a calibration document into v. A leading OpenCV
// "%YAML:1.0" directive is tolerated. Syntax errors match ErrMalformed.
func Unmarshal(data []byte, v any) error {
	if err := yaml.Unmarshal(stripDirective(data), v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return nil
}

// Marshal encodes v as a calibration document with two-space indentation.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode calibration: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode calibration: %w", err)
	}
	return buf.Bytes(), nil
}

// stripDirective drops a leading %YAML line. OpenCV writes "%YAML:1.0", which
// is not a valid YAML 1.2 directive.
func stripDirective(data []byte) []byte {
	if !bytes.HasPrefix(data, []byte("%YAML")) {
		return data
	}
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return data[i+1:]
	}
	return nil
}

// CloneDense deep-copies m; nil stays nil.
func CloneDense(m *mat.Dense) *mat.Dense {
	if m == nil {
		return nil
	}
	return mat.DenseCopyOf(m)
}
