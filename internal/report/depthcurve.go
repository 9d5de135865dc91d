// Package report renders the depth response of a stereo calibration.
package report

import (
	"errors"
	"fmt"
	"image/color"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/stereocal/internal/stereo"
)

// ErrNoSamples is returned when asked to plot an empty curve.
var ErrNoSamples = errors.New("no depth samples to plot")

// DepthSample pairs a disparity in pixels with its depth in meters.
type DepthSample struct {
	Disparity float64
	Depth     float64
}

// SampleDepthCurve evaluates m.ComputeDepth at steps evenly spaced
// disparities in [minDisparity, maxDisparity]. Zero disparity and samples
// with non-positive depth are skipped. m must be valid.
func SampleDepthCurve(m *stereo.Model, minDisparity, maxDisparity float64, steps int) []DepthSample {
	if maxDisparity < minDisparity || steps < 1 {
		return nil
	}
	disparities := []float64{minDisparity}
	if steps > 1 && maxDisparity > minDisparity {
		disparities = floats.Span(make([]float64, steps), minDisparity, maxDisparity)
	}

	samples := make([]DepthSample, 0, len(disparities))
	for _, d := range disparities {
		if d == 0 {
			continue
		}
		depth := m.ComputeDepth(d)
		if depth <= 0 {
			continue
		}
		samples = append(samples, DepthSample{Disparity: d, Depth: depth})
	}
	return samples
}

// PlotDepthCurve writes the depth-vs-disparity curve to path. The image
// format follows the file extension (.png, .svg, .pdf).
func PlotDepthCurve(samples []DepthSample, title, path string) error {
	if len(samples) == 0 {
		return ErrNoSamples
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Disparity (px)"
	p.Y.Label.Text = "Depth (m)"
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(samples))
	for i, s := range samples {
		pts[i] = plotter.XY{X: s.Disparity, Y: s.Depth}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("depth curve: %w", err)
	}
	line.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	line.Width = vg.Points(1.5)
	p.Add(line)
	p.Legend.Add("depth", line)
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save depth curve %s: %w", path, err)
	}
	return nil
}
