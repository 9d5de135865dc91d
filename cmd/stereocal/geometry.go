package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/banshee-data/stereocal/internal/fsutil"
	"github.com/banshee-data/stereocal/internal/report"
	"github.com/banshee-data/stereocal/internal/security"
	"github.com/banshee-data/stereocal/internal/stereo"
	"github.com/banshee-data/stereocal/internal/units"
)

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print a summary of the stereo calibration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := a.loadModel()
			if err != nil {
				return err
			}
			printInfo(cmd, m)
			return nil
		},
	}
}

func printInfo(cmd *cobra.Command, m *stereo.Model) {
	cmd.Printf("Stereo camera: %s\n", m.Name())
	for _, c := range []struct {
		side string
		fx   float64
		fy   float64
		cx   float64
		cy   float64
		w, h int
	}{
		{"left", m.Left().Fx(), m.Left().Fy(), m.Left().Cx(), m.Left().Cy(), m.Left().ImageSize().Width, m.Left().ImageSize().Height},
		{"right", m.Right().Fx(), m.Right().Fy(), m.Right().Cx(), m.Right().Cy(), m.Right().ImageSize().Width, m.Right().ImageSize().Height},
	} {
		cmd.Printf("  %-5s %dx%d  fx=%.3f fy=%.3f cx=%.3f cy=%.3f\n", c.side, c.w, c.h, c.fx, c.fy, c.cx, c.cy)
	}
	cmd.Printf("Valid: %t\n", m.IsValid())
	cmd.Printf("Baseline: %.4f m\n", m.Baseline())

	if !m.HasExtrinsics() {
		cmd.Println("Extrinsics: none")
		return
	}
	tr := m.StereoTransform()
	roll, pitch, yaw := tr.EulerAngles()
	cmd.Printf("Extrinsics:\n%s\n", tr)
	cmd.Printf("  roll=%.4f pitch=%.4f yaw=%.4f rad\n", roll, pitch, yaw)

	res := stereo.ValidateExtrinsics(m.Extrinsics())
	if res.Valid && len(res.Issues) == 0 {
		cmd.Println("Extrinsics check: ok")
		return
	}
	cmd.Printf("Extrinsics check: valid=%t\n", res.Valid)
	for _, issue := range res.Issues {
		cmd.Printf("  - %s\n", issue)
	}
}

func newDepthCmd(a *app) *cobra.Command {
	var flagUnit string
	cmd := &cobra.Command{
		Use:   "depth <disparity>...",
		Short: "Convert disparities in pixels to depths",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			unit, err := a.depthUnit(flagUnit)
			if err != nil {
				return err
			}
			m, err := a.loadValidModel()
			if err != nil {
				return err
			}
			for _, arg := range args {
				d, err := strconv.ParseFloat(arg, 64)
				if err != nil {
					return fmt.Errorf("invalid disparity %q: %w", arg, err)
				}
				meters := m.ComputeDepth(d)
				cmd.Printf("disparity %g px -> depth %.4f %s", d, units.FromMeters(meters, unit), unit)
				if unit == units.Millimeters {
					cmd.Printf(" (depth image value %d)", units.MetersToMillimeters(meters))
				}
				cmd.Println()
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&flagUnit, "units", "", "depth output units: "+units.GetValidUnitsString())
	return cmd
}

func newDisparityCmd(a *app) *cobra.Command {
	var flagUnit string
	cmd := &cobra.Command{
		Use:   "disparity <depth>...",
		Short: "Convert depths to disparities in pixels",
		Long: `Convert depths to disparities in pixels. With --units mm the depths are
read as 16-bit integer depth image values, where 0 means no measurement.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			unit, err := a.depthUnit(flagUnit)
			if err != nil {
				return err
			}
			m, err := a.loadValidModel()
			if err != nil {
				return err
			}
			for _, arg := range args {
				var disp float64
				switch unit {
				case units.Millimeters:
					mm, err := strconv.ParseUint(arg, 10, 16)
					if err != nil {
						return fmt.Errorf("invalid depth %q: want an integer in [0, 65535]: %w", arg, err)
					}
					disp = m.ComputeDisparityMillimeters(uint16(mm))
				default:
					depth, err := strconv.ParseFloat(arg, 64)
					if err != nil {
						return fmt.Errorf("invalid depth %q: %w", arg, err)
					}
					disp = m.ComputeDisparity(units.ToMeters(depth, unit))
				}
				cmd.Printf("depth %s %s -> disparity %.4f px\n", arg, unit, disp)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&flagUnit, "units", "", "depth input units: "+units.GetValidUnitsString())
	return cmd
}

func (a *app) depthUnit(flagValue string) (string, error) {
	unit := a.settings.DepthUnits
	if flagValue != "" {
		unit = flagValue
	}
	if !units.IsValid(unit) {
		return "", fmt.Errorf("invalid units %q: must be one of %s", unit, units.GetValidUnitsString())
	}
	return unit, nil
}

func newScaleCmd(a *app) *cobra.Command {
	var (
		outDir string
		as     string
	)
	cmd := &cobra.Command{
		Use:   "scale <factor>",
		Short: "Write a calibration for images resized by factor",
		Long: `Write a calibration for images resized by factor. The configured scale,
if any, is applied first. Extrinsics are copied unchanged.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			factor, err := strconv.ParseFloat(args[0], 64)
			if err != nil || factor <= 0 {
				return fmt.Errorf("invalid scale factor %q: must be a positive number", args[0])
			}
			m, err := a.loadModel()
			if err != nil {
				return err
			}
			if err := (fsutil.OSFileSystem{}).MkdirAll(outDir, 0755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}
			scaled := m.Scaled(factor)
			if as != "" {
				if err := security.ValidateCameraName(as); err != nil {
					return err
				}
				scaled.SetName(as)
			}
			if err := scaled.Save(outDir, a.settings.IgnoreStereoTransform); err != nil {
				return fmt.Errorf("save scaled calibration: %w", err)
			}
			cmd.Printf("Wrote %s scaled by %g to %s\n", scaled.Name(), factor, outDir)
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "", "output directory (required)")
	cmd.Flags().StringVar(&as, "as", "", "name for the scaled calibration (default: unchanged)")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func newPlotCmd(a *app) *cobra.Command {
	var (
		out   string
		steps int
	)
	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Plot depth against disparity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := a.loadValidModel()
			if err != nil {
				return err
			}
			if out == "" {
				out = security.SanitizeFilename(m.Name()) + "_depth.png"
			}
			samples := report.SampleDepthCurve(m, a.settings.PlotMinDisparity, a.settings.PlotMaxDisparity, steps)
			if err := report.PlotDepthCurve(samples, "Depth response: "+m.Name(), out); err != nil {
				return err
			}
			cmd.Printf("Wrote %d samples to %s\n", len(samples), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "output image, .png, .svg or .pdf (default <name>_depth.png)")
	cmd.Flags().IntVar(&steps, "steps", 128, "number of disparities sampled")
	return cmd
}
