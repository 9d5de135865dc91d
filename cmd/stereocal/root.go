package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/banshee-data/stereocal/internal/config"
	"github.com/banshee-data/stereocal/internal/monitoring"
	"github.com/banshee-data/stereocal/internal/security"
	"github.com/banshee-data/stereocal/internal/stereo"
)

// app carries the global flags and the settings resolved from them.
type app struct {
	configPath       string
	dir              string
	name             string
	ignoreExtrinsics bool
	dbPath           string

	settings config.Settings
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "stereocal",
		Short:         "Inspect and maintain stereo camera calibrations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.resolve(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "JSON config file")
	pf.StringVar(&a.dir, "dir", "", "calibration directory (default from config)")
	pf.StringVar(&a.name, "name", "", "stereo camera name (default from config)")
	pf.BoolVar(&a.ignoreExtrinsics, "ignore-extrinsics", false, "load and save cameras only, skipping the pose file")
	pf.StringVar(&a.dbPath, "db", "", "calibration history database (default from config)")

	root.AddCommand(
		newInfoCmd(a),
		newDepthCmd(a),
		newDisparityCmd(a),
		newScaleCmd(a),
		newPlotCmd(a),
		newRecordCmd(a),
		newHistoryCmd(a),
		newVersionCmd(),
	)
	return root
}

// resolve merges config file, environment and flags, in increasing priority.
func (a *app) resolve(cmd *cobra.Command) error {
	cfg := &config.StereoConfig{}
	if a.configPath != "" {
		loaded, err := config.LoadStereoConfig(a.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	s, err := cfg.Resolve()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("dir") {
		s.CalibrationDir = a.dir
	}
	if flags.Changed("name") {
		s.CameraName = a.name
	}
	if flags.Changed("ignore-extrinsics") {
		s.IgnoreStereoTransform = a.ignoreExtrinsics
	}
	if flags.Changed("db") {
		s.DatabasePath = a.dbPath
	}
	if err := security.ValidateCameraName(s.CameraName); err != nil {
		return err
	}
	a.settings = s
	return nil
}

// loadModel loads the configured stereo camera and applies the configured
// scale. Missing and malformed files are both returned as errors; the
// wrapped sentinel tells them apart.
func (a *app) loadModel() (*stereo.Model, error) {
	m := stereo.New(stereo.WithSink(monitoring.Default("stereocal")))
	s := a.settings
	if err := m.Load(s.CalibrationDir, s.CameraName, s.IgnoreStereoTransform); err != nil {
		return nil, fmt.Errorf("load %q from %s: %w", s.CameraName, s.CalibrationDir, err)
	}
	if s.Scale != 1 {
		m = m.Scaled(s.Scale)
	}
	return m, nil
}

// loadValidModel is loadModel for commands that need the geometry.
func (a *app) loadValidModel() (*stereo.Model, error) {
	m, err := a.loadModel()
	if err != nil {
		return nil, err
	}
	if !m.IsValid() {
		return nil, fmt.Errorf("%w: %q", stereo.ErrInvalidModel, m.Name())
	}
	return m, nil
}
