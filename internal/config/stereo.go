package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"

	"github.com/banshee-data/stereocal/internal/units"
)

// EnvPrefix is prepended to every environment variable read by Resolve.
const EnvPrefix = "STEREOCAL_"

// Defaults applied when neither the config file nor the environment set a value.
const (
	DefaultCalibrationDir   = "."
	DefaultCameraName       = "stereo"
	DefaultScale            = 1.0
	DefaultDatabasePath     = "stereocal.db"
	DefaultDepthUnits       = units.Meters
	DefaultPlotMinDisparity = 1.0
	DefaultPlotMaxDisparity = 128.0
)

const maxConfigFileSize = 1 * 1024 * 1024 // 1MB

// StereoConfig is the on-disk configuration for the stereocal tool. Fields
// are pointers so that a partial file leaves the rest at their defaults.
type StereoConfig struct {
	CalibrationDir        *string  `json:"calibration_dir,omitempty"`
	CameraName            *string  `json:"camera_name,omitempty"`
	IgnoreStereoTransform *bool    `json:"ignore_stereo_transform,omitempty"`
	Scale                 *float64 `json:"scale,omitempty"`
	DatabasePath          *string  `json:"database_path,omitempty"`
	DepthUnits            *string  `json:"depth_units,omitempty"`
	PlotMinDisparity      *float64 `json:"plot_min_disparity,omitempty"`
	PlotMaxDisparity      *float64 `json:"plot_max_disparity,omitempty"`
}

// Settings are fully resolved configuration values. The env tags are
// relative to EnvPrefix.
type Settings struct {
	CalibrationDir        string  `env:"CALIBRATION_DIR"`
	CameraName            string  `env:"CAMERA_NAME"`
	IgnoreStereoTransform bool    `env:"IGNORE_STEREO_TRANSFORM"`
	Scale                 float64 `env:"SCALE"`
	DatabasePath          string  `env:"DATABASE_PATH"`
	DepthUnits            string  `env:"DEPTH_UNITS"`
	PlotMinDisparity      float64 `env:"PLOT_MIN_DISPARITY"`
	PlotMaxDisparity      float64 `env:"PLOT_MAX_DISPARITY"`
}

// LoadStereoConfig loads a StereoConfig from a JSON file. The file must have
// a .json extension and be under 1MB.
func LoadStereoConfig(path string) (*StereoConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxConfigFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &StereoConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the values that are set.
func (c *StereoConfig) Validate() error {
	return c.Resolved().Validate()
}

// Validate checks resolved values.
func (s Settings) Validate() error {
	if s.CameraName == "" {
		return fmt.Errorf("camera_name must not be empty")
	}
	if s.Scale <= 0 {
		return fmt.Errorf("scale must be positive, got %g", s.Scale)
	}
	if !units.IsValid(s.DepthUnits) {
		return fmt.Errorf("depth_units must be one of %s, got %q", units.GetValidUnitsString(), s.DepthUnits)
	}
	if s.PlotMinDisparity <= 0 {
		return fmt.Errorf("plot_min_disparity must be positive, got %g", s.PlotMinDisparity)
	}
	if s.PlotMaxDisparity <= s.PlotMinDisparity {
		return fmt.Errorf("plot_max_disparity (%g) must exceed plot_min_disparity (%g)",
			s.PlotMaxDisparity, s.PlotMinDisparity)
	}
	return nil
}

// Resolved returns the configured values with defaults filled in.
func (c *StereoConfig) Resolved() Settings {
	return Settings{
		CalibrationDir:        c.GetCalibrationDir(),
		CameraName:            c.GetCameraName(),
		IgnoreStereoTransform: c.GetIgnoreStereoTransform(),
		Scale:                 c.GetScale(),
		DatabasePath:          c.GetDatabasePath(),
		DepthUnits:            c.GetDepthUnits(),
		PlotMinDisparity:      c.GetPlotMinDisparity(),
		PlotMaxDisparity:      c.GetPlotMaxDisparity(),
	}
}

// Resolve overlays STEREOCAL_* environment variables on the resolved
// values and validates the result.
func (c *StereoConfig) Resolve() (Settings, error) {
	s := c.Resolved()
	if err := env.ParseWithOptions(&s, env.Options{Prefix: EnvPrefix}); err != nil {
		return Settings{}, fmt.Errorf("parse env: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return s, nil
}

// GetCalibrationDir returns the calibration_dir value or the default.
func (c *StereoConfig) GetCalibrationDir() string {
	if c.CalibrationDir == nil || *c.CalibrationDir == "" {
		return DefaultCalibrationDir
	}
	return *c.CalibrationDir
}

// GetCameraName returns the camera_name value or the default.
func (c *StereoConfig) GetCameraName() string {
	if c.CameraName == nil {
		return DefaultCameraName
	}
	return *c.CameraName
}

func (c *StereoConfig) GetIgnoreStereoTransform() bool {
	if c.IgnoreStereoTransform == nil {
		return false
	}
	return *c.IgnoreStereoTransform
}

// GetScale returns the scale value or the default.
func (c *StereoConfig) GetScale() float64 {
	if c.Scale == nil {
		return DefaultScale
	}
	return *c.Scale
}

// GetDatabasePath returns the database_path value or the default.
func (c *StereoConfig) GetDatabasePath() string {
	if c.DatabasePath == nil || *c.DatabasePath == "" {
		return DefaultDatabasePath
	}
	return *c.DatabasePath
}

// GetDepthUnits returns the depth_units value or the default.
func (c *StereoConfig) GetDepthUnits() string {
	if c.DepthUnits == nil {
		return DefaultDepthUnits
	}
	return *c.DepthUnits
}

func (c *StereoConfig) GetPlotMinDisparity() float64 {
	if c.PlotMinDisparity == nil {
		return DefaultPlotMinDisparity
	}
	return *c.PlotMinDisparity
}

func (c *StereoConfig) GetPlotMaxDisparity() float64 {
	if c.PlotMaxDisparity == nil {
		return DefaultPlotMaxDisparity
	}
	return *c.PlotMaxDisparity
}
