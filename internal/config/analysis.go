package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hydroscan-data/coverage.report/internal/units"
)

// AnalysisConfig represents the root configuration for one analysis pass:
// filter ranges, decimation policy, reference frame, trend binning, and
// data-rate parameters. The same JSON schema is used for startup
// configuration and for per-request overrides on the API, so a pipeline
// call never depends on any UI state.
type AnalysisConfig struct {
	// Reference frame for depth and across-track re-referencing
	ReferenceFrame *string `json:"reference_frame,omitempty"`

	// Angle filter (nominal swath angle, deg)
	AngleFilter *bool    `json:"angle_filter,omitempty"`
	MinAngleDeg *float64 `json:"min_angle_deg,omitempty"`
	MaxAngleDeg *float64 `json:"max_angle_deg,omitempty"`

	// Depth filter (m, positive down); the archive dataset may carry its
	// own range
	DepthFilter        *bool    `json:"depth_filter,omitempty"`
	MinDepthM          *float64 `json:"min_depth_m,omitempty"`
	MaxDepthM          *float64 `json:"max_depth_m,omitempty"`
	MinArchiveDepthM   *float64 `json:"min_archive_depth_m,omitempty"`
	MaxArchiveDepthM   *float64 `json:"max_archive_depth_m,omitempty"`

	// Backscatter filter (dB; range may include positive values to
	// accommodate anomalous reported backscatter)
	BackscatterFilter *bool    `json:"backscatter_filter,omitempty"`
	MinBackscatterDB  *float64 `json:"min_backscatter_db,omitempty"`
	MaxBackscatterDB  *float64 `json:"max_backscatter_db,omitempty"`

	// Runtime-limit buffers: hide soundings near the operator-configured
	// acquisition limits. Angle buffer in [-10, 10] deg; coverage buffer
	// must be non-positive (m).
	RuntimeAngleFilter      *bool    `json:"runtime_angle_filter,omitempty"`
	RuntimeAngleBufferDeg   *float64 `json:"runtime_angle_buffer_deg,omitempty"`
	RuntimeCoverageFilter   *bool    `json:"runtime_coverage_filter,omitempty"`
	RuntimeCoverageBufferM  *float64 `json:"runtime_coverage_buffer_m,omitempty"`

	// Decimation params
	MaxPoints        *int     `json:"max_points,omitempty"`
	DecimationFactor *float64 `json:"decimation_factor,omitempty"`

	// Coverage trend params
	TrendBinCount *int `json:"trend_bin_count,omitempty"`

	// Data-rate params
	MinPingIntervalS *float64 `json:"min_ping_interval_s,omitempty"`
	MaxPingIntervalS *float64 `json:"max_ping_interval_s,omitempty"`
	DualSwathRatio   *float64 `json:"dual_swath_ratio,omitempty"`
	RateWindow       *int     `json:"rate_window,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyAnalysisConfig returns an AnalysisConfig with all fields set to nil.
// The Get* methods provide defaults for unset fields, so an empty config is
// a valid "defaults only" configuration.
func EmptyAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{}
}

// LoadAnalysisConfig loads an AnalysisConfig from a JSON file. The file is
// validated to ensure it has a .json extension and is under the max file
// size. Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadAnalysisConfig(path string) (*AnalysisConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyAnalysisConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *AnalysisConfig) Validate() error {
	if c.ReferenceFrame != nil && !units.IsValidFrame(*c.ReferenceFrame) {
		return fmt.Errorf("reference_frame must be one of %s, got %q",
			units.GetValidFramesString(), *c.ReferenceFrame)
	}

	if c.MinAngleDeg != nil && c.MaxAngleDeg != nil && *c.MinAngleDeg > *c.MaxAngleDeg {
		return fmt.Errorf("min_angle_deg %f exceeds max_angle_deg %f", *c.MinAngleDeg, *c.MaxAngleDeg)
	}

	if c.MinDepthM != nil && *c.MinDepthM < 0 {
		return fmt.Errorf("min_depth_m must be non-negative, got %f", *c.MinDepthM)
	}
	if c.MinDepthM != nil && c.MaxDepthM != nil && *c.MinDepthM > *c.MaxDepthM {
		return fmt.Errorf("min_depth_m %f exceeds max_depth_m %f", *c.MinDepthM, *c.MaxDepthM)
	}

	if c.MinBackscatterDB != nil && c.MaxBackscatterDB != nil && *c.MinBackscatterDB > *c.MaxBackscatterDB {
		return fmt.Errorf("min_backscatter_db %f exceeds max_backscatter_db %f",
			*c.MinBackscatterDB, *c.MaxBackscatterDB)
	}

	if c.RuntimeAngleBufferDeg != nil {
		if *c.RuntimeAngleBufferDeg < -10 || *c.RuntimeAngleBufferDeg > 10 {
			return fmt.Errorf("runtime_angle_buffer_deg must be between -10 and 10, got %f",
				*c.RuntimeAngleBufferDeg)
		}
	}

	if c.RuntimeCoverageBufferM != nil && *c.RuntimeCoverageBufferM > 0 {
		return fmt.Errorf("runtime_coverage_buffer_m must be non-positive, got %f",
			*c.RuntimeCoverageBufferM)
	}

	if c.MaxPoints != nil && *c.MaxPoints < 0 {
		return fmt.Errorf("max_points must be non-negative, got %d", *c.MaxPoints)
	}

	if c.DecimationFactor != nil && *c.DecimationFactor < 1 {
		return fmt.Errorf("decimation_factor must be >= 1, got %f", *c.DecimationFactor)
	}

	if c.TrendBinCount != nil && *c.TrendBinCount < 1 {
		return fmt.Errorf("trend_bin_count must be positive, got %d", *c.TrendBinCount)
	}

	if c.MinPingIntervalS != nil && c.MaxPingIntervalS != nil &&
		*c.MinPingIntervalS > *c.MaxPingIntervalS {
		return fmt.Errorf("min_ping_interval_s %f exceeds max_ping_interval_s %f",
			*c.MinPingIntervalS, *c.MaxPingIntervalS)
	}

	if c.DualSwathRatio != nil && (*c.DualSwathRatio <= 0 || *c.DualSwathRatio >= 1) {
		return fmt.Errorf("dual_swath_ratio must be in (0, 1), got %f", *c.DualSwathRatio)
	}

	if c.RateWindow != nil && *c.RateWindow < 1 {
		return fmt.Errorf("rate_window must be positive, got %d", *c.RateWindow)
	}

	return nil
}

// GetReferenceFrame returns the reference_frame value or the default.
func (c *AnalysisConfig) GetReferenceFrame() string {
	if c.ReferenceFrame == nil {
		return units.Waterline // default for surface vessel data
	}
	return *c.ReferenceFrame
}

// GetAngleFilter returns the angle_filter value or the default.
func (c *AnalysisConfig) GetAngleFilter() bool {
	if c.AngleFilter == nil {
		return false
	}
	return *c.AngleFilter
}

// GetMinAngleDeg returns the min_angle_deg value or the default.
func (c *AnalysisConfig) GetMinAngleDeg() float64 {
	if c.MinAngleDeg == nil {
		return 0
	}
	return *c.MinAngleDeg
}

// GetMaxAngleDeg returns the max_angle_deg value or the default.
func (c *AnalysisConfig) GetMaxAngleDeg() float64 {
	if c.MaxAngleDeg == nil {
		return 75
	}
	return *c.MaxAngleDeg
}

// GetDepthFilter returns the depth_filter value or the default.
func (c *AnalysisConfig) GetDepthFilter() bool {
	if c.DepthFilter == nil {
		return false
	}
	return *c.DepthFilter
}

// GetMinDepthM returns the min_depth_m value or the default.
func (c *AnalysisConfig) GetMinDepthM() float64 {
	if c.MinDepthM == nil {
		return 0
	}
	return *c.MinDepthM
}

// GetMaxDepthM returns the max_depth_m value or the default.
func (c *AnalysisConfig) GetMaxDepthM() float64 {
	if c.MaxDepthM == nil {
		return 10000
	}
	return *c.MaxDepthM
}

// GetMinArchiveDepthM returns the min_archive_depth_m value or the new-data minimum.
func (c *AnalysisConfig) GetMinArchiveDepthM() float64 {
	if c.MinArchiveDepthM == nil {
		return c.GetMinDepthM()
	}
	return *c.MinArchiveDepthM
}

// GetMaxArchiveDepthM returns the max_archive_depth_m value or the new-data maximum.
func (c *AnalysisConfig) GetMaxArchiveDepthM() float64 {
	if c.MaxArchiveDepthM == nil {
		return c.GetMaxDepthM()
	}
	return *c.MaxArchiveDepthM
}

// GetBackscatterFilter returns the backscatter_filter value or the default.
func (c *AnalysisConfig) GetBackscatterFilter() bool {
	if c.BackscatterFilter == nil {
		return false
	}
	return *c.BackscatterFilter
}

// GetMinBackscatterDB returns the min_backscatter_db value or the default.
func (c *AnalysisConfig) GetMinBackscatterDB() float64 {
	if c.MinBackscatterDB == nil {
		return -50
	}
	return *c.MinBackscatterDB
}

// GetMaxBackscatterDB returns the max_backscatter_db value or the default.
func (c *AnalysisConfig) GetMaxBackscatterDB() float64 {
	if c.MaxBackscatterDB == nil {
		return 0
	}
	return *c.MaxBackscatterDB
}

// GetRuntimeAngleFilter returns the runtime_angle_filter value or the default.
func (c *AnalysisConfig) GetRuntimeAngleFilter() bool {
	if c.RuntimeAngleFilter == nil {
		return false
	}
	return *c.RuntimeAngleFilter
}

// GetRuntimeAngleBufferDeg returns the runtime_angle_buffer_deg value or the default.
func (c *AnalysisConfig) GetRuntimeAngleBufferDeg() float64 {
	if c.RuntimeAngleBufferDeg == nil {
		return 0
	}
	return *c.RuntimeAngleBufferDeg
}

// GetRuntimeCoverageFilter returns the runtime_coverage_filter value or the default.
func (c *AnalysisConfig) GetRuntimeCoverageFilter() bool {
	if c.RuntimeCoverageFilter == nil {
		return false
	}
	return *c.RuntimeCoverageFilter
}

// GetRuntimeCoverageBufferM returns the runtime_coverage_buffer_m value or the default.
func (c *AnalysisConfig) GetRuntimeCoverageBufferM() float64 {
	if c.RuntimeCoverageBufferM == nil {
		return -100
	}
	return *c.RuntimeCoverageBufferM
}

// GetMaxPoints returns the max_points value or the default.
func (c *AnalysisConfig) GetMaxPoints() int {
	if c.MaxPoints == nil {
		return 50000
	}
	return *c.MaxPoints
}

// GetDecimationFactor returns the decimation_factor value or the default.
func (c *AnalysisConfig) GetDecimationFactor() float64 {
	if c.DecimationFactor == nil {
		return 1
	}
	return *c.DecimationFactor
}

// GetTrendBinCount returns the trend_bin_count value or the default.
func (c *AnalysisConfig) GetTrendBinCount() int {
	if c.TrendBinCount == nil {
		return 10
	}
	return *c.TrendBinCount
}

// GetMinPingIntervalS returns the min_ping_interval_s value or the default.
func (c *AnalysisConfig) GetMinPingIntervalS() float64 {
	if c.MinPingIntervalS == nil {
		return 0.25
	}
	return *c.MinPingIntervalS
}

// GetMaxPingIntervalS returns the max_ping_interval_s value or the default.
func (c *AnalysisConfig) GetMaxPingIntervalS() float64 {
	if c.MaxPingIntervalS == nil {
		return 60
	}
	return *c.MaxPingIntervalS
}

// GetDualSwathRatio returns the dual_swath_ratio value or the default.
func (c *AnalysisConfig) GetDualSwathRatio() float64 {
	if c.DualSwathRatio == nil {
		return 0.1
	}
	return *c.DualSwathRatio
}

// GetRateWindow returns the rate_window value or the default.
func (c *AnalysisConfig) GetRateWindow() int {
	if c.RateWindow == nil {
		return 100
	}
	return *c.RateWindow
}
