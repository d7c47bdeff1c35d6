package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultProcessingConfigPath is the path to the canonical processing
// defaults file.
const DefaultProcessingConfigPath = "config/processing.defaults.json"

// ProcessingConfig holds the user-tunable parameters of a post-processing
// run. Every field is optional; the Get* accessors supply defaults so partial
// files are safe.
type ProcessingConfig struct {
	// Functional diversity moving window
	WindowStride           *int `json:"window_stride,omitempty"`
	WindowOffset           *int `json:"window_offset,omitempty"`
	ValidThreshold         *int `json:"valid_threshold,omitempty"`
	OutlierStartPercentile *int `json:"outlier_start_percentile,omitempty"`
	Workers                *int `json:"workers,omitempty"`

	// Output
	OutputFormat *string `json:"output_format,omitempty"`
	Compress     *string `json:"compress,omitempty"` // GeoTIFF COMPRESS creation option, "NONE" disables
	Quicklook    *bool   `json:"quicklook,omitempty"`
	Report       *bool   `json:"report,omitempty"`
}

// EmptyProcessingConfig returns a ProcessingConfig with all fields unset.
func EmptyProcessingConfig() *ProcessingConfig {
	return &ProcessingConfig{}
}

// LoadProcessingConfig loads a ProcessingConfig from a JSON file.
// The file must have a .json extension and be at most 1MB.
func LoadProcessingConfig(path string) (*ProcessingConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyProcessingConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultProcessingConfig loads DefaultProcessingConfigPath, searching
// the current directory and its parents. Panics if the file cannot be loaded;
// intended for test setup.
func MustLoadDefaultProcessingConfig() *ProcessingConfig {
	candidates := []string{
		DefaultProcessingConfigPath,
		"../../" + DefaultProcessingConfigPath,
		"../../../" + DefaultProcessingConfigPath,
		"../../../../" + DefaultProcessingConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadProcessingConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultProcessingConfigPath + " - run tests from repository root")
}

// Validate checks that the configured values are usable.
func (c *ProcessingConfig) Validate() error {
	if c.WindowStride != nil && *c.WindowStride <= 0 {
		return fmt.Errorf("window_stride must be positive, got %d", *c.WindowStride)
	}
	if c.WindowOffset != nil && *c.WindowOffset <= 0 {
		return fmt.Errorf("window_offset must be positive, got %d", *c.WindowOffset)
	}
	if c.ValidThreshold != nil && *c.ValidThreshold <= 0 {
		return fmt.Errorf("valid_threshold must be positive, got %d", *c.ValidThreshold)
	}
	if c.OutlierStartPercentile != nil {
		if p := *c.OutlierStartPercentile; p < 0 || p > 100 {
			return fmt.Errorf("outlier_start_percentile must be between 0 and 100, got %d", p)
		}
	}
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}
	if c.OutputFormat != nil && strings.TrimSpace(*c.OutputFormat) == "" {
		return fmt.Errorf("output_format must not be empty")
	}
	return nil
}

// GetWindowStride returns the window_stride value or the default.
func (c *ProcessingConfig) GetWindowStride() int {
	if c.WindowStride == nil {
		return 10
	}
	return *c.WindowStride
}

// GetWindowOffset returns the window_offset value or the default.
func (c *ProcessingConfig) GetWindowOffset() int {
	if c.WindowOffset == nil {
		return 5
	}
	return *c.WindowOffset
}

// GetValidThreshold returns the valid_threshold value or the default.
func (c *ProcessingConfig) GetValidThreshold() int {
	if c.ValidThreshold == nil {
		return 95
	}
	return *c.ValidThreshold
}

// GetOutlierStartPercentile returns the outlier_start_percentile value or the default.
func (c *ProcessingConfig) GetOutlierStartPercentile() int {
	if c.OutlierStartPercentile == nil {
		return 5
	}
	return *c.OutlierStartPercentile
}

// GetWorkers returns the workers value or the default. 0 and 1 both mean
// sequential window processing.
func (c *ProcessingConfig) GetWorkers() int {
	if c.Workers == nil {
		return 1
	}
	return *c.Workers
}

// GetOutputFormat returns the output_format value or the default.
func (c *ProcessingConfig) GetOutputFormat() string {
	if c.OutputFormat == nil {
		return "GeoTiff"
	}
	return *c.OutputFormat
}

// GetCompress returns the compress value or the default.
func (c *ProcessingConfig) GetCompress() string {
	if c.Compress == nil || *c.Compress == "" {
		return "DEFLATE"
	}
	return *c.Compress
}

// GetQuicklook returns the quicklook value or the default.
func (c *ProcessingConfig) GetQuicklook() bool {
	if c.Quicklook == nil {
		return false
	}
	return *c.Quicklook
}

// GetReport returns the report value or the default.
func (c *ProcessingConfig) GetReport() bool {
	if c.Report == nil {
		return false
	}
	return *c.Report
}

// SetOutputFormat overrides the output format, e.g. from a CLI flag.
func (c *ProcessingConfig) SetOutputFormat(format string) { c.OutputFormat = &format }

// SetQuicklook overrides the quicklook switch.
func (c *ProcessingConfig) SetQuicklook(v bool) { c.Quicklook = &v }

// SetReport overrides the report switch.
func (c *ProcessingConfig) SetReport(v bool) { c.Report = &v }

// SetWorkers overrides the window worker count.
func (c *ProcessingConfig) SetWorkers(n int) { c.Workers = &n }
