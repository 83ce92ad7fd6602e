package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate rejects configurations that cannot produce a working run.
func (c *Config) Validate() error {
	var problems []error
	if c.Paths.PresetsDir == "" {
		problems = append(problems, errors.New("paths.presets_dir must not be empty"))
	}
	if strings.TrimSpace(c.ExifTool.Binary) == "" {
		problems = append(problems, errors.New("exiftool.binary must not be empty"))
	}
	if c.ExifTool.TimeoutSeconds < 0 {
		problems = append(problems, fmt.Errorf("exiftool.timeout_seconds must not be negative, got %d", c.ExifTool.TimeoutSeconds))
	}
	if c.Workflow.Workers < 0 {
		problems = append(problems, fmt.Errorf("workflow.workers must not be negative, got %d", c.Workflow.Workers))
	}
	if c.Scale.JPEGQuality < 1 || c.Scale.JPEGQuality > 100 {
		problems = append(problems, fmt.Errorf("scale.jpeg_quality must be within 1-100, got %d", c.Scale.JPEGQuality))
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format))
	}
	return errors.Join(problems...)
}
