// Package preset resolves named CSV column-mapping presets from the presets
// directory. A preset tells the roster loader which columns hold filenames
// and identity fields; it is loaded once per run and threaded through as an
// immutable value.
package preset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"photojobs/internal/jobs"
)

// Preset is a named column-mapping configuration.
type Preset struct {
	Name               string
	FilenamesColumn    string
	FirstNameColumn    string
	LastNameColumn     string
	FallbackNameColumn string
	TeamColumn         string
}

type presetFile struct {
	CSV struct {
		FilenamesColumn    string `toml:"filenames_column"`
		FirstNameColumn    string `toml:"first_name_column"`
		LastNameColumn     string `toml:"last_name_column"`
		FallbackNameColumn string `toml:"fallback_name_column"`
		TeamColumn         string `toml:"team_column"`
	} `toml:"csv"`
}

// Resolve loads the preset with the given name (no extension) from dir.
func Resolve(dir, name string) (Preset, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Preset{}, jobs.Wrap(jobs.ErrConfiguration, "preset", "resolve", "preset name must not be empty", nil)
	}

	path := filepath.Join(dir, name+".toml")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Preset{}, jobs.Wrap(jobs.ErrConfiguration, "preset", "resolve",
				fmt.Sprintf("preset %q not found in %s (run `photojobs config init` to install the built-in presets)", name, dir), nil)
		}
		return Preset{}, jobs.Wrap(jobs.ErrConfiguration, "preset", "resolve", "read "+path, err)
	}

	var file presetFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return Preset{}, jobs.Wrap(jobs.ErrConfiguration, "preset", "parse", path, err)
	}

	p := Preset{
		Name:               name,
		FilenamesColumn:    strings.TrimSpace(file.CSV.FilenamesColumn),
		FirstNameColumn:    strings.TrimSpace(file.CSV.FirstNameColumn),
		LastNameColumn:     strings.TrimSpace(file.CSV.LastNameColumn),
		FallbackNameColumn: strings.TrimSpace(file.CSV.FallbackNameColumn),
		TeamColumn:         strings.TrimSpace(file.CSV.TeamColumn),
	}
	if err := p.validate(); err != nil {
		return Preset{}, jobs.Wrap(jobs.ErrConfiguration, "preset", "validate", path, err)
	}
	return p, nil
}

func (p Preset) validate() error {
	var missing []string
	if p.FilenamesColumn == "" {
		missing = append(missing, "csv.filenames_column")
	}
	if p.FirstNameColumn == "" {
		missing = append(missing, "csv.first_name_column")
	}
	if p.LastNameColumn == "" {
		missing = append(missing, "csv.last_name_column")
	}
	if p.FallbackNameColumn == "" {
		missing = append(missing, "csv.fallback_name_column")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required keys: %s", strings.Join(missing, ", "))
	}
	return nil
}

// List returns the names of all presets available in dir, sorted by ReadDir.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read presets dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".toml"))
	}
	return names, nil
}
