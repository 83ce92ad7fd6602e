package preset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Built-in presets installed by `photojobs config init`. photoday matches the
// PhotoDay subject export; legacy matches the older SPA-based roster layout.
var builtins = map[string]string{
	"photoday": `# PhotoDay subject export
[csv]
filenames_column = "Photo Filenames"
first_name_column = "First Name"
last_name_column = "Last Name"
fallback_name_column = "Name"
team_column = "Team"
`,
	"legacy": `# Legacy SPA roster layout
[csv]
filenames_column = "SPA"
first_name_column = "FIRSTNAME"
last_name_column = "LASTNAME"
fallback_name_column = "NAME"
team_column = "TEAMNAME"
`,
}

// InstallBuiltins writes the built-in preset files into dir, skipping any
// preset the user has already customized.
func InstallBuiltins(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create presets dir: %w", err)
	}
	var written []string
	for name, content := range builtins {
		path := filepath.Join(dir, name+".toml")
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return written, fmt.Errorf("write preset %s: %w", name, err)
		}
		written = append(written, name)
	}
	sort.Strings(written)
	return written, nil
}
