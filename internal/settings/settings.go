// Package settings loads the optional ambient runner configuration file,
// ".gotask/settings.yaml". It has nothing to do with task definitions, which
// always live as AtAt metadata inside task source (see internal/taskenv);
// this package only covers knobs about how the runner itself synthesizes
// workspaces, grounded on the teacher's layered-config loader
// (internal/config/loader.go) and its "no manifest found" fallback.
package settings

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"gotask.dev/internal/dirs"
)

// Settings holds ambient, repo-wide configuration for gotask itself.
type Settings struct {
	// GoVersion is pinned into every synthesized go.mod/go.work "go"
	// directive. Defaults to DefaultGoVersion when unset.
	GoVersion string `yaml:"go_version"`

	// ModulePrefix is prepended to every script task's synthesized module
	// path (module "<prefix><name>"). Defaults to "" (bare task name).
	ModulePrefix string `yaml:"module_prefix"`

	// Color overrides the default terminal color auto-detection: "always",
	// "never", or "" (auto). GOTASK_COLOR/GOTASK_NO_COLOR env vars still
	// take precedence, matching spec.md §7's environment-wins rule.
	Color string `yaml:"color"`
}

// DefaultGoVersion is used when no settings file sets go_version.
const DefaultGoVersion = "1.24"

// Default returns the zero-configuration Settings value.
func Default() Settings {
	return Settings{GoVersion: DefaultGoVersion}
}

// Load reads "<taskDir>/settings.yaml". A missing file is not an error: it
// returns Default(), loaded=false, nil — the same fallback shape as the
// teacher's config.LoadManifest.
func Load(taskDir string) (s Settings, loaded bool, err error) {
	path := taskDir + string(os.PathSeparator) + dirs.SettingsFile
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), false, nil
		}
		return Settings{}, false, fmt.Errorf("read %s: %w", path, err)
	}

	s = Default()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, false, fmt.Errorf("parse %s: %w", path, err)
	}
	if s.GoVersion == "" {
		s.GoVersion = DefaultGoVersion
	}
	return s, true, nil
}
