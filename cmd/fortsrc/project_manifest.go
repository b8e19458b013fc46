package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"fortsrc/internal/diag"
	"fortsrc/internal/source"
)

const manifestName = "fortsrc.toml"

type projectManifest struct {
	Path   string
	Root   string
	Config projectConfig
	// set records which keys the file actually defines.
	set map[string]bool
}

type projectConfig struct {
	Source      sourceConfig      `toml:"source"`
	Diagnostics diagnosticsConfig `toml:"diagnostics"`
}

type sourceConfig struct {
	Encoding string   `toml:"encoding"`
	Include  []string `toml:"include"`
}

type diagnosticsConfig struct {
	Max                    int    `toml:"max"`
	Echo                   bool   `toml:"echo"`
	SuppressModuleWarnings bool   `toml:"suppress_module_warnings"`
	MinSeverity            string `toml:"min_severity"`
	PathMode               string `toml:"path_mode"`
}

func findManifest(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, manifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

func loadProjectManifest(startDir string) (*projectManifest, bool, error) {
	manifestPath, ok, err := findManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	var cfg projectConfig
	meta, err := toml.DecodeFile(manifestPath, &cfg)
	if err != nil {
		return nil, true, fmt.Errorf("%s: failed to parse TOML: %w", manifestPath, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, true, fmt.Errorf("%s: unknown key %q", manifestPath, undecoded[0].String())
	}
	if meta.IsDefined("diagnostics", "max") && cfg.Diagnostics.Max <= 0 {
		return nil, true, fmt.Errorf("%s: [diagnostics].max must be positive", manifestPath)
	}
	if meta.IsDefined("diagnostics", "min_severity") {
		if _, err := diag.ParseSeverity(cfg.Diagnostics.MinSeverity); err != nil {
			return nil, true, fmt.Errorf("%s: %w", manifestPath, err)
		}
	}
	if meta.IsDefined("diagnostics", "path_mode") {
		if _, err := source.ParsePathMode(cfg.Diagnostics.PathMode); err != nil {
			return nil, true, fmt.Errorf("%s: %w", manifestPath, err)
		}
	}
	m := &projectManifest{
		Path:   manifestPath,
		Root:   filepath.Dir(manifestPath),
		Config: cfg,
		set:    make(map[string]bool),
	}
	for _, key := range meta.Keys() {
		m.set[key.String()] = true
	}
	return m, true, nil
}

// defines reports whether the manifest sets the dotted key, e.g.
// "diagnostics.echo".
func (m *projectManifest) defines(key string) bool {
	return m != nil && m.set[key]
}

// includeDirs returns the include directories resolved against the
// manifest's directory.
func (m *projectManifest) includeDirs() []string {
	if m == nil {
		return nil
	}
	dirs := make([]string, 0, len(m.Config.Source.Include))
	for _, dir := range m.Config.Source.Include {
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(m.Root, dir)
		}
		dirs = append(dirs, dir)
	}
	return dirs
}
