package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"fortsrc/internal/diag"
	"fortsrc/internal/driver"
	"fortsrc/internal/observ"
	"fortsrc/internal/provenance"
	"fortsrc/internal/source"
)

// settings merges persistent flags with fortsrc.toml. Flags win.
type settings struct {
	includeDirs            []string
	defines                map[string]string
	encoding               source.Encoding
	maxDiagnostics         int
	echo                   bool
	suppressModuleWarnings bool
	color                  bool
	minSeverity            diag.Severity
	pathMode               string
	pathBase               string // relative paths are taken against this, "" = cwd
	timer                  *observ.Timer // nil unless --timings
	manifest               *projectManifest
}

func loadSettings(cmd *cobra.Command, input string) (settings, error) {
	var s settings
	flags := cmd.Flags()

	startDir := "."
	if input != driver.StdinName {
		startDir = filepath.Dir(input)
	}
	manifest, _, err := loadProjectManifest(startDir)
	if err != nil {
		return s, err
	}
	s.manifest = manifest

	colorFlag, err := flags.GetString("color")
	if err != nil {
		return s, fmt.Errorf("failed to get color flag: %w", err)
	}
	s.color = useColor(colorFlag)

	quiet, err := flags.GetBool("quiet")
	if err != nil {
		return s, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	timings, err := flags.GetBool("timings")
	if err != nil {
		return s, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if timings {
		s.timer = observ.NewTimer()
	}

	includes, err := flags.GetStringArray("include")
	if err != nil {
		return s, fmt.Errorf("failed to get include flag: %w", err)
	}
	s.includeDirs = append(includes, manifest.includeDirs()...)

	defines, err := flags.GetStringArray("define")
	if err != nil {
		return s, fmt.Errorf("failed to get define flag: %w", err)
	}
	if s.defines, err = parseDefines(defines); err != nil {
		return s, err
	}

	encodingName, err := flags.GetString("encoding")
	if err != nil {
		return s, fmt.Errorf("failed to get encoding flag: %w", err)
	}
	if !flags.Changed("encoding") && manifest.defines("source.encoding") {
		encodingName = manifest.Config.Source.Encoding
	}
	if s.encoding, err = source.ParseEncoding(encodingName); err != nil {
		return s, err
	}

	pathMode, err := flags.GetString("path-mode")
	if err != nil {
		return s, fmt.Errorf("failed to get path-mode flag: %w", err)
	}
	if !flags.Changed("path-mode") && manifest.defines("diagnostics.path_mode") {
		pathMode = manifest.Config.Diagnostics.PathMode
	}
	if s.pathMode, err = source.ParsePathMode(pathMode); err != nil {
		return s, err
	}
	if manifest != nil {
		s.pathBase = manifest.Root
	}

	if s.maxDiagnostics, err = flags.GetInt("max-diagnostics"); err != nil {
		return s, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	if !flags.Changed("max-diagnostics") && manifest.defines("diagnostics.max") {
		s.maxDiagnostics = manifest.Config.Diagnostics.Max
	}

	if manifest != nil {
		s.echo = manifest.Config.Diagnostics.Echo
		s.suppressModuleWarnings = manifest.Config.Diagnostics.SuppressModuleWarnings
	}
	if manifest.defines("diagnostics.min_severity") {
		// Validated when the manifest was loaded.
		s.minSeverity, _ = diag.ParseSeverity(manifest.Config.Diagnostics.MinSeverity)
	}
	if quiet {
		s.minSeverity = diag.SevError
	}
	return s, nil
}

// parseDefines turns NAME=text and bare NAME (defined as 1) into a map.
func parseDefines(list []string) (map[string]string, error) {
	if len(list) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(list))
	for _, def := range list {
		name, text, found := strings.Cut(def, "=")
		if !found {
			text = "1"
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("invalid define %q: empty name", def)
		}
		out[name] = text
	}
	return out, nil
}

// cookInput runs the driver on input with the merged settings. The
// registry is sealed: every command after this only reads.
func cookInput(cmd *cobra.Command, s settings, input string) (*driver.Result, error) {
	all := provenance.NewAllSources(nil).
		SetEncoding(s.encoding).
		SetPathMode(s.pathMode, s.pathBase)
	end := s.timer.Begin("cook")
	res, err := driver.Cook(cmd.Context(), all, input, driver.Options{
		IncludeDirs:    s.includeDirs,
		MaxDiagnostics: s.maxDiagnostics,
		Defines:        s.defines,
		Stdin:          cmd.InOrStdin(),
		Seal:           true,
	})
	if err != nil {
		end("failed")
		return nil, err
	}
	end(fmt.Sprintf("bytes=%d includes=%d expansions=%d", res.Cooked.Len(), res.Includes, res.Expansions))
	return res, nil
}

// printTimings writes the phase summary when --timings was given.
func printTimings(cmd *cobra.Command, s settings) {
	if s.timer == nil {
		return
	}
	fmt.Fprint(cmd.ErrOrStderr(), s.timer.Summary())
}
