// Package installer wires the q hook commands into the Claude Code
// settings.json file, and removes them again. Settings are parsed with a
// JSON5-tolerant decoder so hand-edited files with comments or trailing
// commas survive; output is written back as normalized JSON.
package installer

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/yosuke-furukawa/json5/encoding/json5"
)

// Hook commands written into settings.json.
const (
	StopHookCommand   = "q hook stop"
	PromptHookCommand = "q hook prompt"
)

// settings keys managed by this installer.
const (
	stopKey   = "stop"
	promptKey = "userPromptSubmit"
)

// lookPath is swapped out in tests.
var lookPath = exec.LookPath

// Options controls install/uninstall behavior.
type Options struct {
	// SettingsPath overrides settings.json auto-detection.
	SettingsPath string
	DryRun       bool
	Force        bool
}

// FindSettingsFile locates the Claude Code settings.json. An explicit path
// must exist; otherwise $XDG_CONFIG_HOME/claude/settings.json and
// ~/.claude/settings.json are tried in order.
func FindSettingsFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("settings file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		xdgConfig = filepath.Join(home, ".config")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}

	candidates := []string{
		filepath.Join(xdgConfig, "claude", "settings.json"),
		filepath.Join(home, ".claude", "settings.json"),
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("could not find Claude Code settings.json (searched: %s)",
		strings.Join(candidates, ", "))
}

// verifyHookBinary warns when the q executable is not on PATH.
func verifyHookBinary() []string {
	if _, err := lookPath("q"); err != nil {
		return []string{"Warning: 'q' not found on PATH"}
	}
	return nil
}

func loadSettings(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	var settings map[string]any
	if err := json5.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if settings == nil {
		settings = map[string]any{}
	}
	return settings, nil
}

func writeSettings(path string, settings map[string]any) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// backupSettings copies settings.json to a timestamped sibling before any
// modification.
func backupSettings(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading settings for backup: %w", err)
	}
	stamp := time.Now().UTC().Format("20060102_150405")
	backupPath := strings.TrimSuffix(path, ".json") + ".backup." + stamp + ".json"
	if err := os.WriteFile(backupPath, data, 0o644); err != nil {
		return "", fmt.Errorf("writing backup: %w", err)
	}
	return backupPath, nil
}

// hooksSection returns the settings' hooks object, creating it when absent.
func hooksSection(settings map[string]any) (map[string]any, error) {
	raw, ok := settings["hooks"]
	if !ok {
		hooks := map[string]any{}
		settings["hooks"] = hooks
		return hooks, nil
	}
	hooks, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("settings hooks section is not an object")
	}
	return hooks, nil
}

// Install adds the stop and userPromptSubmit hook entries to settings.json.
// The operation is idempotent and creates a backup first; existing entries
// are only overwritten with Force.
func Install(opts Options, out io.Writer) error {
	settingsFile, err := FindSettingsFile(opts.SettingsPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Found settings: %s\n", settingsFile)

	warnings := verifyHookBinary()
	if len(warnings) > 0 && !opts.Force {
		for _, w := range warnings {
			fmt.Fprintln(out, w)
		}
		return fmt.Errorf("hook executable missing; use --force to install anyway")
	}
	for _, w := range warnings {
		fmt.Fprintln(out, w)
	}

	if opts.DryRun {
		fmt.Fprintln(out, "\n[DRY RUN] Would install hooks:")
		fmt.Fprintf(out, "  - %s: %s\n", stopKey, StopHookCommand)
		fmt.Fprintf(out, "  - %s: %s\n", promptKey, PromptHookCommand)
		return nil
	}

	backupPath, err := backupSettings(settingsFile)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Created backup: %s\n", backupPath)

	settings, err := loadSettings(settingsFile)
	if err != nil {
		return err
	}
	hooks, err := hooksSection(settings)
	if err != nil {
		return err
	}

	_, hasStop := hooks[stopKey]
	_, hasPrompt := hooks[promptKey]
	if (hasStop || hasPrompt) && !opts.Force {
		fmt.Fprintln(out, "\nHooks already configured:")
		if hasStop {
			fmt.Fprintf(out, "  %s: %v\n", stopKey, hooks[stopKey])
		}
		if hasPrompt {
			fmt.Fprintf(out, "  %s: %v\n", promptKey, hooks[promptKey])
		}
		return fmt.Errorf("hooks already configured; use --force to overwrite")
	}

	hooks[stopKey] = map[string]any{"command": StopHookCommand, "enabled": true}
	hooks[promptKey] = map[string]any{"command": PromptHookCommand, "enabled": true}

	if err := writeSettings(settingsFile, settings); err != nil {
		return err
	}

	fmt.Fprintln(out, "\nSuccessfully installed hooks:")
	fmt.Fprintf(out, "  - %s: %s\n", stopKey, StopHookCommand)
	fmt.Fprintf(out, "  - %s: %s\n", promptKey, PromptHookCommand)
	fmt.Fprintln(out, "\nRestart Claude Code to activate hooks.")
	return nil
}

// Uninstall removes the hook entries added by Install. Removing hooks that
// are not present is not an error.
func Uninstall(opts Options, out io.Writer) error {
	settingsFile, err := FindSettingsFile(opts.SettingsPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Found settings: %s\n", settingsFile)

	if opts.DryRun {
		fmt.Fprintln(out, "\n[DRY RUN] Would remove hooks:")
		fmt.Fprintf(out, "  - %s\n", stopKey)
		fmt.Fprintf(out, "  - %s\n", promptKey)
		return nil
	}

	backupPath, err := backupSettings(settingsFile)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Created backup: %s\n", backupPath)

	settings, err := loadSettings(settingsFile)
	if err != nil {
		return err
	}

	raw, ok := settings["hooks"]
	if !ok {
		fmt.Fprintln(out, "\nNo hooks configured - nothing to remove.")
		return nil
	}
	hooks, ok := raw.(map[string]any)
	if !ok {
		return fmt.Errorf("settings hooks section is not an object")
	}

	var removed []string
	for _, key := range []string{stopKey, promptKey} {
		if _, ok := hooks[key]; ok {
			delete(hooks, key)
			removed = append(removed, key)
		}
	}
	if len(removed) == 0 {
		fmt.Fprintln(out, "\nNo q hooks found - nothing to remove.")
		return nil
	}

	if len(hooks) == 0 {
		delete(settings, "hooks")
	}

	if err := writeSettings(settingsFile, settings); err != nil {
		return err
	}

	fmt.Fprintln(out, "\nSuccessfully removed hooks:")
	for _, key := range removed {
		fmt.Fprintf(out, "  - %s\n", key)
	}
	fmt.Fprintln(out, "\nRestart Claude Code to deactivate hooks.")
	return nil
}
