package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// SaveConfig writes keys into the global or local config file.
type SaveConfig struct {
	// GlobalPath is the global config file. Defaults to DefaultGlobalPath().
	GlobalPath string

	// LocalPath is the local config file, usually <git root>/.reviewflow.yaml.
	LocalPath string
}

// NewSaveConfig returns a SaveConfig targeting the files r reads.
func NewSaveConfig(r *Resolver) SaveConfig {
	return SaveConfig{GlobalPath: r.GlobalPath(), LocalPath: r.LocalPath()}
}

// SaveGlobal sets key in the global config file.
func (c SaveConfig) SaveGlobal(key, value string) error {
	if _, ok := LookupKey(key); !ok {
		return unknownKey(key, KeyNames())
	}
	path := c.GlobalPath
	if path == "" {
		path = DefaultGlobalPath()
	}
	if path == "" {
		return errors.New("global config path not available")
	}
	return updateFile(path, 0o600, func(m map[string]any) { m[key] = parseValue(value) })
}

// SaveLocal sets key in the local config file. Secrets are refused because
// the local file is meant to be committed.
func (c SaveConfig) SaveLocal(key, value string) error {
	if c.LocalPath == "" {
		return errors.New("local config path not available (not inside a git repository?)")
	}
	if info, ok := LookupKey(key); !ok {
		return unknownKey(key, LocalKeyNames())
	} else if info.Secret {
		return fmt.Errorf("%s is a secret and can only be set globally", key)
	}
	return updateFile(c.LocalPath, 0o644, func(m map[string]any) { m[key] = parseValue(value) })
}

// DeleteGlobalKey removes key from the global config file.
func (c SaveConfig) DeleteGlobalKey(key string) error {
	path := c.GlobalPath
	if path == "" {
		path = DefaultGlobalPath()
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return updateFile(path, 0o600, func(m map[string]any) { delete(m, key) })
}

func updateFile(path string, perm os.FileMode, mutate func(map[string]any)) error {
	existing := make(map[string]any)
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &existing); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		if existing == nil {
			existing = make(map[string]any)
		}
	}

	mutate(existing)

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(existing)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, perm)
}

func unknownKey(key string, valid []string) error {
	return fmt.Errorf("unknown config key: %s\n\nValid keys: %s", key, strings.Join(valid, ", "))
}

// parseValue keeps booleans typed in the YAML file.
func parseValue(value string) any {
	switch strings.ToLower(value) {
	case "true":
		return true
	case "false":
		return false
	}
	return value
}
