package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Application-wide names used to locate configuration.
const (
	AppName         = "reviewflow"
	EnvPrefix       = "REVIEWFLOW_"
	LocalConfigName = ".reviewflow.yaml"
	globalFileName  = "config.yaml"
)

// Options adjusts where a Resolver looks. Zero values select the standard
// locations.
type Options struct {
	// GlobalPath overrides ~/.config/reviewflow/config.yaml.
	GlobalPath string

	// LocalPath overrides <git root>/.reviewflow.yaml.
	LocalPath string

	// WorkDir is where the git root search starts. Defaults to ".".
	WorkDir string

	// Getenv replaces os.Getenv.
	Getenv func(string) string

	// ErrWriter receives warnings. Defaults to os.Stderr; use io.Discard to
	// silence them.
	ErrWriter io.Writer
}

// Resolver merges configuration layers.
type Resolver struct {
	globalPath string
	localPath  string
	gitRoot    string
	getenv     func(string) string
	errWriter  io.Writer

	// Warnings collects non-fatal issues found during resolution.
	Warnings []string
}

// NewResolver creates a Resolver.
func NewResolver(opts Options) *Resolver {
	r := &Resolver{
		globalPath: opts.GlobalPath,
		localPath:  opts.LocalPath,
		getenv:     opts.Getenv,
		errWriter:  opts.ErrWriter,
	}
	if r.getenv == nil {
		r.getenv = os.Getenv
	}
	if r.errWriter == nil {
		r.errWriter = os.Stderr
	}

	if r.globalPath == "" {
		r.globalPath = DefaultGlobalPath()
	}

	workDir := opts.WorkDir
	if workDir == "" {
		workDir = "."
	}
	if root := findGitRoot(workDir); root != "" {
		r.gitRoot = root
		if r.localPath == "" {
			r.localPath = filepath.Join(root, LocalConfigName)
		}
	}
	return r
}

// DefaultGlobalPath returns ~/.config/reviewflow/config.yaml, or "" when
// the home directory is unknown.
func DefaultGlobalPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", AppName, globalFileName)
}

func (r *Resolver) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.Warnings = append(r.Warnings, msg)
	fmt.Fprintf(r.errWriter, "Warning: %s\n", msg)
}

// Resolved holds the merged configuration.
type Resolved struct {
	values  map[string]string
	sources map[string]Source
}

// Get returns the value for a key, or "" if unset.
func (c *Resolved) Get(key string) string {
	return c.values[key]
}

// Source returns where a key's value came from.
func (c *Resolved) Source(key string) Source {
	return c.sources[key]
}

// GetWithSource returns both the value and its source.
func (c *Resolved) GetWithSource(key string) (string, Source) {
	return c.values[key], c.sources[key]
}

// Display returns the value of key with secrets masked.
func (c *Resolved) Display(key string) string {
	v := c.values[key]
	if info, ok := LookupKey(key); ok && info.Secret {
		return Mask(v)
	}
	return v
}

// All returns a copy of all key/value pairs.
func (c *Resolved) All() map[string]string {
	result := make(map[string]string, len(c.values))
	for k, v := range c.values {
		result[k] = v
	}
	return result
}

// Keys returns the set keys, sorted.
func (c *Resolved) Keys() []string {
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Resolve merges every layer. Priority (highest to lowest):
// flags > env > local > global > defaults. Empty flag values are ignored.
func (r *Resolver) Resolve(flags map[string]string) *Resolved {
	cfg := &Resolved{
		values:  make(map[string]string),
		sources: make(map[string]Source),
	}

	for key, value := range Defaults() {
		cfg.set(key, value, SourceDefault)
	}
	r.applyFile(cfg, r.globalPath, SourceGlobal, KeyNames())
	r.applyFile(cfg, r.localPath, SourceLocal, LocalKeyNames())
	r.applyEnv(cfg)

	for key, value := range flags {
		if value != "" {
			cfg.set(key, value, SourceFlag)
		}
	}
	return cfg
}

func (c *Resolved) set(key, value string, src Source) {
	c.values[key] = value
	c.sources[key] = src
}

func (r *Resolver) applyFile(cfg *Resolved, path string, src Source, valid []string) {
	if path == "" {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return // missing file is not an error
	}

	var parsed map[string]any
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		r.warn("could not parse %s: %v", path, err)
		return
	}

	for key, value := range parsed {
		if !contains(valid, key) {
			if info, ok := LookupKey(key); ok && info.Secret {
				r.warn("%s: secret key %q is ignored in %s config", path, key, src)
			} else {
				r.warn("%s: unknown key %q", path, key)
			}
			continue
		}
		if s := toString(value); s != "" {
			cfg.set(key, s, src)
		}
	}
}

func (r *Resolver) applyEnv(cfg *Resolved) {
	for _, key := range KeyNames() {
		if value := r.getenv(EnvPrefix + strings.ToUpper(key)); value != "" {
			cfg.set(key, value, SourceEnv)
		}
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		cfg.set(KeyNoColor, "true", SourceEnv)
	}
}

// GitRoot returns the detected git root directory.
func (r *Resolver) GitRoot() string {
	return r.gitRoot
}

// GlobalPath returns the path of the global config file.
func (r *Resolver) GlobalPath() string {
	return r.globalPath
}

// LocalPath returns the path of the local config file.
func (r *Resolver) LocalPath() string {
	return r.localPath
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

func toString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case int, int64, float64:
		return fmt.Sprintf("%v", val)
	default:
		return ""
	}
}

// findGitRoot walks up from startDir looking for a .git entry.
func findGitRoot(startDir string) string {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
