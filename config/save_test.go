package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func readYAML(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	return m
}

func TestSaveConfig_SaveGlobal(t *testing.T) {
	dir := t.TempDir()
	cfg := SaveConfig{GlobalPath: filepath.Join(dir, "nested", "config.yaml")}

	if err := cfg.SaveGlobal(KeyJiraURL, "https://acme.atlassian.net"); err != nil {
		t.Fatalf("SaveGlobal: %v", err)
	}
	if err := cfg.SaveGlobal(KeyKeepWorkspace, "TRUE"); err != nil {
		t.Fatalf("SaveGlobal: %v", err)
	}

	saved := readYAML(t, cfg.GlobalPath)
	if saved[KeyJiraURL] != "https://acme.atlassian.net" {
		t.Errorf("jira_url = %v", saved[KeyJiraURL])
	}
	if saved[KeyKeepWorkspace] != true {
		t.Errorf("keep_workspace = %v (%T), want bool true", saved[KeyKeepWorkspace], saved[KeyKeepWorkspace])
	}

	info, err := os.Stat(cfg.GlobalPath)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("perm = %o, want 600", perm)
	}
}

func TestSaveConfig_UnknownKey(t *testing.T) {
	cfg := SaveConfig{GlobalPath: filepath.Join(t.TempDir(), "config.yaml")}
	err := cfg.SaveGlobal("colour", "blue")
	if err == nil || !strings.Contains(err.Error(), "unknown config key") {
		t.Errorf("got %v, want unknown key error", err)
	}
}

func TestSaveConfig_SaveLocal(t *testing.T) {
	dir := t.TempDir()
	cfg := SaveConfig{LocalPath: filepath.Join(dir, LocalConfigName)}

	if err := cfg.SaveLocal(KeyJiraProject, "OPS"); err != nil {
		t.Fatalf("SaveLocal: %v", err)
	}
	if got := readYAML(t, cfg.LocalPath)[KeyJiraProject]; got != "OPS" {
		t.Errorf("jira_project = %v", got)
	}

	if err := cfg.SaveLocal(KeyGitHubToken, "ghp"); err == nil {
		t.Error("secret key should be refused locally")
	}
	if err := (SaveConfig{}).SaveLocal(KeyJiraProject, "X"); err == nil {
		t.Error("missing local path should fail")
	}
}

func TestSaveConfig_DeleteGlobalKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "jira_url: https://j\nslack_channel: C1\n")
	cfg := SaveConfig{GlobalPath: path}

	if err := cfg.DeleteGlobalKey(KeyJiraURL); err != nil {
		t.Fatalf("DeleteGlobalKey: %v", err)
	}
	saved := readYAML(t, path)
	if _, ok := saved[KeyJiraURL]; ok {
		t.Error("jira_url still present")
	}
	if saved[KeySlackChannel] != "C1" {
		t.Error("slack_channel lost")
	}

	missing := SaveConfig{GlobalPath: filepath.Join(t.TempDir(), "none.yaml")}
	if err := missing.DeleteGlobalKey(KeyJiraURL); err != nil {
		t.Errorf("delete from missing file: %v", err)
	}
}

func TestSaveConfig_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "jira_url: [broken\n")

	err := SaveConfig{GlobalPath: path}.SaveGlobal(KeyJiraURL, "https://j")
	if err == nil || !strings.Contains(err.Error(), "parse") {
		t.Errorf("got %v, want parse error", err)
	}
}

func TestSaveThenResolve(t *testing.T) {
	r := newTestResolver(t, "", "", nil)
	if err := NewSaveConfig(r).SaveGlobal(KeyMaxFiles, "12"); err != nil {
		t.Fatal(err)
	}
	if v, src := r.Resolve(nil).GetWithSource(KeyMaxFiles); v != "12" || src != SourceGlobal {
		t.Errorf("max_files = %q (%s)", v, src)
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"true", true},
		{"False", false},
		{"20", "20"},
		{"hello", "hello"},
	}
	for _, tt := range tests {
		if got := parseValue(tt.in); got != tt.want {
			t.Errorf("parseValue(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
