package repo

import (
	"reflect"
	"testing"

	"github.com/randalmurphal/reviewflow/testutil"
)

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{
		"b.py":                     "",
		"a.go":                     "",
		"docs/readme.md":           "",
		"src/z.ts":                 "",
		"src/a.JS":                 "",
		"node_modules/lib/x.js":    "",
		".git/hooks/pre-commit.py": "",
		".github/scripts/ci.py":    "",
		"vendor/dep/dep.go":        "",
	})

	tests := []struct {
		name string
		opts DiscoverOptions
		want []string
	}{
		{
			name: "defaults",
			want: []string{"a.go", "b.py", "src/a.JS", "src/z.ts"},
		},
		{
			name: "extension filter",
			opts: DiscoverOptions{Extensions: []string{"py"}},
			want: []string{"b.py"},
		},
		{
			name: "cap keeps discovery order",
			opts: DiscoverOptions{MaxFiles: 2},
			want: []string{"a.go", "b.py"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Discover(dir, tt.opts)
			if err != nil {
				t.Fatalf("Discover: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Discover = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDiscover_Empty(t *testing.T) {
	got, err := Discover(t.TempDir(), DiscoverOptions{})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Discover = %v, want none", got)
	}
}

func TestDiscover_MissingRoot(t *testing.T) {
	if _, err := Discover("/does/not/exist", DiscoverOptions{}); err == nil {
		t.Error("expected error for missing root")
	}
}
