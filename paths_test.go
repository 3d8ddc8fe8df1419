package filespacer

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestSecureJoin(t *testing.T) {
	root := filepath.Join("out", "root")

	for _, tc := range []struct {
		member string
		want   string // "" means rejected
	}{
		{member: "a.txt", want: filepath.Join(root, "a.txt")},
		{member: "nested/dir/b.txt", want: filepath.Join(root, "nested", "dir", "b.txt")},
		{member: "a/../b.txt", want: filepath.Join(root, "b.txt")},
		{member: "../../evil.txt", want: ""},
		{member: "../evil.txt", want: ""},
		{member: "a/../../evil.txt", want: ""},
		{member: "/etc/passwd", want: ""},
		{member: "..", want: ""},
		{member: "", want: ""},
	} {
		tc := tc
		t.Run(tc.member, func(t *testing.T) {
			got, err := secureJoin(root, tc.member)
			if tc.want == "" {
				if err == nil {
					t.Fatalf("expected rejection, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected rejection: %v", err)
			}
			if got != tc.want {
				t.Errorf("want: '%s', got: '%s')", tc.want, got)
			}
		})
	}
}

func TestSecureJoinStaysUnderRoot(t *testing.T) {
	root := t.TempDir()

	for _, member := range []string{"x.txt", "a/b/c.txt", "a/./b.txt"} {
		got, err := secureJoin(root, member)
		if err != nil {
			t.Fatalf("%s: %v", member, err)
		}
		if !strings.HasPrefix(got, root+string(filepath.Separator)) {
			t.Errorf("%s resolved outside root: %s", member, got)
		}
	}
}

func TestTrimTopDir(t *testing.T) {
	for _, tc := range []struct {
		input string
		want  string
	}{
		{input: "a/b/c", want: "b/c"},
		{input: "a", want: "a"},
		{input: "abc/def", want: "def"},
		{input: "/abc/def", want: "def"},
	} {
		tc := tc
		t.Run(tc.input, func(t *testing.T) {
			got := trimTopDir(tc.input)
			if got != tc.want {
				t.Errorf("want: '%s', got: '%s')", tc.want, got)
			}
		})
	}
}

func TestNameInArchive(t *testing.T) {
	root := filepath.Join("home", "data", "photos")

	for _, tc := range []struct {
		disk string
		want string
	}{
		{disk: filepath.Join(root, "a.jpg"), want: "photos/a.jpg"},
		{disk: filepath.Join(root, "2023", "b.jpg"), want: "photos/2023/b.jpg"},
	} {
		if got := nameInArchive(tc.disk, root); got != tc.want {
			t.Errorf("%s: want %q, got %q", tc.disk, tc.want, got)
		}
	}
}

func TestExcluded(t *testing.T) {
	patterns := []string{".log", "tmp/"}

	for _, tc := range []struct {
		name string
		want bool
	}{
		{name: "app.log", want: true},
		{name: "tmp/scratch.txt", want: true},
		{name: "docs/readme.md", want: false},
		{name: "logbook.txt", want: false},
	} {
		if got := excluded(tc.name, patterns); got != tc.want {
			t.Errorf("%s: want %v, got %v", tc.name, tc.want, got)
		}
	}
}
