package filespacer

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// secureJoin joins an archive member name under the extraction root and
// verifies that the canonical result stays inside it. It rejects absolute
// member paths and any name whose ../ segments escape the root. Rejected
// members are never written; callers count and log them without aborting
// the surrounding extraction.
func secureJoin(root, member string) (string, error) {
	name := filepath.ToSlash(member)
	if name == "" || path.IsAbs(name) || filepath.IsAbs(member) || filepath.VolumeName(member) != "" {
		return "", fmt.Errorf("%w: %q", ErrInsecurePath, member)
	}

	root = filepath.Clean(root)
	target := filepath.Join(root, filepath.FromSlash(name))

	// Join cleans the result, so a surviving escape shows up as the target
	// not being a descendant of root.
	if target != root && !strings.HasPrefix(target, root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrInsecurePath, member)
	}
	if target == root {
		return "", fmt.Errorf("%w: %q", ErrInsecurePath, member)
	}

	return target, nil
}

// trimTopDir removes the top or first directory from the path.
// It expects a path with a forward slash.
// For example, "a/b/c" => "b/c".
func trimTopDir(dir string) string {
	if len(dir) > 0 && dir[0] == '/' {
		dir = dir[1:]
	}

	if pos := strings.Index(dir, "/"); pos >= 0 {
		return dir[pos+1:]
	}

	return dir
}

// nameInArchive converts a file's on-disk name to its container member
// name. nameOnDisk is expected to be prefixed by rootOnDisk. Member names
// are rooted at the base name of the input folder, so unpacking a folder
// archive recreates the folder itself rather than spilling loose files.
func nameInArchive(nameOnDisk, rootOnDisk string) string {
	rootInArchive := filepath.Base(rootOnDisk)
	truncPath := strings.TrimPrefix(nameOnDisk, rootOnDisk)

	return path.Join(rootInArchive, filepath.ToSlash(truncPath))
}

// excluded reports whether name contains any of the exclusion patterns.
// Matching is plain substring containment over slash-normalized names.
func excluded(name string, patterns []string) bool {
	name = filepath.ToSlash(name)
	for _, p := range patterns {
		if p != "" && strings.Contains(name, p) {
			return true
		}
	}

	return false
}
