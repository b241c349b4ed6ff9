package ingest

import (
	"path"
	"path/filepath"
	"strings"
)

// IsExcluded reports whether any directory segment of p ends with suffix.
// The file name itself is not considered.
func IsExcluded(p, suffix string) bool {
	if suffix == "" {
		return false
	}
	dir := path.Dir(filepath.ToSlash(p))
	for _, seg := range strings.Split(dir, "/") {
		if seg != "" && seg != "." && strings.HasSuffix(seg, suffix) {
			return true
		}
	}
	return false
}

// UpdateTarget returns the path an update file replaces: the same directory
// and extension with suffix stripped from the file stem. ok is false when p is
// not an update file.
func UpdateTarget(p, suffix string) (target string, ok bool) {
	if suffix == "" {
		return "", false
	}
	dir, name := filepath.Split(p)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if !strings.HasSuffix(stem, suffix) {
		return "", false
	}
	stem = strings.TrimSuffix(stem, suffix)
	if stem == "" {
		return "", false
	}
	return dir + stem + ext, true
}

// UpdateSource is the inverse of UpdateTarget: the update file that would
// replace p.
func UpdateSource(p, suffix string) string {
	dir, name := filepath.Split(p)
	ext := filepath.Ext(name)
	return dir + strings.TrimSuffix(name, ext) + suffix + ext
}

func isMarkdown(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".md")
}
