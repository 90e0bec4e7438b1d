package images

import (
	"path"
	"strings"
)

// IsRemote reports whether ref already points at an http(s) URL.
func IsRemote(ref string) bool {
	lower := strings.ToLower(strings.TrimSpace(ref))
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// ResolveImagePath turns an image reference found in docPath into a
// repository path. Backslashes become slashes, a leading slash means
// repository root, anything else is relative to the document directory.
func ResolveImagePath(docPath, ref string) string {
	ref = strings.ReplaceAll(strings.TrimSpace(ref), `\`, "/")
	if strings.HasPrefix(ref, "/") {
		return strings.TrimLeft(path.Clean(ref), "/")
	}

	dir := path.Dir(strings.ReplaceAll(docPath, `\`, "/"))
	if dir == "." {
		dir = ""
	}
	resolved := path.Clean(path.Join(dir, ref))
	return strings.TrimPrefix(resolved, "./")
}

// Extension returns the lowercase extension of ref without the dot.
func Extension(ref string) string {
	ref = strings.ReplaceAll(ref, `\`, "/")
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	return strings.ToLower(strings.TrimPrefix(path.Ext(ref), "."))
}

// FileName builds the content-addressed name `{hash}.{ext}`.
func FileName(hash, ext string) string {
	if ext == "" {
		return hash
	}
	return hash + "." + ext
}
