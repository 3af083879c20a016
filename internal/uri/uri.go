// Package uri converts between LSP "file://" document URIs and filesystem
// paths, adapted from the teacher's internal/utils package.
package uri

import (
	"fmt"
	"net/url"
	"path/filepath"
)

// ErrNotFileScheme is wrapped into the returned error when a URI's scheme is
// not "file".
var ErrNotFileScheme = fmt.Errorf("uri: not a file:// scheme")

// ToPath converts a "file://" URI to an absolute filesystem path. Any other
// scheme, or an unparsable URI, is a spec §7 InvalidUri failure.
func ToPath(u string) (string, error) {
	parsed, err := url.Parse(u)
	if err != nil {
		return "", fmt.Errorf("uri: parse %q: %w", u, err)
	}
	if parsed.Scheme != "file" {
		return "", fmt.Errorf("uri: %q: %w", u, ErrNotFileScheme)
	}
	return filepath.FromSlash(parsed.Path), nil
}

// FromPath converts a filesystem path to a "file://" URI.
func FromPath(p string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(p)}
	return u.String()
}

// ResolveInclude joins a quoted #include path literal against the directory
// of the document that contains it, per spec §4.3/§6 include resolution.
func ResolveInclude(documentDir, includePath string) string {
	if filepath.IsAbs(includePath) {
		return filepath.Clean(includePath)
	}
	return filepath.Clean(filepath.Join(documentDir, includePath))
}
