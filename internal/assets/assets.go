// Package assets holds the static files copied next to the generated page.
package assets

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Names of the bundled files.
const (
	StyleFile  = "style.css"
	ScriptFile = "script.js"
)

//go:embed style.css script.js
var bundled embed.FS

// Bundled returns the embedded copy of name.
func Bundled(name string) ([]byte, error) {
	data, err := fs.ReadFile(bundled, name)
	if err != nil {
		return nil, fmt.Errorf("no bundled asset %s: %w", name, err)
	}
	return data, nil
}

// Resolve returns the project's <root>/assets/<name> when present, else
// the bundled file. The returned source names where the bytes came from.
func Resolve(root, name string) (data []byte, source string, err error) {
	path := filepath.Join(root, "assets", name)
	data, err = os.ReadFile(path)
	if err == nil {
		return data, path, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	data, err = Bundled(name)
	if err != nil {
		return nil, "", err
	}
	return data, "embedded", nil
}

// FindFavicon looks for the favicon under <root>/assets then <root>.
// It returns "" when neither exists.
func FindFavicon(root, favicon string) string {
	if favicon == "" {
		return ""
	}
	for _, candidate := range []string{
		filepath.Join(root, "assets", favicon),
		filepath.Join(root, favicon),
	} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}
