package layers

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/knadh/koanf/maps"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/menav/internal/domain"
)

// Tree is a plain in-memory YAML tree.
type Tree = map[string]any

// keyDelim is the koanf path delimiter. Trees are read back through Raw(),
// which keeps the original nesting, so keys containing it are preserved.
const keyDelim = "."

// ReadYAML loads a single YAML mapping file into a tree.
//
// A missing file yields an error wrapping domain.ErrConfigMissing, malformed
// YAML an error wrapping domain.ErrConfigParse. Callers treat both as
// "layer absent".
func ReadYAML(path string) (Tree, error) {
	if err := checkExists(path); err != nil {
		return nil, err
	}

	k := koanf.New(keyDelim)
	if err := k.Load(file.Provider(path), kyaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrConfigParse, path, err)
	}
	return k.Raw(), nil
}

// readDocument loads a YAML file whose root may be a sequence.
func readDocument(path string) (any, error) {
	if err := checkExists(path); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrConfigParse, path, err)
	}

	if m, ok := doc.(map[string]any); ok {
		maps.IntfaceKeysToStrings(m)
	}
	return doc, nil
}

func checkExists(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", domain.ErrConfigMissing, path)
		}
		return fmt.Errorf("failed to access %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", domain.ErrConfigParse, path)
	}
	return nil
}
