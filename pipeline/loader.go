package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	apperrors "github.com/kbukum/opflow/errors"
)

// Loader loads definitions by name.
type Loader interface {
	Load(name string) (*Definition, error)
}

// FileLoader loads definitions from YAML files under a set of directories.
type FileLoader struct {
	dirs []string
}

// NewFileLoader creates a loader searching dirs in order.
func NewFileLoader(dirs ...string) *FileLoader {
	return &FileLoader{dirs: dirs}
}

// Load finds {name}.yaml or {name}.yml directly in a directory or, failing
// that, anywhere below it.
func (l *FileLoader) Load(name string) (*Definition, error) {
	for _, dir := range l.dirs {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, name+ext)
			if _, err := os.Stat(path); err == nil {
				return LoadFile(path)
			}
		}
		if path := findBelow(dir, name); path != "" {
			return LoadFile(path)
		}
	}
	return nil, apperrors.NotFound("pipeline", name).WithDetail("dirs", l.dirs)
}

func findBelow(dir, name string) string {
	var found string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		base := d.Name()
		if base == name+".yaml" || base == name+".yml" {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	return found
}

// LoadFile parses a definition file. Unknown keys are rejected.
func LoadFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pipeline: read %s: %w", path, err)
	}
	def, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %s: %w", path, err)
	}
	return def, nil
}

// Parse decodes and validates a YAML definition.
func Parse(data []byte) (*Definition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var def Definition
	if err := dec.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, apperrors.InvalidConfig("empty pipeline definition")
		}
		return nil, apperrors.InvalidConfig(err.Error()).WithCause(err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// MapLoader serves definitions from memory.
type MapLoader map[string]*Definition

// Load implements Loader.
func (m MapLoader) Load(name string) (*Definition, error) {
	if d, ok := m[name]; ok {
		return d, nil
	}
	return nil, apperrors.NotFound("pipeline", name)
}
