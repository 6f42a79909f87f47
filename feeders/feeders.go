// Package feeders populates configuration structs from files and the
// process environment. Every feeder implements the golobby/config Feeder
// interface, so they can be stacked on a config.Config in precedence
// order: later feeders overwrite what earlier ones set.
package feeders

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/golobby/config/v3"
)

var (
	ErrInvalidStructure    = errors.New("expected pointer to struct")
	ErrUnsupportedType     = errors.New("unsupported field type")
	ErrInvalidLineFormat   = errors.New("invalid .env line format")
	ErrUnsupportedFileType = errors.New("unsupported config file type")
)

// ForFile picks a feeder by file extension: .yaml/.yml, .toml, .json or .env.
func ForFile(path string) (config.Feeder, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return NewYamlFeeder(path), nil
	case ".toml":
		return NewTomlFeeder(path), nil
	case ".json":
		return NewJSONFeeder(path), nil
	case ".env":
		return NewDotEnvFeeder(path, ""), nil
	default:
		if filepath.Base(path) == ".env" {
			return NewDotEnvFeeder(path, ""), nil
		}
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFileType, path)
	}
}
