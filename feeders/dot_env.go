package feeders

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// DotEnvFeeder reads KEY=VALUE pairs from a .env file and applies them
// like EnvFeeder. Variables already set in the process environment take
// precedence over the file.
type DotEnvFeeder struct {
	Path   string
	Prefix string
}

// NewDotEnvFeeder creates a DotEnvFeeder for path.
func NewDotEnvFeeder(path, prefix string) DotEnvFeeder {
	return DotEnvFeeder{Path: path, Prefix: prefix}
}

// Feed implements config.Feeder.
func (f DotEnvFeeder) Feed(structure any) error {
	vars, err := ParseDotEnv(f.Path)
	if err != nil {
		return err
	}
	return populate(structure, f.Prefix, func(name string) (string, bool) {
		if v, ok := os.LookupEnv(name); ok {
			return v, true
		}
		v, ok := vars[name]
		return v, ok
	})
}

// ParseDotEnv reads a .env file. Blank lines and # comments are skipped,
// an optional "export " prefix is accepted and matching single or double
// quotes around a value are removed.
func ParseDotEnv(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening .env file: %w", err)
	}
	defer file.Close()

	vars := make(map[string]string)
	scanner := bufio.NewScanner(file)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		text = strings.TrimPrefix(text, "export ")

		key, value, ok := strings.Cut(text, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("%w at line %d: %s", ErrInvalidLineFormat, line, text)
		}
		vars[key] = unquote(strings.TrimSpace(value))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading .env file: %w", err)
	}
	return vars, nil
}

func unquote(v string) string {
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		return v[1 : len(v)-1]
	}
	return v
}
