package feeders

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/golobby/config/v3/pkg/feeder"
	"gopkg.in/yaml.v3"
)

// YamlFeeder reads a YAML file. Fields map through `yaml` tags.
type YamlFeeder struct {
	feeder.Yaml
}

// NewYamlFeeder creates a YamlFeeder for path.
func NewYamlFeeder(path string) YamlFeeder {
	return YamlFeeder{feeder.Yaml{Path: path}}
}

// FeedSection feeds only the top-level key section of the file into target.
// A missing section leaves target untouched.
func (y YamlFeeder) FeedSection(section string, target any) error {
	raw, err := os.ReadFile(y.Path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", y.Path, err)
	}
	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parsing %s: %w", y.Path, err)
	}
	node, ok := doc[section]
	if !ok {
		return nil
	}
	if err := node.Decode(target); err != nil {
		return fmt.Errorf("decoding section %q of %s: %w", section, y.Path, err)
	}
	return nil
}

// TomlFeeder reads a TOML file. Fields map through `toml` tags.
type TomlFeeder struct {
	feeder.Toml
}

// NewTomlFeeder creates a TomlFeeder for path.
func NewTomlFeeder(path string) TomlFeeder {
	return TomlFeeder{feeder.Toml{Path: path}}
}

// FeedSection feeds only the top-level table section into target.
func (t TomlFeeder) FeedSection(section string, target any) error {
	var doc map[string]toml.Primitive
	md, err := toml.DecodeFile(t.Path, &doc)
	if err != nil {
		return fmt.Errorf("reading %s: %w", t.Path, err)
	}
	prim, ok := doc[section]
	if !ok {
		return nil
	}
	if err := md.PrimitiveDecode(prim, target); err != nil {
		return fmt.Errorf("decoding section %q of %s: %w", section, t.Path, err)
	}
	return nil
}

// JSONFeeder reads a JSON file. Fields map through `json` tags.
type JSONFeeder = feeder.Json

// NewJSONFeeder creates a JSONFeeder for path.
func NewJSONFeeder(path string) JSONFeeder {
	return JSONFeeder{Path: path}
}
