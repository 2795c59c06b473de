package defaults

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format identifies a configuration file syntax
type Format int

const (
	FormatAuto Format = iota
	FormatTOML
	FormatYAML
	FormatJSON
)

func (f Format) String() string {
	switch f {
	case FormatAuto:
		return "auto"
	case FormatTOML:
		return "toml"
	case FormatYAML:
		return "yaml"
	case FormatJSON:
		return "json"
	default:
		return "unknown"
	}
}

// DetectFormat picks a format from the file extension. Unknown extensions
// are read as TOML
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	default:
		return FormatTOML
	}
}

// FromFile reads path and adds it as a file layer
func (p *Provider) FromFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading defaults file: %w", err)
	}
	data, err := Decode(content, DetectFormat(path))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	p.AddSource(SourceTypeFile, path, data)
	return nil
}

// FromBytes adds content in the given format as a file layer
func (p *Provider) FromBytes(content []byte, format Format) error {
	data, err := Decode(content, format)
	if err != nil {
		return err
	}
	p.AddSource(SourceTypeFile, format.String(), data)
	return nil
}

// Decode parses content into a nested map
func Decode(content []byte, format Format) (map[string]any, error) {
	data := make(map[string]any)
	switch format {
	case FormatTOML, FormatAuto:
		if err := toml.Unmarshal(content, &data); err != nil {
			return nil, fmt.Errorf("TOML parse error: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(content, &data); err != nil {
			return nil, fmt.Errorf("YAML parse error: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(content, &data); err != nil {
			return nil, fmt.Errorf("JSON parse error: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
	return data, nil
}
