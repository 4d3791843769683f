package settings

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/HerbHall/startpage/pkg/tokens"
)

// Format is a settings export/import encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts "json", "yaml" or "yml", case-insensitively. Empty
// means JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported format %q", s)
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	if f == FormatYAML {
		return "application/yaml"
	}
	return "application/json"
}

// Export encodes s in format f.
func Export(s tokens.Settings, f Format) ([]byte, error) {
	switch f {
	case FormatYAML:
		return yaml.Marshal(s)
	default:
		return json.MarshalIndent(s, "", "  ")
	}
}

// Import decodes data in format f on top of the defaults and validates the
// result.
func Import(data []byte, f Format) (tokens.Settings, error) {
	var (
		s   tokens.Settings
		err error
	)
	switch f {
	case FormatYAML:
		s = tokens.DefaultSettings()
		if err = yaml.Unmarshal(data, &s); err != nil {
			err = fmt.Errorf("decode settings yaml: %w", err)
		}
	default:
		s, err = tokens.DecodeSettings(data)
	}
	if err != nil {
		return tokens.Settings{}, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	if err := Validate(s); err != nil {
		return tokens.Settings{}, err
	}
	return s, nil
}
