package process

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ProcessConfig represents one allow-listed external command.
type ProcessConfig struct {
	Name        string            `yaml:"name" json:"name"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	Description string            `yaml:"description" json:"description"`
}

// ConfigFile represents the structure of commands.yaml
type ConfigFile struct {
	Commands []ProcessConfig `yaml:"commands" json:"commands"`
}

// Defaults returns the commands the built-in tools need. Entries loaded
// from a config file override these by name.
func Defaults() map[string]ProcessConfig {
	return map[string]ProcessConfig{
		CommandPandoc: {
			Name:        CommandPandoc,
			Command:     "pandoc",
			Description: "Universal document converter",
		},
		CommandPaddleOCR: {
			Name:        CommandPaddleOCR,
			Command:     "paddleocr",
			Description: "PaddleOCR CLI, used for PP-Structure layout recovery",
		},
		CommandTesseract: {
			Name:        CommandTesseract,
			Command:     "tesseract",
			Description: "Tesseract OCR CLI",
		},
	}
}

// Well-known command names.
const (
	CommandPandoc    = "pandoc"
	CommandPaddleOCR = "paddleocr"
	CommandTesseract = "tesseract"
)

// LoadCommands reads a configuration file (YAML or JSON) and returns a map of command names to configs.
// A missing file yields an empty map.
func LoadCommands(path string) (map[string]ProcessConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]ProcessConfig{}, nil
		}
		return nil, fmt.Errorf("failed to read commands config: %w", err)
	}

	var cfg ConfigFile
	ext := strings.ToLower(filepath.Ext(path))

	if ext == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else {
		// Default to YAML
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	commands := make(map[string]ProcessConfig)
	for _, c := range cfg.Commands {
		if c.Name == "" || c.Command == "" {
			continue
		}
		commands[c.Name] = c
	}

	return commands, nil
}
