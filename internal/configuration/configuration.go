package configuration

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/pkg/errors"

	"github.com/malonaz/amity/internal/persona"
)

// DefaultPath of the configuration file.
const DefaultPath = "~/.config/amity/config.json"

func defaultConfig() *Config {
	return &Config{
		Chat: &ChatConfig{
			Model:       "gemini-3-flash-preview",
			Temperature: 0.8,
			TopP:        0.95,
			TopK:        40,
		},
		Persona: &PersonaConfig{
			SystemInstructionTemplate: persona.SystemInstruction,
		},
		UI: &UIConfig{
			HistoryFile: filepath.Join(os.TempDir(), "amity_chat_history"),
			DebugLog:    filepath.Join(os.TempDir(), "amity-debug.log"),
		},
	}
}

// Config holds configuration for the amity client.
type Config struct {
	Chat    *ChatConfig    `json:"chat"`
	Persona *PersonaConfig `json:"persona"`
	UI      *UIConfig      `json:"ui"`

	// Populated from the environment, never written to disk.
	Env *Env `json:"-"`
}

// ChatConfig holds the remote session parameters. They are fixed for the
// lifetime of the process and reused verbatim on every reset.
type ChatConfig struct {
	// The model identity.
	Model string `json:"model"`
	// Sampling temperature.
	Temperature float32 `json:"temperature"`
	// Nucleus sampling threshold.
	TopP float32 `json:"top_p"`
	// Top-k candidate bound.
	TopK float32 `json:"top_k"`
}

// PersonaConfig holds the assistant persona.
type PersonaConfig struct {
	// A text/template (sprig functions available) rendered into the system instruction.
	SystemInstructionTemplate string `json:"system_instruction_template"`
}

// UIConfig holds terminal frontend settings.
type UIConfig struct {
	// Where typed inputs are remembered for Alt+P/Alt+N recall.
	HistoryFile string `json:"history_file"`
	// Where the debug log is written.
	DebugLog string `json:"debug_log"`
	// Send on Enter instead of Ctrl+J.
	SendOnEnter bool `json:"send_on_enter"`
}

// Parse a configuration file, creating it with defaults if it does not exist.
func Parse(path string) (*Config, error) {
	path, err := ExpandPath(path)
	if err != nil {
		return nil, errors.Wrap(err, "expanding path")
	}

	if err := initializeIfNotPresent(path); err != nil {
		return nil, errors.Wrap(err, "initializing configuration")
	}
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading file")
	}

	config := &Config{}
	if err = json.Unmarshal(bytes, config); err != nil {
		return nil, errors.Wrap(err, "unmarshaling into config")
	}
	if err := mergo.Merge(config, defaultConfig()); err != nil {
		return nil, errors.Wrap(err, "merging defaults")
	}

	for _, p := range []*string{&config.UI.HistoryFile, &config.UI.DebugLog} {
		expanded, err := ExpandPath(*p)
		if err != nil {
			return nil, errors.Wrapf(err, "expanding path %s", *p)
		}
		*p = expanded
	}

	env, err := ReadEnv()
	if err != nil {
		return nil, errors.Wrap(err, "reading environment")
	}
	config.Env = env
	return config, nil
}

// save a configuration file.
func (c *Config) save(path string) error {
	bytes, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshaling config")
	}
	if err := os.WriteFile(path, bytes, 0644); err != nil {
		return errors.Wrap(err, "writing file")
	}
	return nil
}

// initializeIfNotPresent initializes a config if it does not exist.
func initializeIfNotPresent(path string) error {
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	dir, _ := filepath.Split(path)
	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrap(err, "creating folders")
		}
	}

	if err := defaultConfig().save(path); err != nil {
		return errors.Wrap(err, "saving default config")
	}
	return nil
}

// ExpandPath expands a leading ~/ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "getting user home dir")
	}
	return filepath.Join(home, path[2:]), nil
}
