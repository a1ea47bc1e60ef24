package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration options for qclean.
type Config struct {
	// LLM settings for the proofreader's remote stage.
	LLM LLMConfig `koanf:"llm"`

	// Clean controls which remediations run by default.
	Clean CleanConfig `koanf:"clean"`

	// Output settings
	Output OutputConfig `koanf:"output"`
}

// LLMConfig configures the optional remote proofreading stage.
// An empty APIKey disables the LLM stage; the deterministic prefilter
// always runs.
type LLMConfig struct {
	Provider   string `koanf:"provider"`
	APIKey     string `koanf:"api_key"`
	Model      string `koanf:"model"`
	BaseURL    string `koanf:"base_url"`
	MaxRetries int    `koanf:"max_retries"`
	TimeoutMS  int    `koanf:"timeout_ms"`
}

// CleanConfig mirrors the cleaner feature flags.
type CleanConfig struct {
	RemoveMetadata        bool   `koanf:"remove_metadata"`
	RemoveComments        bool   `koanf:"remove_comments"`
	AcceptTrackChanges    bool   `koanf:"accept_track_changes"`
	RemoveHiddenContent   bool   `koanf:"remove_hidden_content"`
	RemoveEmbeddedObjects bool   `koanf:"remove_embedded_objects"`
	RemoveMacros          bool   `koanf:"remove_macros"`
	CorrectSpelling       bool   `koanf:"correct_spelling"`
	FormulasToValues      bool   `koanf:"formulas_to_values"`
	DrawPolicy            string `koanf:"draw_policy"` // none, auto, all
	PDFMode               string `koanf:"pdf_mode"`    // sanitize, text-only
	PDFDocx               bool   `koanf:"pdf_docx"`
}

// OutputConfig controls CLI output formatting.
type OutputConfig struct {
	Format  string `koanf:"format"` // text, json
	Color   bool   `koanf:"color"`
	Verbose bool   `koanf:"verbose"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:   "openai",
			Model:      "gpt-4o-mini",
			MaxRetries: 4,
			TimeoutMS:  60000,
		},
		Clean: CleanConfig{
			RemoveMetadata:        true,
			RemoveComments:        true,
			AcceptTrackChanges:    true,
			RemoveHiddenContent:   true,
			RemoveEmbeddedObjects: true,
			RemoveMacros:          true,
			CorrectSpelling:       false,
			DrawPolicy:            "auto",
			PDFMode:               "sanitize",
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
	}
}

// Load loads configuration from a file, then overlays environment variables.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := loadEnv(k); err != nil {
		return nil, err
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault tries standard config locations, falling back to defaults.
// Environment variables always apply, so LLM_API_KEY alone is enough to
// enable the remote proofreader.
func LoadOrDefault() *Config {
	configNames := []string{
		"qclean.toml", "qclean.yaml", "qclean.yml", "qclean.json",
		".qclean.toml", ".qclean.yaml", ".qclean.yml", ".qclean.json",
	}
	for _, name := range configNames {
		if _, err := os.Stat(name); err == nil {
			if cfg, err := Load(name); err == nil {
				return cfg
			}
		}
	}

	cfg := DefaultConfig()
	k := koanf.New(".")
	if err := loadEnv(k); err == nil {
		_ = k.Unmarshal("", cfg)
	}
	return cfg
}

// loadEnv overlays LLM_* variables onto the llm config subtree.
func loadEnv(k *koanf.Koanf) error {
	return k.Load(env.Provider("LLM_", ".", func(s string) string {
		return "llm." + strings.ToLower(strings.TrimPrefix(s, "LLM_"))
	}), nil)
}
