package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"plancompare-agent/internal/domain"
)

// Model holds the completion parameters for the catalog's model.
type Model struct {
	Name        string  `yaml:"name"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// Catalog models the on-disk catalog.yaml schema: which plan files to load,
// which canned questions to offer, and how to call the model.
type Catalog struct {
	DataDir      string   `yaml:"data_dir"`
	PlanFiles    []string `yaml:"plan_files"`
	Questions    []string `yaml:"questions"`
	SystemPrompt string   `yaml:"system_prompt"`
	Model        Model    `yaml:"model"`
}

// Default returns the built-in catalog: the five Blue Cross Blue Shield plan
// documents shipped with the service and the stock comparison questions.
func Default() Catalog {
	return Catalog{
		DataDir: "data",
		PlanFiles: []string{
			"HMO Blue Copayment.txt",
			"HMO Blue New England Basic Saver.txt",
			"HMO Blue Saver.txt",
			"HMO Blue Select $2000 Deductible with Copayment.txt",
			"Preferred Blue PPO $4500 Deductible.txt",
		},
		Questions: []string{
			"Which plan has the lowest deductible?",
			"Compare the out-of-pocket maximums for these plans.",
			"How do the copayments for primary care visits differ between these plans?",
			"What are the differences in prescription drug coverage?",
			"Which plan offers better coverage for specialists?",
			"How do these plans handle emergency room visits?",
			"Compare the coverage for preventive care services.",
		},
		SystemPrompt: "You are a helpful assistant specializing in comparing Blue Cross Blue Shield insurance plans. Provide concise, accurate comparisons based on the plans given.",
		Model: Model{
			Name:        "jamba-1.5-large",
			Temperature: 0.3,
			MaxTokens:   5000,
		},
	}
}

// Load reads and validates a catalog file. Fields left empty in the file fall
// back to the built-in defaults, so a partial catalog only overrides what it
// names.
func Load(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Catalog{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Catalog{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// ModelParams converts the catalog's model section to the domain shape.
func (c Catalog) ModelParams() domain.ModelParams {
	return domain.ModelParams{
		Model:       c.Model.Name,
		Temperature: c.Model.Temperature,
		MaxTokens:   c.Model.MaxTokens,
	}
}

func (c Catalog) validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if len(c.PlanFiles) == 0 {
		return fmt.Errorf("plan_files must list at least one file")
	}
	seen := make(map[string]bool, len(c.PlanFiles))
	for _, f := range c.PlanFiles {
		stem := strings.TrimSuffix(f, filepath.Ext(f))
		if strings.TrimSpace(stem) == "" {
			return fmt.Errorf("plan file %q has an empty name stem", f)
		}
		if seen[stem] {
			return fmt.Errorf("duplicate plan name %q", stem)
		}
		seen[stem] = true
	}
	if strings.TrimSpace(c.SystemPrompt) == "" {
		return fmt.Errorf("system_prompt must not be empty")
	}
	if strings.TrimSpace(c.Model.Name) == "" {
		return fmt.Errorf("model.name must not be empty")
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 2 {
		return fmt.Errorf("model.temperature %v out of range [0, 2]", c.Model.Temperature)
	}
	if c.Model.MaxTokens <= 0 {
		return fmt.Errorf("model.max_tokens must be positive")
	}
	return nil
}
