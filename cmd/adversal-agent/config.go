package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/adversalio/sdk/pkg/rts"
)

// Config is the agent configuration. Environment variables in the YAML file
// are expanded before parsing, so secrets can stay out of the file:
//
//	target:
//	  api_key: ${OPENAI_API_KEY}
type Config struct {
	Agent struct {
		ID          string `yaml:"id"`
		Verbose     bool   `yaml:"verbose"`
		AuditLog    string `yaml:"audit_log"`
		StorePath   string `yaml:"store_path"`
		MetricsAddr string `yaml:"metrics_addr"`
	} `yaml:"agent"`

	// Platform is the Adversal API for report upload. Reports go over HTTPS
	// to base_url, or over gRPC when grpc_address is set instead.
	Platform struct {
		BaseURL      string        `yaml:"base_url" validate:"omitempty,url"`
		GRPCAddress  string        `yaml:"grpc_address" validate:"omitempty,hostname_port"`
		GRPCInsecure bool          `yaml:"grpc_insecure"`
		APIKey       string        `yaml:"api_key"`
		Timeout      time.Duration `yaml:"timeout"`
		Push         bool          `yaml:"push"`
	} `yaml:"platform"`

	// Target is the model under test.
	Target ModelSection `yaml:"target"`

	// Synthesizer generates golden prompts and drives model-assisted
	// attacks. Falls back to Target's endpoint settings when empty.
	Synthesizer ModelSection `yaml:"synthesizer"`

	// Evaluator judges target responses. Falls back like Synthesizer.
	Evaluator ModelSection `yaml:"evaluator"`

	Scan struct {
		Purpose             string        `yaml:"purpose"`
		SystemPrompt        string        `yaml:"system_prompt"`
		CasesPerCategory    int           `yaml:"cases_per_category" validate:"omitempty,min=1,max=100"`
		Concurrency         int           `yaml:"concurrency" validate:"omitempty,min=1,max=64"`
		CaseTimeout         time.Duration `yaml:"case_timeout"`
		TargetTimeout       time.Duration `yaml:"target_timeout"`
		MaxAttackIterations int           `yaml:"max_attack_iterations" validate:"omitempty,min=1,max=50"`
		TreeBranching       int           `yaml:"tree_branching" validate:"omitempty,min=1,max=10"`
		TreeDepth           int           `yaml:"tree_depth" validate:"omitempty,min=1,max=10"`
		Seed                int64         `yaml:"seed"`
		Categories          []string      `yaml:"categories"`
		Attacks             []string      `yaml:"attacks"`
	} `yaml:"scan"`
}

// ModelSection configures one model endpoint.
type ModelSection struct {
	BaseURL     string        `yaml:"base_url" validate:"omitempty,url"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature" validate:"omitempty,min=0,max=2"`
	MaxTokens   int           `yaml:"max_tokens" validate:"omitempty,min=1"`
	Timeout     time.Duration `yaml:"timeout"`
	RateLimit   int           `yaml:"rate_limit" validate:"omitempty,min=0"`
	BurstLimit  int           `yaml:"burst_limit" validate:"omitempty,min=0"`
}

// inherit fills unset endpoint fields from another section.
func (m *ModelSection) inherit(from ModelSection) {
	if m.BaseURL == "" {
		m.BaseURL = from.BaseURL
	}
	if m.APIKey == "" {
		m.APIKey = from.APIKey
	}
	if m.Model == "" {
		m.Model = from.Model
	}
}

// loadConfig reads, expands, parses, and validates the config file.
func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Agent.ID == "" {
		hostname, _ := os.Hostname()
		c.Agent.ID = fmt.Sprintf("adversal-agent-%s", hostname)
	}

	// Model-assisted stages share the target's endpoint unless configured
	// separately. They still talk to their own model name if one is set.
	c.Synthesizer.inherit(c.Target)
	c.Evaluator.inherit(c.Synthesizer)

	if len(c.Scan.Categories) == 0 {
		for _, cat := range rts.AllVulnerabilityCategories() {
			c.Scan.Categories = append(c.Scan.Categories, cat.String())
		}
	}
	if len(c.Scan.Attacks) == 0 {
		for _, atk := range rts.AllAttackTypes() {
			if atk.Deterministic() {
				c.Scan.Attacks = append(c.Scan.Attacks, atk.String())
			}
		}
	}
}

func (c *Config) validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) {
			var msgs []string
			for _, fe := range errs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	if c.Target.Model == "" {
		return fmt.Errorf("invalid config: target.model is required")
	}
	if c.Platform.Push {
		if c.Platform.APIKey == "" || (c.Platform.BaseURL == "" && c.Platform.GRPCAddress == "") {
			return fmt.Errorf("invalid config: platform.push requires platform.api_key and one of platform.base_url or platform.grpc_address")
		}
	}

	if _, err := c.categories(); err != nil {
		return err
	}
	if _, err := c.attacks(); err != nil {
		return err
	}
	return nil
}

// categories parses the configured category names.
func (c *Config) categories() ([]rts.VulnerabilityCategory, error) {
	out := make([]rts.VulnerabilityCategory, 0, len(c.Scan.Categories))
	for _, name := range c.Scan.Categories {
		cat := rts.VulnerabilityCategory(strings.TrimSpace(name))
		if !cat.IsValid() {
			return nil, fmt.Errorf("invalid config: unknown category %q (known: %v)", name, rts.AllVulnerabilityCategories())
		}
		out = append(out, cat)
	}
	return out, nil
}

// attacks parses the configured attack type names.
func (c *Config) attacks() ([]rts.AttackType, error) {
	out := make([]rts.AttackType, 0, len(c.Scan.Attacks))
	for _, name := range c.Scan.Attacks {
		atk := rts.AttackType(strings.TrimSpace(name))
		if !atk.IsValid() {
			return nil, fmt.Errorf("invalid config: unknown attack %q (known: %v)", name, rts.AllAttackTypes())
		}
		out = append(out, atk)
	}
	return out, nil
}
