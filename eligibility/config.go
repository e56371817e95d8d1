package eligibility

import (
	"fmt"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variables that override filter
// settings, e.g. CIVIC_FILTER_STATE_SCOPE_MIN_STATES=8.
const EnvPrefix = "CIVIC_FILTER_"

// Regional policies.
const (
	RegionalExclude = "exclude"
	RegionalDampen  = "dampen"
)

// Config holds the tunable thresholds of the eligibility rules.
type Config struct {
	StateScopeMinStates       int      `koanf:"state_scope_min_states"`
	IncomeCeilingMultiplier   int64    `koanf:"income_ceiling_multiplier"`
	IncomeCeilingLowIncomeP95 int64    `koanf:"income_ceiling_low_income_p95"`
	SeniorMinAge              int      `koanf:"senior_min_age"`
	ScholarshipMinAge         int      `koanf:"scholarship_min_age"`
	ScholarshipMaxAge         int      `koanf:"scholarship_max_age"`
	BPLIncomeThreshold        int64    `koanf:"bpl_income_threshold"`
	RegionalPolicy            string   `koanf:"regional_policy"`
	RegionalDampening         float64  `koanf:"regional_dampening"`
	SouthIndiaStates          []string `koanf:"south_india_states"`
	BiharJharkhandStates      []string `koanf:"bihar_jharkhand_states"`
	DisabledRules             []string `koanf:"disabled_rules"`
}

// DefaultConfig returns the canonical filter policy.
func DefaultConfig() *Config {
	return &Config{
		StateScopeMinStates:       5,
		IncomeCeilingMultiplier:   5,
		IncomeCeilingLowIncomeP95: 100000,
		SeniorMinAge:              60,
		ScholarshipMinAge:         16,
		ScholarshipMaxAge:         30,
		BPLIncomeThreshold:        25000,
		RegionalPolicy:            RegionalExclude,
		RegionalDampening:         0.5,
		SouthIndiaStates:          []string{"Karnataka", "Kerala", "Tamil Nadu", "Andhra Pradesh", "Telangana"},
		BiharJharkhandStates:      []string{"Bihar", "Jharkhand"},
		DisabledRules:             []string{},
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.StateScopeMinStates < 0 {
		return fmt.Errorf("%w: state_scope_min_states must not be negative, got %d", ErrInvalidConfig, c.StateScopeMinStates)
	}
	if c.IncomeCeilingMultiplier < 1 {
		return fmt.Errorf("%w: income_ceiling_multiplier must be at least 1, got %d", ErrInvalidConfig, c.IncomeCeilingMultiplier)
	}
	if c.IncomeCeilingLowIncomeP95 < 0 {
		return fmt.Errorf("%w: income_ceiling_low_income_p95 must not be negative", ErrInvalidConfig)
	}
	if c.SeniorMinAge < 0 {
		return fmt.Errorf("%w: senior_min_age must not be negative", ErrInvalidConfig)
	}
	if c.ScholarshipMinAge < 0 || c.ScholarshipMinAge > c.ScholarshipMaxAge {
		return fmt.Errorf("%w: scholarship age range [%d, %d] is invalid",
			ErrInvalidConfig, c.ScholarshipMinAge, c.ScholarshipMaxAge)
	}
	if c.BPLIncomeThreshold < 0 {
		return fmt.Errorf("%w: bpl_income_threshold must not be negative", ErrInvalidConfig)
	}
	switch c.RegionalPolicy {
	case RegionalExclude, RegionalDampen:
	default:
		return fmt.Errorf("%w: regional_policy must be %q or %q, got %q",
			ErrInvalidConfig, RegionalExclude, RegionalDampen, c.RegionalPolicy)
	}
	if c.RegionalDampening <= 0 || c.RegionalDampening > 1 {
		return fmt.Errorf("%w: regional_dampening must be in (0, 1], got %g", ErrInvalidConfig, c.RegionalDampening)
	}
	for _, name := range c.DisabledRules {
		if !slices.Contains(RuleNames, name) {
			return fmt.Errorf("%w: %w: %q", ErrInvalidConfig, ErrUnknownRule, name)
		}
	}
	return nil
}

// LoadConfig layers the filter configuration from defaults, an optional
// YAML file and CIVIC_FILTER_* environment variables, in increasing order
// of precedence. An empty path skips the file layer.
func LoadConfig(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(DefaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load filter config %s: %w", path, err)
		}
	}

	// CIVIC_FILTER_SENIOR_MIN_AGE -> senior_min_age
	envProvider := env.Provider(EnvPrefix, ".", func(key string) string {
		return strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal filter config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// sliceConfigPaths are parsed as comma-separated lists when they arrive as strings.
var sliceConfigPaths = []string{
	"south_india_states",
	"bihar_jharkhand_states",
	"disabled_rules",
}

// processSliceFields converts comma-separated string values to slices.
// Environment variables arrive as strings while the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}
