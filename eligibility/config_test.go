package eligibility

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 5, cfg.StateScopeMinStates)
	assert.Equal(t, RegionalExclude, cfg.RegionalPolicy)
	assert.Len(t, cfg.SouthIndiaStates, 5)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative state scope", func(c *Config) { c.StateScopeMinStates = -1 }},
		{"zero multiplier", func(c *Config) { c.IncomeCeilingMultiplier = 0 }},
		{"inverted scholarship range", func(c *Config) { c.ScholarshipMinAge = 40 }},
		{"unknown policy", func(c *Config) { c.RegionalPolicy = "soft" }},
		{"zero dampening", func(c *Config) { c.RegionalDampening = 0 }},
		{"dampening above one", func(c *Config) { c.RegionalDampening = 1.5 }},
		{"negative senior age", func(c *Config) { c.SeniorMinAge = -5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestConfig_ValidateUnknownRule(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DisabledRules = []string{"no-such-rule"}
	err := cfg.Validate()
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.ErrorIs(t, err, ErrUnknownRule)
}

func TestLoadConfig_DefaultsOnly(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	def := DefaultConfig()
	assert.Equal(t, def.StateScopeMinStates, cfg.StateScopeMinStates)
	assert.Equal(t, def.IncomeCeilingMultiplier, cfg.IncomeCeilingMultiplier)
	assert.Equal(t, def.IncomeCeilingLowIncomeP95, cfg.IncomeCeilingLowIncomeP95)
	assert.Equal(t, def.ScholarshipMinAge, cfg.ScholarshipMinAge)
	assert.Equal(t, def.ScholarshipMaxAge, cfg.ScholarshipMaxAge)
	assert.Equal(t, def.RegionalPolicy, cfg.RegionalPolicy)
	assert.Equal(t, def.SouthIndiaStates, cfg.SouthIndiaStates)
	assert.Equal(t, def.BiharJharkhandStates, cfg.BiharJharkhandStates)
	assert.Empty(t, cfg.DisabledRules)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filter.yaml")
	content := `state_scope_min_states: 8
regional_policy: dampen
regional_dampening: 0.25
disabled_rules:
  - income-ceiling
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.StateScopeMinStates)
	assert.Equal(t, RegionalDampen, cfg.RegionalPolicy)
	assert.InDelta(t, 0.25, cfg.RegionalDampening, 1e-9)
	assert.Equal(t, []string{RuleIncomeCeiling}, cfg.DisabledRules)
	assert.Equal(t, 60, cfg.SeniorMinAge, "unset keys keep defaults")
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filter.yaml")
	require.NoError(t, os.WriteFile(path, []byte("senior_min_age: 65\n"), 0644))

	t.Setenv("CIVIC_FILTER_SENIOR_MIN_AGE", "58")
	t.Setenv("CIVIC_FILTER_BIHAR_JHARKHAND_STATES", "Bihar, Jharkhand, Odisha")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 58, cfg.SeniorMinAge)
	assert.Equal(t, []string{"Bihar", "Jharkhand", "Odisha"}, cfg.BiharJharkhandStates)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("CIVIC_FILTER_REGIONAL_POLICY", "maybe")
	_, err := LoadConfig("")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
