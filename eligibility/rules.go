package eligibility

import (
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/utkarshchauhan26/CivicConnect/core"
)

// Rule names in evaluation order.
const (
	RuleSouthIndiaRegion     = "south-india-region"
	RuleBiharJharkhandRegion = "bihar-jharkhand-region"
	RuleStateScope           = "state-scope"
	RuleSeniorAge            = "senior-age"
	RuleScholarshipAge       = "scholarship-age"
	RuleScholarshipCategory  = "scholarship-category"
	RuleBPLRequired          = "bpl-required"
	RuleIncomeCeiling        = "income-ceiling"
)

// RuleNames lists every rule in evaluation order.
var RuleNames = []string{
	RuleSouthIndiaRegion,
	RuleBiharJharkhandRegion,
	RuleStateScope,
	RuleSeniorAge,
	RuleScholarshipAge,
	RuleScholarshipCategory,
	RuleBPLRequired,
	RuleIncomeCeiling,
}

var (
	seniorNameTokens    = []string{"old age", "senior citizen", "bus pass"}
	casteCategoryTokens = []string{"obc", "sc", "st"}
)

// Action is the outcome of evaluating one rule.
type Action int

const (
	// Keep leaves the candidate untouched.
	Keep Action = iota
	// Exclude drops the candidate.
	Exclude
	// Adjust multiplies the candidate's score by Decision.Factor.
	Adjust
)

func (a Action) String() string {
	switch a {
	case Keep:
		return "keep"
	case Exclude:
		return "exclude"
	case Adjust:
		return "adjust"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// Decision is a rule's verdict on one candidate.
type Decision struct {
	Action Action
	Factor float64
	Reason string
}

var keep = Decision{Action: Keep}

func exclude(format string, args ...any) Decision {
	return Decision{Action: Exclude, Reason: fmt.Sprintf(format, args...)}
}

// Subject is what a rule sees about one candidate.
type Subject struct {
	Profile  *core.UserProfile
	IsBPL    bool
	Name     string
	Metadata *core.SchemeMetadata // nil when the scheme has no history
	Flags    core.SchemeFlags

	lowerName string
	tokens    []string
}

func (s *Subject) nameContains(substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s.lowerName, sub) {
			return true
		}
	}
	return false
}

// Rule is a single eligibility check.
type Rule interface {
	Name() string
	Evaluate(s *Subject) Decision
}

type ruleFunc struct {
	name string
	eval func(s *Subject) Decision
}

func (r *ruleFunc) Name() string                 { return r.name }
func (r *ruleFunc) Evaluate(s *Subject) Decision { return r.eval(s) }

// buildRules returns the enabled rules in evaluation order.
func buildRules(cfg *Config) []Rule {
	all := []Rule{
		regionalRule(RuleSouthIndiaRegion, cfg, cfg.SouthIndiaStates,
			func(f core.SchemeFlags) bool { return f.SouthIndia }, "South Indian states"),
		regionalRule(RuleBiharJharkhandRegion, cfg, cfg.BiharJharkhandStates,
			func(f core.SchemeFlags) bool { return f.BiharJharkhand }, "Bihar and Jharkhand"),
		&ruleFunc{name: RuleStateScope, eval: stateScope(cfg)},
		&ruleFunc{name: RuleSeniorAge, eval: seniorAge(cfg)},
		&ruleFunc{name: RuleScholarshipAge, eval: scholarshipAge(cfg)},
		&ruleFunc{name: RuleScholarshipCategory, eval: scholarshipCategory},
		&ruleFunc{name: RuleBPLRequired, eval: bplRequired},
		&ruleFunc{name: RuleIncomeCeiling, eval: incomeCeiling(cfg)},
	}

	rules := make([]Rule, 0, len(all))
	for _, r := range all {
		if slices.Contains(cfg.DisabledRules, r.Name()) {
			continue
		}
		rules = append(rules, r)
	}
	return rules
}

func regionalRule(name string, cfg *Config, states []string, flagged func(core.SchemeFlags) bool, region string) Rule {
	allowed := normalizeStates(states)
	dampen := cfg.RegionalPolicy == RegionalDampen
	factor := cfg.RegionalDampening

	return &ruleFunc{name: name, eval: func(s *Subject) Decision {
		if !flagged(s.Flags) {
			return keep
		}
		if slices.Contains(allowed, normalizeState(s.Profile.State)) {
			return keep
		}
		if dampen {
			return Decision{
				Action: Adjust,
				Factor: factor,
				Reason: fmt.Sprintf("scheme targets %s, user is in %s", region, s.Profile.State),
			}
		}
		return exclude("scheme is restricted to %s, user is in %s", region, s.Profile.State)
	}}
}

func stateScope(cfg *Config) func(s *Subject) Decision {
	return func(s *Subject) Decision {
		if s.Metadata == nil || len(s.Metadata.States) == 0 {
			return keep
		}
		if len(s.Metadata.States) >= cfg.StateScopeMinStates {
			return keep
		}
		user := normalizeState(s.Profile.State)
		for _, state := range s.Metadata.States {
			if normalizeState(state) == user {
				return keep
			}
		}
		return exclude("scheme observed only in %d states, not including %s",
			len(s.Metadata.States), s.Profile.State)
	}
}

func seniorAge(cfg *Config) func(s *Subject) Decision {
	return func(s *Subject) Decision {
		if !s.Flags.Senior && !s.nameContains(seniorNameTokens...) {
			return keep
		}
		if s.Profile.Age < cfg.SeniorMinAge {
			return exclude("senior scheme requires age %d or above, user is %d", cfg.SeniorMinAge, s.Profile.Age)
		}
		return keep
	}
}

func scholarshipAge(cfg *Config) func(s *Subject) Decision {
	return func(s *Subject) Decision {
		if !s.Flags.Scholarship {
			return keep
		}
		if s.Profile.Age < cfg.ScholarshipMinAge || s.Profile.Age > cfg.ScholarshipMaxAge {
			return exclude("scholarship requires age %d to %d, user is %d",
				cfg.ScholarshipMinAge, cfg.ScholarshipMaxAge, s.Profile.Age)
		}
		return keep
	}
}

func scholarshipCategory(s *Subject) Decision {
	if !s.Flags.Scholarship {
		return keep
	}

	var named []string
	for _, token := range casteCategoryTokens {
		if slices.Contains(s.tokens, token) {
			named = append(named, token)
		}
	}
	if len(named) == 0 {
		return keep
	}

	if slices.Contains(named, strings.ToLower(strings.TrimSpace(s.Profile.Category))) {
		return keep
	}
	return exclude("scholarship is reserved for %s, user category is %s",
		strings.ToUpper(strings.Join(named, "/")), s.Profile.Category)
}

func bplRequired(s *Subject) Decision {
	if s.nameContains("bpl") && !s.IsBPL {
		return exclude("scheme requires BPL status")
	}
	return keep
}

func incomeCeiling(cfg *Config) func(s *Subject) Decision {
	return func(s *Subject) Decision {
		if s.Metadata == nil || s.Metadata.IncomeP95 == nil {
			return keep
		}
		p95 := *s.Metadata.IncomeP95
		if !s.nameContains("bpl") && p95 >= cfg.IncomeCeilingLowIncomeP95 {
			return keep
		}
		ceiling := cfg.IncomeCeilingMultiplier * p95
		if s.Profile.AnnualIncome > ceiling {
			return exclude("income %d exceeds %d x observed 95th percentile %d",
				s.Profile.AnnualIncome, cfg.IncomeCeilingMultiplier, p95)
		}
		return keep
	}
}

func normalizeState(state string) string {
	return strings.ToLower(strings.TrimSpace(state))
}

func normalizeStates(states []string) []string {
	out := make([]string, len(states))
	for i, s := range states {
		out[i] = normalizeState(s)
	}
	return out
}

// nameTokens splits a lower-cased name into alphanumeric words.
func nameTokens(lower string) []string {
	return strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
