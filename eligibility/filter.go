package eligibility

import (
	"log/slog"
	"strings"

	"github.com/utkarshchauhan26/CivicConnect/core"
	"github.com/utkarshchauhan26/CivicConnect/metadata"
)

// MetadataLookup resolves the aggregated history of a scheme.
// Lookup returns nil for schemes without history.
type MetadataLookup interface {
	Lookup(name string) *core.SchemeMetadata
}

// Adjustment records a score multiplier applied by a rule.
type Adjustment struct {
	Rule   string
	Factor float64
	Reason string
}

// Verdict is the filter's decision on one candidate.
type Verdict struct {
	// Candidate carries the adjusted score.
	Candidate     core.Candidate
	OriginalScore float64
	Included      bool
	// Rule and Reason name the excluding rule when Included is false.
	Rule        string
	Reason      string
	Adjustments []Adjustment
}

// Filter applies eligibility rules to ranked candidates.
type Filter struct {
	cfg     *Config
	catalog MetadataLookup
	rules   []Rule
	logger  *slog.Logger
}

// Option configures a Filter.
type Option func(*Filter) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(f *Filter) error {
		if logger == nil {
			logger = slog.Default()
		}
		f.logger = logger
		return nil
	}
}

// NewFilter creates a filter. A nil cfg uses DefaultConfig; a nil catalog
// treats every scheme as having no history.
func NewFilter(cfg *Config, catalog MetadataLookup, opts ...Option) (*Filter, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	f := &Filter{
		cfg:     cfg,
		catalog: catalog,
		rules:   buildRules(cfg),
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}
	f.logger = f.logger.With("component", "eligibility")

	return f, nil
}

// Rules returns the names of the enabled rules in evaluation order.
func (f *Filter) Rules() []string {
	names := make([]string, len(f.rules))
	for i, r := range f.rules {
		names[i] = r.Name()
	}
	return names
}

// IsBPL reports whether profile is at or below the configured BPL income
// threshold.
func (f *Filter) IsBPL(profile *core.UserProfile) bool {
	return profile.AnnualIncome <= f.cfg.BPLIncomeThreshold
}

// Apply evaluates every candidate and returns one verdict per candidate,
// in input order.
func (f *Filter) Apply(profile *core.UserProfile, candidates []core.Candidate) []Verdict {
	return f.Evaluate(profile, f.IsBPL(profile), candidates)
}

// Evaluate is Apply with the BPL status already decided for the request.
func (f *Filter) Evaluate(profile *core.UserProfile, isBPL bool, candidates []core.Candidate) []Verdict {
	verdicts := make([]Verdict, len(candidates))
	for i, c := range candidates {
		verdicts[i] = f.evaluate(profile, isBPL, c)
	}
	return verdicts
}

// Eligible returns the included candidates with their adjusted scores, in
// input order.
func (f *Filter) Eligible(profile *core.UserProfile, candidates []core.Candidate) []core.Candidate {
	return Included(f.Apply(profile, candidates))
}

// Included extracts the candidates of included verdicts.
func Included(verdicts []Verdict) []core.Candidate {
	out := make([]core.Candidate, 0, len(verdicts))
	for _, v := range verdicts {
		if v.Included {
			out = append(out, v.Candidate)
		}
	}
	return out
}

func (f *Filter) evaluate(profile *core.UserProfile, isBPL bool, c core.Candidate) Verdict {
	subject := f.subject(profile, isBPL, c.Name)
	v := Verdict{Candidate: c, OriginalScore: c.Score, Included: true}

	for _, rule := range f.rules {
		d := rule.Evaluate(subject)
		switch d.Action {
		case Exclude:
			v.Included = false
			v.Rule = rule.Name()
			v.Reason = d.Reason
			f.logger.Debug("candidate excluded", "scheme", c.Name, "rule", v.Rule, "reason", d.Reason)
			return v
		case Adjust:
			v.Candidate.Score *= d.Factor
			v.Adjustments = append(v.Adjustments, Adjustment{Rule: rule.Name(), Factor: d.Factor, Reason: d.Reason})
			f.logger.Debug("candidate score adjusted", "scheme", c.Name, "rule", rule.Name(), "factor", d.Factor)
		}
	}
	return v
}

func (f *Filter) subject(profile *core.UserProfile, isBPL bool, name string) *Subject {
	var meta *core.SchemeMetadata
	if f.catalog != nil {
		meta = f.catalog.Lookup(name)
	}

	flags := metadata.FlagsFor(name)
	if meta != nil {
		flags = mergeFlags(flags, meta.SchemeFlags)
	}

	lower := strings.ToLower(name)
	return &Subject{
		Profile:   profile,
		IsBPL:     isBPL,
		Name:      name,
		Metadata:  meta,
		Flags:     flags,
		lowerName: lower,
		tokens:    nameTokens(lower),
	}
}

func mergeFlags(a, b core.SchemeFlags) core.SchemeFlags {
	return core.SchemeFlags{
		LowIncome:      a.LowIncome || b.LowIncome,
		Senior:         a.Senior || b.Senior,
		Scholarship:    a.Scholarship || b.Scholarship,
		SouthIndia:     a.SouthIndia || b.SouthIndia,
		BiharJharkhand: a.BiharJharkhand || b.BiharJharkhand,
	}
}
