package recommend

import (
	"log/slog"

	"github.com/utkarshchauhan26/CivicConnect/core"
	"github.com/utkarshchauhan26/CivicConnect/eligibility"
)

// Monitor provides hooks to observe a recommendation request.
type Monitor interface {
	Start(profile *core.UserProfile, text string, isBPL bool)
	AfterRanking(pool []core.Candidate)
	Excluded(verdict eligibility.Verdict)
	Adjusted(verdict eligibility.Verdict)
	Finish(result *core.RecommendationResult)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ *core.UserProfile, _ string, _ bool) {}
func (n *noopMonitor) AfterRanking(_ []core.Candidate)             {}
func (n *noopMonitor) Excluded(_ eligibility.Verdict)              {}
func (n *noopMonitor) Adjusted(_ eligibility.Verdict)              {}
func (n *noopMonitor) Finish(_ *core.RecommendationResult)         {}

// LogMonitor reports every stage of a request to a logger.
type LogMonitor struct {
	logger *slog.Logger
}

var _ Monitor = (*LogMonitor)(nil)

// NewLogMonitor creates a monitor writing to logger, or slog.Default() when nil.
func NewLogMonitor(logger *slog.Logger) *LogMonitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMonitor{logger: logger.With("component", "explain")}
}

func (m *LogMonitor) Start(profile *core.UserProfile, text string, isBPL bool) {
	m.logger.Info("recommendation requested", "profile_text", text, "bpl", isBPL)
}

func (m *LogMonitor) AfterRanking(pool []core.Candidate) {
	m.logger.Info("candidate pool ranked", "size", len(pool))
	for i, c := range pool {
		m.logger.Debug("ranked candidate", "rank", i+1, "scheme", c.Name, "score", c.Score)
	}
}

func (m *LogMonitor) Excluded(v eligibility.Verdict) {
	m.logger.Info("excluded", "scheme", v.Candidate.Name, "rule", v.Rule, "reason", v.Reason)
}

func (m *LogMonitor) Adjusted(v eligibility.Verdict) {
	for _, adj := range v.Adjustments {
		m.logger.Info("score adjusted", "scheme", v.Candidate.Name, "rule", adj.Rule,
			"factor", adj.Factor, "from", v.OriginalScore, "to", v.Candidate.Score, "reason", adj.Reason)
	}
}

func (m *LogMonitor) Finish(result *core.RecommendationResult) {
	m.logger.Info("recommendation complete", "results", len(result.Schemes))
}
