package model

import (
	"fmt"
	"math"
	"time"
)

// Config holds every externally supplied tuning table. The synthesis
// algorithms consume these tables through pure functions, so domains can be
// retuned without touching the algorithms themselves.
type Config struct {
	SourceWeights map[SourceKind]float64      `yaml:"source_weights"` // Default evidence weight per source kind
	Rules         map[FindingType]RuleConfig  `yaml:"rules"`          // Per-finding-type scoring rules
	Sections      map[SectionName]SectionRule `yaml:"sections"`       // Per-section expectation and weight tables
	Bands         BandConfig                  `yaml:"bands"`          // Certainty class boundaries
	Penalties     PenaltyConfig               `yaml:"penalties"`      // Global penalty thresholds
	Orchestrator  OrchestratorConfig          `yaml:"orchestrator"`
	Cache         CacheConfig                 `yaml:"cache"`
	LLM           LLMConfig                   `yaml:"llm"`
	Output        OutputConfig                `yaml:"output"`
}

// RuleConfig is the per-finding-type rule table entry.
type RuleConfig struct {
	// MaxPossible caps the summed evidence weight before normalization.
	// Calibrated so one authoritative source plus any second corroborating
	// source reaches the certain band for most finding types.
	MaxPossible float64 `yaml:"max_possible"`
}

// SectionRule is the per-section expectation and weight table entry.
type SectionRule struct {
	ExpectedMin int     `yaml:"expected_min"` // Expected minimum finding count (coverage denominator)
	Weight      float64 `yaml:"weight"`       // Share of the overall score; weights sum to 1.0
}

// BandConfig holds the lower bound of each certainty band. Scores below the
// speculated bound classify as unknown.
type BandConfig struct {
	Certain    float64 `yaml:"certain"`
	Inferred   float64 `yaml:"inferred"`
	Speculated float64 `yaml:"speculated"`
}

// PenaltyConfig holds the global post-hoc penalty thresholds. Each penalty
// applies independently and is reported with its reason and factor.
type PenaltyConfig struct {
	WeakSectionThreshold   float64 `yaml:"weak_section_threshold"`   // Any section below this triggers the weak-section penalty
	WeakSectionFactor      float64 `yaml:"weak_section_factor"`
	MaxUncertainties       int     `yaml:"max_uncertainties"`        // Findings classified unknown beyond this trigger the uncertainty penalty
	UncertaintyFactor      float64 `yaml:"uncertainty_factor"`
	MaxUnresolvedConflicts int     `yaml:"max_unresolved_conflicts"`
	ConflictFactor         float64 `yaml:"conflict_factor"`
}

// OrchestratorConfig bounds run execution.
type OrchestratorConfig struct {
	RunTimeout          time.Duration `yaml:"run_timeout"`
	DefaultPhaseTimeout time.Duration `yaml:"default_phase_timeout"`
	MaxParallelWorkers  int           `yaml:"max_parallel_workers"`
	DispatchRate        float64       `yaml:"dispatch_rate"`  // Worker launches per second, per worker kind
	DispatchBurst       int           `yaml:"dispatch_burst"`
}

// CacheConfig controls the snapshot and run-archive cache.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Dir       string        `yaml:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl"`
}

// LLMConfig configures the LLM-backed worker adapter.
type LLMConfig struct {
	Provider  string `yaml:"provider"` // openai, anthropic, ollama, "" (disabled)
	Model     string `yaml:"model"`
	APIKey    string `yaml:"-"` // Environment only, never persisted
	BaseURL   string `yaml:"base_url"`
	Timeout   int    `yaml:"timeout_seconds"`
	MaxTokens int    `yaml:"max_tokens"`
}

// OutputConfig controls CLI output behavior.
type OutputConfig struct {
	Verbose bool `yaml:"verbose"`
}

// DefaultConfig returns the built-in tuning tables.
func DefaultConfig() *Config {
	return &Config{
		SourceWeights: map[SourceKind]float64{
			SourceConfigFile: 1.0,
			SourceLockfile:   0.9,
			SourceCode:       0.8,
			SourceFileExt:    0.8,
			SourceDoc:        0.6,
			SourceNaming:     0.3,
			SourceDefault:    0.1,
		},
		Rules: map[FindingType]RuleConfig{
			TypeLanguage:     {MaxPossible: 3.0},
			TypeFramework:    {MaxPossible: 4.0},
			TypeEntity:       {MaxPossible: 3.0},
			TypeRelationship: {MaxPossible: 4.0},
			TypeGeneric:      {MaxPossible: 3.0},
		},
		Sections: map[SectionName]SectionRule{
			SectionIdentity:     {ExpectedMin: 3, Weight: 0.20},
			SectionDomainModel:  {ExpectedMin: 5, Weight: 0.20},
			SectionCapabilities: {ExpectedMin: 4, Weight: 0.15},
			SectionStack:        {ExpectedMin: 4, Weight: 0.20},
			SectionConventions:  {ExpectedMin: 3, Weight: 0.10},
			SectionConstraints:  {ExpectedMin: 2, Weight: 0.05},
			SectionOperations:   {ExpectedMin: 3, Weight: 0.10},
		},
		Bands: BandConfig{
			Certain:    0.95,
			Inferred:   0.80,
			Speculated: 0.60,
		},
		Penalties: PenaltyConfig{
			WeakSectionThreshold:   0.5,
			WeakSectionFactor:      0.9,
			MaxUncertainties:       10,
			UncertaintyFactor:      0.95,
			MaxUnresolvedConflicts: 5,
			ConflictFactor:         0.9,
		},
		Orchestrator: OrchestratorConfig{
			RunTimeout:          10 * time.Minute,
			DefaultPhaseTimeout: 2 * time.Minute,
			MaxParallelWorkers:  8,
			DispatchRate:        5,
			DispatchBurst:       5,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "", // Resolved to ~/.concord/cache at load time
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   7 * 24 * time.Hour,
		},
		LLM: LLMConfig{
			Provider:  "",
			Model:     "",
			Timeout:   60,
			MaxTokens: 2000,
		},
		Output: OutputConfig{
			Verbose: false,
		},
	}
}

// Validate checks the table invariants: evidence weights in (0,1], positive
// max_possible caps, ordered bands, and section weights summing to 1.0.
func (c *Config) Validate() error {
	for kind, w := range c.SourceWeights {
		if w <= 0 || w > 1 {
			return fmt.Errorf("source weight for %q must be in (0,1], got %v", kind, w)
		}
	}
	for ftype, rule := range c.Rules {
		if rule.MaxPossible <= 0 {
			return fmt.Errorf("max_possible for %q must be positive, got %v", ftype, rule.MaxPossible)
		}
	}
	if !(c.Bands.Speculated < c.Bands.Inferred && c.Bands.Inferred < c.Bands.Certain) {
		return fmt.Errorf("certainty bands must be strictly ordered: speculated < inferred < certain")
	}

	var sum float64
	for name, rule := range c.Sections {
		if rule.Weight < 0 {
			return fmt.Errorf("section weight for %q must be non-negative", name)
		}
		if rule.ExpectedMin < 0 {
			return fmt.Errorf("expected_min for %q must be non-negative", name)
		}
		sum += rule.Weight
	}
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("section weights must sum to 1.0, got %v", sum)
	}

	return nil
}

// MaxPossible returns the rule-table cap for a finding type, falling back to
// the generic rule when the type is untabled.
func (c *Config) MaxPossible(ftype FindingType) float64 {
	if rule, ok := c.Rules[ftype]; ok {
		return rule.MaxPossible
	}
	if rule, ok := c.Rules[TypeGeneric]; ok {
		return rule.MaxPossible
	}
	return 3.0
}

// SourceWeight returns the table weight for a source kind, falling back to
// the default-assumption weight for unknown kinds.
func (c *Config) SourceWeight(kind SourceKind) float64 {
	if w, ok := c.SourceWeights[kind]; ok {
		return w
	}
	if w, ok := c.SourceWeights[SourceDefault]; ok {
		return w
	}
	return 0.1
}
