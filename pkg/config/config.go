// Package config reads merge-and-shrink configurations from TOML or YAML
// files and turns them into [algorithm.Options].
//
// A configuration names every component by the name it reports, e.g.
//
//	max_states = 50000
//	threshold_before_merge = 1
//
//	[shrink]
//	strategy = "bisimulation"
//	greedy = false
//	at_limit = "return"
//
//	[label_reduction]
//	method = "all_transition_systems_with_fixpoint"
//	before_shrinking = true
//
//	[merge]
//	strategy = "sccs"
//	order_of_sccs = "topological"
//
//	[[merge.scoring]]
//	name = "sf_cp"
//	component_aggregation = "max_scp"
//
//	[[merge.scoring]]
//	name = "total_order"
//
// Omitted values take the defaults of [Config.SetDefaults].
package config

import (
	"os"
	"time"

	"github.com/matzehuels/mastower/pkg/errors"
	"github.com/matzehuels/mastower/pkg/mas"
	"github.com/matzehuels/mastower/pkg/mas/algorithm"
	"github.com/matzehuels/mastower/pkg/mas/merge"
	"github.com/matzehuels/mastower/pkg/mas/shrink"
	"github.com/matzehuels/mastower/pkg/task"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultMaxStates bounds every factor if no limit is configured.
	DefaultMaxStates = 50000

	DefaultShrinkStrategy = "bisimulation"
	DefaultAtLimit        = "return"
	DefaultLabelReduction = "all_transition_systems_with_fixpoint"
	DefaultMergeStrategy  = "sccs"
	DefaultOrderOfSCCs    = "topological"
	DefaultVerbosity      = "normal"

	DefaultTSEvaluation         = "init_h"
	DefaultComponentAggregation = "max_scp"
	DefaultAtomicTSOrder        = "reverse_level"
	DefaultProductTSOrder       = "new_to_old"
)

// Scoring function names.
const (
	ScoringCP            = "sf_cp"
	ScoringGoalRelevance = "goal_relevance"
	ScoringDFP           = "dfp"
	ScoringTotalOrder    = "total_order"
	ScoringSingleRandom  = "single_random"
)

// ValidShrinkStrategies is the set of supported shrink strategies.
var ValidShrinkStrategies = map[string]bool{
	"bisimulation": true,
	"random":       true,
}

// ValidMergeStrategies is the set of supported merge strategies.
var ValidMergeStrategies = map[string]bool{
	"sccs":      true,
	"stateless": true,
}

// ValidScoringFunctions is the set of supported scoring functions.
var ValidScoringFunctions = map[string]bool{
	ScoringCP:            true,
	ScoringGoalRelevance: true,
	ScoringDFP:           true,
	ScoringTotalOrder:    true,
	ScoringSingleRandom:  true,
}

// tieBreakers are the scoring functions that give every candidate a
// distinct score.
var tieBreakers = map[string]bool{
	ScoringTotalOrder:   true,
	ScoringSingleRandom: true,
}

// =============================================================================
// Config
// =============================================================================

// Config is the user-facing configuration of a construction. Zero values
// and nil pointers mean "use the default".
type Config struct {
	MaxStates              int    `toml:"max_states" yaml:"max_states"`
	MaxStatesBeforeMerge   int    `toml:"max_states_before_merge" yaml:"max_states_before_merge"`
	ThresholdBeforeMerge   int    `toml:"threshold_before_merge" yaml:"threshold_before_merge"`
	MainLoopMaxTime        string `toml:"main_loop_max_time" yaml:"main_loop_max_time"` // e.g. "30s"; empty means unbounded
	PruneUnreachableStates *bool  `toml:"prune_unreachable_states" yaml:"prune_unreachable_states"`
	PruneIrrelevantStates  *bool  `toml:"prune_irrelevant_states" yaml:"prune_irrelevant_states"`
	Verbosity              string `toml:"verbosity" yaml:"verbosity"`

	Shrink         ShrinkConfig         `toml:"shrink" yaml:"shrink"`
	LabelReduction LabelReductionConfig `toml:"label_reduction" yaml:"label_reduction"`
	Merge          MergeConfig          `toml:"merge" yaml:"merge"`
}

// ShrinkConfig configures the shrink strategy.
type ShrinkConfig struct {
	Strategy string `toml:"strategy" yaml:"strategy"`
	Greedy   bool   `toml:"greedy" yaml:"greedy"`
	AtLimit  string `toml:"at_limit" yaml:"at_limit"`
	Seed     uint64 `toml:"seed" yaml:"seed"`
}

// LabelReductionConfig configures exact label reduction.
type LabelReductionConfig struct {
	Enabled         *bool  `toml:"enabled" yaml:"enabled"`
	Method          string `toml:"method" yaml:"method"`
	BeforeShrinking *bool  `toml:"before_shrinking" yaml:"before_shrinking"`
	BeforeMerging   bool   `toml:"before_merging" yaml:"before_merging"`
}

// MergeConfig configures the merge strategy.
type MergeConfig struct {
	Strategy                  string          `toml:"strategy" yaml:"strategy"`
	OrderOfSCCs               string          `toml:"order_of_sccs" yaml:"order_of_sccs"`
	AllowWorkingOnAllClusters *bool           `toml:"allow_working_on_all_clusters" yaml:"allow_working_on_all_clusters"`
	Scoring                   []ScoringConfig `toml:"scoring" yaml:"scoring"`
}

// ScoringConfig configures one scoring function. Options that do not apply
// to the named function are ignored.
type ScoringConfig struct {
	Name string `toml:"name" yaml:"name"`

	// sf_cp
	UseCaching           *bool  `toml:"use_caching" yaml:"use_caching"`
	TSEvaluation         string `toml:"ts_evaluation" yaml:"ts_evaluation"`
	ComponentAggregation string `toml:"component_aggregation" yaml:"component_aggregation"`
	FilterTrivialFactors *bool  `toml:"filter_trivial_factors" yaml:"filter_trivial_factors"`

	// total_order
	AtomicTSOrder       string `toml:"atomic_ts_order" yaml:"atomic_ts_order"`
	ProductTSOrder      string `toml:"product_ts_order" yaml:"product_ts_order"`
	AtomicBeforeProduct bool   `toml:"atomic_before_product" yaml:"atomic_before_product"`

	// total_order and single_random
	Seed uint64 `toml:"seed" yaml:"seed"`
}

// Default returns the SCC merge strategy with cost-partitioning scoring and
// total-order tie-breaking, with all defaults set.
func Default() *Config {
	c := &Config{}
	c.SetDefaults()
	return c
}

// Load reads, completes and validates the configuration at path.
func Load(path string) (*Config, error) {
	format, err := task.FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "configuration %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read configuration %s", path)
	}
	return Parse(data, format)
}

// Parse decodes, completes and validates a configuration.
func Parse(data []byte, format task.Format) (*Config, error) {
	c := &Config{}
	if err := task.Decode(data, format, c); err != nil {
		return nil, err
	}
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// SetDefaults fills every unset value. If only one of the two state limits
// is set, the other is chosen so that it imposes no further limit.
func (c *Config) SetDefaults() {
	switch {
	case c.MaxStates == 0 && c.MaxStatesBeforeMerge == 0:
		c.MaxStates = DefaultMaxStates
		c.MaxStatesBeforeMerge = DefaultMaxStates
	case c.MaxStatesBeforeMerge == 0:
		c.MaxStatesBeforeMerge = c.MaxStates
	case c.MaxStates == 0:
		n := int64(c.MaxStatesBeforeMerge)
		if n*n <= int64(mas.Inf) {
			c.MaxStates = int(n * n)
		} else {
			c.MaxStates = mas.Inf
		}
	}
	if c.ThresholdBeforeMerge == 0 {
		c.ThresholdBeforeMerge = c.MaxStates
	}
	setBool(&c.PruneUnreachableStates, true)
	setBool(&c.PruneIrrelevantStates, true)
	setString(&c.Verbosity, DefaultVerbosity)

	setString(&c.Shrink.Strategy, DefaultShrinkStrategy)
	setString(&c.Shrink.AtLimit, DefaultAtLimit)

	setBool(&c.LabelReduction.Enabled, true)
	setString(&c.LabelReduction.Method, DefaultLabelReduction)
	setBool(&c.LabelReduction.BeforeShrinking, true)

	setString(&c.Merge.Strategy, DefaultMergeStrategy)
	setString(&c.Merge.OrderOfSCCs, DefaultOrderOfSCCs)
	setBool(&c.Merge.AllowWorkingOnAllClusters, true)
	if len(c.Merge.Scoring) == 0 {
		c.Merge.Scoring = []ScoringConfig{{Name: ScoringCP}, {Name: ScoringTotalOrder}}
	}
	for i := range c.Merge.Scoring {
		s := &c.Merge.Scoring[i]
		setBool(&s.UseCaching, true)
		setString(&s.TSEvaluation, DefaultTSEvaluation)
		setString(&s.ComponentAggregation, DefaultComponentAggregation)
		setBool(&s.FilterTrivialFactors, true)
		setString(&s.AtomicTSOrder, DefaultAtomicTSOrder)
		setString(&s.ProductTSOrder, DefaultProductTSOrder)
	}
}

func setBool(p **bool, v bool) {
	if *p == nil {
		*p = &v
	}
}

func setString(p *string, v string) {
	if *p == "" {
		*p = v
	}
}

// Validate checks a configuration after [Config.SetDefaults].
func (c *Config) Validate() error {
	if c.MaxStates < 1 || c.MaxStatesBeforeMerge < 1 || c.ThresholdBeforeMerge < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "state limits must be positive")
	}
	if c.MaxStatesBeforeMerge > c.MaxStates {
		return errors.New(errors.ErrCodeInvalidConfig,
			"max_states_before_merge (%d) exceeds max_states (%d)", c.MaxStatesBeforeMerge, c.MaxStates)
	}
	if _, err := c.mainLoopMaxTime(); err != nil {
		return err
	}
	if _, err := mas.ParseVerbosity(c.Verbosity); err != nil {
		return invalid(err)
	}

	if !ValidShrinkStrategies[c.Shrink.Strategy] {
		return errors.New(errors.ErrCodeInvalidConfig, "unknown shrink strategy %q", c.Shrink.Strategy)
	}
	if _, err := shrink.ParseAtLimit(c.Shrink.AtLimit); err != nil {
		return invalid(err)
	}
	if _, err := mas.ParseLabelReductionMethod(c.LabelReduction.Method); err != nil {
		return invalid(err)
	}

	if !ValidMergeStrategies[c.Merge.Strategy] {
		return errors.New(errors.ErrCodeInvalidConfig, "unknown merge strategy %q", c.Merge.Strategy)
	}
	if _, err := merge.ParseOrderOfSCCs(c.Merge.OrderOfSCCs); err != nil {
		return invalid(err)
	}
	if len(c.Merge.Scoring) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "no scoring functions")
	}
	for _, s := range c.Merge.Scoring {
		if _, err := s.build(nil, shrink.Limits{}); err != nil {
			return err
		}
	}
	if last := c.Merge.Scoring[len(c.Merge.Scoring)-1].Name; !tieBreakers[last] {
		return errors.New(errors.ErrCodeInvalidConfig,
			"last scoring function %q does not break ties; end with total_order or single_random", last)
	}
	return nil
}

func invalid(err error) error {
	return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid configuration")
}

func (c *Config) mainLoopMaxTime() (time.Duration, error) {
	if c.MainLoopMaxTime == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.MainLoopMaxTime)
	if err != nil {
		return 0, invalid(err)
	}
	if d < 0 {
		return 0, errors.New(errors.ErrCodeInvalidConfig, "negative main_loop_max_time %s", d)
	}
	return d, nil
}

// Build creates the construction options. The merge strategy factory
// reports the causal graph SCCs to log.
func (c *Config) Build(log *mas.Log) (algorithm.Options, error) {
	if err := c.Validate(); err != nil {
		return algorithm.Options{}, err
	}
	maxTime, _ := c.mainLoopMaxTime()
	verbosity, _ := mas.ParseVerbosity(c.Verbosity)
	limits := shrink.Limits{
		MaxStates:            c.MaxStates,
		MaxStatesBeforeMerge: c.MaxStatesBeforeMerge,
		ThresholdBeforeMerge: c.ThresholdBeforeMerge,
	}

	var strategy shrink.Strategy
	switch c.Shrink.Strategy {
	case "bisimulation":
		atLimit, _ := shrink.ParseAtLimit(c.Shrink.AtLimit)
		strategy = &shrink.Bisimulation{Greedy: c.Shrink.Greedy, AtLimit: atLimit}
	case "random":
		strategy = &shrink.Random{Seed: c.Shrink.Seed}
	}

	var lr *mas.LabelReduction
	if *c.LabelReduction.Enabled {
		method, _ := mas.ParseLabelReductionMethod(c.LabelReduction.Method)
		lr = &mas.LabelReduction{
			Method:          method,
			BeforeShrinking: *c.LabelReduction.BeforeShrinking,
			BeforeMerging:   c.LabelReduction.BeforeMerging,
		}
	}

	functions := make([]merge.ScoringFunction, 0, len(c.Merge.Scoring))
	for _, s := range c.Merge.Scoring {
		f, err := s.build(strategy, limits)
		if err != nil {
			return algorithm.Options{}, err
		}
		functions = append(functions, f)
	}
	selector := &merge.ScoreBasedFiltering{Functions: functions}

	var factory merge.Factory
	switch c.Merge.Strategy {
	case "sccs":
		order, _ := merge.ParseOrderOfSCCs(c.Merge.OrderOfSCCs)
		factory = &merge.FactorySCCs{
			Order:                     order,
			Selector:                  selector,
			AllowWorkingOnAllClusters: *c.Merge.AllowWorkingOnAllClusters,
			Log:                       log,
		}
	case "stateless":
		factory = &merge.FactoryStateless{Selector: selector}
	}

	return algorithm.Options{
		Limits:           limits,
		Shrink:           strategy,
		LabelReduction:   lr,
		MergeFactory:     factory,
		PruneUnreachable: *c.PruneUnreachableStates,
		PruneIrrelevant:  *c.PruneIrrelevantStates,
		MainLoopMaxTime:  maxTime,
		Verbosity:        verbosity,
	}, nil
}

// build creates the scoring function; strategy and limits are those of the
// construction.
func (s ScoringConfig) build(strategy shrink.Strategy, limits shrink.Limits) (merge.ScoringFunction, error) {
	switch s.Name {
	case ScoringCP:
		eval, err := merge.ParseTSEvaluation(s.TSEvaluation)
		if err != nil {
			return nil, invalid(err)
		}
		agg, err := merge.ParseComponentAggregation(s.ComponentAggregation)
		if err != nil {
			return nil, invalid(err)
		}
		return &merge.CP{
			UseCaching:           s.UseCaching == nil || *s.UseCaching,
			Shrink:               strategy,
			Limits:               limits,
			Evaluation:           eval,
			Aggregation:          agg,
			FilterTrivialFactors: s.FilterTrivialFactors == nil || *s.FilterTrivialFactors,
		}, nil
	case ScoringGoalRelevance:
		return merge.GoalRelevance{}, nil
	case ScoringDFP:
		return merge.DFP{}, nil
	case ScoringTotalOrder:
		atomic, err := merge.ParseAtomicOrder(s.AtomicTSOrder)
		if err != nil {
			return nil, invalid(err)
		}
		product, err := merge.ParseProductOrder(s.ProductTSOrder)
		if err != nil {
			return nil, invalid(err)
		}
		return &merge.TotalOrder{
			AtomicOrder:         atomic,
			ProductOrder:        product,
			AtomicBeforeProduct: s.AtomicBeforeProduct,
			Seed:                s.Seed,
		}, nil
	case ScoringSingleRandom:
		return &merge.SingleRandom{Seed: s.Seed}, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown scoring function %q", s.Name)
}
