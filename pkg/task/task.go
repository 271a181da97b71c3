package task

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/mastower/pkg/errors"
)

// Format identifies the encoding of a task or configuration file.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatFromPath returns the format implied by the file extension.
func FormatFromPath(path string) (Format, error) {
	if err := errors.ValidatePath(path, ".toml", ".yaml", ".yml"); err != nil {
		return "", err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return FormatTOML, nil
}

// Decode unmarshals data in the given format into v.
func Decode(data []byte, format Format, v any) error {
	switch format {
	case FormatTOML:
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(v); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode toml")
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(v); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode yaml")
		}
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "unknown format %q", format)
	}
	return nil
}

// Variable is a finite-domain state variable with values 0..DomainSize-1.
type Variable struct {
	Name       string   `toml:"name" yaml:"name"`
	DomainSize int      `toml:"domain" yaml:"domain"`
	FactNames  []string `toml:"facts,omitempty" yaml:"facts,omitempty"`
}

// FactName returns the name of value on v, falling back to "v=value".
func (v Variable) FactName(value int) string {
	if value >= 0 && value < len(v.FactNames) {
		return v.FactNames[value]
	}
	return fmt.Sprintf("%s=%d", v.Name, value)
}

// Fact is a variable/value pair.
type Fact struct {
	Var   int `toml:"var" yaml:"var"`
	Value int `toml:"value" yaml:"value"`
}

// Operator is a planning action with unconditional effects.
type Operator struct {
	Name          string `toml:"name" yaml:"name"`
	Cost          int    `toml:"cost" yaml:"cost"`
	Preconditions []Fact `toml:"pre,omitempty" yaml:"pre,omitempty"`
	Effects       []Fact `toml:"eff" yaml:"eff"`
}

// Precondition returns the required value of v, or -1 if op does not
// constrain v.
func (op Operator) Precondition(v int) int {
	for _, f := range op.Preconditions {
		if f.Var == v {
			return f.Value
		}
	}
	return -1
}

// Effect returns the value op assigns to v, or -1 if op does not change v.
func (op Operator) Effect(v int) int {
	for _, f := range op.Effects {
		if f.Var == v {
			return f.Value
		}
	}
	return -1
}

// Task is a finite-domain planning task.
//
// The zero value is an empty task; use [Load] or [Parse] to obtain a
// validated one.
type Task struct {
	Variables []Variable `toml:"variables" yaml:"variables"`
	Operators []Operator `toml:"operators" yaml:"operators"`
	Initial   []int      `toml:"initial" yaml:"initial"`
	Goal      []Fact     `toml:"goal" yaml:"goal"`
}

// Load reads, decodes and validates the task file at path.
func Load(path string) (*Task, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "task file %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read task %s", path)
	}
	t, err := Parse(data, format)
	if err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "load task %s", path)
	}
	return t, nil
}

// Parse decodes and validates a task.
func Parse(data []byte, format Format) (*Task, error) {
	var t Task
	if err := Decode(data, format, &t); err != nil {
		return nil, err
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// NumVariables returns the number of state variables.
func (t *Task) NumVariables() int { return len(t.Variables) }

// NumOperators returns the number of operators.
func (t *Task) NumOperators() int { return len(t.Operators) }

// GoalValue returns the goal value of v, or -1 if v has no goal.
func (t *Task) GoalValue(v int) int {
	for _, f := range t.Goal {
		if f.Var == v {
			return f.Value
		}
	}
	return -1
}

// IsGoalVariable reports whether v appears in the goal.
func (t *Task) IsGoalVariable(v int) bool { return t.GoalValue(v) != -1 }

// Validate checks the structural well-formedness of the task.
func (t *Task) Validate() error {
	if len(t.Variables) == 0 {
		return errors.New(errors.ErrCodeInvalidTask, "task has no variables")
	}
	for i, v := range t.Variables {
		if err := errors.ValidateName("variable", v.Name); err != nil {
			return err
		}
		if v.DomainSize < 1 {
			return errors.New(errors.ErrCodeInvalidTask, "variable %d (%s) has domain size %d", i, v.Name, v.DomainSize)
		}
		if len(v.FactNames) != 0 && len(v.FactNames) != v.DomainSize {
			return errors.New(errors.ErrCodeInvalidTask, "variable %d (%s) names %d facts for domain size %d",
				i, v.Name, len(v.FactNames), v.DomainSize)
		}
	}

	if len(t.Initial) != len(t.Variables) {
		return errors.New(errors.ErrCodeInvalidTask, "initial state has %d values for %d variables", len(t.Initial), len(t.Variables))
	}
	for v, value := range t.Initial {
		if value < 0 || value >= t.Variables[v].DomainSize {
			return errors.New(errors.ErrCodeInvalidTask, "initial value %d out of range for variable %d", value, v)
		}
	}

	if err := t.validateFacts("goal", t.Goal); err != nil {
		return err
	}

	for i, op := range t.Operators {
		if err := errors.ValidateName("operator", op.Name); err != nil {
			return err
		}
		if op.Cost < 0 {
			return errors.New(errors.ErrCodeInvalidTask, "operator %d (%s) has negative cost %d", i, op.Name, op.Cost)
		}
		if len(op.Effects) == 0 {
			return errors.New(errors.ErrCodeInvalidTask, "operator %d (%s) has no effects", i, op.Name)
		}
		if err := t.validateFacts(fmt.Sprintf("precondition of %s", op.Name), op.Preconditions); err != nil {
			return err
		}
		if err := t.validateFacts(fmt.Sprintf("effect of %s", op.Name), op.Effects); err != nil {
			return err
		}
	}
	return nil
}

func (t *Task) validateFacts(what string, facts []Fact) error {
	seen := make(map[int]bool, len(facts))
	for _, f := range facts {
		if f.Var < 0 || f.Var >= len(t.Variables) {
			return errors.New(errors.ErrCodeInvalidTask, "%s: unknown variable %d", what, f.Var)
		}
		if f.Value < 0 || f.Value >= t.Variables[f.Var].DomainSize {
			return errors.New(errors.ErrCodeInvalidTask, "%s: value %d out of range for variable %d", what, f.Value, f.Var)
		}
		if seen[f.Var] {
			return errors.New(errors.ErrCodeInvalidTask, "%s: variable %d mentioned twice", what, f.Var)
		}
		seen[f.Var] = true
	}
	return nil
}
