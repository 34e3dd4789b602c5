// Package transform applies declarative transformation plans to datasets.
//
// A plan is an ordered list of operations drawn from a fixed set (rename,
// cast, filter_range, recode). Plans are data; nothing is ever executed.
package transform

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shpitdev/synthgen/internal/dataset"
)

// Operation kinds.
const (
	OpRename      = "rename"
	OpCast        = "cast"
	OpFilterRange = "filter_range"
	OpRecode      = "recode"
)

// Operation is one plan step. Which fields are meaningful depends on Op:
//
//	rename        column, to
//	cast          column, to (numerical|categorical|boolean)
//	filter_range  column, min and/or max (inclusive)
//	recode        column, mapping (old value -> new value)
type Operation struct {
	Op      string            `yaml:"op" json:"op"`
	Column  string            `yaml:"column" json:"column"`
	To      string            `yaml:"to,omitempty" json:"to,omitempty"`
	Min     *float64          `yaml:"min,omitempty" json:"min,omitempty"`
	Max     *float64          `yaml:"max,omitempty" json:"max,omitempty"`
	Mapping map[string]string `yaml:"mapping,omitempty" json:"mapping,omitempty"`
}

// Plan is the transformation plan artifact.
type Plan struct {
	Operations []Operation `yaml:"operations" json:"operations"`
}

// PlanError reports an invalid operation.
type PlanError struct {
	Index int
	Op    string
	Msg   string
}

func (e *PlanError) Error() string {
	if e == nil {
		return "invalid transformation plan"
	}
	return fmt.Sprintf("operation %d (%s): %s", e.Index, e.Op, e.Msg)
}

// ParsePlan decodes a JSON or YAML plan and checks each operation's shape.
// Column existence is checked by Apply.
func ParsePlan(b []byte) (Plan, error) {
	var p Plan
	if strings.TrimSpace(string(b)) == "" {
		return Plan{Operations: []Operation{}}, nil
	}
	if err := yaml.Unmarshal(b, &p); err != nil {
		return Plan{}, fmt.Errorf("parse transformation plan: %w", err)
	}
	if p.Operations == nil {
		p.Operations = []Operation{}
	}
	if err := p.Check(); err != nil {
		return Plan{}, err
	}
	return p, nil
}

// LoadPlan reads and parses a plan from path.
func LoadPlan(path string) (Plan, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Plan{}, fmt.Errorf("read transformation plan: %w", err)
	}
	return ParsePlan(b)
}

// Check validates operation kinds and their required fields.
func (p Plan) Check() error {
	for i, op := range p.Operations {
		fail := func(msg string) error { return &PlanError{Index: i, Op: op.Op, Msg: msg} }
		if strings.TrimSpace(op.Column) == "" {
			return fail("column is required")
		}
		switch op.Op {
		case OpRename:
			if strings.TrimSpace(op.To) == "" {
				return fail("to is required")
			}
		case OpCast:
			switch dataset.ColumnType(op.To) {
			case dataset.TypeNumerical, dataset.TypeCategorical, dataset.TypeBoolean:
			default:
				return fail(fmt.Sprintf("cannot cast to %q", op.To))
			}
		case OpFilterRange:
			if op.Min == nil && op.Max == nil {
				return fail("min or max is required")
			}
		case OpRecode:
			if len(op.Mapping) == 0 {
				return fail("mapping is required")
			}
		default:
			return fail("unknown operation")
		}
	}
	return nil
}
