package achievements

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Operator is a comparison for leaf conditions or AND/OR for composites.
type Operator string

const (
	OpGTE Operator = ">="
	OpLTE Operator = "<="
	OpEQ  Operator = "="
	OpGT  Operator = ">"
	OpLT  Operator = "<"
	OpAnd Operator = "AND"
	OpOr  Operator = "OR"
)

func (o Operator) normalize() Operator {
	s := strings.TrimSpace(string(o))
	switch strings.ToUpper(s) {
	case "AND":
		return OpAnd
	case "OR":
		return OpOr
	case "==":
		return OpEQ
	}
	return Operator(s)
}

// Composite reports whether o combines child requirements.
func (o Operator) Composite() bool {
	o = o.normalize()
	return o == OpAnd || o == OpOr
}

// Value is the right-hand side of a condition. Most values are numbers;
// string values are kept for definitions that compare by exact equality.
type Value struct {
	Num      float64
	Str      string
	IsString bool
}

// Num returns a numeric value.
func Num(v float64) Value { return Value{Num: v} }

// Str returns a string value.
func Str(s string) Value { return Value{Str: s, IsString: true} }

func (v Value) String() string {
	if v.IsString {
		return v.Str
	}
	return strconv.FormatFloat(v.Num, 'f', -1, 64)
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.IsString {
		return json.Marshal(v.Str)
	}
	return json.Marshal(v.Num)
}

func (v *Value) UnmarshalJSON(b []byte) error {
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		*v = Num(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("requirement value must be a number or string: %s", b)
	}
	*v = Str(s)
	return nil
}

// UnmarshalTOML implements toml.Unmarshaler.
func (v *Value) UnmarshalTOML(data any) error {
	switch x := data.(type) {
	case int64:
		*v = Num(float64(x))
	case float64:
		*v = Num(x)
	case string:
		*v = Str(x)
	default:
		return fmt.Errorf("requirement value must be a number or string, got %T", data)
	}
	return nil
}

// Requirement is a node of a condition tree: a leaf comparison of a metric
// against a value, or an AND/OR over child requirements.
type Requirement struct {
	Metric     Metric        `json:"metric,omitempty" toml:"metric"`
	Op         Operator      `json:"operator" toml:"operator"`
	Value      Value         `json:"value" toml:"value"`
	Timeframe  Timeframe     `json:"timeframe,omitempty" toml:"timeframe"`
	Conditions []Requirement `json:"conditions,omitempty" toml:"conditions"`
}

// Cond builds a leaf condition over the all-time value of m.
func Cond(m Metric, op Operator, v float64) Requirement {
	return Requirement{Metric: m, Op: op, Value: Num(v), Timeframe: TimeframeAllTime}
}

// Within returns r scoped to tf.
func (r Requirement) Within(tf Timeframe) Requirement {
	r.Timeframe = tf
	return r
}

// And combines requirements that must all hold.
func And(rs ...Requirement) Requirement { return Requirement{Op: OpAnd, Conditions: rs} }

// Or combines requirements of which one must hold.
func Or(rs ...Requirement) Requirement { return Requirement{Op: OpOr, Conditions: rs} }

// Evaluate reports whether r holds for s.
//
// Every child of a composite is evaluated before combining. A composite with
// no children, an unknown operator or an unknown metric leaves the
// requirement unmet rather than failing.
func Evaluate(r Requirement, s Snapshot) bool {
	op := r.Op.normalize()
	if op.Composite() {
		if len(r.Conditions) == 0 {
			return false
		}
		results := make([]bool, len(r.Conditions))
		for i, c := range r.Conditions {
			results[i] = Evaluate(c, s)
		}
		for _, ok := range results {
			if op == OpAnd && !ok {
				return false
			}
			if op == OpOr && ok {
				return true
			}
		}
		return op == OpAnd
	}
	return compare(s.Resolve(r.Metric, r.Timeframe), op, r.Value)
}

func compare(actual float64, op Operator, v Value) bool {
	if v.IsString {
		return op == OpEQ && strconv.FormatFloat(actual, 'f', -1, 64) == strings.TrimSpace(v.Str)
	}
	switch op {
	case OpGTE:
		return actual >= v.Num
	case OpLTE:
		return actual <= v.Num
	case OpEQ:
		return actual == v.Num
	case OpGT:
		return actual > v.Num
	case OpLT:
		return actual < v.Num
	}
	return false
}

// FirstLeaf returns the first leaf condition of r in depth-first order.
func FirstLeaf(r Requirement) (Requirement, bool) {
	if !r.Op.Composite() {
		return r, true
	}
	for _, c := range r.Conditions {
		if leaf, ok := FirstLeaf(c); ok {
			return leaf, true
		}
	}
	return Requirement{}, false
}

// Metrics returns the distinct metrics referenced anywhere in r.
func (r Requirement) Metrics() []Metric {
	var out []Metric
	seen := map[Metric]bool{}
	var walk func(Requirement)
	walk = func(n Requirement) {
		if n.Op.Composite() {
			for _, c := range n.Conditions {
				walk(c)
			}
			return
		}
		if !seen[n.Metric] {
			seen[n.Metric] = true
			out = append(out, n.Metric)
		}
	}
	walk(r)
	return out
}
