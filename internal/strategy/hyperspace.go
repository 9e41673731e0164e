package strategy

// ParamType and Parameter mirror the teacher's pkg/backtest optimizer
// parameter model: a tunable's type plus numeric bounds (grid/genetic
// search in internal/hyperopt/optimizer) or a categorical value set.
type ParamType string

const (
	ParamTypeInt    ParamType = "int"
	ParamTypeFloat  ParamType = "float"
	ParamTypeBool   ParamType = "bool"
	ParamTypeString ParamType = "string"
)

// Parameter describes one tunable dimension of a strategy's hyper
// space.
type Parameter struct {
	Name   string
	Type   ParamType
	Min    float64
	Max    float64
	Step   float64
	Values []string
}

// HyperSpace is the opaque-to-the-engine description a strategy
// returns from HyperSpace(); the hyperopt driver's Optimizer is the
// only consumer.
type HyperSpace struct {
	Parameters []Parameter
}

// ParameterSet is a concrete assignment sampled from a HyperSpace by
// an Optimizer and passed to Strategy.BindParams.
type ParameterSet map[string]interface{}

// Clone returns an independent copy, so an Optimizer can mutate a
// working set without aliasing a previously recorded result.
func (ps ParameterSet) Clone() ParameterSet {
	clone := make(ParameterSet, len(ps))
	for k, v := range ps {
		clone[k] = v
	}
	return clone
}

// Float reads a numeric parameter, defaulting if absent or of the
// wrong dynamic type.
func (ps ParameterSet) Float(name string, def float64) float64 {
	if v, ok := ps[name]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		}
	}
	return def
}

// Int reads an integer-valued parameter, defaulting if absent.
func (ps ParameterSet) Int(name string, def int) int {
	if v, ok := ps[name]; ok {
		switch n := v.(type) {
		case int:
			return n
		case float64:
			return int(n)
		}
	}
	return def
}
