package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParameterSetCloneIsIndependent(t *testing.T) {
	orig := ParameterSet{"rsi_period": 14.0}
	clone := orig.Clone()
	clone["rsi_period"] = 21.0

	assert.Equal(t, 14.0, orig["rsi_period"])
	assert.Equal(t, 21.0, clone["rsi_period"])
}

func TestParameterSetFloatDefaultsWhenAbsent(t *testing.T) {
	ps := ParameterSet{}
	assert.Equal(t, 0.5, ps.Float("missing", 0.5))
}

func TestParameterSetFloatDefaultsOnTypeMismatch(t *testing.T) {
	ps := ParameterSet{"rsi_period": "not a number"}
	assert.Equal(t, 14.0, ps.Float("rsi_period", 14.0))
}

func TestParameterSetFloatReadsStoredValue(t *testing.T) {
	ps := ParameterSet{"stop_loss": -0.05}
	assert.Equal(t, -0.05, ps.Float("stop_loss", 0))
}

func TestParameterSetIntReadsIntAndFloat64(t *testing.T) {
	ps := ParameterSet{"a": 5, "b": 7.0}
	assert.Equal(t, 5, ps.Int("a", 0))
	assert.Equal(t, 7, ps.Int("b", 0))
}

func TestParameterSetIntDefaultsWhenAbsent(t *testing.T) {
	ps := ParameterSet{}
	assert.Equal(t, 3, ps.Int("missing", 3))
}
