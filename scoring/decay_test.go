package scoring

import (
	"DaliCTF/models"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogarithmic(t *testing.T) {
	ch := &models.Challenge{Initial: 500, Minimum: 100, Decay: 10}

	assert.Equal(t, 500, Logarithmic(ch, 0))
	assert.Equal(t, 500, Logarithmic(ch, 1))
	// (100-500)/100 * 1 + 500 = 496
	assert.Equal(t, 496, Logarithmic(ch, 2))
	// (100-500)/100 * 25 + 500 = 400
	assert.Equal(t, 400, Logarithmic(ch, 6))
	assert.Equal(t, 100, Logarithmic(ch, 11))
	assert.Equal(t, 100, Logarithmic(ch, 1000))
}

func TestLogarithmicZeroDecayKeepsInitial(t *testing.T) {
	ch := &models.Challenge{Initial: 300, Minimum: 50}
	assert.Equal(t, 300, Logarithmic(ch, 42))
}

func TestLinear(t *testing.T) {
	ch := &models.Challenge{Initial: 100, Minimum: 10, Decay: 15}

	assert.Equal(t, 100, Linear(ch, 0))
	assert.Equal(t, 100, Linear(ch, 1))
	assert.Equal(t, 85, Linear(ch, 2))
	assert.Equal(t, 10, Linear(ch, 20))
}

func TestFunctionsFallback(t *testing.T) {
	fns := DefaultFunctions()
	ch := &models.Challenge{Initial: 500, Minimum: 100, Decay: 10, Function: "exponential"}
	assert.Equal(t, Logarithmic(ch, 6), fns.Value(ch, 6))

	ch.Function = models.DecayFunctionLinear
	assert.Equal(t, Linear(ch, 6), fns.Value(ch, 6))
}
