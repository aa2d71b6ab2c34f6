// file: scoring/decay.go
package scoring

import (
	"DaliCTF/models"
	"math"
)

// DecayFunc 根据解题人数计算题目当前分值
type DecayFunc func(ch *models.Challenge, solveCount int64) int

// Functions 衰减函数表，由调用方显式传入，不做全局注册
type Functions map[string]DecayFunc

func DefaultFunctions() Functions {
	return Functions{
		models.DecayFunctionLogarithmic: Logarithmic,
		models.DecayFunctionLinear:      Linear,
	}
}

// Get 未知函数名回退到 logarithmic
func (f Functions) Get(name string) DecayFunc {
	if fn, ok := f[name]; ok {
		return fn
	}
	return Logarithmic
}

// Value 计算题目分值
func (f Functions) Value(ch *models.Challenge, solveCount int64) int {
	return f.Get(ch.Function)(ch, solveCount)
}

// Logarithmic 抛物线衰减：第 decay 个解出者之后分值降到 minimum。
// 第一个解出者拿到 initial
func Logarithmic(ch *models.Challenge, solveCount int64) int {
	if ch.Decay <= 0 {
		return ch.Initial
	}
	if solveCount > 0 {
		solveCount--
	}
	initial := float64(ch.Initial)
	minimum := float64(ch.Minimum)
	decay := float64(ch.Decay)
	n := float64(solveCount)

	value := ((minimum-initial)/(decay*decay))*(n*n) + initial
	return clamp(value, ch.Minimum)
}

// Linear 每多一个解出者扣 decay 分
func Linear(ch *models.Challenge, solveCount int64) int {
	if solveCount > 0 {
		solveCount--
	}
	value := float64(ch.Initial) - float64(ch.Decay)*float64(solveCount)
	return clamp(value, ch.Minimum)
}

func clamp(value float64, minimum int) int {
	v := int(math.Ceil(value))
	if v < minimum {
		return minimum
	}
	return v
}
