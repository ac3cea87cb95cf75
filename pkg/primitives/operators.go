// Package primitives implements the opcode handlers the scheduler
// dispatches through an engine.Registry. Each file groups one opcode
// family; RegisterAll wires every handler here into a fresh Registry.
package primitives

import (
	"math"
	"strings"

	"github.com/kristofer/stagevm/pkg/engine"
)

func operatorAdd(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(2, func(c *engine.BlockContext) engine.Result {
		return engine.RetNumber(c.Arg(0).ToNumber() + c.Arg(1).ToNumber())
	})
}

func operatorSubtract(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(2, func(c *engine.BlockContext) engine.Result {
		return engine.RetNumber(c.Arg(0).ToNumber() - c.Arg(1).ToNumber())
	})
}

func operatorMultiply(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(2, func(c *engine.BlockContext) engine.Result {
		return engine.RetNumber(c.Arg(0).ToNumber() * c.Arg(1).ToNumber())
	})
}

func operatorDivide(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(2, func(c *engine.BlockContext) engine.Result {
		return engine.RetNumber(c.Arg(0).ToNumber() / c.Arg(1).ToNumber())
	})
}

// operatorRandom mirrors operator_random: swap the bounds if out of
// order, return the bound directly if they're equal, otherwise draw an
// integer in range when both bounds are whole numbers, else a float.
func operatorRandom(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(2, func(c *engine.BlockContext) engine.Result {
		from := c.Arg(0).ToNumber()
		to := c.Arg(1).ToNumber()
		if from > to {
			from, to = to, from
		}
		if from == to {
			return engine.RetNumber(from)
		}
		if math.Trunc(from) == from && math.Trunc(to) == to {
			lo, hi := int64(from), int64(to)
			n := lo + c.Rand().Int63n(hi-lo)
			return engine.RetNumber(float64(n))
		}
		return engine.RetNumber(from + c.Rand().Float64()*(to-from))
	})
}

func operatorLt(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(2, func(c *engine.BlockContext) engine.Result {
		return engine.RetBool(c.Arg(0).Compare(c.Arg(1)) < 0)
	})
}

func operatorEquals(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(2, func(c *engine.BlockContext) engine.Result {
		return engine.RetBool(c.Arg(0).Equal(c.Arg(1)))
	})
}

func operatorGt(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(2, func(c *engine.BlockContext) engine.Result {
		return engine.RetBool(c.Arg(0).Compare(c.Arg(1)) > 0)
	})
}

func operatorAnd(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(2, func(c *engine.BlockContext) engine.Result {
		return engine.RetBool(c.Arg(0).ToBoolean() && c.Arg(1).ToBoolean())
	})
}

func operatorOr(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(2, func(c *engine.BlockContext) engine.Result {
		return engine.RetBool(c.Arg(0).ToBoolean() || c.Arg(1).ToBoolean())
	})
}

func operatorNot(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(1, func(c *engine.BlockContext) engine.Result {
		return engine.RetBool(!c.Arg(0).ToBoolean())
	})
}

func operatorJoin(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(2, func(c *engine.BlockContext) engine.Result {
		return engine.RetString(c.Arg(0).String() + c.Arg(1).String())
	})
}

func operatorLetterOf(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(2, func(c *engine.BlockContext) engine.Result {
		letter := c.Arg(0).ToNumber() - 1
		s := c.Arg(1).String()
		runes := []rune(s)
		if letter < 0 || letter >= float64(len(runes)) {
			return engine.RetString("")
		}
		return engine.RetString(string(runes[int(letter)]))
	})
}

func operatorContains(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(2, func(c *engine.BlockContext) engine.Result {
		haystack := strings.ToLower(c.Arg(0).String())
		needle := strings.ToLower(c.Arg(1).String())
		return engine.RetBool(strings.Contains(haystack, needle))
	})
}

func operatorLength(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(1, func(c *engine.BlockContext) engine.Result {
		return engine.RetNumber(float64(len([]rune(c.Arg(0).String()))))
	})
}

// operatorMod's result sign always matches the divisor, not Go's
// native "sign matches dividend" float remainder.
func operatorMod(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(2, func(c *engine.BlockContext) engine.Result {
		n := c.Arg(0).ToNumber()
		m := c.Arg(1).ToNumber()
		r := math.Mod(n, m)
		if r/m < 0 {
			r += m
		}
		return engine.RetNumber(r)
	})
}

// operatorRound reads the single NUM input the block carries.
func operatorRound(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(1, func(c *engine.BlockContext) engine.Result {
		return engine.RetNumber(math.Round(c.Arg(0).ToNumber()))
	})
}

// truncDegTrig matches the authoring tool's sin/cos rendering: degrees
// in, truncated to one decimal place. Isolated so it's a one-line
// change if a host ever wants full precision.
func truncDegTrig(f func(float64) float64, deg float64) float64 {
	return math.Trunc(f(deg*math.Pi/180)*10) / 10
}

func operatorMathop(c *engine.BlockContext) engine.Result {
	return c.AcquireArgs(2, func(c *engine.BlockContext) engine.Result {
		op := strings.ToLower(c.Arg(0).String())
		n := c.Arg(1).ToNumber()
		var r float64
		switch op {
		case "abs":
			r = math.Abs(n)
		case "floor":
			r = math.Floor(n)
		case "ceiling":
			r = math.Ceil(n)
		case "sqrt":
			r = math.Sqrt(n)
		case "sin":
			r = truncDegTrig(math.Sin, n)
		case "cos":
			r = truncDegTrig(math.Cos, n)
		case "tan":
			r = math.Tan(n * math.Pi / 180)
		case "asin":
			r = math.Asin(n) * 180 / math.Pi
		case "acos":
			r = math.Acos(n) * 180 / math.Pi
		case "atan":
			r = math.Atan(n) * 180 / math.Pi
		case "ln":
			r = math.Log(n)
		case "log":
			r = math.Log10(n)
		case "e ^":
			r = math.Exp(n)
		case "10 ^":
			r = math.Pow(10, n)
		default:
			r = 0
		}
		return engine.RetNumber(r)
	})
}

func registerOperators(r *engine.Registry) {
	r.RegisterFunc("operator_add", operatorAdd)
	r.RegisterFunc("operator_subtract", operatorSubtract)
	r.RegisterFunc("operator_multiply", operatorMultiply)
	r.RegisterFunc("operator_divide", operatorDivide)
	r.RegisterFunc("operator_random", operatorRandom)
	r.RegisterFunc("operator_lt", operatorLt)
	r.RegisterFunc("operator_equals", operatorEquals)
	r.RegisterFunc("operator_gt", operatorGt)
	r.RegisterFunc("operator_and", operatorAnd)
	r.RegisterFunc("operator_or", operatorOr)
	r.RegisterFunc("operator_not", operatorNot)
	r.RegisterFunc("operator_join", operatorJoin)
	r.RegisterFunc("operator_letter_of", operatorLetterOf)
	r.RegisterFunc("operator_contains", operatorContains)
	r.RegisterFunc("operator_length", operatorLength)
	r.RegisterFunc("operator_mod", operatorMod)
	r.RegisterFunc("operator_round", operatorRound)
	r.RegisterFunc("operator_mathop", operatorMathop)
}
