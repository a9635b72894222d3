package bclexpr

import "math"

// unaryFuncs are the single-argument functions EXPR can call.
var unaryFuncs = map[string]func(float64) float64{
	"SIN":    math.Sin,
	"COS":    math.Cos,
	"TAN":    math.Tan,
	"ASIN":   math.Asin,
	"ACOS":   math.Acos,
	"ATAN":   math.Atan,
	"SINH":   math.Sinh,
	"COSH":   math.Cosh,
	"TANH":   math.Tanh,
	"SQRT":   math.Sqrt,
	"CBRT":   math.Cbrt,
	"ABS":    math.Abs,
	"CEIL":   math.Ceil,
	"FLOOR":  math.Floor,
	"ROUND":  math.Round,
	"LN":     math.Log,
	"LOG":    math.Log,
	"LOG10":  math.Log10,
	"LOG2":   math.Log2,
	"EXP":    math.Exp,
	"RAD":    func(d float64) float64 { return d * math.Pi / 180 },
	"DEG":    func(r float64) float64 { return r * 180 / math.Pi },
	"INT":    math.Floor,
	"DOUBLE": func(f float64) float64 { return f },
	"SIGN": func(f float64) float64 {
		switch {
		case f > 0:
			return 1
		case f < 0:
			return -1
		default:
			return 0
		}
	},
	"RAND": func(float64) float64 { return 0 },
}

// binaryFuncs are the two-argument functions EXPR can call.
var binaryFuncs = map[string]func(float64, float64) float64{
	"POW":    math.Pow,
	"HYPOT":  math.Hypot,
	"ATAN2":  math.Atan2,
	"FMOD":   math.Mod,
	"MIN":    math.Min,
	"MAX":    math.Max,
}

// applyFunc evaluates a named function call. An unrecognized function
// returns 0 rather than an error, matching EXPR's lenient dispatch.
func applyFunc(name string, args []operand) (operand, error) {
	if f, ok := unaryFuncs[name]; ok {
		if len(args) != 1 {
			return numOperand(0), nil
		}
		v, _ := args[0].Float()
		return numOperand(f(v)), nil
	}
	if f, ok := binaryFuncs[name]; ok {
		if len(args) != 2 {
			return numOperand(0), nil
		}
		a, _ := args[0].Float()
		b, _ := args[1].Float()
		return numOperand(f(a, b)), nil
	}
	return numOperand(0), nil
}
