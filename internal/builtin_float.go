package internal

import (
	"math"
	"math/big"
	"strconv"
	"strings"
)

// NewFloat creates a float object.
func (vm *VM) NewFloat(x float64) *Object {
	return vm.NewObject(vm.FloatType, x)
}

func bigToFloat(vm *VM, x *big.Int) (float64, error) {
	f, _ := new(big.Float).SetInt(x).Float64()
	if math.IsInf(f, 0) {
		return 0, vm.NewException(OverflowError, "int too large to convert to float")
	}
	return f, nil
}

// toFloat converts an int or float object to float64. ok is false if o is
// neither.
func toFloat(vm *VM, o *Object) (f float64, ok bool, err error) {
	switch v := o.Value.(type) {
	case float64:
		return v, true, nil
	case *big.Int:
		f, err := bigToFloat(vm, v)
		return f, true, err
	}
	return 0, false, nil
}

// floatOp adapts an operation on two floats to an Fn. Ints are converted;
// anything else makes the result NotImplemented.
func floatOp(f func(vm *VM, x, y float64) (*Object, error)) Fn {
	return func(vm *VM, args ...*Object) (*Object, error) {
		x, ok, err := toFloat(vm, args[0])
		if !ok || err != nil {
			return notImplemented(vm, err)
		}
		y, ok, err := toFloat(vm, args[1])
		if !ok || err != nil {
			return notImplemented(vm, err)
		}
		return f(vm, x, y)
	}
}

func notImplemented(vm *VM, err error) (*Object, error) {
	if err != nil {
		return nil, err
	}
	return vm.NotImplemented, nil
}

func (vm *VM) initFloat() {
	add := floatOp(func(vm *VM, x, y float64) (*Object, error) { return vm.NewFloat(x + y), nil })
	sub := floatOp(func(vm *VM, x, y float64) (*Object, error) { return vm.NewFloat(x - y), nil })
	mul := floatOp(func(vm *VM, x, y float64) (*Object, error) { return vm.NewFloat(x * y), nil })
	truediv := floatOp(func(vm *VM, x, y float64) (*Object, error) {
		if y == 0 {
			return nil, vm.NewException(ZeroDivisionError, "float division by zero")
		}
		return vm.NewFloat(x / y), nil
	})
	floordiv := floatOp(func(vm *VM, x, y float64) (*Object, error) {
		if y == 0 {
			return nil, vm.NewException(ZeroDivisionError, "float floor division by zero")
		}
		q, _ := floatDivmod(x, y)
		return vm.NewFloat(q), nil
	})
	mod := floatOp(func(vm *VM, x, y float64) (*Object, error) {
		if y == 0 {
			return nil, vm.NewException(ZeroDivisionError, "float modulo")
		}
		_, r := floatDivmod(x, y)
		return vm.NewFloat(r), nil
	})
	divmod := floatOp(func(vm *VM, x, y float64) (*Object, error) {
		if y == 0 {
			return nil, vm.NewException(ZeroDivisionError, "float divmod()")
		}
		q, r := floatDivmod(x, y)
		return vm.NewTuple([]*Object{vm.NewFloat(q), vm.NewFloat(r)}), nil
	})
	pow := func(vm *VM, args ...*Object) (*Object, error) {
		if args[2] != vm.None {
			if _, ok, _ := toFloat(vm, args[2]); !ok {
				return vm.NotImplemented, nil
			}
			return nil, vm.NewException(TypeError, "pow() 3rd argument not allowed unless all arguments are integers")
		}
		return floatOp(floatPow)(vm, args[0], args[1])
	}

	vm.define(vm.FloatType, []method{
		{"__add__", 2, 0, add},
		{"__radd__", 2, 0, swapped(add)},
		{"__sub__", 2, 0, sub},
		{"__rsub__", 2, 0, swapped(sub)},
		{"__mul__", 2, 0, mul},
		{"__rmul__", 2, 0, swapped(mul)},
		{"__truediv__", 2, 0, truediv},
		{"__rtruediv__", 2, 0, swapped(truediv)},
		{"__floordiv__", 2, 0, floordiv},
		{"__rfloordiv__", 2, 0, swapped(floordiv)},
		{"__mod__", 2, 0, mod},
		{"__rmod__", 2, 0, swapped(mod)},
		{"__divmod__", 2, 0, divmod},
		{"__rdivmod__", 2, 0, swapped(divmod)},
		{"__pow__", 3, 1, pow},
		{"__rpow__", 3, 1, swapped(pow)},
		{"__eq__", 2, 0, floatCompare(func(c int) bool { return c == 0 }, false)},
		{"__ne__", 2, 0, floatCompare(func(c int) bool { return c != 0 }, true)},
		{"__lt__", 2, 0, floatCompare(func(c int) bool { return c < 0 }, false)},
		{"__le__", 2, 0, floatCompare(func(c int) bool { return c <= 0 }, false)},
		{"__gt__", 2, 0, floatCompare(func(c int) bool { return c > 0 }, false)},
		{"__ge__", 2, 0, floatCompare(func(c int) bool { return c >= 0 }, false)},
		{"__neg__", 1, 0, func(vm *VM, args ...*Object) (*Object, error) {
			return vm.NewFloat(-args[0].Value.(float64)), nil
		}},
		{"__repr__", 1, 0, func(vm *VM, args ...*Object) (*Object, error) {
			return vm.NewStr(formatFloat(args[0].Value.(float64))), nil
		}},
	})
	vm.FloatType.setConstructor(floatConstruct)
}

// floatDivmod computes floor division and modulo with the sign conventions
// of Python floats. y must not be zero.
func floatDivmod(x, y float64) (q, r float64) {
	r = math.Mod(x, y)
	d := (x - r) / y
	if r != 0 {
		if (y < 0) != (r < 0) {
			r += y
			d--
		}
	} else {
		r = math.Copysign(0, y)
	}
	if d != 0 {
		q = math.Floor(d)
		if d-q > 0.5 {
			q++
		}
	} else {
		q = math.Copysign(0, x/y)
	}
	return q, r
}

func floatPow(vm *VM, x, y float64) (*Object, error) {
	switch {
	case x == 0 && y < 0:
		return nil, vm.NewException(ZeroDivisionError, "0.0 cannot be raised to a negative power")
	case x < 0 && y != math.Trunc(y) && !math.IsInf(y, 0):
		return nil, vm.NewException(ValueError, "negative number cannot be raised to a fractional power")
	}
	r := math.Pow(x, y)
	if math.IsInf(r, 0) && !math.IsInf(x, 0) && !math.IsInf(y, 0) {
		return nil, vm.NewException(OverflowError, "(34, 'Numerical result out of range')")
	}
	return vm.NewFloat(r), nil
}

// floatCompare creates a comparison between a float and an int or float.
// Comparisons against ints are exact. unordered is the result when either
// side is NaN.
func floatCompare(ok func(c int) bool, unordered bool) Fn {
	return func(vm *VM, args ...*Object) (*Object, error) {
		x, isFloat := args[0].Value.(float64)
		if !isFloat {
			// Reflected use on an int receiver.
			return vm.NotImplemented, nil
		}
		switch y := args[1].Value.(type) {
		case float64:
			if math.IsNaN(x) || math.IsNaN(y) {
				return vm.Bool(unordered), nil
			}
			switch {
			case x < y:
				return vm.Bool(ok(-1)), nil
			case x > y:
				return vm.Bool(ok(1)), nil
			}
			return vm.Bool(ok(0)), nil
		case *big.Int:
			switch {
			case math.IsNaN(x):
				return vm.Bool(unordered), nil
			case math.IsInf(x, 0):
				if x > 0 {
					return vm.Bool(ok(1)), nil
				}
				return vm.Bool(ok(-1)), nil
			}
			return vm.Bool(ok(big.NewFloat(x).Cmp(new(big.Float).SetInt(y)))), nil
		}
		return vm.NotImplemented, nil
	}
}

// formatFloat formats x the way Python's repr does: the shortest string that
// round trips, in positional notation for moderate exponents.
func formatFloat(x float64) string {
	switch {
	case math.IsInf(x, 1):
		return "inf"
	case math.IsInf(x, -1):
		return "-inf"
	case math.IsNaN(x):
		return "nan"
	}
	s := strconv.FormatFloat(x, 'e', -1, 64)
	e, _ := strconv.Atoi(s[strings.IndexByte(s, 'e')+1:])
	if e < -4 || e >= 16 {
		return s
	}
	s = strconv.FormatFloat(x, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

func floatConstruct(vm *VM, t *Type, args []*Object) (*Object, error) {
	if len(args) > 1 {
		return nil, vm.NewException(TypeError, "float expected at most 1 argument, got %d", len(args))
	}
	var x float64
	if len(args) == 1 {
		if s, ok := args[0].Value.(string); ok {
			var err error
			x, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil && !isRangeError(err) {
				return nil, vm.NewException(ValueError, "could not convert string to float: %s", quoteStr(s))
			}
		} else {
			f, ok, err := toFloat(vm, args[0])
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, vm.NewException(TypeError, "float() argument must be a string or a real number, not '%s'", args[0].typ.Name)
			}
			x = f
		}
	}
	return vm.NewObject(t, x), nil
}

// isRangeError reports whether a strconv error is only a range error, in
// which case the parsed value is already the correct infinity or zero.
func isRangeError(err error) bool {
	ne, ok := err.(*strconv.NumError)
	return ok && ne.Err == strconv.ErrRange
}
