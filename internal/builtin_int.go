package internal

import (
	"math"
	"math/big"
	"strings"
)

// Small ints are cached, the same range as the usual Python implementation.
const (
	smallIntMin = -5
	smallIntMax = 256
)

// maxIntBits bounds the size of ints produced by shifts and powers.
const maxIntBits = 1 << 26

// asInt returns the value of an int or bool object.
func asInt(o *Object) (*big.Int, bool) {
	x, ok := o.Value.(*big.Int)
	return x, ok
}

// NewInt creates an int object.
func (vm *VM) NewInt(x int64) *Object {
	if smallIntMin <= x && x <= smallIntMax && vm.intCache != nil {
		return vm.intCache[x-smallIntMin]
	}
	return vm.NewObject(vm.IntType, big.NewInt(x))
}

// NewBigInt creates an int object holding x. The caller must not modify x
// afterward.
func (vm *VM) NewBigInt(x *big.Int) *Object {
	if x.IsInt64() {
		if n := x.Int64(); smallIntMin <= n && n <= smallIntMax && vm.intCache != nil {
			return vm.intCache[n-smallIntMin]
		}
	}
	return vm.NewObject(vm.IntType, x)
}

// intOp adapts an operation on two ints to an Fn. Operands that are not ints
// make the result NotImplemented.
func intOp(f func(vm *VM, x, y *big.Int) (*Object, error)) Fn {
	return func(vm *VM, args ...*Object) (*Object, error) {
		x, ok := asInt(args[0])
		if !ok {
			return vm.NotImplemented, nil
		}
		y, ok := asInt(args[1])
		if !ok {
			return vm.NotImplemented, nil
		}
		return f(vm, x, y)
	}
}

func (vm *VM) initInt() {
	vm.intCache = make([]*Object, smallIntMax-smallIntMin+1)
	for i := range vm.intCache {
		vm.intCache[i] = vm.NewObject(vm.IntType, big.NewInt(int64(i+smallIntMin)))
	}

	add := intOp(func(vm *VM, x, y *big.Int) (*Object, error) { return vm.NewBigInt(new(big.Int).Add(x, y)), nil })
	sub := intOp(func(vm *VM, x, y *big.Int) (*Object, error) { return vm.NewBigInt(new(big.Int).Sub(x, y)), nil })
	mul := intOp(func(vm *VM, x, y *big.Int) (*Object, error) { return vm.NewBigInt(new(big.Int).Mul(x, y)), nil })
	truediv := intOp(intTrueDiv)
	floordiv := intOp(func(vm *VM, x, y *big.Int) (*Object, error) {
		q, _, err := floorDivmod(vm, x, y)
		if err != nil {
			return nil, err
		}
		return vm.NewBigInt(q), nil
	})
	mod := intOp(func(vm *VM, x, y *big.Int) (*Object, error) {
		_, r, err := floorDivmod(vm, x, y)
		if err != nil {
			return nil, err
		}
		return vm.NewBigInt(r), nil
	})
	divmod := intOp(func(vm *VM, x, y *big.Int) (*Object, error) {
		q, r, err := floorDivmod(vm, x, y)
		if err != nil {
			return nil, err
		}
		return vm.NewTuple([]*Object{vm.NewBigInt(q), vm.NewBigInt(r)}), nil
	})
	lshift := intOp(intLShift)
	rshift := intOp(intRShift)
	and := intOp(func(vm *VM, x, y *big.Int) (*Object, error) { return vm.NewBigInt(new(big.Int).And(x, y)), nil })
	xor := intOp(func(vm *VM, x, y *big.Int) (*Object, error) { return vm.NewBigInt(new(big.Int).Xor(x, y)), nil })
	or := intOp(func(vm *VM, x, y *big.Int) (*Object, error) { return vm.NewBigInt(new(big.Int).Or(x, y)), nil })

	vm.define(vm.IntType, []method{
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
		{"__pow__", 3, 1, intPow},
		{"__rpow__", 3, 1, swapped(intPow)},
		{"__lshift__", 2, 0, lshift},
		{"__rlshift__", 2, 0, swapped(lshift)},
		{"__rshift__", 2, 0, rshift},
		{"__rrshift__", 2, 0, swapped(rshift)},
		{"__and__", 2, 0, and},
		{"__rand__", 2, 0, swapped(and)},
		{"__xor__", 2, 0, xor},
		{"__rxor__", 2, 0, swapped(xor)},
		{"__or__", 2, 0, or},
		{"__ror__", 2, 0, swapped(or)},
		{"__eq__", 2, 0, intCompare(func(c int) bool { return c == 0 })},
		{"__ne__", 2, 0, intCompare(func(c int) bool { return c != 0 })},
		{"__lt__", 2, 0, intCompare(func(c int) bool { return c < 0 })},
		{"__le__", 2, 0, intCompare(func(c int) bool { return c <= 0 })},
		{"__gt__", 2, 0, intCompare(func(c int) bool { return c > 0 })},
		{"__ge__", 2, 0, intCompare(func(c int) bool { return c >= 0 })},
		{"__neg__", 1, 0, func(vm *VM, args ...*Object) (*Object, error) {
			x, _ := asInt(args[0])
			return vm.NewBigInt(new(big.Int).Neg(x)), nil
		}},
		{"__repr__", 1, 0, func(vm *VM, args ...*Object) (*Object, error) {
			x, _ := asInt(args[0])
			return vm.NewStr(x.String()), nil
		}},
	})
	vm.IntType.setConstructor(intConstruct)
}

func intCompare(ok func(c int) bool) Fn {
	return intOp(func(vm *VM, x, y *big.Int) (*Object, error) {
		return vm.Bool(ok(x.Cmp(y))), nil
	})
}

// floorDivmod computes the quotient rounded toward negative infinity and the
// remainder with the sign of the divisor.
func floorDivmod(vm *VM, x, y *big.Int) (q, r *big.Int, err error) {
	if y.Sign() == 0 {
		return nil, nil, vm.NewException(ZeroDivisionError, "integer division or modulo by zero")
	}
	q, r = new(big.Int).QuoRem(x, y, new(big.Int))
	if r.Sign() != 0 && r.Sign() != y.Sign() {
		q.Sub(q, big.NewInt(1))
		r.Add(r, y)
	}
	return q, r, nil
}

func intTrueDiv(vm *VM, x, y *big.Int) (*Object, error) {
	if y.Sign() == 0 {
		return nil, vm.NewException(ZeroDivisionError, "division by zero")
	}
	f, _ := new(big.Rat).SetFrac(x, y).Float64()
	if math.IsInf(f, 0) {
		return nil, vm.NewException(OverflowError, "integer division result too large for a float")
	}
	return vm.NewFloat(f), nil
}

func intLShift(vm *VM, x, y *big.Int) (*Object, error) {
	if y.Sign() < 0 {
		return nil, vm.NewException(ValueError, "negative shift count")
	}
	if x.Sign() == 0 {
		return vm.NewInt(0), nil
	}
	if !y.IsInt64() || int64(x.BitLen())+y.Int64() > maxIntBits {
		return nil, vm.NewException(OverflowError, "too many digits in integer")
	}
	return vm.NewBigInt(new(big.Int).Lsh(x, uint(y.Int64()))), nil
}

func intRShift(vm *VM, x, y *big.Int) (*Object, error) {
	if y.Sign() < 0 {
		return nil, vm.NewException(ValueError, "negative shift count")
	}
	if !y.IsInt64() || y.Int64() > int64(x.BitLen()) {
		if x.Sign() < 0 {
			return vm.NewInt(-1), nil
		}
		return vm.NewInt(0), nil
	}
	return vm.NewBigInt(new(big.Int).Rsh(x, uint(y.Int64()))), nil
}

// intPow is __pow__ for ints, with an optional modulus.
func intPow(vm *VM, args ...*Object) (*Object, error) {
	x, ok := asInt(args[0])
	if !ok {
		return vm.NotImplemented, nil
	}
	y, ok := asInt(args[1])
	if !ok {
		return vm.NotImplemented, nil
	}
	if args[2] == vm.None {
		if y.Sign() < 0 {
			fx, err := bigToFloat(vm, x)
			if err != nil {
				return nil, err
			}
			fy, err := bigToFloat(vm, y)
			if err != nil {
				return nil, err
			}
			return floatPow(vm, fx, fy)
		}
		if x.CmpAbs(big.NewInt(1)) > 0 && (!y.IsInt64() || int64(x.BitLen())*y.Int64() > maxIntBits) {
			return nil, vm.NewException(MemoryError, "integer exponentiation result is too large")
		}
		if !y.IsInt64() {
			// |x| <= 1, so the result only depends on the parity of y.
			y = new(big.Int).And(y, big.NewInt(1))
		}
		return vm.NewBigInt(new(big.Int).Exp(x, y, nil)), nil
	}
	m, ok := asInt(args[2])
	if !ok {
		return vm.NotImplemented, nil
	}
	if m.Sign() == 0 {
		return nil, vm.NewException(ValueError, "pow() 3rd argument cannot be 0")
	}
	mabs := new(big.Int).Abs(m)
	base := new(big.Int).Mod(x, mabs)
	exp := y
	if y.Sign() < 0 {
		inv := new(big.Int).ModInverse(base, mabs)
		if inv == nil {
			return nil, vm.NewException(ValueError, "base is not invertible for the given modulus")
		}
		base = inv
		exp = new(big.Int).Neg(y)
	}
	r := new(big.Int).Exp(base, exp, mabs)
	if m.Sign() < 0 && r.Sign() != 0 {
		r.Add(r, m)
	}
	return vm.NewBigInt(r), nil
}

func intConstruct(vm *VM, t *Type, args []*Object) (*Object, error) {
	if len(args) > 1 {
		return nil, vm.NewException(TypeError, "int() takes at most 1 argument (%d given)", len(args))
	}
	x := new(big.Int)
	if len(args) == 1 {
		switch v := args[0].Value.(type) {
		case *big.Int:
			x = v
		case float64:
			switch {
			case math.IsInf(v, 0):
				return nil, vm.NewException(OverflowError, "cannot convert float infinity to integer")
			case math.IsNaN(v):
				return nil, vm.NewException(ValueError, "cannot convert float NaN to integer")
			}
			big.NewFloat(v).Int(x)
		case string:
			s := strings.ReplaceAll(strings.TrimSpace(v), "_", "")
			if _, ok := x.SetString(s, 10); !ok || s == "" {
				return nil, vm.NewException(ValueError, "invalid literal for int() with base 10: %s", quoteStr(v))
			}
		default:
			return nil, vm.NewException(TypeError, "int() argument must be a string or a real number, not '%s'", args[0].typ.Name)
		}
	}
	if t == vm.IntType {
		return vm.NewBigInt(x), nil
	}
	return vm.NewObject(t, x), nil
}

func (vm *VM) initBool() {
	vm.True = vm.NewObject(vm.BoolType, big.NewInt(1))
	vm.False = vm.NewObject(vm.BoolType, big.NewInt(0))

	and := boolOp(func(a, b bool) bool { return a && b }, func(z, x, y *big.Int) *big.Int { return z.And(x, y) })
	or := boolOp(func(a, b bool) bool { return a || b }, func(z, x, y *big.Int) *big.Int { return z.Or(x, y) })
	xor := boolOp(func(a, b bool) bool { return a != b }, func(z, x, y *big.Int) *big.Int { return z.Xor(x, y) })
	vm.define(vm.BoolType, []method{
		{"__and__", 2, 0, and},
		{"__rand__", 2, 0, swapped(and)},
		{"__or__", 2, 0, or},
		{"__ror__", 2, 0, swapped(or)},
		{"__xor__", 2, 0, xor},
		{"__rxor__", 2, 0, swapped(xor)},
		{"__repr__", 1, 0, func(vm *VM, args ...*Object) (*Object, error) {
			if vm.Truth(args[0]) {
				return vm.NewStr("True"), nil
			}
			return vm.NewStr("False"), nil
		}},
	})
	vm.BoolType.setConstructor(func(vm *VM, t *Type, args []*Object) (*Object, error) {
		switch len(args) {
		case 0:
			return vm.False, nil
		case 1:
			return vm.Bool(vm.Truth(args[0])), nil
		}
		return nil, vm.NewException(TypeError, "bool expected at most 1 argument, got %d", len(args))
	})
}

// boolOp creates a bitwise operation that produces a bool when both operands
// are bools and an int otherwise.
func boolOp(b func(a, b bool) bool, i func(z, x, y *big.Int) *big.Int) Fn {
	return func(vm *VM, args ...*Object) (*Object, error) {
		if args[0].typ == vm.BoolType && args[1].typ == vm.BoolType {
			return vm.Bool(b(args[0] == vm.True, args[1] == vm.True)), nil
		}
		return intOp(func(vm *VM, x, y *big.Int) (*Object, error) {
			return vm.NewBigInt(i(new(big.Int), x, y)), nil
		})(vm, args...)
	}
}
