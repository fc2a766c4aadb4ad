package internal

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// NewStr creates a str object.
func (vm *VM) NewStr(s string) *Object {
	return vm.NewObject(vm.StrType, s)
}

// NewList creates a list object that owns items.
func (vm *VM) NewList(items []*Object) *Object {
	return vm.NewObject(vm.ListType, items)
}

// NewTuple creates a tuple object that owns items.
func (vm *VM) NewTuple(items []*Object) *Object {
	return vm.NewObject(vm.TupleType, items)
}

// items returns the elements of a list or tuple. For lists, the result is a
// copy taken while holding the list's lock.
func (vm *VM) items(o *Object) []*Object {
	if !o.typ.IsSubtype(vm.ListType) {
		v, _ := o.Value.([]*Object)
		return v
	}
	o.Lock()
	v, _ := o.Value.([]*Object)
	r := append([]*Object(nil), v...)
	o.Unlock()
	return r
}

// iterate returns the elements of any builtin iterable.
func (vm *VM) iterate(o *Object) ([]*Object, error) {
	switch v := o.Value.(type) {
	case []*Object:
		return vm.items(o), nil
	case string:
		r := make([]*Object, 0, len(v))
		for _, c := range v {
			r = append(r, vm.NewStr(string(c)))
		}
		return r, nil
	}
	return nil, vm.NewException(TypeError, "'%s' object is not iterable", o.typ.Name)
}

// repeatItems returns n concatenated copies of s.
func repeatItems(s []*Object, n int) []*Object {
	r := make([]*Object, 0, len(s)*n)
	for i := 0; i < n; i++ {
		r = append(r, s...)
	}
	return r
}

// compareItems compares two sequences lexicographically with the operator
// whose symbol is op.
func (vm *VM) compareItems(a, b []*Object, op string) (*Object, error) {
	for i := 0; i < len(a) && i < len(b); i++ {
		eq, err := vm.Equal(a[i], b[i])
		if err != nil {
			return nil, err
		}
		if eq {
			continue
		}
		switch op {
		case "==":
			return vm.False, nil
		case "!=":
			return vm.True, nil
		}
		return vm.Eval(op, a[i], b[i])
	}
	var r bool
	switch op {
	case "==":
		r = len(a) == len(b)
	case "!=":
		r = len(a) != len(b)
	case "<":
		r = len(a) < len(b)
	case "<=":
		r = len(a) <= len(b)
	case ">":
		r = len(a) > len(b)
	case ">=":
		r = len(a) >= len(b)
	}
	return vm.Bool(r), nil
}

// seqCompare creates a comparison slot for a sequence type.
func seqCompare(t func(vm *VM) *Type, op string) Fn {
	return func(vm *VM, args ...*Object) (*Object, error) {
		if !args[0].IsInstance(t(vm)) || !args[1].IsInstance(t(vm)) {
			return vm.NotImplemented, nil
		}
		return vm.compareItems(vm.items(args[0]), vm.items(args[1]), op)
	}
}

func (vm *VM) initStr() {
	vm.define(vm.StrType, []method{
		{"__add__", 2, 0, func(vm *VM, args ...*Object) (*Object, error) {
			r, ok := args[1].Value.(string)
			if !ok {
				return nil, vm.NewException(TypeError, "can only concatenate str (not \"%s\") to str", args[1].typ.Name)
			}
			return vm.NewStr(args[0].Value.(string) + r), nil
		}},
		{"__mul__", 2, 0, func(vm *VM, args ...*Object) (*Object, error) {
			s := args[0].Value.(string)
			n, err := repeatCount(vm, len(s), args[1])
			if err != nil {
				return nil, err
			}
			return vm.NewStr(strings.Repeat(s, n)), nil
		}},
		{"__eq__", 2, 0, strCompare(func(c int) bool { return c == 0 })},
		{"__ne__", 2, 0, strCompare(func(c int) bool { return c != 0 })},
		{"__lt__", 2, 0, strCompare(func(c int) bool { return c < 0 })},
		{"__le__", 2, 0, strCompare(func(c int) bool { return c <= 0 })},
		{"__gt__", 2, 0, strCompare(func(c int) bool { return c > 0 })},
		{"__ge__", 2, 0, strCompare(func(c int) bool { return c >= 0 })},
		{"__repr__", 1, 0, func(vm *VM, args ...*Object) (*Object, error) {
			return vm.NewStr(quoteStr(args[0].Value.(string))), nil
		}},
	})
	vm.StrType.setConstructor(func(vm *VM, t *Type, args []*Object) (*Object, error) {
		var s string
		switch len(args) {
		case 0:
		case 1:
			var err error
			if s, err = vm.Str(args[0]); err != nil {
				return nil, err
			}
		default:
			return nil, vm.NewException(TypeError, "str() takes at most 1 argument (%d given)", len(args))
		}
		return vm.NewObject(t, s), nil
	})
}

func strCompare(ok func(c int) bool) Fn {
	return func(vm *VM, args ...*Object) (*Object, error) {
		a, _ := args[0].Value.(string)
		b, isStr := args[1].Value.(string)
		if !isStr {
			return vm.NotImplemented, nil
		}
		return vm.Bool(ok(strings.Compare(a, b))), nil
	}
}

// quoteStr formats s as a Python string literal.
func quoteStr(s string) string {
	q := byte('\'')
	if strings.IndexByte(s, '\'') >= 0 && strings.IndexByte(s, '"') < 0 {
		q = '"'
	}
	var b strings.Builder
	b.WriteByte(q)
	for i := 0; i < len(s); {
		r, n := utf8.DecodeRuneInString(s[i:])
		i += n
		switch {
		case r == rune(q) || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r == utf8.RuneError && n == 1:
			fmt.Fprintf(&b, `\x%02x`, s[i-1])
		case unicode.IsPrint(r):
			b.WriteRune(r)
		case r < 0x100:
			fmt.Fprintf(&b, `\x%02x`, r)
		case r < 0x10000:
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			fmt.Fprintf(&b, `\U%08x`, r)
		}
	}
	b.WriteByte(q)
	return b.String()
}

func (vm *VM) initList() {
	list := func(vm *VM) *Type { return vm.ListType }
	vm.define(vm.ListType, []method{
		{"__add__", 2, 0, func(vm *VM, args ...*Object) (*Object, error) {
			if !args[1].IsInstance(vm.ListType) {
				return nil, vm.NewException(TypeError, "can only concatenate list (not \"%s\") to list", args[1].typ.Name)
			}
			a, b := vm.items(args[0]), vm.items(args[1])
			return vm.NewList(append(a, b...)), nil
		}},
		{"__mul__", 2, 0, func(vm *VM, args ...*Object) (*Object, error) {
			s := vm.items(args[0])
			n, err := repeatCount(vm, len(s), args[1])
			if err != nil {
				return nil, err
			}
			return vm.NewList(repeatItems(s, n)), nil
		}},
		{"__iadd__", 2, 0, func(vm *VM, args ...*Object) (*Object, error) {
			more, err := vm.iterate(args[1])
			if err != nil {
				return nil, err
			}
			l := args[0]
			l.Lock()
			l.Value = append(l.Value.([]*Object), more...)
			l.Unlock()
			return l, nil
		}},
		{"__imul__", 2, 0, func(vm *VM, args ...*Object) (*Object, error) {
			l := args[0]
			l.Lock()
			defer l.Unlock()
			s := l.Value.([]*Object)
			n, err := repeatCount(vm, len(s), args[1])
			if err != nil {
				return nil, err
			}
			l.Value = repeatItems(s, n)
			return l, nil
		}},
		{"__eq__", 2, 0, seqCompare(list, "==")},
		{"__ne__", 2, 0, seqCompare(list, "!=")},
		{"__lt__", 2, 0, seqCompare(list, "<")},
		{"__le__", 2, 0, seqCompare(list, "<=")},
		{"__gt__", 2, 0, seqCompare(list, ">")},
		{"__ge__", 2, 0, seqCompare(list, ">=")},
		{"__repr__", 1, 0, func(vm *VM, args ...*Object) (*Object, error) {
			return vm.reprItems(args[0], "[", "]")
		}},
	})
	vm.ListType.setConstructor(func(vm *VM, t *Type, args []*Object) (*Object, error) {
		var s []*Object
		switch len(args) {
		case 0:
		case 1:
			var err error
			if s, err = vm.iterate(args[0]); err != nil {
				return nil, err
			}
			if !args[0].IsInstance(vm.ListType) {
				// Lists are already copies.
				s = append([]*Object(nil), s...)
			}
		default:
			return nil, vm.NewException(TypeError, "list expected at most 1 argument, got %d", len(args))
		}
		if s == nil {
			s = []*Object{}
		}
		return vm.NewObject(t, s), nil
	})
}

func (vm *VM) initTuple() {
	tuple := func(vm *VM) *Type { return vm.TupleType }
	vm.define(vm.TupleType, []method{
		{"__add__", 2, 0, func(vm *VM, args ...*Object) (*Object, error) {
			if !args[1].IsInstance(vm.TupleType) {
				return nil, vm.NewException(TypeError, "can only concatenate tuple (not \"%s\") to tuple", args[1].typ.Name)
			}
			a, b := vm.items(args[0]), vm.items(args[1])
			r := make([]*Object, 0, len(a)+len(b))
			return vm.NewTuple(append(append(r, a...), b...)), nil
		}},
		{"__mul__", 2, 0, func(vm *VM, args ...*Object) (*Object, error) {
			s := vm.items(args[0])
			n, err := repeatCount(vm, len(s), args[1])
			if err != nil {
				return nil, err
			}
			if n == 1 && args[0].typ == vm.TupleType {
				return args[0], nil
			}
			return vm.NewTuple(repeatItems(s, n)), nil
		}},
		{"__eq__", 2, 0, seqCompare(tuple, "==")},
		{"__ne__", 2, 0, seqCompare(tuple, "!=")},
		{"__lt__", 2, 0, seqCompare(tuple, "<")},
		{"__le__", 2, 0, seqCompare(tuple, "<=")},
		{"__gt__", 2, 0, seqCompare(tuple, ">")},
		{"__ge__", 2, 0, seqCompare(tuple, ">=")},
		{"__repr__", 1, 0, func(vm *VM, args ...*Object) (*Object, error) {
			if len(vm.items(args[0])) == 1 {
				return vm.reprItems(args[0], "(", ",)")
			}
			return vm.reprItems(args[0], "(", ")")
		}},
	})
	vm.TupleType.setConstructor(func(vm *VM, t *Type, args []*Object) (*Object, error) {
		var s []*Object
		switch len(args) {
		case 0:
		case 1:
			var err error
			if s, err = vm.iterate(args[0]); err != nil {
				return nil, err
			}
			if args[0].typ == vm.TupleType && t == vm.TupleType {
				return args[0], nil
			}
			s = append([]*Object(nil), s...)
		default:
			return nil, vm.NewException(TypeError, "tuple expected at most 1 argument, got %d", len(args))
		}
		return vm.NewObject(t, s), nil
	})
}

// reprItems formats the elements of a list or tuple. A container that is
// already being formatted on this thread appears as an ellipsis.
func (vm *VM) reprItems(o *Object, open, close string) (*Object, error) {
	if vm.repring[o] {
		return vm.NewStr(open + "..." + strings.TrimPrefix(close, ",")), nil
	}
	vm.repring[o] = true
	defer delete(vm.repring, o)
	var b strings.Builder
	b.WriteString(open)
	for i, x := range vm.items(o) {
		if i > 0 {
			b.WriteString(", ")
		}
		s, err := vm.Repr(x)
		if err != nil {
			return nil, err
		}
		b.WriteString(s)
	}
	b.WriteString(close)
	return vm.NewStr(b.String()), nil
}
