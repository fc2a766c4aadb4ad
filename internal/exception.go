package internal

import (
	"errors"
	"fmt"
	"strings"
)

// ExceptionKind names the class of a raised exception.
type ExceptionKind string

// Exception kinds raised by the runtime.
const (
	TypeError         ExceptionKind = "TypeError"
	ValueError        ExceptionKind = "ValueError"
	ZeroDivisionError ExceptionKind = "ZeroDivisionError"
	OverflowError     ExceptionKind = "OverflowError"
	MemoryError       ExceptionKind = "MemoryError"
	AttributeError    ExceptionKind = "AttributeError"
	NameError         ExceptionKind = "NameError"
	RecursionError    ExceptionKind = "RecursionError"
	SyntaxError       ExceptionKind = "SyntaxError"
)

// Exception is a runtime error raised by builtin code or user code.
type Exception struct {
	Kind ExceptionKind
	Msg  string
}

// NewException creates an exception with a formatted message.
func (vm *VM) NewException(kind ExceptionKind, format string, args ...interface{}) *Exception {
	return &Exception{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func (e *Exception) Error() string {
	return string(e.Kind) + ": " + e.Msg
}

// Is allows errors.Is to match an exception against an exception of the same
// kind with an empty message.
func (e *Exception) Is(target error) bool {
	t, ok := target.(*Exception)
	return ok && t.Msg == "" && t.Kind == e.Kind
}

// KindOf returns the exception kind of err or of any error it wraps, which
// is TypeError for the typed dispatch errors. A descriptor binding failure
// has the kind of its cause. The result is the empty string if err is not an
// exception.
func KindOf(err error) ExceptionKind {
	var e *Exception
	if errors.As(err, &e) {
		return e.Kind
	}
	var u *UnsupportedOperandsError
	if errors.As(err, &u) {
		return TypeError
	}
	var o *OwnerTypeMismatchError
	if errors.As(err, &o) {
		return TypeError
	}
	return ""
}

// UnsupportedOperandsError is raised when no candidate implementation of an
// operator accepts its operands.
type UnsupportedOperandsError struct {
	// Op is the display name of the operator.
	Op string
	// Types holds the names of the operand types, in operand order.
	Types []string
}

func (e *UnsupportedOperandsError) Error() string {
	var b strings.Builder
	b.WriteString("TypeError: unsupported operand type(s) for ")
	b.WriteString(e.Op)
	b.WriteString(": ")
	for i, t := range e.Types {
		switch {
		case i == 0:
		case len(e.Types) == 2:
			b.WriteString(" and ")
		default:
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "'%s'", t)
	}
	return b.String()
}

// OwnerTypeMismatchError is raised when a builtin slot implementation declared
// for one type is invoked on a receiver that is not an instance of it.
type OwnerTypeMismatchError struct {
	// Slot is the method name through which the implementation was reached.
	Slot string
	// Required is the name of the type the implementation belongs to.
	Required string
	// Received is the receiver that was passed.
	Received *Object
}

func (e *OwnerTypeMismatchError) Error() string {
	return fmt.Sprintf("TypeError: descriptor '%s' requires a '%s' object but received a '%s'", e.Slot, e.Required, e.Received.typ.Name)
}

// DescriptorBindingError is raised when the __get__ of a descriptor found for
// an operator slot fails.
type DescriptorBindingError struct {
	Slot string
	Type string
	Err  error
}

func (e *DescriptorBindingError) Error() string {
	return fmt.Sprintf("binding %s of '%s': %v", e.Slot, e.Type, e.Err)
}

func (e *DescriptorBindingError) Unwrap() error {
	return e.Err
}

// InternalArityError is the panic value when a builtin implementation
// declares an arity that no calling convention supports. It indicates a bug
// in the builtin tables, not in user code.
type InternalArityError struct {
	Name  string
	Arity int
}

func (e *InternalArityError) Error() string {
	return fmt.Sprintf("opslot: %s declares arity %d; supported arities are 1 through %d", e.Name, e.Arity, maxArity)
}
