package internal

// Handler produces the result of an operator application after every
// candidate implementation declined. operands holds two or three values in
// operand order.
type Handler func(vm *VM, op *Operator, operands ...*Object) (*Object, error)

// handlers are the handlers that configuration can name. A nil entry means
// NotImplemented propagates to the caller.
var handlers = map[string]Handler{
	"unsupported": UnsupportedHandler,
	"identity":    IdentityHandler,
	"ordering":    OrderingHandler,
	"raw":         nil,
}

// UnsupportedHandler raises UnsupportedOperandsError. For ternary operators
// whose third operand is None, only the first two operand types are named.
func UnsupportedHandler(vm *VM, op *Operator, operands ...*Object) (*Object, error) {
	if len(operands) == 3 && operands[2] == vm.None {
		operands = operands[:2]
	}
	names := make([]string, len(operands))
	for i, o := range operands {
		names[i] = o.typ.Name
	}
	return nil, &UnsupportedOperandsError{Op: op.Display, Types: names}
}

// IdentityHandler compares the first two operands by identity. The result is
// negated when the operator's forward slot is __ne__.
func IdentityHandler(vm *VM, op *Operator, operands ...*Object) (*Object, error) {
	same := operands[0] == operands[1]
	if op.Slot == SlotNe {
		same = !same
	}
	return vm.Bool(same), nil
}

// OrderingHandler raises the TypeError for unorderable operands.
func OrderingHandler(vm *VM, op *Operator, operands ...*Object) (*Object, error) {
	return nil, vm.NewException(TypeError, "'%s' not supported between instances of '%s' and '%s'", op.Display, operands[0].typ.Name, operands[1].typ.Name)
}
