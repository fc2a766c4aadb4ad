package internal

// plan is the receiver-independent part of one dispatch: which slot
// references to try and in what order. A plan depends only on the operator
// and the operand types, so a call site can reuse it for as long as the
// operand types keep their versions.
type plan struct {
	op *Operator

	// left is the forward slot on the left operand's type; right is the
	// reflected slot on the right operand's type, already dropped when the
	// dedup rule applies.
	left, right slotRef
	// rightFirst is set when the right type is a proper subtype of the left
	// type that overrides the reflected slot.
	rightFirst bool

	// z is the forward slot on the third operand's type for ternary
	// operators, dropped when it is the same implementation as left or
	// right.
	z slotRef
	// inplace is the in-place slot on the left operand's type.
	inplace slotRef

	// seq is the sequence slot of the operator's fallback. seqRight is set
	// when the sequence is the right operand.
	seq      slotRef
	seqRight bool
}

// primary returns the implementation the plan tries first, or nil if it has
// no candidates at all.
func (p *plan) primary() *Object {
	switch {
	case p.inplace.present():
		return p.inplace.attr
	case p.rightFirst:
		return p.right.attr
	case p.left.present():
		return p.left.attr
	case p.right.present():
		return p.right.attr
	case p.z.present():
		return p.z.attr
	}
	return p.seq.attr
}

// planPair fills in the left and right candidates of p and their order.
func (vm *VM) planPair(p *plan, lt, rt *Type) {
	op := p.op
	p.left = vm.lookupSlot(lt, op.Slot)
	if lt != rt || op.AlwaysReverse {
		p.right = vm.lookupSlot(rt, op.RSlot)
		if !op.AlwaysReverse && p.right.same(p.left) {
			p.right = slotRef{slot: op.RSlot}
		}
	}
	p.rightFirst = p.left.present() && p.right.present() &&
		lt != rt && rt.IsSubtype(lt) && vm.overrides(lt, p.right)
}

// overrides reports whether r, found on a subtype, is a different
// implementation of its slot than what lt itself would use. A slot that lt
// does not have at all counts as overridden.
func (vm *VM) overrides(lt *Type, r slotRef) bool {
	return !r.same(vm.lookupSlot(lt, r.slot))
}

// planBinary computes the plan for a binary operator on operands of types lt
// and rt.
func (vm *VM) planBinary(op *Operator, lt, rt *Type) *plan {
	p := &plan{op: op}
	vm.planPair(p, lt, rt)
	vm.planFallback(p, lt, rt)
	return p
}

// runBinary executes a binary plan. Both candidates are bound before either
// is invoked. The result is NotImplemented if every candidate declines.
func (vm *VM) runBinary(p *plan, l, r *Object) (*Object, error) {
	op := p.op
	lc, err := vm.bind(p.left, l, op.Speculative)
	if err != nil {
		return nil, err
	}
	rc, err := vm.bind(p.right, r, op.Speculative)
	if err != nil {
		return nil, err
	}
	if p.rightFirst && rc.Kind != Absent {
		res, err := vm.attempt(op, rc, op.RSlot, r, l)
		if err != nil || res != vm.NotImplemented {
			return res, err
		}
		rc = Callable{}
	}
	if lc.Kind != Absent {
		res, err := vm.attempt(op, lc, op.Slot, l, r)
		if err != nil || res != vm.NotImplemented {
			return res, err
		}
	}
	if rc.Kind != Absent {
		res, err := vm.attempt(op, rc, op.RSlot, r, l)
		if err != nil || res != vm.NotImplemented {
			return res, err
		}
	}
	return vm.runFallback(p, l, r)
}

// attempt invokes one candidate for recv after checking that recv satisfies
// the candidate's declared owner.
func (vm *VM) attempt(op *Operator, c Callable, s SlotID, recv *Object, args ...*Object) (*Object, error) {
	if c.owner != nil && !recv.typ.IsSubtype(c.owner) {
		return nil, &OwnerTypeMismatchError{Slot: s.Name(), Required: c.owner.Name, Received: recv}
	}
	res, err := vm.invoke(c, recv, args...)
	if vm.tracing() {
		vm.trace(DispatchEvent{Op: op, Slot: s, Receiver: recv, Callable: c, Result: res, Err: err})
	}
	return res, err
}

// finish applies h to a dispatch result that declined.
func (vm *VM) finish(op *Operator, h Handler, res *Object, err error, operands ...*Object) (*Object, error) {
	if err != nil || res != vm.NotImplemented || h == nil {
		return res, err
	}
	return h(vm, op, operands...)
}

// DispatchBinary applies a binary operator without a call site. If every
// candidate declines, the result is h's, or NotImplemented if h is nil.
func (vm *VM) DispatchBinary(op *Operator, l, r *Object, h Handler) (*Object, error) {
	res, err := vm.runBinary(vm.planBinary(op, l.typ, r.typ), l, r)
	return vm.finish(op, h, res, err, l, r)
}

// EvalBinary applies a binary operator with its configured handler.
func (vm *VM) EvalBinary(op *Operator, l, r *Object) (*Object, error) {
	return vm.DispatchBinary(op, l, r, op.Handler)
}

// EvalBinaryRaw applies a binary operator and returns NotImplemented rather
// than calling a handler when every candidate declines.
func (vm *VM) EvalBinaryRaw(op *Operator, l, r *Object) (*Object, error) {
	return vm.DispatchBinary(op, l, r, nil)
}

// Eval applies the operator with the given symbol.
func (vm *VM) Eval(symbol string, l, r *Object) (*Object, error) {
	op := vm.Ops.Lookup(symbol)
	if op == nil {
		return nil, vm.NewException(SyntaxError, "unknown operator %q", symbol)
	}
	return vm.EvalBinary(op, l, r)
}
