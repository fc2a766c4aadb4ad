package internal

import "math/big"

// planFallback chooses the sequence slot an operator falls back to.
//
// For repetition, the sequence is whichever operand's type has a repeat
// slot, preferring the left. For concatenation, only the left operand can be
// the sequence.
func (vm *VM) planFallback(p *plan, lt, rt *Type) {
	switch p.op.Fallback {
	case RepeatFallback:
		if p.seq = vm.seqSlot(p, lt, SlotRepeat); !p.seq.present() {
			p.seq = vm.seqSlot(p, rt, SlotRepeat)
			p.seqRight = p.seq.present()
		}
	case ConcatFallback:
		p.seq = vm.seqSlot(p, lt, SlotConcat)
	}
}

// seqSlot looks up a sequence slot on t. Only builtin implementations
// declared by a sequence type fill sequence slots, so a user-defined __add__
// or __mul__ is an arithmetic slot alone. An implementation that the plan
// already tries as an arithmetic candidate is not tried again.
func (vm *VM) seqSlot(p *plan, t *Type, s SlotID) slotRef {
	r := vm.lookupSlot(t, s)
	if r.owner == nil || !r.owner.Caps().Has(s.Group()) || r.same(p.left) || r.same(p.right) {
		return slotRef{slot: s}
	}
	return r
}

// runFallback invokes the sequence slot of a plan as seq(sequence, other),
// regardless of which side the sequence was on.
func (vm *VM) runFallback(p *plan, l, r *Object) (*Object, error) {
	if !p.seq.present() {
		return vm.NotImplemented, nil
	}
	seq, other := l, r
	if p.seqRight {
		seq, other = r, l
	}
	c, err := vm.bind(p.seq, seq, p.op.Speculative)
	if err != nil {
		return nil, err
	}
	if c.Kind == Absent {
		return vm.NotImplemented, nil
	}
	return vm.attempt(p.op, c, p.seq.slot, seq, other)
}

// maxRepeat is the largest number of elements a repetition may produce.
const maxRepeat = 1 << 28

// repeatCount converts the count operand of a repetition. Counts below zero
// produce empty sequences.
func repeatCount(vm *VM, seqLen int, count *Object) (int, error) {
	n, ok := count.Value.(*big.Int)
	if !ok {
		return 0, vm.NewException(TypeError, "can't multiply sequence by non-int of type '%s'", count.typ.Name)
	}
	if !n.IsInt64() {
		if n.Sign() < 0 {
			return 0, nil
		}
		return 0, vm.NewException(OverflowError, "cannot fit 'int' into an index-sized integer")
	}
	k := n.Int64()
	if k <= 0 || seqLen == 0 {
		return 0, nil
	}
	if k > maxRepeat/int64(seqLen) {
		return 0, vm.NewException(MemoryError, "repeated sequence is too long")
	}
	return int(k), nil
}
