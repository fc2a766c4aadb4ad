package internal

import "sort"

// FallbackKind selects the sequence protocol an operator falls back to once
// its arithmetic candidates decline.
type FallbackKind uint8

const (
	NoFallback FallbackKind = iota
	// RepeatFallback treats one operand as a sequence and the other as a
	// repetition count.
	RepeatFallback
	// ConcatFallback concatenates the right operand onto the left.
	ConcatFallback
)

func (k FallbackKind) String() string {
	switch k {
	case RepeatFallback:
		return "repeat"
	case ConcatFallback:
		return "concat"
	}
	return "none"
}

// Operator describes how one operator is dispatched. Operators are created
// from configuration when a VM starts and never change afterward.
type Operator struct {
	// Symbol is the operator as written, e.g. "+", or a name like "divmod".
	Symbol string
	// Display is the name used in error messages.
	Display string
	// Slot and RSlot are the forward and reflected slots. ISlot is the
	// in-place slot, or NoSlot.
	Slot, RSlot, ISlot SlotID
	// Ternary is set for operators that accept a third operand.
	Ternary bool
	// AlwaysReverse keeps the reflected candidate even when the operand types
	// are the same or the candidates are the same implementation.
	AlwaysReverse bool
	// Speculative downgrades descriptor binding failures to absence.
	Speculative bool
	// Fallback is the sequence protocol tried after arithmetic candidates.
	Fallback FallbackKind
	// Handler decides the result when every candidate declines. A nil
	// Handler returns NotImplemented.
	Handler Handler

	handler string
}

// HandlerName returns the configured name of the operator's handler.
func (op *Operator) HandlerName() string {
	return op.handler
}

func (op *Operator) String() string {
	return op.Symbol
}

// OperatorTable is an immutable set of operators indexed by symbol.
type OperatorTable struct {
	ops      []*Operator
	bySymbol map[string]*Operator
}

// Lookup returns the operator with the given symbol, or nil.
func (t *OperatorTable) Lookup(symbol string) *Operator {
	return t.bySymbol[symbol]
}

// All returns the operators in configuration order.
func (t *OperatorTable) All() []*Operator {
	return append([]*Operator(nil), t.ops...)
}

// Symbols returns the sorted operator symbols.
func (t *OperatorTable) Symbols() []string {
	s := make([]string, 0, len(t.ops))
	for _, op := range t.ops {
		s = append(s, op.Symbol)
	}
	sort.Strings(s)
	return s
}
