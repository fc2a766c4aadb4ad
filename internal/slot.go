package internal

// SlotID identifies an operator slot: the conventional special method tied to
// one role of an operator, such as Multiply or ReflectedMultiply.
type SlotID uint8

// Slot identifiers. The table is fixed at build time.
const (
	NoSlot SlotID = iota

	SlotAdd
	SlotRAdd
	SlotSub
	SlotRSub
	SlotMul
	SlotRMul
	SlotMatMul
	SlotRMatMul
	SlotTrueDiv
	SlotRTrueDiv
	SlotFloorDiv
	SlotRFloorDiv
	SlotMod
	SlotRMod
	SlotDivmod
	SlotRDivmod
	SlotPow
	SlotRPow
	SlotLShift
	SlotRLShift
	SlotRShift
	SlotRRShift
	SlotAnd
	SlotRAnd
	SlotXor
	SlotRXor
	SlotOr
	SlotROr

	SlotEq
	SlotNe
	SlotLt
	SlotLe
	SlotGt
	SlotGe

	SlotIAdd
	SlotISub
	SlotIMul
	SlotIMatMul
	SlotITrueDiv
	SlotIFloorDiv
	SlotIMod
	SlotIPow
	SlotILShift
	SlotIRShift
	SlotIAnd
	SlotIXor
	SlotIOr

	// SlotConcat and SlotRepeat are the sequence protocol. They share method
	// names with SlotAdd and SlotMul but belong to different capability
	// groups, so a type participates in one protocol without the other.
	SlotConcat
	SlotRepeat

	SlotNeg
	SlotGet
	SlotCall
	SlotRepr
	SlotLen

	slotCount
)

// Capability is a bitmask of slot groups a type participates in. A slot whose
// group bit is clear on a type is absent from that type without a lookup.
type Capability uint32

// Capability groups.
const (
	CapAdd Capability = 1 << iota
	CapSub
	CapMul
	CapMatMul
	CapTrueDiv
	CapFloorDiv
	CapMod
	CapDivmod
	CapPow
	CapLShift
	CapRShift
	CapAnd
	CapXor
	CapOr
	CapConcat
	CapRepeat
)

// Has reports whether all bits of g are set in c. The zero group is always
// present.
func (c Capability) Has(g Capability) bool {
	return c&g == g
}

type slotInfo struct {
	name  string
	group Capability
}

var slotTable = [slotCount]slotInfo{
	NoSlot: {"", 0},

	SlotAdd:       {"__add__", CapAdd},
	SlotRAdd:      {"__radd__", CapAdd},
	SlotSub:       {"__sub__", CapSub},
	SlotRSub:      {"__rsub__", CapSub},
	SlotMul:       {"__mul__", CapMul},
	SlotRMul:      {"__rmul__", CapMul},
	SlotMatMul:    {"__matmul__", CapMatMul},
	SlotRMatMul:   {"__rmatmul__", CapMatMul},
	SlotTrueDiv:   {"__truediv__", CapTrueDiv},
	SlotRTrueDiv:  {"__rtruediv__", CapTrueDiv},
	SlotFloorDiv:  {"__floordiv__", CapFloorDiv},
	SlotRFloorDiv: {"__rfloordiv__", CapFloorDiv},
	SlotMod:       {"__mod__", CapMod},
	SlotRMod:      {"__rmod__", CapMod},
	SlotDivmod:    {"__divmod__", CapDivmod},
	SlotRDivmod:   {"__rdivmod__", CapDivmod},
	SlotPow:       {"__pow__", CapPow},
	SlotRPow:      {"__rpow__", CapPow},
	SlotLShift:    {"__lshift__", CapLShift},
	SlotRLShift:   {"__rlshift__", CapLShift},
	SlotRShift:    {"__rshift__", CapRShift},
	SlotRRShift:   {"__rrshift__", CapRShift},
	SlotAnd:       {"__and__", CapAnd},
	SlotRAnd:      {"__rand__", CapAnd},
	SlotXor:       {"__xor__", CapXor},
	SlotRXor:      {"__rxor__", CapXor},
	SlotOr:        {"__or__", CapOr},
	SlotROr:       {"__ror__", CapOr},

	SlotEq: {"__eq__", 0},
	SlotNe: {"__ne__", 0},
	SlotLt: {"__lt__", 0},
	SlotLe: {"__le__", 0},
	SlotGt: {"__gt__", 0},
	SlotGe: {"__ge__", 0},

	SlotIAdd:      {"__iadd__", 0},
	SlotISub:      {"__isub__", 0},
	SlotIMul:      {"__imul__", 0},
	SlotIMatMul:   {"__imatmul__", 0},
	SlotITrueDiv:  {"__itruediv__", 0},
	SlotIFloorDiv: {"__ifloordiv__", 0},
	SlotIMod:      {"__imod__", 0},
	SlotIPow:      {"__ipow__", 0},
	SlotILShift:   {"__ilshift__", 0},
	SlotIRShift:   {"__irshift__", 0},
	SlotIAnd:      {"__iand__", 0},
	SlotIXor:      {"__ixor__", 0},
	SlotIOr:       {"__ior__", 0},

	SlotConcat: {"__add__", CapConcat},
	SlotRepeat: {"__mul__", CapRepeat},

	SlotNeg:  {"__neg__", 0},
	SlotGet:  {"__get__", 0},
	SlotCall: {"__call__", 0},
	SlotRepr: {"__repr__", 0},
	SlotLen:  {"__len__", 0},
}

// Name returns the conventional method name of the slot.
func (s SlotID) Name() string {
	return slotTable[s].name
}

// Group returns the capability group of the slot, or 0 if the slot is looked
// up on every type.
func (s SlotID) Group() Capability {
	return slotTable[s].group
}

func (s SlotID) String() string {
	if s == NoSlot {
		return "<no slot>"
	}
	return s.Name()
}

// slotByName maps the method names that may appear in operator configuration
// to their slots. The sequence slots are reachable only through fallbacks.
var slotByName map[string]SlotID

// heapGroups maps special method names to the capability group a heap type
// gains by defining them.
var heapGroups map[string]Capability

func init() {
	slotByName = make(map[string]SlotID, slotCount)
	heapGroups = make(map[string]Capability, slotCount)
	for s := SlotAdd; s < SlotConcat; s++ {
		info := slotTable[s]
		slotByName[info.name] = s
		if info.group != 0 {
			heapGroups[info.name] |= info.group
		}
	}
}

// SlotNamed returns the slot for a method name that can be configured on an
// operator.
func SlotNamed(name string) (SlotID, bool) {
	s, ok := slotByName[name]
	return s, ok
}
