package internal

/*
This file contains the attribute dictionary shared by types and instances.
Every operator evaluation walks some method-resolution order and probes the
dictionary of each type on it, and many threads do so at once while almost
nobody writes. The dictionary is therefore a grow-only trie whose readers never
take a lock; writers publish new edges with compare-and-swap.

If you need to debug this, the most likely symptom of a broken writer is a
slot that "sometimes" goes missing during type creation: a lost edge means the
leaf is unreachable, so Lookup walks past the type as if it did not define the
method at all, and dispatch falls through to the reflected side or to
UnsupportedOperands.
*/

import (
	"math/bits"
	"sync/atomic"
)

// dict is a synchronized trie mapping attribute names to values.
//
// The trie is grow-only. A nil leaf indicates a name that has never been
// stored; an entry holding nil indicates a deleted attribute.
type dict struct {
	root atomic.Pointer[dictBranch]
}

// dictEntry is the leaf value for a single name.
type dictEntry struct {
	v atomic.Pointer[Object]
}

// dictBranch holds a level of the trie.
type dictBranch struct {
	// leaf is the entry for the string ending at this node.
	leaf atomic.Pointer[dictEntry]

	// scut is a read-only shortcut to the leaf that justified creating this
	// branch, if there is one. scutName is the remainder of the name from
	// this node's parent edge.
	scut     *dictEntry
	scutName string

	// rec is the first dictRecord, held by value to save an indirection on
	// each lookup.
	rec dictRecord

	// hasZero is set once this branch has an edge for the zero byte. Readers
	// that see it set must spin until zero is non-nil.
	hasZero atomic.Uint32
	zero    atomic.Pointer[dictBranch]
}

// dictRecord is one piece of a trie level. mask holds the edge bytes of its
// children, one per byte; a zero byte is an unused edge.
type dictRecord struct {
	mask     atomic.Uintptr
	children [recordChildren]atomic.Pointer[dictBranch]
	sibling  atomic.Pointer[dictRecord]
}

// recordChildren is the number of children in a single dictRecord, i.e. the
// size of uintptr in bytes.
const recordChildren = 4 << (^uintptr(0) >> 32 & 1)

// recordPop has the first bit in each byte set and all others clear.
const recordPop = ^uintptr(0) / 0xff

// recordFull is the smallest mask value whose top byte is in use.
const recordFull = 1 << (recordChildren*8 - 8)

// matchEdge returns the index of the byte in mask equal to c, or -1.
func matchEdge(mask uintptr, c byte) int {
	// From https://graphics.stanford.edu/~seander/bithacks.html
	// v has a zero byte iff that byte in mask is equal to c. After
	// subtracting recordPop, the high bit of each byte in v is set iff the
	// byte either was 0 or was greater than 0x80; clearing the bits that were
	// set in v eliminates the latter.
	v := mask ^ uintptr(c)*recordPop
	v = (v - recordPop) &^ v & (recordPop << 7)
	if v == 0 {
		return -1
	}
	return bits.TrailingZeros64(uint64(v)) / 8
}

// freeEdge returns the index of the first unused byte in mask. mask must be
// less than recordFull.
func freeEdge(mask uintptr) int {
	v := (mask - recordPop) &^ mask & (recordPop << 7)
	return bits.TrailingZeros64(uint64(v)) / 8
}

// spin loads p until it is non-nil. An edge can be visible before the node
// behind it is stored.
func spin(p *atomic.Pointer[dictBranch]) *dictBranch {
	n := p.Load()
	for n == nil {
		n = p.Load()
	}
	return n
}

// entry finds the entry for name, or returns nil if the name was never
// stored.
func (d *dict) entry(name string) *dictEntry {
	branch := d.root.Load()
	if branch == nil {
		return nil
	}
	// Iterate by byte, not by rune.
	for i := 0; i < len(name); i++ {
		if branch.scut != nil && branch.scutName == name[i:] {
			return branch.scut
		}
		c := name[i]
		if c == 0 {
			if branch.hasZero.Load() == 0 {
				return nil
			}
			branch = spin(&branch.zero)
			continue
		}
		cur := &branch.rec
		for {
			k := matchEdge(cur.mask.Load(), c)
			if k < 0 {
				cur = cur.sibling.Load()
				if cur == nil {
					return nil
				}
				continue
			}
			branch = spin(&cur.children[k])
			break
		}
	}
	return branch.leaf.Load()
}

// load returns the value stored for name, or nil.
func (d *dict) load(name string) *Object {
	e := d.entry(name)
	if e == nil {
		return nil
	}
	return e.v.Load()
}

// store sets the value for name. Storing nil deletes it.
func (d *dict) store(name string, value *Object) {
	d.open(name).v.Store(value)
}

// open finds the entry for name, creating it and any missing part of its
// branch.
func (d *dict) open(name string) *dictEntry {
	branch := d.root.Load()
	if branch == nil {
		// Whoever gets there first wins.
		d.root.CompareAndSwap(nil, &dictBranch{})
		branch = d.root.Load()
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == 0 {
			if !branch.hasZero.CompareAndSwap(0, 1) {
				branch = spin(&branch.zero)
				continue
			}
			node, leaf := newBranch(name[i+1:])
			branch.zero.Store(node)
			return leaf
		}
		cur := &branch.rec
		for {
			cm := cur.mask.Load()
			k := matchEdge(cm, c)
			if k >= 0 {
				branch = spin(&cur.children[k])
				break
			}
			if cm < recordFull {
				// There was room in this record when we loaded its mask.
				// Reserve the edge, then build the rest of the branch.
				k = freeEdge(cm)
				if cur.mask.CompareAndSwap(cm, cm|uintptr(c)<<(k*8)) {
					node, leaf := newBranch(name[i+1:])
					cur.children[k].Store(node)
					return leaf
				}
				// Someone else added an edge, possibly ours. Retry.
				continue
			}
			next := cur.sibling.Load()
			if next == nil {
				cur.sibling.CompareAndSwap(nil, &dictRecord{})
				next = cur.sibling.Load()
			}
			cur = next
		}
	}
	e := branch.leaf.Load()
	if e == nil {
		// The node existed as a prefix of a longer name.
		branch.leaf.CompareAndSwap(nil, &dictEntry{})
		e = branch.leaf.Load()
	}
	return e
}

// newBranch allocates an entire new branch of the trie for the remaining
// bytes of a name.
func newBranch(rest string) (trunk *dictBranch, leaf *dictEntry) {
	b := make([]dictBranch, len(rest)+1)
	trunk = &b[0]
	cur := trunk
	for i := 0; i < len(rest); i++ {
		if rest[i] == 0 {
			cur.zero.Store(&b[i+1])
			cur.hasZero.Store(1)
		} else {
			cur.rec.mask.Store(uintptr(rest[i]))
			cur.rec.children[0].Store(&b[i+1])
		}
		cur = &b[i+1]
	}
	leaf = &dictEntry{}
	cur.leaf.Store(leaf)
	if len(rest) > 1 {
		// Only create shortcuts that actually skip nodes.
		trunk.scut = leaf
		trunk.scutName = rest
	}
	return trunk, leaf
}

// foreach calls exec for each live name in the dictionary until it returns
// false. Order is unspecified.
func (d *dict) foreach(exec func(name string, value *Object) bool) {
	root := d.root.Load()
	if root == nil {
		return
	}
	root.foreachIter(exec, nil)
}

// foreachIter visits a single depth of the trie. It returns nil once exec
// asks to stop.
func (r *dictBranch) foreachIter(exec func(name string, value *Object) bool, b []byte) []byte {
	if e := r.leaf.Load(); e != nil {
		if v := e.v.Load(); v != nil {
			if !exec(string(b), v) {
				return nil
			}
		}
	}
	if r.hasZero.Load() != 0 {
		b = spin(&r.zero).foreachIter(exec, append(b, 0))
		if b == nil {
			return nil
		}
		b = b[:len(b)-1]
	}
	for cur := &r.rec; cur != nil; cur = cur.sibling.Load() {
		cm := cur.mask.Load()
		for k := 0; k < recordChildren; k++ {
			c := byte(cm >> (k * 8))
			if c == 0 {
				return b
			}
			b = spin(&cur.children[k]).foreachIter(exec, append(b, c))
			if b == nil {
				return nil
			}
			b = b[:len(b)-1]
		}
	}
	return b
}
