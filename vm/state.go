package vm

import (
	"fmt"
	"sort"
)

// Bindings is the variable table. A name gets a slot in locals on its
// first store and keeps it for the life of the VM.
type Bindings struct {
	slots  map[Var]int
	locals []uint64
}

func NewBindings() *Bindings {
	return &Bindings{
		slots: make(map[Var]int),
	}
}

// Put binds name to v, allocating a slot for names not seen before.
func (b *Bindings) Put(name Var, v uint64) {
	if idx, exists := b.slots[name]; exists {
		b.locals[idx] = v
		return
	}
	b.locals = append(b.locals, v)
	b.slots[name] = len(b.locals) - 1
}

func (b *Bindings) Get(name Var) (uint64, error) {
	idx, exists := b.slots[name]
	if !exists {
		return 0, fmt.Errorf("%w: %s", ErrUnboundVariable, name)
	}
	return b.locals[idx], nil
}

// Slot reports the storage index bound to name.
func (b *Bindings) Slot(name Var) (int, bool) {
	idx, exists := b.slots[name]
	return idx, exists
}

// Len is the number of bound names.
func (b *Bindings) Len() int {
	return len(b.slots)
}

// Locals copies the storage slots in allocation order.
func (b *Bindings) Locals() []uint64 {
	out := make([]uint64, len(b.locals))
	copy(out, b.locals)
	return out
}

// Names lists bound names in slot order.
func (b *Bindings) Names() []Var {
	out := make([]Var, 0, len(b.slots))
	for name := range b.slots {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool {
		return b.slots[out[i]] < b.slots[out[j]]
	})
	return out
}
