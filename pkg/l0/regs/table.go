package regs

import (
	"fmt"
	"sort"
)

// Table maps register ids to registers.
// Define is only valid before Seal; everything else is safe for
// concurrent use after Seal.
type Table struct {
	regs   [256]*Register
	ids    []byte
	sealed bool
}

// NewTable creates an empty Table.
func NewTable() *Table {
	return &Table{}
}

// Define adds a register.
func (t *Table) Define(r Register) error {
	if t.sealed {
		return ErrSealed
	}
	if t.regs[r.ID] != nil {
		return fmt.Errorf("%w: 0x%02x", ErrDuplicateID, r.ID)
	}
	if err := validate(&r); err != nil {
		return err
	}
	t.regs[r.ID] = &r
	t.ids = append(t.ids, r.ID)
	sort.Slice(t.ids, func(i, j int) bool { return t.ids[i] < t.ids[j] })
	return nil
}

// MustDefine panics if Define fails. Intended for boot-time tables.
func (t *Table) MustDefine(regs ...Register) *Table {
	for _, r := range regs {
		if err := t.Define(r); err != nil {
			panic(err)
		}
	}
	return t
}

// Seal freezes the table.
func (t *Table) Seal() *Table {
	t.sealed = true
	return t
}

// Lookup finds a register by id.
func (t *Table) Lookup(id byte) (*Register, error) {
	if r := t.regs[id]; r != nil {
		return r, nil
	}
	return nil, ErrUnknownRegister
}

// LookupName finds a register by name.
func (t *Table) LookupName(name string) (*Register, error) {
	for _, id := range t.ids {
		if r := t.regs[id]; r.Name == name {
			return r, nil
		}
	}
	return nil, ErrUnknownRegister
}

// Registers returns all registers ordered by id.
func (t *Table) Registers() []*Register {
	regs := make([]*Register, len(t.ids))
	for n, id := range t.ids {
		regs[n] = t.regs[id]
	}
	return regs
}

// Read copies the register value into dst, which must hold Size() bytes.
func (t *Table) Read(id byte, dst []byte) (int, error) {
	r, err := t.Lookup(id)
	if err != nil {
		return 0, err
	}
	if !r.Access.CanRead() || r.Cell == nil {
		return 0, ErrAccessDenied
	}
	if len(dst) < r.Size() {
		return 0, ErrBadLength
	}
	return r.Cell.ReadInto(dst[:r.Size()])
}

// Write validates and stores payload. Nothing is stored on error.
func (t *Table) Write(id byte, payload []byte) error {
	r, err := t.Lookup(id)
	if err != nil {
		return err
	}
	if !r.Access.CanWrite() || r.Cell == nil {
		return ErrAccessDenied
	}
	if err = r.CheckLength(len(payload)); err != nil {
		return err
	}
	if r.Validate != nil {
		if err = r.Validate(payload); err != nil {
			return fmt.Errorf("%w: %v", ErrRejected, err)
		}
	}
	if err = r.Cell.Commit(payload); err != nil {
		return ErrBadLength
	}
	if r.OnWrite != nil {
		r.OnWrite(payload)
	}
	return nil
}

// Fire invokes the register trigger, writing the result into dst.
func (t *Table) Fire(id byte, dst []byte) (int, error) {
	r, err := t.Lookup(id)
	if err != nil {
		return 0, err
	}
	if r.Trigger == nil {
		return 0, ErrAccessDenied
	}
	if len(dst) > r.Size() {
		dst = dst[:r.Size()]
	}
	n := r.Trigger.Fire(dst)
	if n < 0 || n > len(dst) {
		return 0, ErrBadLength
	}
	return n, nil
}

// CheckLength validates a write payload length.
func (r *Register) CheckLength(n int) error {
	if sz := r.Type.Size(); sz > 0 {
		if n != sz {
			return ErrBadLength
		}
		return nil
	}
	if n > r.MaxSize {
		return ErrBadLength
	}
	return nil
}

func validate(r *Register) error {
	switch r.Type {
	case TypeUint8, TypeUint16, TypeInt16, TypeFloat:
		if r.MaxSize != 0 && r.MaxSize != r.Type.Size() {
			return fmt.Errorf("%w: %s size %d", ErrBadDefinition, r.Name, r.MaxSize)
		}
	case TypeBytes:
		if r.MaxSize <= 0 || r.MaxSize > MaxSize {
			return fmt.Errorf("%w: %s size %d", ErrBadDefinition, r.Name, r.MaxSize)
		}
	default:
		return fmt.Errorf("%w: %s type %v", ErrBadDefinition, r.Name, r.Type)
	}
	if r.Cell != nil && r.Cell.Cap() < r.Size() {
		return fmt.Errorf("%w: %s cell too small", ErrBadDefinition, r.Name)
	}
	return nil
}
