package regs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/miniboard/pkg/l0/store"
)

func newBoundTable(t *testing.T) (*Table, *store.Store) {
	s := store.New()
	tbl, err := Bind(s)
	require.NoError(t, err)
	return tbl, s
}

func TestDefine(t *testing.T) {
	tbl := NewTable()
	require.NoError(t, tbl.Define(Register{ID: 1, Name: "a", Type: TypeUint8, Access: ReadOnly}))

	err := tbl.Define(Register{ID: 1, Name: "b", Type: TypeUint16, Access: ReadOnly})
	require.True(t, errors.Is(err, ErrDuplicateID))

	err = tbl.Define(Register{ID: 2, Name: "c", Type: TypeBytes, Access: ReadOnly})
	require.True(t, errors.Is(err, ErrBadDefinition))

	err = tbl.Define(Register{ID: 3, Name: "d", Type: TypeUint16, MaxSize: 4})
	require.True(t, errors.Is(err, ErrBadDefinition))

	err = tbl.Define(Register{ID: 4, Name: "e", Type: TypeFloat, Cell: store.NewCell("e", 2)})
	require.True(t, errors.Is(err, ErrBadDefinition))

	err = tbl.Define(Register{ID: 6, Name: "g", Type: TypeBytes, MaxSize: MaxSize + 1})
	require.True(t, errors.Is(err, ErrBadDefinition))
	require.NoError(t, tbl.Define(Register{ID: 7, Name: "h", Type: TypeBytes, MaxSize: MaxSize}))

	tbl.Seal()
	require.Equal(t, ErrSealed, tbl.Define(Register{ID: 5, Name: "f", Type: TypeUint8}))

	r, err := tbl.Lookup(1)
	require.NoError(t, err)
	require.Equal(t, "a", r.Name)
	_, err = tbl.Lookup(2)
	require.Equal(t, ErrUnknownRegister, err)
}

func TestLayoutUnique(t *testing.T) {
	tbl := LayoutTable()
	regs := tbl.Registers()
	require.Len(t, regs, len(Layout()))
	for n := 1; n < len(regs); n++ {
		require.True(t, regs[n-1].ID < regs[n].ID)
	}
	r, err := tbl.LookupName("build_info")
	require.NoError(t, err)
	require.Equal(t, IDBuildInfo, r.ID)
	require.Equal(t, store.BuildInfoSize, r.Size())
}

func TestReadWrite(t *testing.T) {
	tbl, s := newBoundTable(t)
	tbl.Seal()
	var buf [64]byte

	require.NoError(t, s.BatteryVoltage.SetUint16(7400))
	n, err := tbl.Read(IDBatteryVoltage, buf[:])
	require.NoError(t, err)
	require.Equal(t, []byte{0xe8, 0x1c}, buf[:n])

	_, err = tbl.Read(0x7f, buf[:])
	require.Equal(t, ErrUnknownRegister, err)
	_, err = tbl.Read(IDEStop, buf[:])
	require.Equal(t, ErrAccessDenied, err)
	_, err = tbl.Read(IDBatteryVoltage, buf[:1])
	require.Equal(t, ErrBadLength, err)

	require.Equal(t, ErrAccessDenied, tbl.Write(IDBatteryVoltage, []byte{0, 0}))
	require.Equal(t, uint16(7400), s.BatteryVoltage.Uint16())
	require.Equal(t, ErrUnknownRegister, tbl.Write(0x7f, []byte{0}))
	require.Equal(t, ErrBadLength, tbl.Write(IDMotorLeft, []byte{1}))
	require.Equal(t, ErrBadLength, tbl.Write(IDCallsign, make([]byte, store.CallsignSize+1)))
	require.Equal(t, int16(0), s.MotorLeft.Int16())

	require.NoError(t, tbl.Write(IDEStop, []byte{1}))
	require.Equal(t, uint8(1), s.EStop.Uint8())
}

func TestWriteThenRead(t *testing.T) {
	tbl, _ := newBoundTable(t)
	tbl.Seal()
	var buf [64]byte
	for _, r := range tbl.Registers() {
		if !r.Access.CanWrite() || !r.Access.CanRead() {
			continue
		}
		for _, size := range []int{0, 1, r.Size()} {
			if r.CheckLength(size) != nil {
				continue
			}
			val := make([]byte, size)
			for n := range val {
				val[n] = byte(0x41 + n)
			}
			require.NoError(t, tbl.Write(r.ID, val), r.Name)
			n, err := tbl.Read(r.ID, buf[:])
			require.NoError(t, err, r.Name)
			require.Equal(t, val, buf[:n], r.Name)
		}
	}
}

func TestFireAndHooks(t *testing.T) {
	tbl, _ := newBoundTable(t)
	var written []byte
	require.NoError(t, tbl.Attach(IDBuildInfo, TriggerFunc(func(dst []byte) int {
		return copy(dst, "build-1")
	}), nil))
	require.NoError(t, tbl.Attach(IDCallsign, nil, func(v []byte) {
		written = append([]byte(nil), v...)
	}))
	require.Equal(t, ErrUnknownRegister, tbl.Attach(0x7f, nil, nil))
	tbl.Seal()
	require.Equal(t, ErrSealed, tbl.Attach(IDBuildInfo, nil, nil))

	var buf [64]byte
	n, err := tbl.Fire(IDBuildInfo, buf[:])
	require.NoError(t, err)
	require.Equal(t, "build-1", string(buf[:n]))

	_, err = tbl.Fire(IDBatteryVoltage, buf[:])
	require.Equal(t, ErrAccessDenied, err)
	_, err = tbl.Fire(0x7f, buf[:])
	require.Equal(t, ErrUnknownRegister, err)

	require.NoError(t, tbl.Write(IDCallsign, []byte("KK7ABC")))
	require.Equal(t, []byte("KK7ABC"), written)
}

func TestValidateBeforeCommit(t *testing.T) {
	tbl, s := newBoundTable(t)
	var hooked int
	require.NoError(t, tbl.Attach(IDCallsign, nil, func([]byte) { hooked++ }))
	require.NoError(t, tbl.AttachValidator(IDCallsign, func(v []byte) error {
		if len(v) > 6 {
			return errors.New("too long")
		}
		return nil
	}))
	require.Equal(t, ErrUnknownRegister, tbl.AttachValidator(0x7f, nil))
	tbl.Seal()
	require.Equal(t, ErrSealed, tbl.AttachValidator(IDCallsign, nil))

	require.NoError(t, tbl.Write(IDCallsign, []byte("N0CALL")))
	err := tbl.Write(IDCallsign, []byte("TOOLONGCALL"))
	require.ErrorIs(t, err, ErrRejected)
	require.ErrorIs(t, err, ErrAccessDenied)
	require.Equal(t, []byte("N0CALL"), s.Callsign.Bytes())
	require.Equal(t, 1, hooked)
}

func TestValueCodec(t *testing.T) {
	testCases := []struct {
		typ  Type
		text string
		enc  []byte
		out  string
	}{
		{TypeUint8, "7", []byte{7}, "7"},
		{TypeUint16, "7400", []byte{0xe8, 0x1c}, "7400"},
		{TypeInt16, "-1", []byte{0xff, 0xff}, "-1"},
		{TypeFloat, "1.5", []byte{0, 0, 0xc0, 0x3f}, "1.5"},
		{TypeBytes, "abc", []byte("abc"), `"abc"`},
	}
	for _, tc := range testCases {
		t.Run(tc.typ.String(), func(t *testing.T) {
			enc, err := tc.typ.Parse(tc.text)
			require.NoError(t, err)
			require.Equal(t, tc.enc, enc)
			require.Equal(t, tc.out, tc.typ.Format(enc))
		})
	}
	_, err := TypeUint8.Parse("256")
	require.Error(t, err)
	_, err = TypeUint16.Decode([]byte{1})
	require.Equal(t, ErrBadLength, err)
}
