package formats

import (
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/pkg/errors"
)

// table wraps a FlatBuffers table with slot-indexed accessors.
// Slot n is the n-th field of the schema (vtable offset 4 + 2n).
type table struct {
	t flatbuffers.Table
}

// rootTable returns the root table of a finished buffer.
func rootTable(data []byte) (table, error) {
	if len(data) < flatbuffers.SizeUOffsetT+flatbuffers.SizeSOffsetT {
		return table{}, ErrTruncated
	}
	n := flatbuffers.GetUOffsetT(data)
	if int(n) >= len(data) {
		return table{}, errors.Wrapf(ErrTruncated, "root offset %d beyond %d bytes", n, len(data))
	}
	return table{flatbuffers.Table{Bytes: data, Pos: n}}, nil
}

// parseRoot runs fn over the root table of data. Corrupt offsets make the
// FlatBuffers accessors panic on slice bounds; those are reported as
// ErrTruncated instead of crashing the caller.
func parseRoot[T any](data []byte, kind string, fn func(table) (*T, error)) (res *T, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = errors.Wrapf(ErrTruncated, "%s: %v", kind, r)
		}
	}()

	root, err := rootTable(data)
	if err != nil {
		return nil, errors.Wrap(err, kind)
	}
	return fn(root)
}

func (t table) field(slot int) flatbuffers.UOffsetT {
	return flatbuffers.UOffsetT(t.t.Offset(flatbuffers.VOffsetT(4 + 2*slot)))
}

func (t table) has(slot int) bool {
	return t.field(slot) != 0
}

func (t table) str(slot int) string {
	o := t.field(slot)
	if o == 0 {
		return ""
	}
	return string(t.t.ByteVector(o + t.t.Pos))
}

func (t table) uint8(slot int, def uint8) uint8 {
	if o := t.field(slot); o != 0 {
		return t.t.GetUint8(o + t.t.Pos)
	}
	return def
}

func (t table) bool(slot int, def bool) bool {
	if o := t.field(slot); o != 0 {
		return t.t.GetBool(o + t.t.Pos)
	}
	return def
}

func (t table) uint32(slot int, def uint32) uint32 {
	if o := t.field(slot); o != 0 {
		return t.t.GetUint32(o + t.t.Pos)
	}
	return def
}

func (t table) int32(slot int, def int32) int32 {
	if o := t.field(slot); o != 0 {
		return t.t.GetInt32(o + t.t.Pos)
	}
	return def
}

// sub returns a nested table field.
func (t table) sub(slot int) (table, bool) {
	o := t.field(slot)
	if o == 0 {
		return table{}, false
	}
	return table{flatbuffers.Table{Bytes: t.t.Bytes, Pos: t.t.Indirect(o + t.t.Pos)}}, true
}

// structPos returns the absolute position of an inline struct field.
func (t table) structPos(slot int) (flatbuffers.UOffsetT, bool) {
	o := t.field(slot)
	if o == 0 {
		return 0, false
	}
	return o + t.t.Pos, true
}

// union returns the type tag stored at typeSlot and the table at typeSlot+1.
func (t table) union(typeSlot int) (uint8, table, bool) {
	tag := t.uint8(typeSlot, 0)
	o := t.field(typeSlot + 1)
	if tag == 0 || o == 0 {
		return tag, table{}, false
	}
	var u flatbuffers.Table
	t.t.Union(&u, o)
	return tag, table{u}, true
}

func (t table) vecLen(slot int) int {
	if o := t.field(slot); o != 0 {
		return t.t.VectorLen(o)
	}
	return 0
}

// vecStart returns the absolute position of the first vector element.
func (t table) vecStart(slot int) flatbuffers.UOffsetT {
	return t.t.Vector(t.field(slot))
}

func (t table) vecTable(slot, i int) table {
	x := t.vecStart(slot) + flatbuffers.UOffsetT(i)*flatbuffers.SizeUOffsetT
	return table{flatbuffers.Table{Bytes: t.t.Bytes, Pos: t.t.Indirect(x)}}
}

func (t table) vecTables(slot int) []table {
	n := t.vecLen(slot)
	if n == 0 {
		return nil
	}
	out := make([]table, n)
	for i := range out {
		out[i] = t.vecTable(slot, i)
	}
	return out
}

func (t table) vecStrings(slot int) []string {
	n := t.vecLen(slot)
	if n == 0 {
		return nil
	}
	start := t.vecStart(slot)
	out := make([]string, n)
	for i := range out {
		x := start + flatbuffers.UOffsetT(i)*flatbuffers.SizeUOffsetT
		out[i] = string(t.t.ByteVector(x))
	}
	return out
}

// bytes returns a [ubyte] field. The slice aliases the input buffer.
func (t table) bytes(slot int) []byte {
	o := t.field(slot)
	if o == 0 {
		return nil
	}
	return t.t.ByteVector(o + t.t.Pos)
}

func (t table) vecUint16(slot int) []uint16 {
	n := t.vecLen(slot)
	if n == 0 {
		return nil
	}
	start := t.vecStart(slot)
	out := make([]uint16, n)
	for i := range out {
		out[i] = t.t.GetUint16(start + flatbuffers.UOffsetT(i*2))
	}
	return out
}

func (t table) vecBool(slot int) []bool {
	raw := t.bytes(slot)
	if raw == nil {
		return nil
	}
	out := make([]bool, len(raw))
	for i, b := range raw {
		out[i] = b != 0
	}
	return out
}

// vecVec3 reads a vector of Vec3 structs (3 x float32, 12 bytes each).
func (t table) vecVec3(slot int) [][3]float32 {
	n := t.vecLen(slot)
	if n == 0 {
		return nil
	}
	start := t.vecStart(slot)
	out := make([][3]float32, n)
	for i := range out {
		out[i] = t.vec3At(start + flatbuffers.UOffsetT(i*12))
	}
	return out
}

// vecPacked reads a vector of PackedQuaternion structs (3 x uint16, 6 bytes each).
func (t table) vecPacked(slot int) [][3]uint16 {
	n := t.vecLen(slot)
	if n == 0 {
		return nil
	}
	start := t.vecStart(slot)
	out := make([][3]uint16, n)
	for i := range out {
		out[i] = t.packedAt(start + flatbuffers.UOffsetT(i*6))
	}
	return out
}

func (t table) vec3At(pos flatbuffers.UOffsetT) [3]float32 {
	return [3]float32{
		t.t.GetFloat32(pos),
		t.t.GetFloat32(pos + 4),
		t.t.GetFloat32(pos + 8),
	}
}

func (t table) packedAt(pos flatbuffers.UOffsetT) [3]uint16 {
	return [3]uint16{
		t.t.GetUint16(pos),
		t.t.GetUint16(pos + 2),
		t.t.GetUint16(pos + 4),
	}
}
