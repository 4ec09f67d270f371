package vertex

import (
	"encoding/binary"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/Faultbox/trinity-viewer/pkg/formats"
)

func float32Bytes(vals ...float32) []byte {
	out := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

func TestCatalogSizes(t *testing.T) {
	want := map[formats.VertexFormat]int{
		formats.FormatRGBA8Unorm:    4,
		formats.FormatRGBA8Unsigned: 4,
		formats.FormatR32Uint:       4,
		formats.FormatR32Int:        4,
		formats.FormatRGBA16Unorm:   8,
		formats.FormatRGBA16Float:   8,
		formats.FormatRG32Float:     8,
		formats.FormatRGB32Float:    12,
		formats.FormatRGBA32Float:   16,
	}
	for f, size := range want {
		enc, ok := Lookup(f)
		if !ok {
			t.Errorf("%s: not in catalog", f)
			continue
		}
		if enc.Size() != size {
			t.Errorf("%s: Size() = %d, want %d", f, enc.Size(), size)
		}
	}
	if len(Formats()) != len(want) {
		t.Errorf("Formats() has %d entries, want %d", len(Formats()), len(want))
	}
}

func TestDecodeAttribute_Length(t *testing.T) {
	for _, f := range Formats() {
		enc, _ := Lookup(f)
		for _, stride := range []int{0, enc.Size(), enc.Size() + 4, 32} {
			for _, n := range []int{0, 1, 7} {
				step := stride
				if step == 0 {
					step = enc.Size()
				}
				buf := make([]byte, n*step+enc.Size())
				got, err := DecodeAttribute(buf, f, 0, stride, n)
				if err != nil {
					t.Fatalf("%s stride %d count %d: %v", f, stride, n, err)
				}
				if len(got) != n*enc.Components {
					t.Errorf("%s stride %d count %d: len = %d, want %d", f, stride, n, len(got), n*enc.Components)
				}
			}
		}
	}
}

func TestDecodeAttribute_RGB32FloatStride12(t *testing.T) {
	buf := float32Bytes(1, 2, 3, 4, 5, 6)
	got, err := DecodeAttribute(buf, formats.FormatRGB32Float, 0, 12, 2)
	if err != nil {
		t.Fatalf("DecodeAttribute() error = %v", err)
	}
	want := []float32{1, 2, 3, 4, 5, 6}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DecodeAttribute() = %v, want %v", got, want)
	}
}

func TestDecodeAttribute_Interleaved(t *testing.T) {
	// position (3 floats) followed by uv (2 floats), stride 20
	buf := float32Bytes(
		1, 2, 3, 0.25, 0.5,
		4, 5, 6, 0.75, 1,
	)
	pos, err := DecodeAttribute(buf, formats.FormatRGB32Float, 0, 20, 2)
	if err != nil {
		t.Fatal(err)
	}
	uv, err := DecodeAttribute(buf, formats.FormatRG32Float, 12, 20, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(pos, []float32{1, 2, 3, 4, 5, 6}) {
		t.Errorf("positions = %v", pos)
	}
	if !reflect.DeepEqual(uv, []float32{0.25, 0.5, 0.75, 1}) {
		t.Errorf("uvs = %v", uv)
	}
}

func TestDecodeAttribute_Unorm8(t *testing.T) {
	for v := 0; v <= 255; v++ {
		buf := []byte{byte(v), byte(v), byte(v), byte(v)}
		got, err := DecodeAttribute(buf, formats.FormatRGBA8Unorm, 0, 0, 1)
		if err != nil {
			t.Fatal(err)
		}
		want := float32(v) / 255
		if math.Abs(float64(got[0]-want)) > 1e-7 {
			t.Errorf("unorm8 %d = %v, want %v", v, got[0], want)
		}
	}

	got, _ := DecodeAttribute([]byte{0, 255, 0, 255}, formats.FormatRGBA8Unorm, 0, 0, 1)
	if got[0] != 0 || got[1] != 1 {
		t.Errorf("unorm8 endpoints = %v, want 0 and 1", got)
	}
}

func TestDecodeAttribute_RawIntegers(t *testing.T) {
	got, err := DecodeAttribute([]byte{1, 2, 200, 255}, formats.FormatRGBA8Unsigned, 0, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []float32{1, 2, 200, 255}) {
		t.Errorf("unsigned8 = %v", got)
	}

	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf, 70000)
	binary.LittleEndian.PutUint32(buf[4:], uint32(0xFFFFFFFE)) // -2 as int32
	u, _ := DecodeAttribute(buf, formats.FormatR32Uint, 0, 0, 1)
	i, _ := DecodeAttribute(buf, formats.FormatR32Int, 4, 0, 1)
	if u[0] != 70000 {
		t.Errorf("uint32 = %v, want 70000", u[0])
	}
	if i[0] != -2 {
		t.Errorf("int32 = %v, want -2", i[0])
	}

	binary.LittleEndian.PutUint16(buf, 65535)
	binary.LittleEndian.PutUint16(buf[2:], 0)
	n, _ := DecodeAttribute(buf, formats.FormatRGBA16Unorm, 0, 0, 1)
	if n[0] != 1 || n[1] != 0 {
		t.Errorf("unorm16 = %v", n)
	}
}

func TestDecodeAttribute_Float16(t *testing.T) {
	inf := float32(math.Inf(1))
	tests := []struct {
		name string
		bits uint16
		want float32
		nan  bool
	}{
		{"one", 0x3C00, 1, false},
		{"zero", 0x0000, 0, false},
		{"minus two", 0xC000, -2, false},
		{"half", 0x3800, 0.5, false},
		{"smallest subnormal", 0x0001, float32(math.Ldexp(1, -24)), false},
		{"largest subnormal", 0x03FF, float32(1023 * math.Ldexp(1, -24)), false},
		{"max", 0x7BFF, 65504, false},
		{"positive infinity", 0x7C00, inf, false},
		{"negative infinity", 0xFC00, -inf, false},
		{"nan", 0x7E00, 0, true},
		{"signalling nan", 0x7C01, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := make([]byte, 8)
			binary.LittleEndian.PutUint16(buf, tt.bits)
			got, err := DecodeAttribute(buf, formats.FormatRGBA16Float, 0, 0, 1)
			if err != nil {
				t.Fatal(err)
			}
			if tt.nan {
				if !math.IsNaN(float64(got[0])) {
					t.Errorf("0x%04X = %v, want NaN", tt.bits, got[0])
				}
				return
			}
			if got[0] != tt.want {
				t.Errorf("0x%04X = %v, want %v", tt.bits, got[0], tt.want)
			}
		})
	}
}

func TestDecodeAttribute_Unknown(t *testing.T) {
	got, err := DecodeAttribute(nil, formats.VertexFormat(99), 0, 0, 3)
	if err != nil {
		t.Fatalf("unknown format should not fail: %v", err)
	}
	if len(got) != 12 {
		t.Fatalf("len = %d, want 12", len(got))
	}
	for i, v := range got {
		if v != 0 {
			t.Errorf("component %d = %v, want 0", i, v)
		}
	}
}

func TestDecodeAttribute_OutOfBounds(t *testing.T) {
	buf := float32Bytes(1, 2, 3, 4, 5)
	_, err := DecodeAttribute(buf, formats.FormatRGB32Float, 0, 12, 2)
	if !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("expected ErrOutOfBounds, got %v", err)
	}
	_, err = DecodeAttribute(buf, formats.FormatRGB32Float, -4, 0, 1)
	if !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("negative offset: expected ErrOutOfBounds, got %v", err)
	}
}

func TestVertexCount(t *testing.T) {
	acc := formats.VertexAccessors{
		Attributes: []formats.VertexAttribute{
			{Kind: formats.AttributePosition, Format: formats.FormatRGB32Float},
			{Kind: formats.AttributeTexCoord, Format: formats.FormatRG32Float, Offset: 12},
		},
	}
	if s := VertexStride(acc); s != 20 {
		t.Errorf("VertexStride() = %d, want 20", s)
	}
	if n := VertexCount(60, acc); n != 3 {
		t.Errorf("VertexCount() = %d, want 3", n)
	}

	acc.Stride = 32
	if n := VertexCount(64, acc); n != 2 {
		t.Errorf("VertexCount() with stride 32 = %d, want 2", n)
	}
	if n := VertexCount(64, formats.VertexAccessors{}); n != 0 {
		t.Errorf("VertexCount() with no attributes = %d, want 0", n)
	}
}

func TestVec3Components(t *testing.T) {
	four := []float32{1, 0, 0, 1, 0, 1, 0, -1}
	got := Vec3Components(four, 2)
	if !reflect.DeepEqual(got, []float32{1, 0, 0, 0, 1, 0}) {
		t.Errorf("Vec3Components(4-wide) = %v", got)
	}

	three := []float32{1, 0, 0, 0, 1, 0}
	if got := Vec3Components(three, 2); !reflect.DeepEqual(got, three) {
		t.Errorf("Vec3Components(3-wide) = %v", got)
	}
}

func TestComponents(t *testing.T) {
	uv4 := []float32{0.1, 0.2, 9, 9, 0.3, 0.4, 9, 9}
	if got := Components(uv4, 4, 2); !reflect.DeepEqual(got, []float32{0.1, 0.2, 0.3, 0.4}) {
		t.Errorf("Components(4->2) = %v", got)
	}
	rgb := []float32{1, 0.5, 0, 0, 0, 1}
	if got := Components(rgb, 3, 4); !reflect.DeepEqual(got, []float32{1, 0.5, 0, 0, 0, 0, 1, 0}) {
		t.Errorf("Components(3->4) = %v", got)
	}
	if got := Components(rgb, 3, 3); &got[0] != &rgb[0] {
		t.Error("Components with equal widths should not copy")
	}
}

func TestRenormalize(t *testing.T) {
	v := []float32{3, 0, 4, 0, 0, 0, 0, -2, 0}
	Renormalize(v)
	want := []float32{0.6, 0, 0.8, 0, 0, 0, 0, -1, 0}
	for i := range v {
		if math.Abs(float64(v[i]-want[i])) > 1e-6 {
			t.Errorf("Renormalize()[%d] = %v, want %v", i, v[i], want[i])
		}
	}
}

func TestIndexSize(t *testing.T) {
	tests := []struct {
		width formats.IndexWidth
		want  int
	}{
		{formats.IndexUint8, 1},
		{formats.IndexUint16, 2},
		{formats.IndexUint32, 4},
		{formats.IndexUint64, 8},
		{formats.IndexWidth(9), 0},
	}
	for _, tt := range tests {
		if got := IndexSize(tt.width); got != tt.want {
			t.Errorf("IndexSize(%s) = %d, want %d", tt.width, got, tt.want)
		}
	}
}

func TestDecodeIndices(t *testing.T) {
	u64 := make([]byte, 16)
	binary.LittleEndian.PutUint64(u64, 7)
	binary.LittleEndian.PutUint64(u64[8:], 0x1_0000_0005) // high bits dropped

	u16 := make([]byte, 6)
	binary.LittleEndian.PutUint16(u16, 0)
	binary.LittleEndian.PutUint16(u16[2:], 1)
	binary.LittleEndian.PutUint16(u16[4:], 65535)

	u32 := make([]byte, 8)
	binary.LittleEndian.PutUint32(u32, 100000)
	binary.LittleEndian.PutUint32(u32[4:], 2)

	tests := []struct {
		name   string
		buf    []byte
		width  formats.IndexWidth
		offset int
		count  int
		want   []uint32
		wide   bool
	}{
		{"uint8", []byte{9, 0, 1, 2}, formats.IndexUint8, 1, 3, []uint32{0, 1, 2}, false},
		{"uint16", u16, formats.IndexUint16, 0, 3, []uint32{0, 1, 65535}, false},
		{"uint32", u32, formats.IndexUint32, 0, 2, []uint32{100000, 2}, true},
		{"uint64 truncates", u64, formats.IndexUint64, 0, 2, []uint32{7, 5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ix, err := DecodeIndices(tt.buf, tt.width, tt.offset, tt.count)
			if err != nil {
				t.Fatal(err)
			}
			if (ix.U32 != nil) != tt.wide {
				t.Errorf("32-bit storage = %v, want %v", ix.U32 != nil, tt.wide)
			}
			if ix.Len() != tt.count {
				t.Errorf("Len() = %d, want %d", ix.Len(), tt.count)
			}
			if got := ix.Uint32(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("indices = %v, want %v", got, tt.want)
			}
			if ix.At(tt.count-1) != tt.want[tt.count-1] {
				t.Errorf("At(last) = %d", ix.At(tt.count-1))
			}
		})
	}
}

func TestDecodeIndices_UnknownWidth(t *testing.T) {
	ix, err := DecodeIndices([]byte{1, 2, 3, 4}, formats.IndexWidth(7), 0, 2)
	if err != nil {
		t.Fatalf("unknown width should not fail: %v", err)
	}
	if ix.Len() != 0 {
		t.Errorf("Len() = %d, want 0", ix.Len())
	}
}

func TestDecodeIndices_OutOfBounds(t *testing.T) {
	_, err := DecodeIndices([]byte{1, 0, 2}, formats.IndexUint16, 0, 2)
	if !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("expected ErrOutOfBounds, got %v", err)
	}
	if n := IndexCount(7, formats.IndexUint16); n != 3 {
		t.Errorf("IndexCount() = %d, want 3", n)
	}
}
