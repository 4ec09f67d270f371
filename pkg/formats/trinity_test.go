package formats_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/Faultbox/trinity-viewer/pkg/formats"
	"github.com/Faultbox/trinity-viewer/pkg/formats/formatstest"
)

func TestParseModel(t *testing.T) {
	want := formats.ModelFile{
		Meshes:    []string{"pm0001_00_00.trmsh", "pm0001_00_00_eye.trmsh"},
		Skeleton:  "pm0001_00_00.trskl",
		Materials: []string{"pm0001_00_00.trmtr"},
		Variants:  "pm0001_00_00.trmmt",
	}

	got, err := formats.ParseModel(formatstest.Model(want))
	if err != nil {
		t.Fatalf("ParseModel() error = %v", err)
	}
	if !reflect.DeepEqual(*got, want) {
		t.Errorf("ParseModel() = %+v, want %+v", *got, want)
	}
}

func TestParseModel_OptionalFields(t *testing.T) {
	got, err := formats.ParseModel(formatstest.Model(formats.ModelFile{
		Meshes: []string{"body.trmsh"},
	}))
	if err != nil {
		t.Fatalf("ParseModel() error = %v", err)
	}
	if got.Skeleton != "" || got.Variants != "" || got.Materials != nil {
		t.Errorf("expected empty optional fields, got %+v", *got)
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short", []byte{1, 2, 3}},
		{"root beyond end", []byte{200, 0, 0, 0, 0, 0, 0, 0}},
		{"vtable beyond end", []byte{4, 0, 0, 0, 0, 0, 0, 0x80}},
	}

	parsers := map[string]func([]byte) error{
		"model":      func(d []byte) error { _, err := formats.ParseModel(d); return err },
		"mesh shape": func(d []byte) error { _, err := formats.ParseMeshShape(d); return err },
		"buffer":     func(d []byte) error { _, err := formats.ParseMeshBuffer(d); return err },
		"skeleton":   func(d []byte) error { _, err := formats.ParseSkeleton(d); return err },
		"animation":  func(d []byte) error { _, err := formats.ParseAnimation(d); return err },
		"visibility": func(d []byte) error { _, err := formats.ParseVisibility(d); return err },
		"material":   func(d []byte) error { _, err := formats.ParseMaterial(d); return err },
		"mapping":    func(d []byte) error { _, err := formats.ParseMaterialMapping(d); return err },
	}

	for _, tt := range tests {
		for kind, parse := range parsers {
			t.Run(tt.name+"/"+kind, func(t *testing.T) {
				err := parse(tt.data)
				if !errors.Is(err, formats.ErrTruncated) {
					t.Errorf("expected ErrTruncated, got %v", err)
				}
			})
		}
	}
}

func TestParseMeshShape(t *testing.T) {
	want := formats.MeshShapeFile{
		BufferFile: "pm0001_00_00.trmbf",
		Shapes: []formats.MeshShape{
			{
				Name:       "body",
				MeshName:   "pm0001_00_00/body",
				Bounds:     formats.BoundingBox{Min: [3]float32{-1, 0, -1}, Max: [3]float32{1, 2, 1}},
				IndexWidth: formats.IndexUint16,
				Accessors: []formats.VertexAccessors{
					{
						Stride: 28,
						Attributes: []formats.VertexAttribute{
							{Kind: formats.AttributePosition, Format: formats.FormatRGB32Float},
							{Kind: formats.AttributeNormal, Format: formats.FormatRGBA16Float, Offset: 12},
							{Kind: formats.AttributeTexCoord, Layer: 1, Format: formats.FormatRG32Float, Offset: 20},
						},
					},
				},
				Materials: []formats.MaterialInfo{
					{PolygonCount: 36, PolygonOffset: 0, MaterialName: "body_mat"},
					{PolygonCount: 12, PolygonOffset: 36, MaterialName: "eye_mat"},
				},
			},
		},
	}

	got, err := formats.ParseMeshShape(formatstest.MeshShape(want))
	if err != nil {
		t.Fatalf("ParseMeshShape() error = %v", err)
	}
	if !reflect.DeepEqual(*got, want) {
		t.Errorf("ParseMeshShape() =\n%+v\nwant\n%+v", *got, want)
	}
}

func TestParseMeshBuffer(t *testing.T) {
	idx := formatstest.Uint16s(0, 1, 2)
	vtx := formatstest.Float32s(0, 0, 0, 1, 0, 0, 0, 1, 0)

	f, err := formats.ParseMeshBuffer(formatstest.MeshBuffer(formats.BufferFile{
		Buffers: []formats.MeshBuffer{
			{IndexBuffers: [][]byte{idx}, VertexBuffers: [][]byte{vtx}},
		},
	}))
	if err != nil {
		t.Fatalf("ParseMeshBuffer() error = %v", err)
	}

	mb, err := f.Buffer(0)
	if err != nil {
		t.Fatalf("Buffer(0) error = %v", err)
	}
	if !reflect.DeepEqual(mb.IndexBuffers[0], idx) {
		t.Errorf("index buffer = %v, want %v", mb.IndexBuffers[0], idx)
	}
	if !reflect.DeepEqual(mb.VertexBuffers[0], vtx) {
		t.Errorf("vertex buffer = %v, want %v", mb.VertexBuffers[0], vtx)
	}
	if _, err := f.Buffer(1); err == nil {
		t.Error("expected error for out-of-range buffer")
	}
}

func TestParseSkeleton(t *testing.T) {
	want := formats.SkeletonFile{
		Nodes: []formats.TransformNode{
			{
				Index: 0, Name: "origin", Parent: -1, Rig: -1,
				Transform: formats.Transform{Scale: [3]float32{1, 1, 1}},
			},
			{
				Index: 1, Name: "hips", Parent: 0, Rig: 0,
				Transform: formats.Transform{
					Scale:     [3]float32{1, 1, 1},
					Rotate:    [3]float32{0.1, 0.2, 0.3},
					Translate: [3]float32{0, 1, 0},
				},
			},
			{
				Index: 2, Name: "hat", Parent: 1, Rig: 1, Type: formats.NodeFloating,
				Transform: formats.Transform{Scale: [3]float32{2, 2, 2}},
			},
		},
	}

	got, err := formats.ParseSkeleton(formatstest.Skeleton(want))
	if err != nil {
		t.Fatalf("ParseSkeleton() error = %v", err)
	}
	if !reflect.DeepEqual(*got, want) {
		t.Errorf("ParseSkeleton() =\n%+v\nwant\n%+v", *got, want)
	}
	if n := got.BoneCount(); n != 2 {
		t.Errorf("BoneCount() = %d, want 2", n)
	}
}

func TestParseAnimation(t *testing.T) {
	want := formats.AnimationFile{
		Info: formats.PlaybackInfo{Loop: true, FrameCount: 60, FrameRate: 30},
		Tracks: []formats.BoneTrack{
			{
				Name: "hips",
				Scale: formats.VectorTrack{
					Type:   formats.TrackFixed,
					Values: [][3]float32{{1, 1, 1}},
				},
				Rotate: formats.RotationTrack{
					Type:   formats.TrackFramed16,
					Frames: []uint16{0, 300},
					Values: [][3]uint16{{42, 61442, 62196}, {1, 2, 3}},
				},
				Translate: formats.VectorTrack{
					Type:   formats.TrackDynamic,
					Values: [][3]float32{{0, 1, 0}, {0, 1.5, 0}},
				},
			},
			{
				Name: "tail",
				Rotate: formats.RotationTrack{
					Type:   formats.TrackFixed,
					Values: [][3]uint16{{42, 61442, 62196}},
				},
				Translate: formats.VectorTrack{
					Type:   formats.TrackFramed8,
					Frames: []uint16{0, 10, 59},
					Values: [][3]float32{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}},
				},
			},
		},
	}

	got, err := formats.ParseAnimation(formatstest.Animation(want))
	if err != nil {
		t.Fatalf("ParseAnimation() error = %v", err)
	}
	if !reflect.DeepEqual(*got, want) {
		t.Errorf("ParseAnimation() =\n%+v\nwant\n%+v", *got, want)
	}
}

func TestParseVisibility(t *testing.T) {
	want := formats.VisibilityFile{
		Info: formats.PlaybackInfo{FrameCount: 20, FrameRate: 30},
		Tracks: []formats.VisibilityEntry{
			{
				Mesh: "pm0001_00_00/eye_closed",
				Track: formats.VisibilityTrack{
					Type:   formats.TrackFramed8,
					Frames: []uint16{0, 10},
					Values: []bool{true, false},
				},
			},
			{
				Mesh:  "pm0001_00_00/mouth",
				Track: formats.VisibilityTrack{Type: formats.TrackFixed, Values: []bool{true}},
			},
			{
				Mesh:  "pm0001_00_00/tear",
				Track: formats.VisibilityTrack{Type: formats.TrackDynamic, Values: []bool{false, true, true}},
			},
		},
	}

	got, err := formats.ParseVisibility(formatstest.Visibility(want))
	if err != nil {
		t.Fatalf("ParseVisibility() error = %v", err)
	}
	if !reflect.DeepEqual(*got, want) {
		t.Errorf("ParseVisibility() =\n%+v\nwant\n%+v", *got, want)
	}
}

func TestParseMaterial(t *testing.T) {
	want := formats.MaterialFile{
		Materials: []formats.Material{
			{
				Name:   "body_mat",
				Shader: "Standard",
				Color:  [4]float32{0.5, 0.25, 1, 1},
				Textures: []formats.TextureRef{
					{Name: "BaseColorMap", File: "pm0001_body_alb.bntx"},
					{Name: "NormalMap", File: "pm0001_body_nrm.bntx", Slot: 1},
				},
			},
		},
	}

	got, err := formats.ParseMaterial(formatstest.Material(want))
	if err != nil {
		t.Fatalf("ParseMaterial() error = %v", err)
	}
	if !reflect.DeepEqual(*got, want) {
		t.Errorf("ParseMaterial() =\n%+v\nwant\n%+v", *got, want)
	}

	m := &got.Materials[0]
	if tex := m.Texture("NormalMap"); tex == nil || tex.Slot != 1 {
		t.Errorf("Texture(NormalMap) = %+v", tex)
	}
	if tex := m.Texture("EmissionMap"); tex != nil {
		t.Errorf("Texture(EmissionMap) = %+v, want nil", tex)
	}
}

func TestParseMaterialMapping(t *testing.T) {
	f, err := formats.ParseMaterialMapping(formatstest.MaterialMapping(formats.MaterialMappingFile{
		Variants: []formats.MaterialVariant{
			{Name: "normal", Materials: []string{"pm0001_00_00.trmtr"}},
			{Name: "rare", Materials: []string{"pm0001_00_00_rare.trmtr"}},
		},
	}))
	if err != nil {
		t.Fatalf("ParseMaterialMapping() error = %v", err)
	}

	v := f.Variant("rare")
	if v == nil || v.Materials[0] != "pm0001_00_00_rare.trmtr" {
		t.Errorf("Variant(rare) = %+v", v)
	}
	if f.Variant("shadow") != nil {
		t.Error("Variant(shadow) should be nil")
	}
}

func TestEnumStrings(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{formats.FormatRGBA16Float.String(), "RGBA_16_FLOAT"},
		{formats.VertexFormat(99).String(), "Unknown(99)"},
		{formats.AttributeBlendWeights.String(), "BlendWeights"},
		{formats.IndexUint64.String(), "UINT64"},
		{formats.NodeFloating.String(), "Floating"},
		{formats.TrackFramed8.String(), "Framed8"},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("String() = %q, want %q", tt.got, tt.want)
		}
	}
}
