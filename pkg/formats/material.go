package formats

// TextureRef binds a texture file to a shader sampler slot.
type TextureRef struct {
	Name string // Sampler name, e.g. "BaseColorMap"
	File string
	Slot uint32
}

// Material is one entry of a material file.
type Material struct {
	Name     string
	Shader   string
	Textures []TextureRef
	Color    [4]float32 // RGBA base color; opaque white when absent
}

// Texture returns the texture bound to the given sampler name, or nil.
func (m *Material) Texture(name string) *TextureRef {
	for i := range m.Textures {
		if m.Textures[i].Name == name {
			return &m.Textures[i]
		}
	}
	return nil
}

// MaterialFile is a parsed .trmtr file.
//
//	struct Color { r: float; g: float; b: float; a: float; }
//	table TextureRef { name: string; file: string; slot: uint; }
//	table Material { name: string; shader: string; textures: [TextureRef]; color: Color; }
//	table MaterialFile { materials: [Material]; }
type MaterialFile struct {
	Materials []Material
}

// ParseMaterial parses .trmtr data.
func ParseMaterial(data []byte) (*MaterialFile, error) {
	return parseRoot(data, "material", func(root table) (*MaterialFile, error) {
		f := &MaterialFile{}
		for _, mt := range root.vecTables(0) {
			m := Material{
				Name:   mt.str(0),
				Shader: mt.str(1),
				Color:  [4]float32{1, 1, 1, 1},
			}
			for _, tt := range mt.vecTables(2) {
				m.Textures = append(m.Textures, TextureRef{
					Name: tt.str(0),
					File: tt.str(1),
					Slot: tt.uint32(2, 0),
				})
			}
			if pos, ok := mt.structPos(3); ok {
				rgb := mt.vec3At(pos)
				m.Color = [4]float32{rgb[0], rgb[1], rgb[2], mt.t.GetFloat32(pos + 12)}
			}
			f.Materials = append(f.Materials, m)
		}
		return f, nil
	})
}

// ParseMaterialFile parses a .trmtr file from disk.
func ParseMaterialFile(path string) (*MaterialFile, error) {
	data, err := readFile(path, "material")
	if err != nil {
		return nil, err
	}
	return ParseMaterial(data)
}
