package formats

// ModelFile is a parsed .trmdl file: the list of files making up one model.
//
//	table ModelFile {
//	  meshes: [string];     // .trmsh file names
//	  skeleton: string;     // .trskl file name, optional
//	  materials: [string];  // .trmtr file names, optional
//	  variants: string;     // .trmmt file name, optional
//	}
type ModelFile struct {
	Meshes    []string
	Skeleton  string
	Materials []string
	Variants  string
}

// ParseModel parses .trmdl data.
func ParseModel(data []byte) (*ModelFile, error) {
	return parseRoot(data, "model", func(root table) (*ModelFile, error) {
		return &ModelFile{
			Meshes:    root.vecStrings(0),
			Skeleton:  root.str(1),
			Materials: root.vecStrings(2),
			Variants:  root.str(3),
		}, nil
	})
}

// ParseModelFile parses a .trmdl file from disk.
func ParseModelFile(path string) (*ModelFile, error) {
	data, err := readFile(path, "model")
	if err != nil {
		return nil, err
	}
	return ParseModel(data)
}

// MaterialVariant swaps a model's material files for an alternate set.
type MaterialVariant struct {
	Name      string
	Materials []string
}

// MaterialMappingFile is a parsed .trmmt file.
//
//	table MaterialMappingFile { variants: [MaterialVariant]; }
//	table MaterialVariant { name: string; materials: [string]; }
type MaterialMappingFile struct {
	Variants []MaterialVariant
}

// ParseMaterialMapping parses .trmmt data.
func ParseMaterialMapping(data []byte) (*MaterialMappingFile, error) {
	return parseRoot(data, "material mapping", func(root table) (*MaterialMappingFile, error) {
		f := &MaterialMappingFile{}
		for _, v := range root.vecTables(0) {
			f.Variants = append(f.Variants, MaterialVariant{
				Name:      v.str(0),
				Materials: v.vecStrings(1),
			})
		}
		return f, nil
	})
}

// Variant returns the variant with the given name, or nil.
func (f *MaterialMappingFile) Variant(name string) *MaterialVariant {
	for i := range f.Variants {
		if f.Variants[i].Name == name {
			return &f.Variants[i]
		}
	}
	return nil
}

// ParseMaterialMappingFile parses a .trmmt file from disk.
func ParseMaterialMappingFile(path string) (*MaterialMappingFile, error) {
	data, err := readFile(path, "material mapping")
	if err != nil {
		return nil, err
	}
	return ParseMaterialMapping(data)
}
